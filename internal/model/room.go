package model

import "time"

// RoomID identifies a room. Supplied by clients or generated by the server.
type RoomID string

// MaxPlayers is the roster capacity of a room
const MaxPlayers = 2

// RoomState tracks the lifecycle of a room
type RoomState string

const (
	RoomStateForming           RoomState = "forming"            // fewer than two players
	RoomStateActive            RoomState = "active"             // two players, match running or just finished
	RoomStateAwaitingReconnect RoomState = "awaiting_reconnect" // one player dropped, window open
	RoomStatePractice          RoomState = "practice"           // sole player continues alone
	RoomStateTerminated        RoomState = "terminated"         // removed from the registry
)

// MatchPhase is the phase of the match held by a room
type MatchPhase string

const (
	MatchPhaseForming MatchPhase = "forming"
	MatchPhaseActive  MatchPhase = "active"
	MatchPhaseOver    MatchPhase = "over"
)

// Choice is the remaining player's answer when their opponent drops
type Choice string

const (
	ChoiceWait     Choice = "wait"
	ChoicePractice Choice = "practice"
	ChoiceQuit     Choice = "quit"
)

// Valid reports whether c is one of the known choices
func (c Choice) Valid() bool {
	switch c {
	case ChoiceWait, ChoicePractice, ChoiceQuit:
		return true
	}
	return false
}

// RoomStatus is a side-effect free snapshot of a room
type RoomStatus struct {
	Exists      bool
	IsFull      bool
	PlayerCount int
	State       RoomState
	Phase       MatchPhase
}

// SessionToken is a reconnection credential bound to one identity in one room
type SessionToken struct {
	Token    string    `json:"token"`
	RoomID   RoomID    `json:"room_id"`
	PlayerID PlayerID  `json:"player_id"`
	Name     string    `json:"name"`
	IssuedAt time.Time `json:"issued_at"`
}
