package model

import (
	"encoding/json"
	"fmt"
)

// EventName identifies the type of a message exchanged with a connection
type EventName string

const (
	// Inbound events
	EventJoinRoom        EventName = "joinRoom"
	EventSubmitGuess     EventName = "submitGuess"
	EventRequestRestart  EventName = "requestRestart"
	EventLeaveRoom       EventName = "leaveRoom"
	EventResolveChoice   EventName = "resolveChoice"
	EventCheckRoomStatus EventName = "checkRoomStatus"

	// Outbound events
	EventJoined                   EventName = "joined"
	EventPlayerArrived            EventName = "playerArrived"
	EventMatchReady               EventName = "matchReady"
	EventYourTurn                 EventName = "yourTurn"
	EventOpponentsTurn            EventName = "opponentsTurn"
	EventGuessRecorded            EventName = "guessRecorded"
	EventMatchOver                EventName = "matchOver"
	EventRestartPending           EventName = "restartPending"
	EventOpponentRequestedRestart EventName = "opponentRequestedRestart"
	EventMatchRestarted           EventName = "matchRestarted"
	EventOpponentLeft             EventName = "opponentLeft"
	EventLeftRoom                 EventName = "leftRoom"
	EventAwaitingReconnect        EventName = "awaitingReconnect"
	EventPracticeStarted          EventName = "practiceStarted"
	EventReconnected              EventName = "reconnected"
	EventOpponentReconnected      EventName = "opponentReconnected"
	EventReconnectionRequired     EventName = "reconnectionRequired"
	EventReconnectionTimedOut     EventName = "reconnectionTimedOut"
	EventRoomStatus               EventName = "roomStatus"
	EventError                    EventName = "error"
)

// Envelope is the wire frame for every message in both directions
type Envelope struct {
	Type    EventName       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload into an envelope of the given type
func NewEnvelope(event EventName, payload any) (Envelope, error) {
	env := Envelope{Type: event}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	env.Payload = data
	return env, nil
}

// Decode unmarshals the envelope payload into v
func (e Envelope) Decode(v any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// Inbound payloads

// JoinRoomPayload is sent by a client to join or create a room
type JoinRoomPayload struct {
	RoomID RoomID `json:"roomId"`
	Name   string `json:"name"`
	Token  string `json:"token,omitempty"`
}

// SubmitGuessPayload carries a guess for the current turn
type SubmitGuessPayload struct {
	Guess string `json:"guess"`
}

// ResolveChoicePayload answers an opponentLeft prompt
type ResolveChoicePayload struct {
	Choice Choice `json:"choice"`
}

// CheckRoomStatusPayload probes a room without joining it
type CheckRoomStatusPayload struct {
	RoomID RoomID `json:"roomId"`
}

// Outbound payloads

type JoinedPayload struct {
	RoomID   RoomID   `json:"roomId"`
	PlayerID PlayerID `json:"playerId"`
	Players  []Player `json:"players"`
	IsFull   bool     `json:"isFull"`
	Token    string   `json:"token"`
}

type PlayerArrivedPayload struct {
	Player  Player   `json:"player"`
	Players []Player `json:"players"`
}

// YourTurnPayload tells a player it is their turn.
// TimeLeft is in seconds; zero means the turn is not timed.
type YourTurnPayload struct {
	TimeLeft int `json:"timeLeft"`
}

type OpponentsTurnPayload struct {
	Player Player `json:"player"`
}

type GuessRecordedPayload struct {
	Player  Player `json:"player"`
	Guess   string `json:"guess"`
	Exact   int    `json:"exact"`
	Partial int    `json:"partial"`
}

type MatchOverPayload struct {
	Winner  Player        `json:"winner"`
	Secret  string        `json:"secret"`
	Guesses []GuessRecord `json:"guesses"`
}

type OpponentRequestedRestartPayload struct {
	Name string `json:"name"`
}

type OpponentLeftPayload struct {
	Name string `json:"name"`
}

// AwaitingReconnectPayload confirms the window is open. Timeout is in seconds.
type AwaitingReconnectPayload struct {
	Name    string `json:"name"`
	Timeout int    `json:"timeout"`
}

type PracticeStartedPayload struct {
	Players []Player `json:"players"`
}

type ReconnectedPayload struct {
	RoomID     RoomID     `json:"roomId"`
	PlayerID   PlayerID   `json:"playerId"`
	Players    []Player   `json:"players"`
	MatchPhase MatchPhase `json:"matchPhase"`
	Token      string     `json:"token"`
}

type OpponentReconnectedPayload struct {
	Name string `json:"name"`
}

type ReconnectionRequiredPayload struct {
	AwaitedName string `json:"awaitedName"`
}

type RoomStatusPayload struct {
	RoomID      RoomID `json:"roomId"`
	Exists      bool   `json:"exists"`
	IsFull      bool   `json:"isFull"`
	PlayerCount int    `json:"playerCount"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorPayload builds the error payload for err
func NewErrorPayload(err error) ErrorPayload {
	code := Code(err)
	if code == CodeInternalError {
		return ErrorPayload{Code: code, Message: "internal error"}
	}
	return ErrorPayload{Code: code, Message: err.Error()}
}
