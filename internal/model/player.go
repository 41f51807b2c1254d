package model

// PlayerID is the stable identity of a participant within a room.
// It is issued by the server and survives connection drops.
type PlayerID string

// Player represents a participant in a room
type Player struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
}
