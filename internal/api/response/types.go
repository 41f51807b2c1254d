package response

import (
	"time"

	"github.com/mcoot/bullscows/internal/model"
)

// Health is the response for the health endpoint
type Health struct {
	Status string `json:"status"`
}

// NewRoom is the response after reserving a room code
type NewRoom struct {
	RoomID string `json:"roomId"`
}

// RoomStatus mirrors the roomStatus websocket event, plus lifecycle detail
type RoomStatus struct {
	RoomID      string `json:"roomId"`
	Exists      bool   `json:"exists"`
	IsFull      bool   `json:"isFull"`
	PlayerCount int    `json:"playerCount"`
	State       string `json:"state,omitempty"`
	Phase       string `json:"phase,omitempty"`
}

// RoomStatusFromModel converts model.RoomStatus
func RoomStatusFromModel(id model.RoomID, s model.RoomStatus) RoomStatus {
	return RoomStatus{
		RoomID:      string(id),
		Exists:      s.Exists,
		IsFull:      s.IsFull,
		PlayerCount: s.PlayerCount,
		State:       string(s.State),
		Phase:       string(s.Phase),
	}
}

// Player represents a player in API responses
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p model.Player) Player {
	return Player{ID: string(p.ID), Name: p.Name}
}

// Guess is one line of an archived guess log
type Guess struct {
	PlayerID string    `json:"playerId"`
	Guess    string    `json:"guess"`
	Exact    int       `json:"exact"`
	Partial  int       `json:"partial"`
	At       time.Time `json:"at"`
}

// MatchSummary represents an archived match
type MatchSummary struct {
	Winner     Player    `json:"winner"`
	Players    []Player  `json:"players"`
	Secret     string    `json:"secret"`
	Guesses    []Guess   `json:"guesses"`
	FinishedAt time.Time `json:"finishedAt"`
}

// MatchSummaryFromModel converts model.MatchSummary
func MatchSummaryFromModel(m *model.MatchSummary) MatchSummary {
	players := make([]Player, len(m.Players))
	for i, p := range m.Players {
		players[i] = PlayerFromModel(p)
	}
	guesses := make([]Guess, len(m.Guesses))
	for i, g := range m.Guesses {
		guesses[i] = Guess{
			PlayerID: string(g.PlayerID),
			Guess:    g.Guess,
			Exact:    g.Exact,
			Partial:  g.Partial,
			At:       g.At,
		}
	}
	return MatchSummary{
		Winner:     PlayerFromModel(m.Winner),
		Players:    players,
		Secret:     m.Secret,
		Guesses:    guesses,
		FinishedAt: m.FinishedAt,
	}
}

// History is the response for a room's match history
type History struct {
	RoomID  string         `json:"roomId"`
	Matches []MatchSummary `json:"matches"`
}
