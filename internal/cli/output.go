package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case NewRoomResult:
		fmt.Printf("Room: %s\n", v.RoomID)
	case RoomStatus:
		o.printRoomStatus(v)
	case History:
		o.printHistory(v)
	case HealthResult:
		fmt.Printf("Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// NewRoomResult response type
type NewRoomResult struct {
	RoomID string `json:"roomId"`
}

// RoomStatus response type
type RoomStatus struct {
	RoomID      string `json:"roomId"`
	Exists      bool   `json:"exists"`
	IsFull      bool   `json:"isFull"`
	PlayerCount int    `json:"playerCount"`
	State       string `json:"state,omitempty"`
	Phase       string `json:"phase,omitempty"`
}

// Player response type
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Guess response type
type Guess struct {
	PlayerID string    `json:"playerId"`
	Guess    string    `json:"guess"`
	Exact    int       `json:"exact"`
	Partial  int       `json:"partial"`
	At       time.Time `json:"at"`
}

// MatchSummary response type
type MatchSummary struct {
	Winner     Player    `json:"winner"`
	Players    []Player  `json:"players"`
	Secret     string    `json:"secret"`
	Guesses    []Guess   `json:"guesses"`
	FinishedAt time.Time `json:"finishedAt"`
}

// History response type
type History struct {
	RoomID  string         `json:"roomId"`
	Matches []MatchSummary `json:"matches"`
}

func (o *Output) printRoomStatus(s RoomStatus) {
	fmt.Printf("Room: %s\n", s.RoomID)
	if !s.Exists {
		fmt.Println("Status: not open (the first player to join creates it)")
		return
	}
	fmt.Printf("State: %s\n", s.State)
	fmt.Printf("Players: %d/2\n", s.PlayerCount)
	if s.Phase != "" {
		fmt.Printf("Match: %s\n", s.Phase)
	}
}

func (o *Output) printHistory(h History) {
	if len(h.Matches) == 0 {
		fmt.Printf("No finished matches in room %s\n", h.RoomID)
		return
	}
	fmt.Printf("Matches in room %s (%d):\n", h.RoomID, len(h.Matches))
	for _, m := range h.Matches {
		names := make([]string, len(m.Players))
		for i, p := range m.Players {
			names[i] = p.Name
		}
		fmt.Printf("  - %s  %s won in %d guesses (secret %s) [%s]\n",
			m.FinishedAt.Local().Format("2006-01-02 15:04"),
			m.Winner.Name, len(m.Guesses), m.Secret, strings.Join(names, " vs "))
	}
}
