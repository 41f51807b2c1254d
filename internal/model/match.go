package model

import "time"

// SecretLength is the number of digits in a secret and in every guess
const SecretLength = 4

// ForfeitGuess is recorded in place of a guess when a turn times out
const ForfeitGuess = "timeout"

// GuessRecord is one entry in a match's guess log
type GuessRecord struct {
	PlayerID PlayerID  `json:"player_id"`
	Guess    string    `json:"guess"`
	Exact    int       `json:"exact"`
	Partial  int       `json:"partial"`
	At       time.Time `json:"at"`
}

// IsWin reports whether the record ends the match
func (g GuessRecord) IsWin() bool {
	return g.Exact == SecretLength
}

// IsForfeit reports whether the record is a timed-out turn
func (g GuessRecord) IsForfeit() bool {
	return g.Guess == ForfeitGuess
}

// MatchSummary is the archived result of a won match
type MatchSummary struct {
	RoomID     RoomID        `json:"room_id"`
	Winner     Player        `json:"winner"`
	Players    []Player      `json:"players"`
	Secret     string        `json:"secret"`
	Guesses    []GuessRecord `json:"guesses"`
	FinishedAt time.Time     `json:"finished_at"`
}
