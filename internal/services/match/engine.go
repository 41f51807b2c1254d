package match

import (
	"slices"

	"github.com/mcoot/bullscows/internal/dependencies/clock"
	"github.com/mcoot/bullscows/internal/dependencies/random"
	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/services/secret"
)

// Engine is the state machine for one two-player match.
//
// Engine is not safe for concurrent use; the owning room serializes access.
type Engine struct {
	secrets *secret.Generator
	random  random.Random
	clock   clock.Clock

	players  []model.Player
	current  int
	phase    model.MatchPhase
	practice bool
	secret   string
	log      []model.GuessRecord
	votes    map[model.PlayerID]struct{}
}

// NewEngine creates an engine with an empty roster
func NewEngine(secrets *secret.Generator, random random.Random, clock clock.Clock) *Engine {
	return &Engine{
		secrets: secrets,
		random:  random,
		clock:   clock,
		phase:   model.MatchPhaseForming,
		votes:   make(map[model.PlayerID]struct{}),
	}
}

// AddPlayer adds p to the roster. When the roster becomes full the match
// starts and the randomly chosen starting player is returned.
func (e *Engine) AddPlayer(p model.Player) (*model.Player, error) {
	if len(e.players) >= model.MaxPlayers {
		return nil, model.ErrRoomFull
	}
	for _, existing := range e.players {
		if existing.Name == p.Name && existing.ID != p.ID {
			return nil, model.ErrNameTaken
		}
	}

	e.players = append(e.players, p)
	if len(e.players) < model.MaxPlayers {
		return nil, nil
	}

	e.practice = false
	e.Reset()
	starter := e.players[e.current]
	return &starter, nil
}

// RemovePlayer removes id from the roster, keeping the turn pointer on a
// player still present. Reports whether the player was found.
func (e *Engine) RemovePlayer(id model.PlayerID) bool {
	idx := e.indexOf(id)
	if idx < 0 {
		return false
	}

	e.players = slices.Delete(e.players, idx, idx+1)
	delete(e.votes, id)

	if idx < e.current {
		e.current--
	}
	e.current %= max(1, len(e.players))

	if len(e.players) < model.MaxPlayers && !e.practice {
		e.phase = model.MatchPhaseForming
	}
	if len(e.players) == 0 {
		e.practice = false
		e.phase = model.MatchPhaseForming
	}
	return true
}

// Guess scores text for player id and appends it to the log. The forfeit
// sentinel is accepted without validation and scores zero.
func (e *Engine) Guess(id model.PlayerID, text string) (model.GuessRecord, error) {
	if e.indexOf(id) < 0 {
		return model.GuessRecord{}, model.ErrNotInMatch
	}
	switch e.phase {
	case model.MatchPhaseForming:
		return model.GuessRecord{}, model.ErrMatchNotStarted
	case model.MatchPhaseOver:
		return model.GuessRecord{}, model.ErrMatchOver
	}
	if e.players[e.current].ID != id {
		return model.GuessRecord{}, model.ErrNotYourTurn
	}

	record := model.GuessRecord{
		PlayerID: id,
		Guess:    text,
		At:       e.clock.Now(),
	}
	if text != model.ForfeitGuess {
		if err := secret.ValidateGuess(text); err != nil {
			return model.GuessRecord{}, err
		}
		record.Exact, record.Partial = secret.Score(e.secret, text)
	}

	e.log = append(e.log, record)

	if record.IsWin() {
		e.phase = model.MatchPhaseOver
		return record, nil
	}
	if !e.practice {
		e.current = (e.current + 1) % len(e.players)
	}
	return record, nil
}

// IsOver reports whether the last guess found the secret
func (e *Engine) IsOver() bool {
	return len(e.log) > 0 && e.log[len(e.log)-1].IsWin()
}

// RequestRestart records a restart vote. ready is true once every player
// on the roster has voted; the caller must then call Reset.
func (e *Engine) RequestRestart(id model.PlayerID) (bool, error) {
	if e.indexOf(id) < 0 {
		return false, model.ErrNotInMatch
	}
	if e.phase == model.MatchPhaseForming {
		return false, model.ErrMatchNotStarted
	}
	e.votes[id] = struct{}{}
	for _, p := range e.players {
		if _, ok := e.votes[p.ID]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// HasVoted reports whether id has a pending restart vote
func (e *Engine) HasVoted(id model.PlayerID) bool {
	_, ok := e.votes[id]
	return ok
}

// Reset starts a fresh match with the current roster
func (e *Engine) Reset() {
	e.secret = e.secrets.Generate()
	e.log = nil
	clear(e.votes)
	e.current = 0
	if !e.practice && len(e.players) > 1 {
		e.current = e.random.Intn(len(e.players))
	}
	e.phase = model.MatchPhaseActive
}

// StartPractice lets the sole remaining player continue alone. An
// unfinished match carries on; a finished one is reset.
func (e *Engine) StartPractice() {
	e.practice = true
	clear(e.votes)
	if e.secret == "" || e.IsOver() {
		e.Reset()
	}
	e.phase = model.MatchPhaseActive
	e.current = 0
}

// CurrentPlayer returns whose turn it is, if a match is running
func (e *Engine) CurrentPlayer() (model.Player, bool) {
	if e.phase != model.MatchPhaseActive || len(e.players) == 0 {
		return model.Player{}, false
	}
	if len(e.players) < model.MaxPlayers && !e.practice {
		return model.Player{}, false
	}
	return e.players[e.current], true
}

// Winner returns the player who found the secret, if the match is over
func (e *Engine) Winner() (model.Player, bool) {
	if !e.IsOver() {
		return model.Player{}, false
	}
	return e.Player(e.log[len(e.log)-1].PlayerID)
}

// Player returns the roster entry for id
func (e *Engine) Player(id model.PlayerID) (model.Player, bool) {
	if idx := e.indexOf(id); idx >= 0 {
		return e.players[idx], true
	}
	return model.Player{}, false
}

// Has reports whether id is on the roster
func (e *Engine) Has(id model.PlayerID) bool {
	return e.indexOf(id) >= 0
}

// Opponent returns the other player on a full roster
func (e *Engine) Opponent(id model.PlayerID) (model.Player, bool) {
	for _, p := range e.players {
		if p.ID != id {
			return p, true
		}
	}
	return model.Player{}, false
}

// Players returns a copy of the roster in join order
func (e *Engine) Players() []model.Player {
	return slices.Clone(e.players)
}

// Log returns a copy of the guess log
func (e *Engine) Log() []model.GuessRecord {
	return slices.Clone(e.log)
}

// Secret returns the current secret
func (e *Engine) Secret() string { return e.secret }

// Phase returns the match phase
func (e *Engine) Phase() model.MatchPhase { return e.phase }

// Practice reports whether the engine is in single-player practice
func (e *Engine) Practice() bool { return e.practice }

// IsFull reports whether the roster is at capacity
func (e *Engine) IsFull() bool { return len(e.players) >= model.MaxPlayers }

// Len returns the roster size
func (e *Engine) Len() int { return len(e.players) }

func (e *Engine) indexOf(id model.PlayerID) int {
	return slices.IndexFunc(e.players, func(p model.Player) bool { return p.ID == id })
}
