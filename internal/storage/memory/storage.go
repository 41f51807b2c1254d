package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/storage"
)

// DefaultHistoryLimit matches the Redis backend's default per-room cap
const DefaultHistoryLimit = 50

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu           sync.RWMutex
	historyLimit int

	tokens      map[string]*model.SessionToken
	playerIndex map[playerKey]string
	matches     map[model.RoomID][]*model.MatchSummary
}

type playerKey struct {
	roomID   model.RoomID
	playerID model.PlayerID
}

// New creates a new in-memory storage instance keeping DefaultHistoryLimit
// summaries per room
func New() *Storage {
	return NewWithHistoryLimit(DefaultHistoryLimit)
}

// NewWithHistoryLimit creates an in-memory storage instance that keeps at
// most limit summaries per room. A non-positive limit keeps everything.
func NewWithHistoryLimit(limit int) *Storage {
	return &Storage{
		historyLimit: limit,
		tokens:      make(map[string]*model.SessionToken),
		playerIndex: make(map[playerKey]string),
		matches:     make(map[model.RoomID][]*model.MatchSummary),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Credential operations

func (s *Storage) SaveToken(ctx context.Context, token *model.SessionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *token
	s.tokens[token.Token] = &stored
	s.playerIndex[playerKey{token.RoomID, token.PlayerID}] = token.Token
	return nil
}

func (s *Storage) GetToken(ctx context.Context, token string) (*model.SessionToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.tokens[token]
	if !ok {
		return nil, model.ErrInvalidToken
	}
	result := *stored
	return &result, nil
}

func (s *Storage) GetTokenForPlayer(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.SessionToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.playerIndex[playerKey{roomID, playerID}]
	if !ok {
		return nil, model.ErrInvalidToken
	}
	stored, ok := s.tokens[token]
	if !ok {
		return nil, model.ErrInvalidToken
	}
	result := *stored
	return &result, nil
}

func (s *Storage) DeleteToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tokens[token]
	if !ok {
		return nil
	}
	delete(s.tokens, token)
	key := playerKey{stored.RoomID, stored.PlayerID}
	if s.playerIndex[key] == token {
		delete(s.playerIndex, key)
	}
	return nil
}

// Match history operations

func (s *Storage) AppendMatchSummary(ctx context.Context, summary *model.MatchSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := append(s.matches[summary.RoomID], summary)
	if s.historyLimit > 0 && len(stored) > s.historyLimit {
		stored = slices.Clone(stored[len(stored)-s.historyLimit:])
	}
	s.matches[summary.RoomID] = stored
	return nil
}

// GetMatchSummaries returns up to limit summaries for a room, newest first.
// A non-positive limit returns all of them.
func (s *Storage) GetMatchSummaries(ctx context.Context, roomID model.RoomID, limit int) ([]*model.MatchSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.matches[roomID]
	result := make([]*model.MatchSummary, 0, len(stored))
	for _, summary := range slices.Backward(stored) {
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, summary)
	}
	return result, nil
}
