package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/bullscows/internal/dependencies/clock"
	"github.com/mcoot/bullscows/internal/dependencies/random"
	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/storage"
)

// TokenPrefix marks reconnection tokens
const TokenPrefix = "rt_"

// Store issues and validates reconnection tokens. Tokens never expire by
// time; they are removed only by Invalidate.
type Store struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// New creates a new credential Store
func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Store {
	return &Store{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "credentials")),
	}
}

// Issue creates a new token binding player to roomID
func (s *Store) Issue(ctx context.Context, roomID model.RoomID, player model.Player) (*model.SessionToken, error) {
	token := &model.SessionToken{
		Token:    s.random.Token(TokenPrefix),
		RoomID:   roomID,
		PlayerID: player.ID,
		Name:     player.Name,
		IssuedAt: s.clock.Now(),
	}
	if err := s.storage.SaveToken(ctx, token); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}

	s.logger.Debug("token issued",
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(player.ID)))
	return token, nil
}

// IssueOrReuse returns the token player already holds for roomID, issuing
// one if there is none
func (s *Store) IssueOrReuse(ctx context.Context, roomID model.RoomID, player model.Player) (*model.SessionToken, error) {
	existing, err := s.storage.GetTokenForPlayer(ctx, roomID, player.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, model.ErrInvalidToken) {
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	return s.Issue(ctx, roomID, player)
}

// Validate returns the record for token if it is bound to roomID
func (s *Store) Validate(ctx context.Context, token string, roomID model.RoomID) (*model.SessionToken, error) {
	if token == "" {
		return nil, model.ErrInvalidToken
	}
	stored, err := s.storage.GetToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if stored.RoomID != roomID {
		return nil, model.ErrInvalidToken
	}
	return stored, nil
}

// Invalidate removes token. Unknown tokens are ignored.
func (s *Store) Invalidate(ctx context.Context, token string) error {
	if err := s.storage.DeleteToken(ctx, token); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// InvalidatePlayer removes whatever token playerID holds for roomID
func (s *Store) InvalidatePlayer(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) error {
	existing, err := s.storage.GetTokenForPlayer(ctx, roomID, playerID)
	if errors.Is(err, model.ErrInvalidToken) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup token: %w", err)
	}

	s.logger.Debug("token invalidated",
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(playerID)))
	return s.Invalidate(ctx, existing.Token)
}
