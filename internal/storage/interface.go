package storage

import (
	"context"

	"github.com/mcoot/bullscows/internal/model"
)

// Storage defines the interface for data persistence.
// Rooms and timers are never persisted; only credentials and match history.
type Storage interface {
	// Credential operations
	SaveToken(ctx context.Context, token *model.SessionToken) error
	GetToken(ctx context.Context, token string) (*model.SessionToken, error)
	GetTokenForPlayer(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.SessionToken, error)
	DeleteToken(ctx context.Context, token string) error

	// Match history operations
	AppendMatchSummary(ctx context.Context, summary *model.MatchSummary) error
	GetMatchSummaries(ctx context.Context, roomID model.RoomID, limit int) ([]*model.MatchSummary, error)
}
