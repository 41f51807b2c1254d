package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/services/publish"
	"github.com/mcoot/bullscows/internal/storage"
)

// DefaultListLimit caps List when no limit is given
const DefaultListLimit = 20

// Recorder archives finished matches and announces them
type Recorder struct {
	storage   storage.Storage
	publisher publish.Publisher
	logger    *slog.Logger
}

// New creates a Recorder
func New(storage storage.Storage, publisher publish.Publisher, logger *slog.Logger) *Recorder {
	return &Recorder{
		storage:   storage,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "history")),
	}
}

// Record stores summary and publishes it. A publish failure does not undo
// the stored summary; both failures are reported.
func (r *Recorder) Record(ctx context.Context, summary *model.MatchSummary) error {
	var errs []error
	if err := r.storage.AppendMatchSummary(ctx, summary); err != nil {
		errs = append(errs, fmt.Errorf("store match summary: %w", err))
	}
	if err := r.publisher.PublishMatch(ctx, summary); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		r.logger.Warn("failed to record match",
			slog.String("room_id", string(summary.RoomID)),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

// List returns up to limit summaries for roomID, newest first
func (r *Recorder) List(ctx context.Context, roomID model.RoomID, limit int) ([]*model.MatchSummary, error) {
	if roomID == "" {
		return nil, model.ErrEmptyRoomID
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	summaries, err := r.storage.GetMatchSummaries(ctx, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("load match summaries: %w", err)
	}
	return summaries, nil
}
