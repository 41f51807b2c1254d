package publish

import (
	"context"
	"log/slog"

	"github.com/mcoot/bullscows/internal/model"
)

// Publisher announces finished matches to the outside world
type Publisher interface {
	PublishMatch(ctx context.Context, summary *model.MatchSummary) error
	Close() error
}

// LogPublisher writes match summaries to the log. Used when no message
// broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

var _ Publisher = (*LogPublisher)(nil)

// NewLogPublisher creates a LogPublisher
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With(slog.String("component", "publisher"))}
}

func (p *LogPublisher) PublishMatch(_ context.Context, summary *model.MatchSummary) error {
	p.logger.Info("match finished",
		slog.String("room_id", string(summary.RoomID)),
		slog.String("winner", summary.Winner.Name),
		slog.Int("guesses", len(summary.Guesses)))
	return nil
}

func (p *LogPublisher) Close() error { return nil }
