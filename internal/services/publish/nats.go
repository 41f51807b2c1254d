package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mcoot/bullscows/internal/model"
)

// SubjectPrefix is prepended to the room id to form the publish subject
const SubjectPrefix = "bullscows.matches"

// NATSConfig holds NATS connection settings
type NATSConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns settings that reconnect forever
func DefaultNATSConfig(url string) NATSConfig {
	return NATSConfig{
		URL:           url,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// conn is the subset of *nats.Conn the publisher uses
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes match summaries as JSON on
// bullscows.matches.<room>
type NATSPublisher struct {
	nc     conn
	logger *slog.Logger
}

var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to NATS
func NewNATSPublisher(cfg NATSConfig, logger *slog.Logger) (*NATSPublisher, error) {
	logger = logger.With(slog.String("component", "publisher"))
	opts := []nats.Option{
		nats.Name("bullscows-server"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("nats disconnected", slog.String("error", err.Error()))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error("nats error", slog.String("error", err.Error()))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	logger.Info("connected to nats", slog.String("url", nc.ConnectedUrl()))
	return newNATSPublisherWithConn(nc, logger), nil
}

func newNATSPublisherWithConn(nc conn, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{nc: nc, logger: logger}
}

// Subject returns the subject summaries for roomID are published on
func Subject(roomID model.RoomID) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, roomID)
}

func (p *NATSPublisher) PublishMatch(_ context.Context, summary *model.MatchSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal match summary: %w", err)
	}
	if err := p.nc.Publish(Subject(summary.RoomID), data); err != nil {
		return fmt.Errorf("publish match summary: %w", err)
	}
	p.logger.Debug("match summary published", slog.String("room_id", string(summary.RoomID)))
	return nil
}

// Close flushes pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}
