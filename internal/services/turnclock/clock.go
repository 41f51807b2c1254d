package turnclock

import (
	"log/slog"
	"time"

	"github.com/mcoot/bullscows/internal/dependencies/clock"
	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/services/schedule"
)

// DefaultTurnDuration is how long a player has to guess
const DefaultTurnDuration = 60 * time.Second

// Expiry describes a turn timer that has fired
type Expiry struct {
	RoomID     model.RoomID
	PlayerID   model.PlayerID
	Generation uint64
}

// Clock keeps at most one pending turn timer per room
type Clock struct {
	timers   *schedule.Table[model.RoomID]
	duration time.Duration
	logger   *slog.Logger
}

// New creates a turn clock. A non-positive duration uses DefaultTurnDuration.
func New(clk clock.Clock, duration time.Duration, logger *slog.Logger) *Clock {
	if duration <= 0 {
		duration = DefaultTurnDuration
	}
	return &Clock{
		timers:   schedule.New[model.RoomID](clk),
		duration: duration,
		logger:   logger.With(slog.String("component", "turnclock")),
	}
}

// Arm starts the turn timer for player in room, replacing any timer the
// room already had. onExpire runs on a timer goroutine; it must Claim the
// expiry under the room lock before acting on it.
func (c *Clock) Arm(roomID model.RoomID, playerID model.PlayerID, onExpire func(Expiry)) {
	gen := c.timers.Schedule(roomID, c.duration, func(gen uint64) {
		onExpire(Expiry{RoomID: roomID, PlayerID: playerID, Generation: gen})
	})
	c.logger.Debug("turn timer armed",
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(playerID)),
		slog.Uint64("generation", gen),
		slog.Duration("duration", c.duration))
}

// Cancel stops the room's turn timer, if any
func (c *Clock) Cancel(roomID model.RoomID) {
	if c.timers.Cancel(roomID) {
		c.logger.Debug("turn timer cancelled", slog.String("room_id", string(roomID)))
	}
}

// Claim reports whether exp is still the room's armed timer, consuming it
func (c *Clock) Claim(exp Expiry) bool {
	return c.timers.Claim(exp.RoomID, exp.Generation)
}

// Armed reports whether the room has a pending turn timer
func (c *Clock) Armed(roomID model.RoomID) bool {
	return c.timers.Pending(roomID)
}

// Remaining returns the time left on the room's turn timer
func (c *Clock) Remaining(roomID model.RoomID) time.Duration {
	d, _ := c.timers.Remaining(roomID)
	return d
}

// Duration returns the configured turn length
func (c *Clock) Duration() time.Duration {
	return c.duration
}

// Stop cancels every pending turn timer
func (c *Clock) Stop() {
	c.timers.Stop()
}
