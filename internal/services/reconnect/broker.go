package reconnect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/bullscows/internal/dependencies/clock"
	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/services/credentials"
	"github.com/mcoot/bullscows/internal/services/schedule"
)

// DefaultWindow is how long a dropped player has to come back
const DefaultWindow = 30 * time.Second

// Window is an open reconnection grace period for one room
type Window struct {
	RoomID     model.RoomID
	Awaited    model.Player
	Deadline   time.Time
	Generation uint64
}

// Broker owns the reconnection window of every room. At most one window is
// open per room.
//
// Callers serialize calls for the same room (the room lock); the broker
// only protects its own tables.
type Broker struct {
	credentials *credentials.Store
	clock       clock.Clock
	timers      *schedule.Table[model.RoomID]
	timeout     time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	windows map[model.RoomID]Window
}

// New creates a Broker. A non-positive timeout uses DefaultWindow.
func New(credentials *credentials.Store, clk clock.Clock, timeout time.Duration, logger *slog.Logger) *Broker {
	if timeout <= 0 {
		timeout = DefaultWindow
	}
	return &Broker{
		credentials: credentials,
		clock:       clk,
		timers:      schedule.New[model.RoomID](clk),
		timeout:     timeout,
		logger:      logger.With(slog.String("component", "reconnect")),
		windows:     make(map[model.RoomID]Window),
	}
}

// Open starts the grace window for awaited in roomID and returns the token
// the awaited player must present to resume. Any window already open for
// the room is replaced. onExpire runs on a timer goroutine and must Claim
// the window under the room lock before acting.
func (b *Broker) Open(ctx context.Context, roomID model.RoomID, awaited model.Player, onExpire func(Window)) (Window, *model.SessionToken, error) {
	token, err := b.credentials.IssueOrReuse(ctx, roomID, awaited)
	if err != nil {
		return Window{}, nil, fmt.Errorf("issue reconnection token: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	base := Window{
		RoomID:   roomID,
		Awaited:  awaited,
		Deadline: b.clock.Now().Add(b.timeout),
	}
	gen := b.timers.Schedule(roomID, b.timeout, func(gen uint64) {
		expired := base
		expired.Generation = gen
		onExpire(expired)
	})
	w := base
	w.Generation = gen
	b.windows[roomID] = w

	b.logger.Info("reconnection window opened",
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(awaited.ID)),
		slog.Duration("timeout", b.timeout))
	return w, token, nil
}

// Pending returns the open window for roomID
func (b *Broker) Pending(roomID model.RoomID) (Window, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[roomID]
	return w, ok
}

// Remaining returns the time left in the room's window, or zero
func (b *Broker) Remaining(roomID model.RoomID) time.Duration {
	d, _ := b.timers.Remaining(roomID)
	return d
}

// Resolve applies the remaining player's choice to the room's window.
// Wait leaves the window running; practice and quit close it.
func (b *Broker) Resolve(roomID model.RoomID, choice model.Choice) (Window, error) {
	if !choice.Valid() {
		return Window{}, model.ErrInvalidChoice
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	w, ok := b.windows[roomID]
	if !ok {
		return Window{}, model.ErrNoChoicePending
	}
	if choice != model.ChoiceWait {
		b.closeLocked(roomID)
	}

	b.logger.Info("reconnection choice resolved",
		slog.String("room_id", string(roomID)),
		slog.String("choice", string(choice)))
	return w, nil
}

// Admit checks that token resumes the awaited identity of the room's
// window. On success the window is closed and returned.
func (b *Broker) Admit(ctx context.Context, roomID model.RoomID, token string) (Window, error) {
	w, ok := b.Pending(roomID)
	if !ok {
		return Window{}, model.ErrNoChoicePending
	}

	record, err := b.credentials.Validate(ctx, token, roomID)
	if err != nil {
		if errors.Is(err, model.ErrInvalidToken) {
			return w, model.ErrReconnectionRequired
		}
		return w, err
	}
	if record.PlayerID != w.Awaited.ID {
		return w, model.ErrReconnectionRequired
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	current, ok := b.windows[roomID]
	if !ok || current.Generation != w.Generation {
		return w, model.ErrReconnectionRequired
	}
	b.closeLocked(roomID)

	b.logger.Info("player reconnected",
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(w.Awaited.ID)))
	return w, nil
}

// Claim reports whether w is still the room's open window and, if so,
// closes it so the caller can apply the timeout
func (b *Broker) Claim(w Window) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.windows[w.RoomID]
	if !ok || current.Generation != w.Generation {
		return false
	}
	if !b.timers.Claim(w.RoomID, w.Generation) {
		return false
	}
	delete(b.windows, w.RoomID)
	return true
}

// Cancel closes the room's window without resolving it
func (b *Broker) Cancel(roomID model.RoomID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked(roomID)
}

// Timeout returns the configured window length
func (b *Broker) Timeout() time.Duration {
	return b.timeout
}

// Stop cancels every open window
func (b *Broker) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timers.Stop()
	clear(b.windows)
}

func (b *Broker) closeLocked(roomID model.RoomID) {
	b.timers.Cancel(roomID)
	delete(b.windows, roomID)
}
