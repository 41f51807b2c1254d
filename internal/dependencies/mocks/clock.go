package mocks

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcoot/bullscows/internal/dependencies/clock"
)

// MockClock is a manually advanced clock for tests. Timers created from it
// only fire when Advance moves past their deadline.
type MockClock struct {
	*clockwork.FakeClock
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{FakeClock: clockwork.NewFakeClockAt(t)}
}
