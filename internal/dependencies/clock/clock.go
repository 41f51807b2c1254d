package clock

import "github.com/jonboulle/clockwork"

// Clock provides time and timer operations that can be faked in tests
type Clock = clockwork.Clock

// Timer is a cancelable timer created by a Clock
type Timer = clockwork.Timer

// New returns a Clock backed by the system clock
func New() Clock {
	return clockwork.NewRealClock()
}
