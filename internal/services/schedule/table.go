package schedule

import (
	"sync"
	"time"

	"github.com/mcoot/bullscows/internal/dependencies/clock"
)

// Table holds at most one pending one-shot timer per key.
//
// Every scheduled timer gets a generation number. Scheduling or cancelling
// a key invalidates older generations, and a firing callback must Claim
// its generation before acting. A timer whose Stop lost the race against
// its own expiry therefore cannot act on newer state.
type Table[K comparable] struct {
	clock clock.Clock

	mu      sync.Mutex
	entries map[K]entry
	nextGen uint64
}

type entry struct {
	gen      uint64
	timer    clock.Timer
	deadline time.Time
}

// New creates an empty Table driven by clk
func New[K comparable](clk clock.Clock) *Table[K] {
	return &Table[K]{
		clock:   clk,
		entries: make(map[K]entry),
	}
}

// Schedule replaces any pending timer for key with one that calls fire
// after d. fire runs on its own goroutine and receives the generation to
// pass to Claim.
func (t *Table[K]) Schedule(key K, d time.Duration, fire func(gen uint64)) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.entries[key]; ok {
		existing.timer.Stop()
	}

	t.nextGen++
	gen := t.nextGen
	timer := t.clock.AfterFunc(d, func() { fire(gen) })
	t.entries[key] = entry{
		gen:      gen,
		timer:    timer,
		deadline: t.clock.Now().Add(d),
	}
	return gen
}

// Cancel stops the pending timer for key. Reports whether one was pending.
func (t *Table[K]) Cancel(key K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, ok := t.entries[key]
	if !ok {
		return false
	}
	existing.timer.Stop()
	delete(t.entries, key)
	return true
}

// Claim removes the entry for key if it still belongs to gen. Reports
// whether the caller owns the expiry.
func (t *Table[K]) Claim(key K, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, ok := t.entries[key]
	if !ok || existing.gen != gen {
		return false
	}
	delete(t.entries, key)
	return true
}

// Pending reports whether a timer is scheduled for key
func (t *Table[K]) Pending(key K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[key]
	return ok
}

// Remaining returns the time left before the timer for key fires
func (t *Table[K]) Remaining(key K) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, ok := t.entries[key]
	if !ok {
		return 0, false
	}
	return max(0, existing.deadline.Sub(t.clock.Now())), true
}

// Len returns the number of pending timers
func (t *Table[K]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Stop cancels every pending timer
func (t *Table[K]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, existing := range t.entries {
		existing.timer.Stop()
		delete(t.entries, key)
	}
}
