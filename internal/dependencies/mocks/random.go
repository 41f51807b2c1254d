package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/bullscows/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Safe for use from timer goroutines.
type MockRandom struct {
	mu sync.Mutex

	// IntnResults is a queue of results to return from Intn
	IntnResults []int
	intnIndex   int

	// StringResults is a queue of results to return from String
	StringResults []string
	stringIndex   int

	// TokenResults and UUIDResults are queues for Token and UUID.
	// When empty, sequential values are generated so results stay unique.
	TokenResults []string
	UUIDResults  []string
	tokenCount   int
	uuidCount    int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result modulo n, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.intnIndex >= len(r.IntnResults) {
		return 0
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	if n > 0 {
		result %= n
	}
	return result
}

// String returns the next queued result, or empty string if none remaining
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stringIndex >= len(r.StringResults) {
		return ""
	}
	result := r.StringResults[r.stringIndex]
	r.stringIndex++
	return result
}

// Token returns the next queued token, or prefix plus a sequence number
func (r *MockRandom) Token(prefix string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokenCount++
	if len(r.TokenResults) > 0 {
		result := r.TokenResults[0]
		r.TokenResults = r.TokenResults[1:]
		return result
	}
	return fmt.Sprintf("%stoken-%d", prefix, r.tokenCount)
}

// UUID returns the next queued id, or "player-N"
func (r *MockRandom) UUID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uuidCount++
	if len(r.UUIDResults) > 0 {
		result := r.UUIDResults[0]
		r.UUIDResults = r.UUIDResults[1:]
		return result
	}
	return fmt.Sprintf("player-%d", r.uuidCount)
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IntnResults = append(r.IntnResults, values...)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StringResults = append(r.StringResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IntnResults = nil
	r.intnIndex = 0
	r.StringResults = nil
	r.stringIndex = 0
	r.TokenResults = nil
	r.UUIDResults = nil
	r.tokenCount = 0
	r.uuidCount = 0
}
