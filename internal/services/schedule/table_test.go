package schedule

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bullscows/internal/dependencies/mocks"
)

const settle = time.Second

type TableSuite struct {
	suite.Suite
	clock *mocks.MockClock
	table *Table[string]

	mu    sync.Mutex
	fired []uint64
}

func TestTableSuite(t *testing.T) {
	suite.Run(t, new(TableSuite))
}

func (s *TableSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.table = New[string](s.clock)
	s.mu.Lock()
	s.fired = nil
	s.mu.Unlock()
}

// record claims the expiry and records it, mirroring how callers use Claim
func (s *TableSuite) record(key string) func(uint64) {
	return func(gen uint64) {
		if !s.table.Claim(key, gen) {
			return
		}
		s.mu.Lock()
		s.fired = append(s.fired, gen)
		s.mu.Unlock()
	}
}

func (s *TableSuite) firedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fired)
}

func (s *TableSuite) TestFiresAfterDuration() {
	gen := s.table.Schedule("r1", 10*time.Second, s.record("r1"))

	s.clock.Advance(9 * time.Second)
	s.Never(func() bool { return s.firedCount() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	s.clock.Advance(time.Second)
	s.Eventually(func() bool { return s.firedCount() == 1 }, settle, 5*time.Millisecond)
	s.Equal([]uint64{gen}, s.fired)
	s.False(s.table.Pending("r1"))
}

func (s *TableSuite) TestScheduleReplacesPrevious() {
	first := s.table.Schedule("r1", 10*time.Second, s.record("r1"))
	second := s.table.Schedule("r1", 20*time.Second, s.record("r1"))
	s.NotEqual(first, second)
	s.Equal(1, s.table.Len())

	s.clock.Advance(20 * time.Second)
	s.Eventually(func() bool { return s.firedCount() == 1 }, settle, 5*time.Millisecond)
	s.Equal([]uint64{second}, s.fired)
}

func (s *TableSuite) TestCancelIsIdempotent() {
	s.table.Schedule("r1", 10*time.Second, s.record("r1"))
	s.True(s.table.Cancel("r1"))
	s.False(s.table.Cancel("r1"))

	s.clock.Advance(time.Minute)
	s.Never(func() bool { return s.firedCount() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func (s *TableSuite) TestStaleGenerationCannotClaim() {
	first := s.table.Schedule("r1", 10*time.Second, func(uint64) {})
	s.table.Schedule("r1", 10*time.Second, func(uint64) {})

	s.False(s.table.Claim("r1", first))
	s.True(s.table.Pending("r1"))
}

func (s *TableSuite) TestKeysAreIndependent() {
	s.table.Schedule("r1", 10*time.Second, s.record("r1"))
	s.table.Schedule("r2", 30*time.Second, s.record("r2"))

	s.clock.Advance(10 * time.Second)
	s.Eventually(func() bool { return s.firedCount() == 1 }, settle, 5*time.Millisecond)
	s.True(s.table.Pending("r2"))

	remaining, ok := s.table.Remaining("r2")
	s.True(ok)
	s.Equal(20*time.Second, remaining)
}

func (s *TableSuite) TestStopCancelsEverything() {
	s.table.Schedule("r1", 10*time.Second, s.record("r1"))
	s.table.Schedule("r2", 10*time.Second, s.record("r2"))
	s.table.Stop()
	s.Zero(s.table.Len())

	s.clock.Advance(time.Minute)
	s.Never(func() bool { return s.firedCount() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}
