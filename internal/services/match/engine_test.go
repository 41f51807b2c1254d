package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bullscows/internal/dependencies/mocks"
	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/services/secret"
)

var (
	alice = model.Player{ID: "p1", Name: "Alice"}
	bob   = model.Player{ID: "p2", Name: "Bob"}
)

type EngineSuite struct {
	suite.Suite
	random *mocks.MockRandom
	clock  *mocks.MockClock
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.engine = NewEngine(secret.New(s.random), s.random, s.clock)
}

// startMatch fills the roster with secret "1234" and the given starter index
func (s *EngineSuite) startMatch(starter int) model.Player {
	s.random.QueueIntn(1, 1, 1, 1, starter)
	_, err := s.engine.AddPlayer(alice)
	s.Require().NoError(err)
	first, err := s.engine.AddPlayer(bob)
	s.Require().NoError(err)
	s.Require().NotNil(first)
	s.Require().Equal("1234", s.engine.Secret())
	return *first
}

// AddPlayer tests

func (s *EngineSuite) TestFirstPlayerLeavesMatchForming() {
	starter, err := s.engine.AddPlayer(alice)
	s.Require().NoError(err)
	s.Nil(starter)
	s.Equal(model.MatchPhaseForming, s.engine.Phase())
	_, ok := s.engine.CurrentPlayer()
	s.False(ok)
}

func (s *EngineSuite) TestSecondPlayerStartsMatch() {
	starter := s.startMatch(1)

	s.Equal(bob, starter)
	s.Equal(model.MatchPhaseActive, s.engine.Phase())
	current, ok := s.engine.CurrentPlayer()
	s.True(ok)
	s.Equal(bob, current)
}

func (s *EngineSuite) TestAddPlayerRoomFull() {
	s.startMatch(0)
	_, err := s.engine.AddPlayer(model.Player{ID: "p3", Name: "Carol"})
	s.ErrorIs(err, model.ErrRoomFull)
	s.Equal(2, s.engine.Len())
}

func (s *EngineSuite) TestAddPlayerNameTaken() {
	_, _ = s.engine.AddPlayer(alice)
	_, err := s.engine.AddPlayer(model.Player{ID: "p2", Name: "Alice"})
	s.ErrorIs(err, model.ErrNameTaken)
	s.Equal(1, s.engine.Len())
}

// Guess tests

func (s *EngineSuite) TestWinningGuessEndsMatchForEitherStarter() {
	for starter := range 2 {
		s.Run(string(rune('0'+starter)), func() {
			s.SetupTest()
			first := s.startMatch(starter)

			record, err := s.engine.Guess(first.ID, "1234")
			s.Require().NoError(err)
			s.Equal(4, record.Exact)
			s.Equal(0, record.Partial)
			s.True(s.engine.IsOver())
			s.Equal(model.MatchPhaseOver, s.engine.Phase())

			winner, ok := s.engine.Winner()
			s.True(ok)
			s.Equal(first, winner)
		})
	}
}

func (s *EngineSuite) TestGuessScoresAgainstSecret() {
	// secret 1357
	s.random.QueueIntn(1, 2, 3, 4, 0)
	_, _ = s.engine.AddPlayer(alice)
	_, _ = s.engine.AddPlayer(bob)
	s.Require().Equal("1357", s.engine.Secret())

	record, err := s.engine.Guess(alice.ID, "1234")
	s.Require().NoError(err)
	s.Equal(1, record.Exact)
	s.Equal(1, record.Partial)
	s.Equal(s.clock.Now(), record.At)
}

func (s *EngineSuite) TestTurnAlternatesAfterNonWinningGuesses() {
	s.startMatch(0)

	expected := []model.Player{alice, bob, alice, bob, alice}
	for i, want := range expected {
		current, ok := s.engine.CurrentPlayer()
		s.Require().True(ok)
		s.Require().Equal(want, current, "turn %d", i)
		_, err := s.engine.Guess(current.ID, "5678")
		s.Require().NoError(err)
	}
	s.Len(s.engine.Log(), len(expected))
}

func (s *EngineSuite) TestPointerFixedAfterWin() {
	s.startMatch(0)
	_, _ = s.engine.Guess(alice.ID, "1234")

	_, err := s.engine.Guess(bob.ID, "5678")
	s.ErrorIs(err, model.ErrMatchOver)
	_, err = s.engine.Guess(alice.ID, "1234")
	s.ErrorIs(err, model.ErrMatchOver)
	s.Len(s.engine.Log(), 1)
}

func (s *EngineSuite) TestGuessNotInMatch() {
	s.startMatch(0)
	_, err := s.engine.Guess("stranger", "1234")
	s.ErrorIs(err, model.ErrNotInMatch)
}

func (s *EngineSuite) TestGuessNotYourTurn() {
	s.startMatch(0)
	_, err := s.engine.Guess(bob.ID, "5678")
	s.ErrorIs(err, model.ErrNotYourTurn)
	s.Empty(s.engine.Log())
}

func (s *EngineSuite) TestGuessBeforeMatchStarts() {
	_, _ = s.engine.AddPlayer(alice)
	_, err := s.engine.Guess(alice.ID, "1234")
	s.ErrorIs(err, model.ErrMatchNotStarted)
}

func (s *EngineSuite) TestGuessInvalidFormatDoesNotMutate() {
	s.startMatch(0)
	for _, bad := range []string{"123", "1123", "abcd", ""} {
		_, err := s.engine.Guess(alice.ID, bad)
		s.ErrorIs(err, model.ErrInvalidFormat)
	}
	s.Empty(s.engine.Log())
	current, _ := s.engine.CurrentPlayer()
	s.Equal(alice, current)
}

func (s *EngineSuite) TestForfeitScoresZeroAndAdvances() {
	s.startMatch(0)
	record, err := s.engine.Guess(alice.ID, model.ForfeitGuess)
	s.Require().NoError(err)
	s.True(record.IsForfeit())
	s.Zero(record.Exact)
	s.Zero(record.Partial)

	current, _ := s.engine.CurrentPlayer()
	s.Equal(bob, current)
}

// RemovePlayer tests

func (s *EngineSuite) TestRemovePlayerBeforePointerKeepsTurn() {
	s.startMatch(1)
	s.True(s.engine.RemovePlayer(alice.ID))

	s.Equal([]model.Player{bob}, s.engine.Players())
	s.Equal(model.MatchPhaseForming, s.engine.Phase())
	_, ok := s.engine.CurrentPlayer()
	s.False(ok)

	// Pointer stays valid for a practice continuation
	s.engine.StartPractice()
	current, ok := s.engine.CurrentPlayer()
	s.True(ok)
	s.Equal(bob, current)
}

func (s *EngineSuite) TestRemoveAllPlayers() {
	s.startMatch(1)
	s.True(s.engine.RemovePlayer(bob.ID))
	s.True(s.engine.RemovePlayer(alice.ID))
	s.False(s.engine.RemovePlayer(alice.ID))
	s.Zero(s.engine.Len())
	s.Equal(model.MatchPhaseForming, s.engine.Phase())
}

func (s *EngineSuite) TestRejoinAfterRemovalStartsNewMatch() {
	s.startMatch(0)
	_, _ = s.engine.Guess(alice.ID, "5678")
	s.engine.RemovePlayer(bob.ID)

	carol := model.Player{ID: "p3", Name: "Carol"}
	starter, err := s.engine.AddPlayer(carol)
	s.Require().NoError(err)
	s.NotNil(starter)
	s.Empty(s.engine.Log())
	s.Equal(model.MatchPhaseActive, s.engine.Phase())
}

// Restart tests

func (s *EngineSuite) TestRestartNeedsBothVotes() {
	s.startMatch(0)
	_, _ = s.engine.Guess(alice.ID, "1234")

	ready, err := s.engine.RequestRestart(alice.ID)
	s.Require().NoError(err)
	s.False(ready)
	s.True(s.engine.HasVoted(alice.ID))

	ready, err = s.engine.RequestRestart(alice.ID)
	s.Require().NoError(err)
	s.False(ready)

	ready, err = s.engine.RequestRestart(bob.ID)
	s.Require().NoError(err)
	s.True(ready)
}

func (s *EngineSuite) TestRestartUnknownPlayer() {
	s.startMatch(0)
	_, err := s.engine.RequestRestart("stranger")
	s.ErrorIs(err, model.ErrNotInMatch)
}

func (s *EngineSuite) TestResetClearsMatch() {
	s.startMatch(0)
	_, _ = s.engine.Guess(alice.ID, "1234")
	_, _ = s.engine.RequestRestart(alice.ID)
	_, _ = s.engine.RequestRestart(bob.ID)

	s.random.QueueIntn(9, 8, 7, 6, 1)
	s.engine.Reset()

	s.Equal("9876", s.engine.Secret())
	s.Empty(s.engine.Log())
	s.False(s.engine.HasVoted(alice.ID))
	s.False(s.engine.HasVoted(bob.ID))
	s.Equal(model.MatchPhaseActive, s.engine.Phase())
	s.False(s.engine.IsOver())
	current, _ := s.engine.CurrentPlayer()
	s.Equal(bob, current)
}

// Practice tests

func (s *EngineSuite) TestPracticeKeepsTurn() {
	s.startMatch(1)
	s.engine.RemovePlayer(alice.ID)
	s.engine.StartPractice()

	for range 3 {
		_, err := s.engine.Guess(bob.ID, "5678")
		s.Require().NoError(err)
		current, ok := s.engine.CurrentPlayer()
		s.True(ok)
		s.Equal(bob, current)
	}
	s.Equal(model.MatchPhaseActive, s.engine.Phase())
}

func (s *EngineSuite) TestPracticeContinuesUnfinishedMatch() {
	s.startMatch(0)
	_, _ = s.engine.Guess(alice.ID, "5678")
	s.engine.RemovePlayer(alice.ID)
	s.engine.StartPractice()

	s.Equal("1234", s.engine.Secret())
	s.Len(s.engine.Log(), 1)
	record, err := s.engine.Guess(bob.ID, "1234")
	s.Require().NoError(err)
	s.True(record.IsWin())
	s.True(s.engine.IsOver())
}

func (s *EngineSuite) TestPracticeAfterWinResets() {
	s.startMatch(0)
	_, _ = s.engine.Guess(alice.ID, "1234")
	s.engine.RemovePlayer(bob.ID)

	s.engine.StartPractice()
	s.True(s.engine.Practice())
	s.Equal(model.MatchPhaseActive, s.engine.Phase())
	s.Empty(s.engine.Log())
}

func (s *EngineSuite) TestPracticeEndsWhenOpponentJoins() {
	s.startMatch(0)
	s.engine.RemovePlayer(bob.ID)
	s.engine.StartPractice()

	starter, err := s.engine.AddPlayer(model.Player{ID: "p3", Name: "Carol"})
	s.Require().NoError(err)
	s.NotNil(starter)
	s.False(s.engine.Practice())
}
