package credentials

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bullscows/internal/dependencies/mocks"
	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/storage/memory"
	"github.com/mcoot/bullscows/internal/testutil"
)

var alice = model.Player{ID: "p1", Name: "Alice"}

type StoreSuite struct {
	suite.Suite
	clock  *mocks.MockClock
	random *mocks.MockRandom
	store  *Store
	ctx    context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.store = New(memory.New(), s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *StoreSuite) TestIssueBindsRoomAndPlayer() {
	token, err := s.store.Issue(s.ctx, "r1", alice)
	s.Require().NoError(err)

	s.Equal("rt_token-1", token.Token)
	s.Equal(model.RoomID("r1"), token.RoomID)
	s.Equal(alice.ID, token.PlayerID)
	s.Equal("Alice", token.Name)
	s.Equal(s.clock.Now(), token.IssuedAt)
}

func (s *StoreSuite) TestValidate() {
	token, _ := s.store.Issue(s.ctx, "r1", alice)

	record, err := s.store.Validate(s.ctx, token.Token, "r1")
	s.Require().NoError(err)
	s.Equal(alice.ID, record.PlayerID)
}

func (s *StoreSuite) TestValidateWrongRoom() {
	token, _ := s.store.Issue(s.ctx, "r1", alice)
	_, err := s.store.Validate(s.ctx, token.Token, "r2")
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *StoreSuite) TestValidateUnknownOrEmpty() {
	_, err := s.store.Validate(s.ctx, "rt_nope", "r1")
	s.ErrorIs(err, model.ErrInvalidToken)
	_, err = s.store.Validate(s.ctx, "", "r1")
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *StoreSuite) TestTokensDoNotExpireWithTime() {
	token, _ := s.store.Issue(s.ctx, "r1", alice)
	s.clock.Advance(365 * 24 * time.Hour)

	_, err := s.store.Validate(s.ctx, token.Token, "r1")
	s.NoError(err)
}

func (s *StoreSuite) TestIssueOrReuseReturnsExisting() {
	first, _ := s.store.IssueOrReuse(s.ctx, "r1", alice)
	second, err := s.store.IssueOrReuse(s.ctx, "r1", alice)
	s.Require().NoError(err)
	s.Equal(first.Token, second.Token)

	// A different room gets its own token
	other, _ := s.store.IssueOrReuse(s.ctx, "r2", alice)
	s.NotEqual(first.Token, other.Token)
}

func (s *StoreSuite) TestInvalidate() {
	token, _ := s.store.Issue(s.ctx, "r1", alice)
	s.Require().NoError(s.store.Invalidate(s.ctx, token.Token))
	s.Require().NoError(s.store.Invalidate(s.ctx, token.Token))

	_, err := s.store.Validate(s.ctx, token.Token, "r1")
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *StoreSuite) TestInvalidatePlayer() {
	token, _ := s.store.Issue(s.ctx, "r1", alice)
	s.Require().NoError(s.store.InvalidatePlayer(s.ctx, "r1", alice.ID))
	s.Require().NoError(s.store.InvalidatePlayer(s.ctx, "r1", alice.ID))

	_, err := s.store.Validate(s.ctx, token.Token, "r1")
	s.ErrorIs(err, model.ErrInvalidToken)
}
