package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/storage/memory"
	"github.com/mcoot/bullscows/internal/testutil"
)

type capturePublisher struct {
	published []*model.MatchSummary
	err       error
}

func (p *capturePublisher) PublishMatch(_ context.Context, summary *model.MatchSummary) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, summary)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

type RecorderSuite struct {
	suite.Suite
	storage   *memory.Storage
	publisher *capturePublisher
	recorder  *Recorder
	ctx       context.Context
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) SetupTest() {
	s.storage = memory.New()
	s.publisher = &capturePublisher{}
	s.recorder = New(s.storage, s.publisher, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *RecorderSuite) summary(secret string) *model.MatchSummary {
	return &model.MatchSummary{
		RoomID:     "r1",
		Winner:     model.Player{ID: "p1", Name: "Alice"},
		Secret:     secret,
		FinishedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *RecorderSuite) TestRecordStoresAndPublishes() {
	summary := s.summary("1234")
	s.Require().NoError(s.recorder.Record(s.ctx, summary))

	s.Equal([]*model.MatchSummary{summary}, s.publisher.published)
	stored, err := s.recorder.List(s.ctx, "r1", 0)
	s.Require().NoError(err)
	s.Require().Len(stored, 1)
	s.Equal("1234", stored[0].Secret)
}

func (s *RecorderSuite) TestRecordKeepsSummaryWhenPublishFails() {
	s.publisher.err = errors.New("broker down")
	err := s.recorder.Record(s.ctx, s.summary("1234"))
	s.ErrorIs(err, s.publisher.err)

	stored, _ := s.recorder.List(s.ctx, "r1", 0)
	s.Len(stored, 1)
}

func (s *RecorderSuite) TestListNewestFirstWithLimit() {
	for _, secret := range []string{"1234", "5678", "9012"} {
		s.Require().NoError(s.recorder.Record(s.ctx, s.summary(secret)))
	}

	stored, err := s.recorder.List(s.ctx, "r1", 2)
	s.Require().NoError(err)
	s.Require().Len(stored, 2)
	s.Equal("9012", stored[0].Secret)
	s.Equal("5678", stored[1].Secret)
}

func (s *RecorderSuite) TestListRequiresRoomID() {
	_, err := s.recorder.List(s.ctx, "", 0)
	s.ErrorIs(err, model.ErrEmptyRoomID)
}
