package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/testutil"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	drained  bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return nil
}

func (c *fakeConn) Drain() error {
	c.drained = true
	return nil
}

type PublisherSuite struct {
	suite.Suite
	conn    *fakeConn
	summary *model.MatchSummary
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.conn = &fakeConn{}
	alice := model.Player{ID: "p1", Name: "Alice"}
	s.summary = &model.MatchSummary{
		RoomID:     "r1",
		Winner:     alice,
		Players:    []model.Player{alice, {ID: "p2", Name: "Bob"}},
		Secret:     "1234",
		Guesses:    []model.GuessRecord{{PlayerID: "p1", Guess: "1234", Exact: 4}},
		FinishedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *PublisherSuite) TestSubject() {
	s.Equal("bullscows.matches.r1", Subject("r1"))
}

func (s *PublisherSuite) TestNATSPublishesJSONOnRoomSubject() {
	p := newNATSPublisherWithConn(s.conn, testutil.NopLogger())
	s.Require().NoError(p.PublishMatch(context.Background(), s.summary))

	s.Equal([]string{"bullscows.matches.r1"}, s.conn.subjects)
	var decoded model.MatchSummary
	s.Require().NoError(json.Unmarshal(s.conn.payloads[0], &decoded))
	s.Equal(*s.summary, decoded)
}

func (s *PublisherSuite) TestNATSWrapsPublishError() {
	s.conn.err = errors.New("connection closed")
	p := newNATSPublisherWithConn(s.conn, testutil.NopLogger())

	err := p.PublishMatch(context.Background(), s.summary)
	s.ErrorIs(err, s.conn.err)
}

func (s *PublisherSuite) TestNATSCloseDrains() {
	p := newNATSPublisherWithConn(s.conn, testutil.NopLogger())
	s.Require().NoError(p.Close())
	s.True(s.conn.drained)
}

func (s *PublisherSuite) TestLogPublisher() {
	p := NewLogPublisher(testutil.NopLogger())
	s.NoError(p.PublishMatch(context.Background(), s.summary))
	s.NoError(p.Close())
}
