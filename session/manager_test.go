package session_test

import (
	"testing"
	"time"

	"github.com/prashantdagar001/automation-api/config"
	"github.com/prashantdagar001/automation-api/errors"
	"github.com/prashantdagar001/automation-api/internal/mylog"
	"github.com/prashantdagar001/automation-api/internal/mytesting"
	"github.com/prashantdagar001/automation-api/session"
	"github.com/stretchr/testify/suite"
	"gorm.io/datatypes"
)

type SessionTestSuite struct {
	mytesting.Suite

	manager session.Manager
}

func (s *SessionTestSuite) SetupTest() {
	s.Suite.SetupTest()

	manager, err := session.NewManager(&config.SessionConfig{
		SqlitePath: ":memory:",
		MaxAge:     time.Hour,
		MaxHistory: 3,
	}, mylog.NewLogger("debug", "default"))
	s.Require().NoError(err)
	s.manager = manager
}

func (s *SessionTestSuite) TearDownTest() {
	if s.manager != nil {
		s.Require().NoError(s.manager.Close())
	}
	s.Suite.TearDownTest()
}

func TestSession(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func (s *SessionTestSuite) interaction(prompt string, success bool) session.Interaction {
	return session.Interaction{
		Prompt:       prompt,
		FunctionName: "sysinfo.get_cpu_usage",
		Success:      success,
		Result:       datatypes.NewJSONType[any](map[string]any{"success": success}),
	}
}

func (s *SessionTestSuite) TestCreateAndGet() {
	sess, err := s.manager.CreateSession(s)
	s.Require().NoError(err)
	s.Require().NotEmpty(sess.ID)

	found, err := s.manager.GetSession(s, sess.ID)
	s.Require().NoError(err)
	s.Require().Equal(sess.ID, found.ID)

	_, err = s.manager.GetSession(s, "no-such-session")
	s.Require().ErrorIs(err, errors.ErrNotFound)
}

func (s *SessionTestSuite) TestHistoryOrderAndGrowth() {
	sess, err := s.manager.CreateSession(s)
	s.Require().NoError(err)

	history, err := s.manager.GetHistory(s, sess.ID)
	s.Require().NoError(err)
	s.Require().Empty(history)

	s.Require().NoError(s.manager.AddInteraction(s, sess.ID, s.interaction("first", true)))
	s.Require().NoError(s.manager.AddInteraction(s, sess.ID, s.interaction("second", false)))

	history, err = s.manager.GetHistory(s, sess.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Require().Equal("first", history[0].Prompt)
	s.Require().Equal("second", history[1].Prompt)
}

func (s *SessionTestSuite) TestHistoryTrimsOldestFirst() {
	sess, err := s.manager.CreateSession(s)
	s.Require().NoError(err)

	for _, prompt := range []string{"one", "two", "three", "four", "five"} {
		s.Require().NoError(s.manager.AddInteraction(s, sess.ID, s.interaction(prompt, true)))
	}

	history, err := s.manager.GetHistory(s, sess.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 3)
	s.Require().Equal("three", history[0].Prompt)
	s.Require().Equal("five", history[2].Prompt)
}

func (s *SessionTestSuite) TestAddInteractionUnknownSession() {
	err := s.manager.AddInteraction(s, "no-such-session", s.interaction("x", true))
	s.Require().ErrorIs(err, errors.ErrNotFound)
}

func (s *SessionTestSuite) TestRecentSuccesses() {
	sess, err := s.manager.CreateSession(s)
	s.Require().NoError(err)

	s.Require().NoError(s.manager.AddInteraction(s, sess.ID, s.interaction("ok-1", true)))
	s.Require().NoError(s.manager.AddInteraction(s, sess.ID, s.interaction("bad", false)))
	s.Require().NoError(s.manager.AddInteraction(s, sess.ID, s.interaction("ok-2", true)))

	recent, err := s.manager.RecentSuccesses(s, sess.ID, 3)
	s.Require().NoError(err)
	s.Require().Len(recent, 2)
	s.Require().Equal("ok-1", recent[0].Prompt)
	s.Require().Equal("ok-2", recent[1].Prompt)

	recent, err = s.manager.RecentSuccesses(s, sess.ID, 1)
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Require().Equal("ok-2", recent[0].Prompt)
}

func (s *SessionTestSuite) TestCleanupRemovesOnlyStaleSessions() {
	stale, err := s.manager.CreateSession(s)
	s.Require().NoError(err)

	time.Sleep(50 * time.Millisecond)

	fresh, err := s.manager.CreateSession(s)
	s.Require().NoError(err)

	removed, err := s.manager.Cleanup(s, 25*time.Millisecond)
	s.Require().NoError(err)
	s.Require().Equal(1, removed)

	_, err = s.manager.GetSession(s, stale.ID)
	s.Require().ErrorIs(err, errors.ErrNotFound)

	_, err = s.manager.GetSession(s, fresh.ID)
	s.Require().NoError(err)

	// Idempotent: nothing stale remains at a generous age.
	removed, err = s.manager.Cleanup(s, time.Hour)
	s.Require().NoError(err)
	s.Require().Zero(removed)
}

func (s *SessionTestSuite) TestCleanupDeletesHistory() {
	sess, err := s.manager.CreateSession(s)
	s.Require().NoError(err)
	s.Require().NoError(s.manager.AddInteraction(s, sess.ID, s.interaction("x", true)))

	time.Sleep(10 * time.Millisecond)
	removed, err := s.manager.Cleanup(s, time.Millisecond)
	s.Require().NoError(err)
	s.Require().Equal(1, removed)

	_, err = s.manager.GetHistory(s, sess.ID)
	s.Require().ErrorIs(err, errors.ErrNotFound)
}
