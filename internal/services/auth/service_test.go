package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/civlobby/internal/dependencies/mocks"
	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.clock, mocks.NewSequentialIDs("user"), DefaultConfig(), testutil.NopLogger())
}

func (s *ServiceSuite) TestCreateGuestSucceeds() {
	session, err := s.service.CreateGuest("  Alice ", "/a.png")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal(model.UserID("user-1"), session.User.ID)
	s.Equal("Alice", session.User.DisplayName)
	s.Equal("/a.png", session.User.AvatarURL)
}

func (s *ServiceSuite) TestCreateGuestValidatesName() {
	_, err := s.service.CreateGuest("", "")
	s.ErrorIs(err, ErrInvalidDisplayName)
	s.Equal(model.KindValidation, model.KindOf(err))

	_, err = s.service.CreateGuest("abcdefghijklmnopqrstuvwxyz0123456789", "")
	s.ErrorIs(err, ErrInvalidDisplayName)
}

func (s *ServiceSuite) TestSessionResolvesUser() {
	session, _ := s.service.CreateGuest("Alice", "")

	user, err := s.service.GetUser(session.Token)
	s.Require().NoError(err)
	s.Equal(session.User.ID, user.ID)
}

func (s *ServiceSuite) TestUnknownTokenRejected() {
	_, err := s.service.ValidateSession("nope")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestSessionExpires() {
	session, _ := s.service.CreateGuest("Alice", "")
	s.clock.Advance(25 * time.Hour)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestInvalidateSession() {
	session, _ := s.service.CreateGuest("Alice", "")
	s.service.InvalidateSession(session.Token)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestCleanExpiredSessions() {
	_, _ = s.service.CreateGuest("Alice", "")
	s.clock.Advance(time.Hour)
	fresh, _ := s.service.CreateGuest("Bob", "")
	s.clock.Advance(23*time.Hour + time.Minute)

	s.Equal(1, s.service.CleanExpiredSessions())
	_, err := s.service.ValidateSession(fresh.Token)
	s.NoError(err)
}
