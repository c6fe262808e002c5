package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mcoot/civlobby/internal/dependencies/clock"
	"github.com/mcoot/civlobby/internal/dependencies/ids"
	"github.com/mcoot/civlobby/internal/dependencies/random"
	"github.com/mcoot/civlobby/internal/model"
)

const maxDisplayNameLength = 32

// Errors
var (
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrInvalidDisplayName = model.NewError(model.KindValidation,
		fmt.Sprintf("display name must be 1-%d characters", maxDisplayNameLength))
)

// Session represents an authenticated session
type Session struct {
	Token     string
	User      model.User
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Service is a minimal identity provider. It issues opaque guest session
// tokens and resolves them back to a user. Sessions live in memory.
type Service struct {
	clock  clock.Clock
	ids    ids.Generator
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new auth Service
func New(clock clock.Clock, ids ids.Generator, cfg Config, logger *slog.Logger) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		clock:           clock,
		ids:             ids,
		logger:          logger.With(slog.String("component", "auth-service")),
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
	}
}

// CreateGuest creates an anonymous user and a session for them
func (s *Service) CreateGuest(displayName, avatarURL string) (*Session, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" || utf8.RuneCountInString(displayName) > maxDisplayNameLength {
		return nil, ErrInvalidDisplayName
	}

	user := model.User{
		ID:          model.UserID(s.ids.NewID()),
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		CreatedAt:   s.clock.Now(),
	}
	session, err := s.createSession(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("guest session created", slog.String("user_id", string(user.ID)))
	return session, nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.InvalidateSession(token)
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// GetUser returns the user for a session token
func (s *Service) GetUser(token string) (*model.User, error) {
	session, err := s.ValidateSession(token)
	if err != nil {
		return nil, err
	}
	user := session.User
	return &user, nil
}

func (s *Service) createSession(user model.User) (*Session, error) {
	token, err := random.Token(24)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	session := &Session{
		Token:     "sess_" + token,
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session, nil
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}
