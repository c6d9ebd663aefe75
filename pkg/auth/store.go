// Package auth keeps the signed-in user's session for the lifetime of the
// process and persists it between runs.
package auth

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pokedexsocial/pokedex/pkg/data"
)

// SessionRepository persists at most one session
type SessionRepository interface {
	GetSession() (*data.AuthSession, error)
	SaveSession(s *data.AuthSession) error
	DeleteSession() error
}

// Store is the single source of truth for who is logged in.
//
// Until Load has run the store reports Loading() and is not authenticated.
// A session whose JWT has expired counts as logged out.
type Store struct {
	repo   SessionRepository
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	loaded  bool
	session *data.AuthSession
}

func NewStore(repo SessionRepository, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{repo: repo, logger: logger, now: time.Now}
}

// Load reads the persisted session. Calling it again re-reads storage.
func (s *Store) Load() error {
	var (
		session *data.AuthSession
		err     error
	)
	if s.repo != nil {
		session, err = s.repo.GetSession()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true

	if err != nil {
		s.session = nil
		return errors.Wrap(err, "loading session")
	}
	if session != nil && session.Token == "" {
		session = nil
	}
	if session != nil && s.expired(session) {
		s.logger.Info("stored session has expired", zap.String("username", session.Username))
		s.session = nil
		return errors.Wrap(s.repo.DeleteSession(), "removing expired session")
	}
	s.session = session
	if session != nil {
		s.logger.Debug("session restored", zap.String("username", session.Username), zap.Int("userId", session.UserID))
	}
	return nil
}

// expired reports whether the session's token carries an expiry in the past.
// Tokens without one never expire client-side.
func (s *Store) expired(session *data.AuthSession) bool {
	exp, ok := tokenExpiry(session.Token)
	return ok && !s.now().Before(exp)
}

// Login records a new session and persists it
func (s *Store) Login(token string, userID int, username string) error {
	if token == "" {
		return errors.New("empty token")
	}
	session := &data.AuthSession{
		Token:     token,
		UserID:    userID,
		Username:  username,
		CreatedAt: s.now().UTC(),
	}
	if s.repo != nil {
		if err := s.repo.SaveSession(session); err != nil {
			return errors.Wrap(err, "persisting session")
		}
	}

	s.mu.Lock()
	s.session = session
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("logged in", zap.String("username", username), zap.Int("userId", userID))
	return nil
}

// Logout forgets the session. The in-memory session is cleared even if
// storage fails.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	if s.repo == nil {
		return nil
	}
	return errors.Wrap(s.repo.DeleteSession(), "removing session")
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil && !s.expired(s.session)
}

// ExpiresAt returns the token expiry of the current session, if it has one
func (s *Store) ExpiresAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return time.Time{}, false
	}
	return tokenExpiry(s.session.Token)
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.loaded
}

// Session returns a copy of the current session, or nil
func (s *Store) Session() *data.AuthSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

// Token is suitable as a bearer token provider for the API client
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil || s.expired(s.session) {
		return ""
	}
	return s.session.Token
}
