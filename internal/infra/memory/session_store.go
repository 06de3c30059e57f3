package memory

import (
	"context"
	"sync"

	"telegram-itmo-schedule/internal/domain"
	"telegram-itmo-schedule/internal/domain/ports/repository"
)

var _ repository.SessionStore = (*SessionStore)(nil)

// SessionStore holds the portal session for the lifetime of the process. The
// portal client simply logs in again after a restart.
type SessionStore struct {
	mu      sync.Mutex
	session string
	set     bool
}

func NewSessionStore() *SessionStore { return &SessionStore{} }

func (s *SessionStore) Save(_ context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	s.set = true
	return nil
}

func (s *SessionStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return "", domain.ErrNotFound
	}
	return s.session, nil
}

func (s *SessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = ""
	s.set = false
	return nil
}
