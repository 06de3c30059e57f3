package redis

import (
	"context"
	"time"

	"telegram-itmo-schedule/internal/domain/ports/repository"
	"telegram-itmo-schedule/internal/infra/security"
)

var _ repository.SessionStore = (*SessionStore)(nil)

const sessionKey = "itmo:portal_session"

// SessionStore persists the portal's cookie jar between restarts, encrypted
// at rest. Portal sessions are login credentials in cookie form, so they
// never touch Redis in the clear.
type SessionStore struct {
	client *Client
	enc    *security.EncryptionService
	ttl    time.Duration
}

func NewSessionStore(client *Client, enc *security.EncryptionService) *SessionStore {
	return &SessionStore{
		client: client,
		enc:    enc,
		ttl:    7 * 24 * time.Hour,
	}
}

func (s *SessionStore) Save(ctx context.Context, session string) error {
	ct, err := s.enc.Encrypt(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey, ct, s.ttl)
}

func (s *SessionStore) Load(ctx context.Context) (string, error) {
	ct, err := s.client.Get(ctx, sessionKey)
	if err != nil {
		return "", err
	}
	return s.enc.Decrypt(ct)
}

func (s *SessionStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, sessionKey)
}
