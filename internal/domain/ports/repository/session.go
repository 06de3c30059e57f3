package repository

import "context"

// SessionStore persists the portal's authenticated session across restarts so
// the bot does not log in from scratch on every deploy. Implementations are
// expected to encrypt the payload at rest.
type SessionStore interface {
	Save(ctx context.Context, session string) error
	Load(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}
