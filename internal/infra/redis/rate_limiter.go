package redis

import (
	"context"
	"fmt"
	"time"
)

// Per-user throttling caps for bot traffic. Commands and plain messages
// share one budget; callback taps get their own, slightly looser one
// because day browsing fires several in a row.
const (
	CommandLimit  = 20
	CallbackLimit = 30
	LimitWindow   = time.Minute
)

// RateLimiter is a fixed-window counter on Redis INCR. All bot instances
// behind the same Redis share the window, so limits hold across replicas.
type RateLimiter struct {
	client *Client
}

func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow reports whether another hit fits inside the window for key.
// The first hit of a window creates the counter and sets its TTL.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}
	return count <= int64(limit), nil
}

// UserCommandKey builds the counter key for one user and one command kind.
func UserCommandKey(userID int64, command string) string {
	return fmt.Sprintf("rate_limit:%d:%s", userID, command)
}
