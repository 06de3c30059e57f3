package model

import (
	"strconv"
	"time"

	"telegram-itmo-schedule/internal/domain"

	"github.com/google/uuid"
)

// User is a domain entity representing a Telegram user known to the bot.
// Users are recorded on first contact so that broadcasts and usage stats
// can reach every chat the bot has ever seen.
type User struct {
	ID           string
	TelegramID   int64
	Username     string
	FirstName    string
	RegisteredAt time.Time
	LastActiveAt time.Time
	IsAdmin      bool
}

// NewUser builds a user record for a Telegram identity. Telegram usernames are
// optional, so the constructor falls back to the first name and finally to a
// synthetic user_<id> handle.
func NewUser(id string, tgID int64, username, firstName string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if username == "" {
		username = firstName
	}
	if username == "" {
		username = "user_" + strconv.FormatInt(tgID, 10)
	}
	now := Now()
	u := &User{
		ID:           id,
		TelegramID:   tgID,
		Username:     username,
		FirstName:    firstName,
		RegisteredAt: now,
		LastActiveAt: now,
		IsAdmin:      false,
	}
	return u, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.LastActiveAt = Now() }
