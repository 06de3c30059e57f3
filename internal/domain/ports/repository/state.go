package repository

import (
	"context"
)

// DialogState holds a chat's progress in the multi-step date-request flow.
type DialogState struct {
	AwaitingDate bool `json:"awaiting_date"`
}

// DialogStateRepository is the port for managing a chat's conversational
// state. Implementations bound the state with a TTL so an abandoned prompt
// does not swallow unrelated messages forever.
type DialogStateRepository interface {
	SetState(ctx context.Context, tgID int64, state *DialogState) error
	GetState(ctx context.Context, tgID int64) (*DialogState, error)
	ClearState(ctx context.Context, tgID int64) error
}
