package memory

import (
	"context"
	"sync"
	"time"

	"telegram-itmo-schedule/internal/domain"
	"telegram-itmo-schedule/internal/domain/ports/repository"
)

var _ repository.DialogStateRepository = (*DialogStateRepo)(nil)

type stateEntry struct {
	state   repository.DialogState
	expires time.Time
}

// DialogStateRepo is the no-Redis stand-in for conversational state. Expiry
// is checked lazily on read, which is enough for a handful of chats.
type DialogStateRepo struct {
	mu     sync.Mutex
	ttl    time.Duration
	states map[int64]stateEntry
}

func NewDialogStateRepo(ttl time.Duration) *DialogStateRepo {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &DialogStateRepo{ttl: ttl, states: make(map[int64]stateEntry)}
}

func (r *DialogStateRepo) SetState(_ context.Context, tgID int64, state *repository.DialogState) error {
	if state == nil {
		return domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[tgID] = stateEntry{state: *state, expires: time.Now().Add(r.ttl)}
	return nil
}

func (r *DialogStateRepo) GetState(_ context.Context, tgID int64) (*repository.DialogState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.states[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if time.Now().After(e.expires) {
		delete(r.states, tgID)
		return nil, domain.ErrNotFound
	}
	cp := e.state
	return &cp, nil
}

func (r *DialogStateRepo) ClearState(_ context.Context, tgID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, tgID)
	return nil
}
