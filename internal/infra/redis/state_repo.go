package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-itmo-schedule/internal/domain/ports/repository"
)

var _ repository.DialogStateRepository = (*DialogStateRepo)(nil)

// DialogStateRepo keeps each chat's place in the date-request flow in Redis,
// so a restart mid-conversation does not strand the user.
type DialogStateRepo struct {
	client *Client
	ttl    time.Duration
}

func NewDialogStateRepo(client *Client, ttl time.Duration) repository.DialogStateRepository {
	if ttl <= 0 {
		ttl = 15 * time.Minute // give users 15 minutes to type the date
	}
	return &DialogStateRepo{
		client: client,
		ttl:    ttl,
	}
}

func (s *DialogStateRepo) stateKey(tgID int64) string {
	return fmt.Sprintf("dialog_state:%d", tgID)
}

func (s *DialogStateRepo) SetState(ctx context.Context, tgID int64, state *repository.DialogState) error {
	key := s.stateKey(tgID)
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, s.ttl)
}

func (s *DialogStateRepo) GetState(ctx context.Context, tgID int64) (*repository.DialogState, error) {
	key := s.stateKey(tgID)
	data, err := s.client.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var state repository.DialogState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *DialogStateRepo) ClearState(ctx context.Context, tgID int64) error {
	key := s.stateKey(tgID)
	return s.client.Del(ctx, key)
}
