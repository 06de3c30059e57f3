// Package memory holds in-process fallbacks used when a deployment runs
// without Postgres or Redis, which is the norm on the free tier.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"telegram-itmo-schedule/internal/domain"
	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo keeps users in process memory. Contents are lost on restart; the
// free tier accepts that in exchange for running without a database.
type UserRepo struct {
	mu    sync.RWMutex
	users map[int64]*model.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[int64]*model.User)}
}

func (r *UserRepo) Save(_ context.Context, _ repository.Tx, u *model.User) error {
	if u.IsZero() {
		return domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.TelegramID] = &cp
	return nil
}

func (r *UserRepo) FindByTelegramID(_ context.Context, _ repository.Tx, tgID int64) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// List returns users ordered by registration time. A non-positive limit means
// no limit, which is how the broadcast path asks for everyone.
func (r *UserRepo) List(_ context.Context, _ repository.Tx, offset, limit int) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*model.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].RegisteredAt.Before(all[j].RegisteredAt) })
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []*model.User{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (r *UserRepo) CountUsers(_ context.Context, _ repository.Tx) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func (r *UserRepo) UpdateLastActive(_ context.Context, _ repository.Tx, tgID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	u.LastActiveAt = at
	return nil
}
