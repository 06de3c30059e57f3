//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-itmo-schedule/internal/domain"
	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/domain/ports/adapter"
	"telegram-itmo-schedule/internal/domain/ports/repository"
)

// =============================
// Adapters
// =============================

// ---- Mock TelegramBotAdapter ----

type sentMessage struct {
	TelegramID int64
	Text       string
}

type MockTelegramBot struct {
	mu   sync.Mutex
	Sent []sentMessage

	SendMessageFunc func(ctx context.Context, telegramID int64, text string) error
	QueueLenFunc    func() int
	AliveFunc       func() bool
	WebhookInfoFunc func(ctx context.Context) (*model.WebhookStatus, error)
}

var _ adapter.TelegramBotAdapter = (*MockTelegramBot)(nil)

func NewMockTelegramBot() *MockTelegramBot { return &MockTelegramBot{} }

func (m *MockTelegramBot) SendMessage(ctx context.Context, telegramID int64, text string) error {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, telegramID, text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMessage{TelegramID: telegramID, Text: text})
	return nil
}

func (m *MockTelegramBot) SendButtons(ctx context.Context, telegramID int64, text string, rows [][]adapter.InlineButton) error {
	return m.SendMessage(ctx, telegramID, text)
}

func (m *MockTelegramBot) EnqueueUpdate(raw []byte) error { return nil }

func (m *MockTelegramBot) QueueLen() int {
	if m.QueueLenFunc != nil {
		return m.QueueLenFunc()
	}
	return 0
}

func (m *MockTelegramBot) ProcessorAlive() bool {
	if m.AliveFunc != nil {
		return m.AliveFunc()
	}
	return true
}

func (m *MockTelegramBot) SetWebhook(ctx context.Context, publicURL, secret string) error { return nil }

func (m *MockTelegramBot) DeleteWebhook(ctx context.Context, dropPending bool) error { return nil }

func (m *MockTelegramBot) WebhookInfo(ctx context.Context) (*model.WebhookStatus, error) {
	if m.WebhookInfoFunc != nil {
		return m.WebhookInfoFunc(ctx)
	}
	return &model.WebhookStatus{}, nil
}

func (m *MockTelegramBot) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// ---- Mock ScheduleSource ----

type MockScheduleSource struct {
	SourceName string
	DayFunc    func(ctx context.Context, date time.Time) ([]model.Class, error)
	WeekFunc   func(ctx context.Context, monday time.Time) (map[string][]model.Class, error)
}

var _ adapter.ScheduleSource = (*MockScheduleSource)(nil)

func (m *MockScheduleSource) Name() string {
	if m.SourceName != "" {
		return m.SourceName
	}
	return "mock"
}

func (m *MockScheduleSource) Day(ctx context.Context, date time.Time) ([]model.Class, error) {
	if m.DayFunc != nil {
		return m.DayFunc(ctx, date)
	}
	return nil, nil
}

func (m *MockScheduleSource) Week(ctx context.Context, monday time.Time) (map[string][]model.Class, error) {
	if m.WeekFunc != nil {
		return m.WeekFunc(ctx, monday)
	}
	return map[string][]model.Class{}, nil
}

// =============================
// Repositories
// =============================

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu   sync.Mutex
	byTG map[int64]*model.User

	SaveFunc             func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByTelegramIDFunc func(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error)
	ListFunc             func(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error)
	CountUsersFunc       func(ctx context.Context, tx repository.Tx) (int, error)
	UpdateLastActiveFunc func(ctx context.Context, tx repository.Tx, tgID int64, at time.Time) error
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byTG: map[int64]*model.User{}}
}

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	r.byTG[cp.TelegramID] = &cp
	return nil
}

func (r *MockUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	if r.FindByTelegramIDFunc != nil {
		return r.FindByTelegramIDFunc(ctx, tx, tgID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byTG[tgID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	if r.ListFunc != nil {
		return r.ListFunc(ctx, tx, offset, limit)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*model.User, 0, len(r.byTG))
	for _, u := range r.byTG {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TelegramID < all[j].TelegramID })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	if r.CountUsersFunc != nil {
		return r.CountUsersFunc(ctx, tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byTG), nil
}

func (r *MockUserRepo) UpdateLastActive(ctx context.Context, tx repository.Tx, tgID int64, at time.Time) error {
	if r.UpdateLastActiveFunc != nil {
		return r.UpdateLastActiveFunc(ctx, tx, tgID, at)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byTG[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	u.LastActiveAt = at
	return nil
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the callback immediately with NoTX unless a test overrides it.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
