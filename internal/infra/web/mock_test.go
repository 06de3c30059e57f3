//go:build !integration

package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-itmo-schedule/internal/config"
	"telegram-itmo-schedule/internal/domain"
	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/infra/adapters/telegram"
	"telegram-itmo-schedule/internal/usecase"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// --- Mock use cases ---

type mockUserUC struct {
	mu       sync.Mutex
	users    []*model.User
	listErr  error
	countErr error
}

func (m *mockUserUC) RegisterOrFetch(ctx context.Context, tgID int64, username, firstName string) (*model.User, error) {
	return nil, domain.ErrNotFound
}

func (m *mockUserUC) GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	return nil, domain.ErrNotFound
}

func (m *mockUserUC) TouchActivity(ctx context.Context, tgID int64) error { return nil }

func (m *mockUserUC) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset >= len(m.users) {
		return []*model.User{}, nil
	}
	end := offset + limit
	if end > len(m.users) {
		end = len(m.users)
	}
	return m.users[offset:end], nil
}

func (m *mockUserUC) Count(ctx context.Context) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

type mockScheduleUC struct {
	name string
}

func (m *mockScheduleUC) DaySchedule(ctx context.Context, date time.Time) (model.DaySchedule, error) {
	return model.DaySchedule{Date: date}, nil
}

func (m *mockScheduleUC) WeekSchedule(ctx context.Context, anchor time.Time) (model.WeekSchedule, error) {
	monday, _ := model.WeekBounds(anchor)
	return model.WeekSchedule{Monday: monday}, nil
}

func (m *mockScheduleUC) ResolveDate(input string, now time.Time) (time.Time, error) {
	return model.ParseDayMonth(input, now)
}

func (m *mockScheduleUC) SourceName() string {
	if m.name == "" {
		return "static"
	}
	return m.name
}

type mockBroadcastUC struct {
	mu       sync.Mutex
	queued   int
	err      error
	lastText string
}

func (m *mockBroadcastUC) BroadcastMessage(ctx context.Context, message string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastText = message
	return m.queued, nil
}

var (
	_ usecase.UserUseCase      = (*mockUserUC)(nil)
	_ usecase.ScheduleUseCase  = (*mockScheduleUC)(nil)
	_ usecase.BroadcastUseCase = (*mockBroadcastUC)(nil)
)

// --- Test server assembly ---

type testDeps struct {
	bot       *telegram.NoopBotAdapter
	statusUC  usecase.StatusUseCase
	userUC    *mockUserUC
	broadcast *mockBroadcastUC
	cfg       *config.Config
}

func testConfig(adminKey string) *config.Config {
	return &config.Config{
		Bot: config.BotConfig{
			Token:     "123:test-token",
			Mode:      "webhook",
			Port:      10000,
			PublicURL: "https://bot.example.com",
		},
		Schedule: config.ScheduleConfig{ParityAnchor: "2025-10-06"},
		Admin: config.AdminConfig{
			Key:        adminKey,
			JWTSecret:  "test-admin-jwt-secret-please-change",
			SessionTTL: time.Minute,
		},
	}
}

// newTestServer wires a Server around the noop adapter, a real status
// use-case and mock user/schedule/broadcast use-cases.
func newTestServer(cfg *config.Config) (*Server, http.Handler, *testDeps) {
	logger := newTestLogger()
	bot := telegram.NewNoopBotAdapter(4)
	statusUC := usecase.NewStatusUseCase(bot, model.EnvReport{TokenPresent: true, Schedule: "static"}, logger)
	userUC := &mockUserUC{}
	broadcast := &mockBroadcastUC{queued: 3}

	var auth *AuthManager
	if cfg.Admin.Key != "" {
		auth = NewAuthManager(cfg.Admin.JWTSecret, false, cfg.Admin.SessionTTL)
	}

	srv := NewServer(cfg, bot, statusUC, userUC, &mockScheduleUC{}, broadcast, auth, logger)
	deps := &testDeps{bot: bot, statusUC: statusUC, userUC: userUC, broadcast: broadcast, cfg: cfg}
	return srv, srv.Routes(), deps
}
