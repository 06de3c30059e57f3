package application_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-itmo-schedule/internal/application"
	"telegram-itmo-schedule/internal/domain"
	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/infra/memory"
)

// mockScheduleUC implements usecase.ScheduleUseCase using the real date
// helpers so the facade flows stay realistic.
type mockScheduleUC struct {
	classes  []model.Class
	dayErr   error
	weekErr  error
	lastDate time.Time
}

func (m *mockScheduleUC) DaySchedule(ctx context.Context, date time.Time) (model.DaySchedule, error) {
	m.lastDate = date
	if m.dayErr != nil {
		return model.DaySchedule{}, m.dayErr
	}
	return model.BuildDay(date, m.classes), nil
}

func (m *mockScheduleUC) WeekSchedule(ctx context.Context, anchor time.Time) (model.WeekSchedule, error) {
	if m.weekErr != nil {
		return model.WeekSchedule{}, m.weekErr
	}
	monday, _ := model.WeekBounds(anchor)
	week := model.WeekSchedule{Monday: monday}
	for i := 0; i < 7; i++ {
		week.Days[i] = model.BuildDay(monday.AddDate(0, 0, i), nil)
	}
	return week, nil
}

func (m *mockScheduleUC) ResolveDate(input string, now time.Time) (time.Time, error) {
	return model.ParseDayMonth(input, now)
}

func (m *mockScheduleUC) SourceName() string { return "mock" }

// mockUserUC implements usecase.UserUseCase.
type mockUserUC struct {
	registered []int64
	regErr     error
}

func (m *mockUserUC) RegisterOrFetch(ctx context.Context, tgID int64, username, firstName string) (*model.User, error) {
	if m.regErr != nil {
		return nil, m.regErr
	}
	m.registered = append(m.registered, tgID)
	return &model.User{ID: "u-1", TelegramID: tgID, Username: username, FirstName: firstName}, nil
}

func (m *mockUserUC) GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	return nil, domain.ErrNotFound
}

func (m *mockUserUC) TouchActivity(ctx context.Context, tgID int64) error { return nil }

func (m *mockUserUC) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	return nil, nil
}

func (m *mockUserUC) Count(ctx context.Context) (int, error) { return len(m.registered), nil }

func newFacade(sched *mockScheduleUC, users *mockUserUC) *application.BotFacade {
	logger := zerolog.New(io.Discard)
	return application.NewBotFacade(sched, users, memory.NewDialogStateRepo(time.Minute), &logger)
}

func TestBotFacade_HandleStart(t *testing.T) {
	ctx := context.Background()

	t.Run("should register the user and greet", func(t *testing.T) {
		users := &mockUserUC{}
		f := newFacade(&mockScheduleUC{}, users)

		reply, err := f.HandleStart(ctx, 42, "student", "Ivan")
		if err != nil {
			t.Fatalf("HandleStart failed: %v", err)
		}
		want := "🎓 Добро пожаловать в бот расписания ИТМО!\n\nВыберите действие:"
		if reply != want {
			t.Errorf("welcome mismatch\n got: %q\nwant: %q", reply, want)
		}
		if len(users.registered) != 1 || users.registered[0] != 42 {
			t.Errorf("expected user 42 to be registered, got %v", users.registered)
		}
	})

	t.Run("should greet even when registration fails", func(t *testing.T) {
		users := &mockUserUC{regErr: errors.New("db down")}
		f := newFacade(&mockScheduleUC{}, users)

		reply, err := f.HandleStart(ctx, 42, "student", "Ivan")
		if err != nil {
			t.Fatalf("HandleStart failed: %v", err)
		}
		if !strings.HasPrefix(reply, "🎓") {
			t.Errorf("expected the welcome despite a registration failure, got %q", reply)
		}
	})
}

func TestBotFacade_HandleToday(t *testing.T) {
	ctx := context.Background()

	t.Run("should render today's schedule with the follow-up prompt", func(t *testing.T) {
		sched := &mockScheduleUC{classes: []model.Class{
			{Subject: "Физика", Start: "08:20", End: "09:50", Room: "2202", Address: "Кронверкский пр., д.49"},
		}}
		f := newFacade(sched, &mockUserUC{})

		reply, err := f.HandleToday(ctx, 42)
		if err != nil {
			t.Fatalf("HandleToday failed: %v", err)
		}
		if !strings.Contains(reply, "📚 Физика\n") {
			t.Errorf("expected the class block, got %q", reply)
		}
		if !strings.HasSuffix(reply, "\n\nВыберите следующее действие:") {
			t.Errorf("expected the follow-up prompt, got %q", reply)
		}
	})

	t.Run("should explain a missing schedule source", func(t *testing.T) {
		sched := &mockScheduleUC{dayErr: domain.ErrScheduleUnavailable}
		f := newFacade(sched, &mockUserUC{})

		reply, err := f.HandleToday(ctx, 42)
		if err != nil {
			t.Fatalf("HandleToday failed: %v", err)
		}
		want := "❌ Расписание не загружено. Проверьте переменную окружения SCHEDULE_JSON\n\nВыберите следующее действие:"
		if reply != want {
			t.Errorf("missing-source reply mismatch\n got: %q\nwant: %q", reply, want)
		}
	})

	t.Run("should fall back to a generic failure line", func(t *testing.T) {
		sched := &mockScheduleUC{dayErr: errors.New("portal exploded")}
		f := newFacade(sched, &mockUserUC{})

		reply, err := f.HandleToday(ctx, 42)
		if err != nil {
			t.Fatalf("HandleToday failed: %v", err)
		}
		if !strings.HasPrefix(reply, "❌ Ошибка при получении расписания") {
			t.Errorf("expected the generic failure reply, got %q", reply)
		}
	})
}

func TestBotFacade_HandleWeek(t *testing.T) {
	ctx := context.Background()

	t.Run("should render the week digest", func(t *testing.T) {
		f := newFacade(&mockScheduleUC{}, &mockUserUC{})

		reply, err := f.HandleWeek(ctx, 42)
		if err != nil {
			t.Fatalf("HandleWeek failed: %v", err)
		}
		if !strings.HasPrefix(reply, "📅 Расписание на неделю (") {
			t.Errorf("expected the week header, got %q", reply)
		}
		if got := strings.Count(reply, "🆓 Выходной"); got != 7 {
			t.Errorf("expected 7 free days, got %d", got)
		}
	})

	t.Run("should explain a missing source for the week too", func(t *testing.T) {
		f := newFacade(&mockScheduleUC{weekErr: domain.ErrScheduleUnavailable}, &mockUserUC{})

		reply, err := f.HandleWeek(ctx, 42)
		if err != nil {
			t.Fatalf("HandleWeek failed: %v", err)
		}
		if !strings.HasPrefix(reply, "❌ Расписание не загружено") {
			t.Errorf("expected the missing-source reply, got %q", reply)
		}
	})
}

func TestBotFacade_DateFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("should prompt, accept a date and clear the state", func(t *testing.T) {
		sched := &mockScheduleUC{}
		f := newFacade(sched, &mockUserUC{})

		prompt, err := f.HandleDateRequest(ctx, 42)
		if err != nil {
			t.Fatalf("HandleDateRequest failed: %v", err)
		}
		if !strings.HasPrefix(prompt, "📝 Введите дату в формате ДД.ММ или ДД/ММ") {
			t.Errorf("unexpected prompt: %q", prompt)
		}

		reply, err := f.HandleText(ctx, 42, "25.12")
		if err != nil {
			t.Fatalf("HandleText failed: %v", err)
		}
		if !strings.HasPrefix(reply, "📅 ") {
			t.Errorf("expected a rendered day, got %q", reply)
		}
		if sched.lastDate.Day() != 25 || sched.lastDate.Month() != time.December {
			t.Errorf("expected the source to be asked for 25.12, got %v", sched.lastDate)
		}

		// The prompt is single-use; the next message is just text again.
		again, err := f.HandleText(ctx, 42, "25.12")
		if err != nil {
			t.Fatalf("HandleText failed: %v", err)
		}
		if again != "❓ Неизвестная команда. Выберите действие из меню:" {
			t.Errorf("expected the unknown-command reply after the state cleared, got %q", again)
		}
	})

	t.Run("should reject a malformed date and still clear the state", func(t *testing.T) {
		f := newFacade(&mockScheduleUC{}, &mockUserUC{})

		if _, err := f.HandleDateRequest(ctx, 42); err != nil {
			t.Fatalf("HandleDateRequest failed: %v", err)
		}
		reply, err := f.HandleText(ctx, 42, "tomorrow")
		if err != nil {
			t.Fatalf("HandleText failed: %v", err)
		}
		want := "❌ Неверный формат даты. Используйте формат ДД.ММ или ДД/ММ\n\nВыберите следующее действие:"
		if reply != want {
			t.Errorf("bad-date reply mismatch\n got: %q\nwant: %q", reply, want)
		}

		again, _ := f.HandleText(ctx, 42, "25.12")
		if !strings.HasPrefix(again, "❓") {
			t.Errorf("expected the state to be cleared after a bad date, got %q", again)
		}
	})

	t.Run("should answer unknown text with the menu reply", func(t *testing.T) {
		f := newFacade(&mockScheduleUC{}, &mockUserUC{})

		reply, err := f.HandleText(ctx, 42, "hello")
		if err != nil {
			t.Fatalf("HandleText failed: %v", err)
		}
		if reply != "❓ Неизвестная команда. Выберите действие из меню:" {
			t.Errorf("unexpected reply: %q", reply)
		}
	})
}

func TestBotFacade_MainMenu(t *testing.T) {
	f := newFacade(&mockScheduleUC{}, &mockUserUC{})

	menu := f.MainMenu()
	if len(menu) != 3 {
		t.Fatalf("expected 3 menu rows, got %d", len(menu))
	}
	wantData := []string{"cmd:today", "cmd:date", "cmd:week"}
	wantText := []string{"📅 Сегодня", "📆 Конкретная дата", "📅 На неделю"}
	for i, row := range menu {
		if len(row) != 1 {
			t.Fatalf("expected 1 button in row %d, got %d", i, len(row))
		}
		if row[0].Data != wantData[i] {
			t.Errorf("row %d callback = %q, want %q", i, row[0].Data, wantData[i])
		}
		if row[0].Text != wantText[i] {
			t.Errorf("row %d caption = %q, want %q", i, row[0].Text, wantText[i])
		}
	}
}
