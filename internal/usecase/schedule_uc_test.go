//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-itmo-schedule/internal/domain"
	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/usecase"
)

func TestScheduleUseCase_DaySchedule(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()
	date := time.Date(2026, time.February, 9, 0, 0, 0, 0, model.MoscowTZ)

	t.Run("should order classes and insert a window", func(t *testing.T) {
		// Classes arrive unordered, with a 90 minute gap before the last one.
		source := &MockScheduleSource{
			DayFunc: func(ctx context.Context, d time.Time) ([]model.Class, error) {
				return []model.Class{
					{Subject: "Математический анализ", Start: "10:00", End: "11:30", Room: "1404"},
					{Subject: "Физика", Start: "08:20", End: "09:50", Room: "2202"},
					{Subject: "Программирование", Start: "13:00", End: "14:30", Room: "3308"},
				}, nil
			},
		}
		uc := usecase.NewScheduleUseCase(source, testLogger)

		day, err := uc.DaySchedule(ctx, date)
		if err != nil {
			t.Fatalf("DaySchedule failed: %v", err)
		}

		if len(day.Entries) != 4 {
			t.Fatalf("expected 3 classes plus 1 window, got %d entries", len(day.Entries))
		}
		if day.Entries[0].Subject != "Физика" {
			t.Errorf("expected the earliest class first, got %q", day.Entries[0].Subject)
		}
		win := day.Entries[2]
		if !win.IsWindow {
			t.Fatalf("expected entry 2 to be a window, got class %q", win.Subject)
		}
		if win.Start != "11:30" || win.End != "13:00" || win.Minutes != 90 {
			t.Errorf("unexpected window %s-%s (%d min)", win.Start, win.End, win.Minutes)
		}
	})

	t.Run("should deliver a free day when nothing is scheduled", func(t *testing.T) {
		source := &MockScheduleSource{}
		uc := usecase.NewScheduleUseCase(source, testLogger)

		day, err := uc.DaySchedule(ctx, date)
		if err != nil {
			t.Fatalf("DaySchedule failed: %v", err)
		}
		if !day.Free() {
			t.Errorf("expected a free day, got %d entries", len(day.Entries))
		}
		if !day.Date.Equal(date) {
			t.Errorf("expected date %v, got %v", date, day.Date)
		}
	})

	t.Run("should propagate source failure", func(t *testing.T) {
		source := &MockScheduleSource{
			DayFunc: func(ctx context.Context, d time.Time) ([]model.Class, error) {
				return nil, domain.ErrScheduleUnavailable
			},
		}
		uc := usecase.NewScheduleUseCase(source, testLogger)

		if _, err := uc.DaySchedule(ctx, date); !errors.Is(err, domain.ErrScheduleUnavailable) {
			t.Errorf("expected ErrScheduleUnavailable, got %v", err)
		}
	})
}

func TestScheduleUseCase_WeekSchedule(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("should assemble seven days around the anchor", func(t *testing.T) {
		// Wednesday 11.02.2026; its week runs Monday 09.02 through Sunday 15.02.
		anchor := time.Date(2026, time.February, 11, 15, 30, 0, 0, model.MoscowTZ)
		wantMonday := time.Date(2026, time.February, 9, 0, 0, 0, 0, model.MoscowTZ)

		var askedMonday time.Time
		source := &MockScheduleSource{
			WeekFunc: func(ctx context.Context, monday time.Time) (map[string][]model.Class, error) {
				askedMonday = monday
				return map[string][]model.Class{
					"9.02":  {{Subject: "Физика", Start: "08:20", End: "09:50"}},
					"12.02": {{Subject: "История", Start: "10:00", End: "11:30"}},
				}, nil
			},
		}
		uc := usecase.NewScheduleUseCase(source, testLogger)

		week, err := uc.WeekSchedule(ctx, anchor)
		if err != nil {
			t.Fatalf("WeekSchedule failed: %v", err)
		}

		if !askedMonday.Equal(wantMonday) {
			t.Errorf("expected the source to be asked for %v, got %v", wantMonday, askedMonday)
		}
		if !week.Monday.Equal(wantMonday) {
			t.Errorf("expected week.Monday %v, got %v", wantMonday, week.Monday)
		}
		if week.Days[0].Free() {
			t.Error("expected Monday to have classes")
		}
		if week.Days[3].Free() {
			t.Error("expected Thursday to have classes")
		}
		for _, i := range []int{1, 2, 4, 5, 6} {
			if !week.Days[i].Free() {
				t.Errorf("expected day %d to be free", i)
			}
		}
	})

	t.Run("should propagate week fetch failure", func(t *testing.T) {
		source := &MockScheduleSource{
			WeekFunc: func(ctx context.Context, monday time.Time) (map[string][]model.Class, error) {
				return nil, domain.ErrScheduleUnavailable
			},
		}
		uc := usecase.NewScheduleUseCase(source, testLogger)

		if _, err := uc.WeekSchedule(ctx, model.Now()); !errors.Is(err, domain.ErrScheduleUnavailable) {
			t.Errorf("expected ErrScheduleUnavailable, got %v", err)
		}
	})
}

func TestScheduleUseCase_ResolveDate(t *testing.T) {
	testLogger := newTestLogger()
	uc := usecase.NewScheduleUseCase(&MockScheduleSource{}, testLogger)
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, model.MoscowTZ)

	t.Run("should accept dotted and slashed forms", func(t *testing.T) {
		for _, input := range []string{"25.12", "25/12", " 25.12 "} {
			got, err := uc.ResolveDate(input, now)
			if err != nil {
				t.Fatalf("ResolveDate(%q) failed: %v", input, err)
			}
			if got.Day() != 25 || got.Month() != time.December || got.Year() != 2026 {
				t.Errorf("ResolveDate(%q) = %v, expected 25.12.2026", input, got)
			}
		}
	})

	t.Run("should reject garbage and impossible dates", func(t *testing.T) {
		for _, input := range []string{"", "tomorrow", "25", "12.25.2026", "31.02", "0.10", "15.13"} {
			if _, err := uc.ResolveDate(input, now); !errors.Is(err, domain.ErrInvalidDate) {
				t.Errorf("ResolveDate(%q): expected ErrInvalidDate, got %v", input, err)
			}
		}
	})
}

func TestScheduleUseCase_SourceName(t *testing.T) {
	testLogger := newTestLogger()
	uc := usecase.NewScheduleUseCase(&MockScheduleSource{SourceName: "static"}, testLogger)
	if got := uc.SourceName(); got != "static" {
		t.Errorf("expected source name 'static', got %q", got)
	}
}
