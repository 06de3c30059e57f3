//go:build !integration

package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-itmo-schedule/internal/domain"
	"telegram-itmo-schedule/internal/domain/model"
)

type stubSource struct {
	name     string
	dayCalls int
	day      []model.Class
	dayErr   error
	week     map[string][]model.Class
	weekErr  error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Day(ctx context.Context, date time.Time) ([]model.Class, error) {
	s.dayCalls++
	return s.day, s.dayErr
}

func (s *stubSource) Week(ctx context.Context, monday time.Time) (map[string][]model.Class, error) {
	return s.week, s.weekErr
}

type stubCache struct {
	days   map[string][]model.Class
	getErr error
	setErr error
	sets   int
}

func newStubCache() *stubCache {
	return &stubCache{days: map[string][]model.Class{}}
}

func (c *stubCache) GetDay(ctx context.Context, date time.Time) ([]model.Class, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	classes, ok := c.days[model.DayKey(date)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return classes, nil
}

func (c *stubCache) SetDay(ctx context.Context, date time.Time, classes []model.Class) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.sets++
	c.days[model.DayKey(date)] = classes
	return nil
}

func TestCachedSource(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	date := time.Date(2026, 2, 9, 12, 0, 0, 0, model.MoscowTZ)
	lesson := []model.Class{{Subject: "Матанализ", Start: "10:00", End: "11:30"}}

	t.Run("should serve a cached day without touching the source", func(t *testing.T) {
		inner := &stubSource{name: "portal", day: lesson}
		cache := newStubCache()
		cache.days[model.DayKey(date)] = lesson

		src := NewCachedSource(inner, cache, &logger)
		classes, err := src.Day(ctx, date)
		if err != nil {
			t.Fatalf("Day() error: %v", err)
		}
		if len(classes) != 1 {
			t.Errorf("expected 1 class, got %d", len(classes))
		}
		if inner.dayCalls != 0 {
			t.Errorf("expected no source calls on cache hit, got %d", inner.dayCalls)
		}
	})

	t.Run("should fetch and write back on cache miss", func(t *testing.T) {
		inner := &stubSource{name: "portal", day: lesson}
		cache := newStubCache()

		src := NewCachedSource(inner, cache, &logger)
		if _, err := src.Day(ctx, date); err != nil {
			t.Fatalf("Day() error: %v", err)
		}
		if inner.dayCalls != 1 {
			t.Errorf("expected 1 source call, got %d", inner.dayCalls)
		}
		if got, ok := cache.days[model.DayKey(date)]; !ok || len(got) != 1 {
			t.Errorf("expected day written back to cache, got %v", cache.days)
		}
	})

	t.Run("should survive a broken cache", func(t *testing.T) {
		inner := &stubSource{name: "portal", day: lesson}
		cache := newStubCache()
		cache.getErr = errors.New("redis down")
		cache.setErr = errors.New("redis down")

		src := NewCachedSource(inner, cache, &logger)
		classes, err := src.Day(ctx, date)
		if err != nil {
			t.Fatalf("Day() error: %v", err)
		}
		if len(classes) != 1 {
			t.Errorf("expected classes despite cache failure, got %v", classes)
		}
	})

	t.Run("should pass source errors through", func(t *testing.T) {
		inner := &stubSource{name: "portal", dayErr: domain.ErrScheduleUnavailable}
		src := NewCachedSource(inner, newStubCache(), &logger)
		if _, err := src.Day(ctx, date); !errors.Is(err, domain.ErrScheduleUnavailable) {
			t.Errorf("expected domain.ErrScheduleUnavailable, got %v", err)
		}
	})

	t.Run("should warm all seven days after a week fetch", func(t *testing.T) {
		monday := time.Date(2026, 2, 9, 0, 0, 0, 0, model.MoscowTZ)
		inner := &stubSource{
			name: "portal",
			week: map[string][]model.Class{"9.02": lesson},
		}
		cache := newStubCache()

		src := NewCachedSource(inner, cache, &logger)
		week, err := src.Week(ctx, monday)
		if err != nil {
			t.Fatalf("Week() error: %v", err)
		}
		if len(week) != 1 {
			t.Errorf("expected 1 scheduled day, got %d", len(week))
		}
		// Free days are cached as empty so the next day view skips the portal too.
		if cache.sets != 7 {
			t.Errorf("expected 7 cache writes, got %d", cache.sets)
		}
		if got := cache.days["9.02"]; len(got) != 1 {
			t.Errorf("expected monday cached with 1 class, got %v", got)
		}
	})

	t.Run("should keep the inner source name", func(t *testing.T) {
		src := NewCachedSource(&stubSource{name: "portal"}, newStubCache(), &logger)
		if src.Name() != "portal" {
			t.Errorf("expected name 'portal', got %q", src.Name())
		}
	})
}
