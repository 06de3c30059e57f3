// Package schedule provides the timetable sources the bot can serve from: a
// static JSON payload baked into the environment, the university portal, and
// a caching decorator layered over either.
package schedule

import (
	"context"
	"fmt"
	"os"
	"time"

	"telegram-itmo-schedule/internal/config"
	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/domain/ports/adapter"
	"telegram-itmo-schedule/internal/infra/metrics"
)

var _ adapter.ScheduleSource = (*StaticSource)(nil)

// StaticSource serves a fixed date-keyed timetable loaded once at startup,
// typically from the SCHEDULE_JSON environment variable. Days without an
// entry are free days.
type StaticSource struct {
	sched model.Schedule
}

// NewStaticSource loads the timetable from the inline payload or, failing
// that, from the configured file.
func NewStaticSource(cfg *config.ScheduleConfig) (*StaticSource, error) {
	payload := []byte(cfg.StaticJSON)
	if len(payload) == 0 && cfg.StaticFile != "" {
		b, err := os.ReadFile(cfg.StaticFile)
		if err != nil {
			return nil, fmt.Errorf("read schedule file: %w", err)
		}
		payload = b
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("static schedule source needs schedule.static_json or schedule.static_file")
	}
	sched, err := model.ParseSchedule(payload)
	if err != nil {
		return nil, err
	}
	return &StaticSource{sched: sched}, nil
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) Day(ctx context.Context, date time.Time) ([]model.Class, error) {
	metrics.IncScheduleFetch("static", "ok")
	return s.sched.ForDate(date), nil
}

func (s *StaticSource) Week(ctx context.Context, monday time.Time) (map[string][]model.Class, error) {
	week := make(map[string][]model.Class, 7)
	for i := 0; i < 7; i++ {
		day := monday.AddDate(0, 0, i)
		if classes := s.sched.ForDate(day); len(classes) > 0 {
			week[model.DayKey(day)] = classes
		}
	}
	metrics.IncScheduleFetch("static", "ok")
	return week, nil
}

// Days reports how many days the loaded timetable covers.
func (s *StaticSource) Days() int { return s.sched.Days() }
