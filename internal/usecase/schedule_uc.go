package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/domain/ports/adapter"
	"telegram-itmo-schedule/internal/infra/logging"
)

// Compile-time check
var _ ScheduleUseCase = (*scheduleUC)(nil)

// ScheduleUseCase answers the three questions every chat boils down to:
// what is on a given day, what does the week look like, and which day did
// the user mean.
type ScheduleUseCase interface {
	DaySchedule(ctx context.Context, date time.Time) (model.DaySchedule, error)
	WeekSchedule(ctx context.Context, anchor time.Time) (model.WeekSchedule, error)
	ResolveDate(input string, now time.Time) (time.Time, error)
	SourceName() string
}

type scheduleUC struct {
	source adapter.ScheduleSource
	log    *zerolog.Logger
}

func NewScheduleUseCase(source adapter.ScheduleSource, logger *zerolog.Logger) *scheduleUC {
	return &scheduleUC{source: source, log: logger}
}

func (s *scheduleUC) DaySchedule(ctx context.Context, date time.Time) (model.DaySchedule, error) {
	defer logging.TraceDuration(s.log, "ScheduleUC.DaySchedule")()

	classes, err := s.source.Day(ctx, date)
	if err != nil {
		return model.DaySchedule{}, err
	}
	return model.BuildDay(date, classes), nil
}

// WeekSchedule assembles the seven days of the week containing anchor. Days
// the source could not deliver come back empty; the source already logged
// why.
func (s *scheduleUC) WeekSchedule(ctx context.Context, anchor time.Time) (model.WeekSchedule, error) {
	defer logging.TraceDuration(s.log, "ScheduleUC.WeekSchedule")()

	monday, _ := model.WeekBounds(anchor)
	week, err := s.source.Week(ctx, monday)
	if err != nil {
		return model.WeekSchedule{}, err
	}

	out := model.WeekSchedule{Monday: monday}
	for i := 0; i < 7; i++ {
		day := monday.AddDate(0, 0, i)
		out.Days[i] = model.BuildDay(day, week[model.DayKey(day)])
	}
	return out, nil
}

func (s *scheduleUC) ResolveDate(input string, now time.Time) (time.Time, error) {
	return model.ParseDayMonth(input, now)
}

func (s *scheduleUC) SourceName() string { return s.source.Name() }
