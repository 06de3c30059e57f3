package schedule

import (
	"context"
	"time"

	"telegram-itmo-schedule/internal/domain"
	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/domain/ports/adapter"
)

var _ adapter.ScheduleSource = (*EmptySource)(nil)

// EmptySource is the source of last resort when neither a static payload nor
// portal credentials are configured. Every lookup reports the timetable as
// unavailable so handlers answer with the "not loaded" message instead of
// pretending every day is free.
type EmptySource struct{}

func NewEmptySource() *EmptySource { return &EmptySource{} }

func (EmptySource) Name() string { return "empty" }

func (EmptySource) Day(ctx context.Context, date time.Time) ([]model.Class, error) {
	return nil, domain.ErrScheduleUnavailable
}

func (EmptySource) Week(ctx context.Context, monday time.Time) (map[string][]model.Class, error) {
	return nil, domain.ErrScheduleUnavailable
}
