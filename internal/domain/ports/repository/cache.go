package repository

import (
	"context"
	"time"

	"telegram-itmo-schedule/internal/domain/model"
)

// ScheduleCache keeps fetched timetable days close by so webhook handlers do
// not hit the portal on every message. A miss is domain.ErrNotFound.
type ScheduleCache interface {
	GetDay(ctx context.Context, date time.Time) ([]model.Class, error)
	SetDay(ctx context.Context, date time.Time, classes []model.Class) error
}
