// File: internal/domain/ports/adapter/source.go
package adapter

import (
	"context"
	"time"

	"telegram-itmo-schedule/internal/domain/model"
)

// ScheduleSource yields the classes of a calendar day from wherever the
// deployment gets its timetable: a static JSON payload, the university
// portal, or nothing at all.
type ScheduleSource interface {
	// Day returns the classes scheduled for the given date. A day with no
	// classes is a nil slice, not an error.
	Day(ctx context.Context, date time.Time) ([]model.Class, error)
	// Week returns the classes for the seven days starting at monday, keyed
	// by model.DayKey.
	Week(ctx context.Context, monday time.Time) (map[string][]model.Class, error)
	// Name identifies the source in logs and status output.
	Name() string
}
