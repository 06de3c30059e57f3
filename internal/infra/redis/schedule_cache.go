package redis

import (
	"context"
	"encoding/json"
	"time"

	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/domain/ports/repository"
)

var _ repository.ScheduleCache = (*ScheduleCache)(nil)

// ScheduleCache stores fetched timetable days as JSON blobs keyed by calendar
// date, one entry per day.
type ScheduleCache struct {
	client *Client
	ttl    time.Duration
}

func NewScheduleCache(client *Client, ttl time.Duration) *ScheduleCache {
	return &ScheduleCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *ScheduleCache) dayKey(date time.Time) string {
	return "sched_day:" + date.In(model.MoscowTZ).Format("2006-01-02")
}

func (c *ScheduleCache) GetDay(ctx context.Context, date time.Time) ([]model.Class, error) {
	data, err := c.client.Get(ctx, c.dayKey(date))
	if err != nil {
		return nil, err
	}

	var classes []model.Class
	if err := json.Unmarshal([]byte(data), &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

func (c *ScheduleCache) SetDay(ctx context.Context, date time.Time, classes []model.Class) error {
	if classes == nil {
		classes = []model.Class{}
	}
	data, err := json.Marshal(classes)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.dayKey(date), data, c.ttl)
}
