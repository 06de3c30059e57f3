package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"telegram-itmo-schedule/internal/domain"
	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/domain/ports/adapter"
	"telegram-itmo-schedule/internal/domain/ports/repository"
	"telegram-itmo-schedule/internal/infra/metrics"
)

var _ adapter.ScheduleSource = (*CachedSource)(nil)

// CachedSource is a cache-aside decorator over another source. Day lookups
// hit the cache first; fetched days are written back so a slow portal answer
// is paid once per TTL, not once per chat message.
type CachedSource struct {
	inner adapter.ScheduleSource
	cache repository.ScheduleCache
	log   *zerolog.Logger
}

func NewCachedSource(inner adapter.ScheduleSource, cache repository.ScheduleCache, logger *zerolog.Logger) *CachedSource {
	sub := logger.With().Str("component", "schedule-cache").Logger()
	return &CachedSource{inner: inner, cache: cache, log: &sub}
}

func (c *CachedSource) Name() string { return c.inner.Name() }

func (c *CachedSource) Day(ctx context.Context, date time.Time) ([]model.Class, error) {
	classes, err := c.cache.GetDay(ctx, date)
	switch {
	case err == nil:
		metrics.IncScheduleCache("hit")
		return classes, nil
	case errors.Is(err, domain.ErrNotFound):
		metrics.IncScheduleCache("miss")
	default:
		// Broken cache must not take the bot down.
		metrics.IncScheduleCache("error")
		c.log.Warn().Err(err).Msg("day cache read failed")
	}

	classes, err = c.inner.Day(ctx, date)
	if err != nil {
		return nil, err
	}
	if serr := c.cache.SetDay(ctx, date, classes); serr != nil {
		c.log.Warn().Err(serr).Msg("day cache write failed")
	}
	return classes, nil
}

// Week delegates to the inner source and warms the day cache with whatever
// came back, so the day views right after a week view are instant.
func (c *CachedSource) Week(ctx context.Context, monday time.Time) (map[string][]model.Class, error) {
	week, err := c.inner.Week(ctx, monday)
	if err != nil {
		return nil, err
	}
	for i := 0; i < 7; i++ {
		day := monday.AddDate(0, 0, i)
		if serr := c.cache.SetDay(ctx, day, week[model.DayKey(day)]); serr != nil {
			c.log.Warn().Err(serr).Msg("week cache warm failed")
			break
		}
	}
	return week, nil
}
