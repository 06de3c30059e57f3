package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"telegram-itmo-schedule/internal/domain"
	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/infra/metrics"
)

const (
	warmTimeout    = 2 * time.Minute
	refreshLockKey = "schedule:refresh:lock"
)

// WeekWarmer is the slice of the schedule use-case the worker needs: fetch
// the week around an anchor date, filling caches along the way.
type WeekWarmer interface {
	WeekSchedule(ctx context.Context, anchor time.Time) (model.WeekSchedule, error)
}

// Locker guards a cycle so only one instance hits the upstream source.
// A nil Locker means every instance warms on its own.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// RefreshWorker keeps the current week warm by re-fetching it on an
// interval, so chat replies rarely wait on the portal.
type RefreshWorker struct {
	interval time.Duration
	warmer   WeekWarmer
	locker   Locker
	log      *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRefreshWorker constructs a worker that warms the week cache every
// `interval`. If interval <= 0 it defaults to 15 minutes.
func NewRefreshWorker(interval time.Duration, warmer WeekWarmer, locker Locker, logger *zerolog.Logger) *RefreshWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	l := logger.With().Str("component", "refresh_worker").Logger()
	return &RefreshWorker{
		interval: interval,
		warmer:   warmer,
		locker:   locker,
		log:      &l,
		done:     make(chan struct{}),
	}
}

// Start begins the refresh loop in a background goroutine. Calling Start
// twice has no effect.
func (w *RefreshWorker) Start(parentCtx context.Context) {
	if w.ctx != nil {
		// already started
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	w.ctx = ctx
	w.cancel = cancel

	go w.loop()
}

func (w *RefreshWorker) loop() {
	ticker := time.NewTicker(w.interval)
	defer func() {
		ticker.Stop()
		close(w.done)
	}()

	w.log.Info().Dur("interval", w.interval).Msg("refresh worker started")
	w.warm()
	for {
		select {
		case <-w.ctx.Done():
			w.log.Info().Msg("refresh worker stopping")
			return
		case <-ticker.C:
			w.warm()
		}
	}
}

// warm fetches the current week once, under the lock when one is configured.
func (w *RefreshWorker) warm() {
	runCtx, cancel := context.WithTimeout(w.ctx, warmTimeout)
	defer cancel()

	if w.locker != nil {
		token, err := w.locker.TryLock(runCtx, refreshLockKey, warmTimeout)
		switch {
		case errors.Is(err, domain.ErrLockHeld):
			w.log.Debug().Msg("another instance is warming the cache")
			metrics.IncRefreshCycle("skipped")
			return
		case err != nil:
			// Locker trouble should not stop local warming.
			w.log.Warn().Err(err).Msg("refresh lock unavailable, warming anyway")
		default:
			defer func() {
				if err := w.locker.Unlock(runCtx, refreshLockKey, token); err != nil {
					w.log.Warn().Err(err).Msg("failed to release the refresh lock")
				}
			}()
		}
	}

	week, err := w.warmer.WeekSchedule(runCtx, model.Now())
	if err != nil {
		metrics.IncRefreshCycle("error")
		w.log.Warn().Err(err).Msg("week warm-up failed")
		return
	}

	busy := 0
	for _, day := range week.Days {
		if !day.Free() {
			busy++
		}
	}
	metrics.IncRefreshCycle("ok")
	w.log.Debug().Int("busy_days", busy).Msg("week cache warmed")
}

// Stop cancels the worker and waits for the loop to finish. It is idempotent.
func (w *RefreshWorker) Stop() {
	if w.cancel == nil {
		// not started
		return
	}
	w.cancel()
	<-w.done
	w.ctx = nil
	w.cancel = nil
	w.done = make(chan struct{})
}
