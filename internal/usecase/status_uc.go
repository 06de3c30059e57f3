package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/domain/ports/adapter"
)

// Compile-time check
var _ StatusUseCase = (*statusUC)(nil)

// StatusUseCase records the bot's operational state and serves snapshots to
// the ops endpoints. Mark/Touch calls come from the lifecycle and the update
// pipeline; Snapshot is read by /health and /status.
type StatusUseCase interface {
	MarkRunning()
	MarkStopped()
	MarkWebhook(set bool)
	TouchUpdate()
	IncHandled()
	Snapshot(ctx context.Context) model.BotStatus
}

type statusUC struct {
	bot adapter.TelegramBotAdapter
	env model.EnvReport
	log *zerolog.Logger

	mu         sync.Mutex
	running    bool
	webhookSet bool
	startedAt  time.Time
	lastUpdate *time.Time
	handled    int64
}

func NewStatusUseCase(bot adapter.TelegramBotAdapter, env model.EnvReport, logger *zerolog.Logger) *statusUC {
	return &statusUC{
		bot:       bot,
		env:       env,
		log:       logger,
		startedAt: model.Now(),
	}
}

func (s *statusUC) MarkRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.startedAt = model.Now()
}

func (s *statusUC) MarkStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

func (s *statusUC) MarkWebhook(set bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.webhookSet = set
}

func (s *statusUC) TouchUpdate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := model.Now()
	s.lastUpdate = &now
}

func (s *statusUC) IncHandled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handled++
}

// Snapshot combines the recorded state with the adapter's live queue view.
func (s *statusUC) Snapshot(ctx context.Context) model.BotStatus {
	s.mu.Lock()
	status := model.BotStatus{
		Running:        s.running,
		WebhookSet:     s.webhookSet,
		StartedAt:      s.startedAt,
		UptimeSeconds:  int64(model.Now().Sub(s.startedAt).Seconds()),
		LastUpdateAt:   s.lastUpdate,
		UpdatesHandled: s.handled,
		Environment:    s.env,
	}
	s.mu.Unlock()

	if s.bot != nil {
		status.QueueSize = s.bot.QueueLen()
		status.ProcessorAlive = s.bot.ProcessorAlive()
	}
	return status
}
