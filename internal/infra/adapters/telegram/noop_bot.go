package telegram

import (
	"context"
	"encoding/json"
	"sync"

	"telegram-itmo-schedule/internal/domain"
	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/domain/ports/adapter"
)

var _ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter satisfies the bot port without talking to Telegram. It keeps
// the same queue semantics as the real adapter so the webhook endpoint can be
// exercised against it.
type NoopBotAdapter struct {
	mu         sync.Mutex
	queued     int
	queueCap   int
	alive      bool
	sent       int
	webhookURL string
}

// NewNoopBotAdapter builds a stand-in adapter with the given queue capacity.
func NewNoopBotAdapter(queueCap int) *NoopBotAdapter {
	if queueCap <= 0 {
		queueCap = 128
	}
	return &NoopBotAdapter{queueCap: queueCap, alive: true}
}

// StopProcessor flips the adapter into the stopped state, after which
// EnqueueUpdate reports ErrProcessorStopped.
func (n *NoopBotAdapter) StopProcessor() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alive = false
}

// Drain empties the queue, standing in for the worker loop.
func (n *NoopBotAdapter) Drain() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queued = 0
}

// SentCount reports how many messages were delivered through the adapter.
func (n *NoopBotAdapter) SentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent
}

func (n *NoopBotAdapter) SendMessage(ctx context.Context, telegramID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent++
	return nil
}

func (n *NoopBotAdapter) SendButtons(ctx context.Context, telegramID int64, text string, rows [][]adapter.InlineButton) error {
	return n.SendMessage(ctx, telegramID, text)
}

func (n *NoopBotAdapter) EnqueueUpdate(raw []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.alive {
		return domain.ErrProcessorStopped
	}
	var probe struct {
		UpdateID      *int64          `json:"update_id"`
		Message       json.RawMessage `json:"message"`
		CallbackQuery json.RawMessage `json:"callback_query"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || probe.UpdateID == nil {
		return domain.ErrInvalidArgument
	}
	if len(probe.Message) == 0 && len(probe.CallbackQuery) == 0 {
		return nil
	}
	if n.queued >= n.queueCap {
		return domain.ErrQueueFull
	}
	n.queued++
	return nil
}

func (n *NoopBotAdapter) QueueLen() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.queued
}

func (n *NoopBotAdapter) ProcessorAlive() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.alive
}

func (n *NoopBotAdapter) SetWebhook(ctx context.Context, publicURL, secret string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.webhookURL = publicURL
	return nil
}

func (n *NoopBotAdapter) DeleteWebhook(ctx context.Context, dropPending bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.webhookURL = ""
	return nil
}

func (n *NoopBotAdapter) WebhookInfo(ctx context.Context) (*model.WebhookStatus, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return &model.WebhookStatus{
		URL:                n.webhookURL,
		PendingUpdateCount: n.queued,
	}, nil
}
