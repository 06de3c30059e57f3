// File: internal/domain/ports/adapter/telegram.go
package adapter

import (
	"context"

	"telegram-itmo-schedule/internal/domain/model"
)

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// TelegramBotAdapter is everything the rest of the system needs from the
// Telegram transport: sending replies, feeding webhook payloads into the
// update queue, and managing the webhook registration itself.
type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, telegramID int64, text string) error
	SendButtons(ctx context.Context, telegramID int64, text string, rows [][]InlineButton) error

	// EnqueueUpdate hands a raw webhook payload to the background processor.
	// Returns domain.ErrQueueFull when the queue is saturated and
	// domain.ErrProcessorStopped when no workers are draining it.
	EnqueueUpdate(raw []byte) error
	QueueLen() int
	ProcessorAlive() bool

	SetWebhook(ctx context.Context, publicURL, secret string) error
	DeleteWebhook(ctx context.Context, dropPending bool) error
	WebhookInfo(ctx context.Context) (*model.WebhookStatus, error)
}
