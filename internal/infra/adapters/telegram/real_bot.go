package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-itmo-schedule/internal/application"
	"telegram-itmo-schedule/internal/config"
	"telegram-itmo-schedule/internal/domain"
	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/domain/ports/adapter"
	"telegram-itmo-schedule/internal/infra/logging"
	"telegram-itmo-schedule/internal/infra/metrics"
	red "telegram-itmo-schedule/internal/infra/redis"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// RealTelegramBotAdapter talks to the Bot API through tgbotapi and runs the
// update pipeline: webhook payloads (or polled updates) land in a buffered
// channel and worker goroutines drain it through the facade.
type RealTelegramBotAdapter struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	facade      *application.BotFacade
	rateLimiter *red.RateLimiter
	log         *zerolog.Logger

	updates chan tgbotapi.Update
	quit    chan struct{}
	wg      sync.WaitGroup
	workers int

	aliveWorkers  int32
	stopOnce      sync.Once
	cancelPolling context.CancelFunc
}

// NewRealTelegramBotAdapter authenticates against the Bot API. The rate
// limiter may be nil, in which case throttling is disabled.
func NewRealTelegramBotAdapter(
	cfg *config.BotConfig,
	facade *application.BotFacade,
	rateLimiter *red.RateLimiter,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 128
	}

	l := logger.With().Str("component", "telegram").Logger()
	l.Info().Str("bot", bot.Self.UserName).Msg("authenticated against the bot api")

	return &RealTelegramBotAdapter{
		bot:         bot,
		cfg:         cfg,
		facade:      facade,
		rateLimiter: rateLimiter,
		log:         &l,
		updates:     make(chan tgbotapi.Update, queueSize),
		quit:        make(chan struct{}),
		workers:     workers,
	}, nil
}

// StartProcessor launches the worker goroutines that drain the update queue.
func (r *RealTelegramBotAdapter) StartProcessor(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i)
	}
	r.log.Info().Int("workers", r.workers).Int("queue_cap", cap(r.updates)).Msg("update processor started")
}

// Stop shuts the workers down and waits for in-flight updates to finish.
func (r *RealTelegramBotAdapter) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
	r.wg.Wait()
}

func (r *RealTelegramBotAdapter) worker(ctx context.Context, id int) {
	defer r.wg.Done()
	atomic.AddInt32(&r.aliveWorkers, 1)
	defer atomic.AddInt32(&r.aliveWorkers, -1)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.quit:
			return
		case up := <-r.updates:
			r.processOne(ctx, id, up)
		}
	}
}

// processOne wraps a single update with a panic guard so one bad payload
// cannot take the processor down.
func (r *RealTelegramBotAdapter) processOne(ctx context.Context, workerID int, up tgbotapi.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Int("update_id", up.UpdateID).Msg("update handler panicked")
		}
	}()

	started := time.Now()
	if err := r.handleUpdate(ctx, up); err != nil {
		r.log.Error().Err(err).Int("worker", workerID).Int("update_id", up.UpdateID).Msg("update handling failed")
	}
	metrics.ObserveUpdateProcessing(time.Since(started).Seconds())
	metrics.SetQueueDepth(len(r.updates))
}

// EnqueueUpdate parses a raw webhook payload and pushes it onto the queue
// without blocking the webhook response.
func (r *RealTelegramBotAdapter) EnqueueUpdate(raw []byte) error {
	if !r.ProcessorAlive() {
		return domain.ErrProcessorStopped
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(raw, &update); err != nil {
		return fmt.Errorf("%w: malformed update payload", domain.ErrInvalidArgument)
	}
	metrics.IncUpdateReceived(updateKind(&update))

	if update.Message == nil && update.CallbackQuery == nil {
		// Edited messages, channel posts and the like. Acknowledged, not queued.
		return nil
	}

	select {
	case r.updates <- update:
		metrics.SetQueueDepth(len(r.updates))
		return nil
	default:
		metrics.IncUpdateDropped("queue_full")
		return domain.ErrQueueFull
	}
}

func (r *RealTelegramBotAdapter) QueueLen() int { return len(r.updates) }

func (r *RealTelegramBotAdapter) ProcessorAlive() bool {
	return atomic.LoadInt32(&r.aliveWorkers) > 0
}

func updateKind(up *tgbotapi.Update) string {
	switch {
	case up.CallbackQuery != nil:
		return "callback"
	case up.Message != nil:
		return "message"
	default:
		return "other"
	}
}

// handleUpdate dispatches one update: callbacks through the callback routes,
// commands through the command routes, everything else through the text flow.
func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}
	if update.Message == nil {
		return nil
	}
	tgUser := update.Message.From
	if tgUser == nil {
		return nil
	}
	chatID := update.Message.Chat.ID
	ctx = logging.WithTgID(ctx, tgUser.ID)

	command := "message"
	if update.Message.IsCommand() {
		command = "/" + update.Message.Command()
	}

	if r.rateLimiter != nil {
		allowed, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(tgUser.ID, command), red.CommandLimit, red.LimitWindow)
		if err != nil {
			r.log.Warn().Err(err).Msg("rate limiter check failed")
		} else if !allowed {
			metrics.IncRateLimitTriggered()
			return nil
		}
	}

	metrics.IncTelegramCommand(command)
	r.facade.TrackUser(ctx, tgUser.ID, tgUser.UserName, tgUser.FirstName)

	var err error
	if update.Message.IsCommand() {
		if handler, ok := r.commandRoutes()[update.Message.Command()]; ok {
			err = handler(ctx, update.Message)
		} else {
			err = r.handleTextMessage(ctx, update.Message)
		}
	} else {
		err = r.handleTextMessage(ctx, update.Message)
	}
	if err != nil {
		return r.replyError(ctx, chatID, err)
	}
	return nil
}

// replyError delivers the last-resort failure line and passes the original
// error on for the worker log.
func (r *RealTelegramBotAdapter) replyError(ctx context.Context, chatID int64, err error) error {
	if sendErr := r.SendMessage(ctx, chatID, application.ErrorReply); sendErr != nil {
		r.log.Error().Err(sendErr).Int64("chat_id", chatID).Msg("failed to deliver the error reply")
	}
	return err
}

// sendWithMenu delivers a reply with the main menu keyboard attached.
func (r *RealTelegramBotAdapter) sendWithMenu(ctx context.Context, chatID int64, text string) error {
	if err := r.SendButtons(ctx, chatID, text, r.facade.MainMenu()); err != nil {
		metrics.IncTelegramSendFailure()
		return err
	}
	metrics.IncTelegramReply("menu")
	return nil
}

// SendMessage implements the adapter port for plain text.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, tgID int64, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	msg := tgbotapi.NewMessage(tgID, text)
	_, err := r.bot.Send(msg)
	return err
}

// SendButtons sends a message with an inline keyboard. URL buttons win over
// callback buttons; an empty label falls back to a bullet.
func (r *RealTelegramBotAdapter) SendButtons(
	ctx context.Context,
	telegramID int64,
	text string,
	rows [][]adapter.InlineButton,
) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kbRow := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			var kb tgbotapi.InlineKeyboardButton
			switch {
			case btn.URL != "":
				kb = tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL)
			case btn.Data != "":
				kb = tgbotapi.NewInlineKeyboardButtonData(label, btn.Data)
			default:
				kb = tgbotapi.NewInlineKeyboardButtonData(label, label)
			}
			kbRow = append(kbRow, kb)
		}
		kbRows = append(kbRows, kbRow)
	}

	msg := tgbotapi.NewMessage(telegramID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	_, err := r.bot.Send(msg)
	return err
}

// SetWebhook registers the public webhook URL. The secret token goes through
// a raw API call because the tgbotapi webhook config predates it.
func (r *RealTelegramBotAdapter) SetWebhook(ctx context.Context, publicURL, secret string) error {
	params := tgbotapi.Params{"url": publicURL}
	if secret != "" {
		params["secret_token"] = secret
	}
	resp, err := r.bot.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("set webhook: %s", resp.Description)
	}
	r.log.Info().Str("url", publicURL).Bool("with_secret", secret != "").Msg("webhook registered")
	return nil
}

func (r *RealTelegramBotAdapter) DeleteWebhook(ctx context.Context, dropPending bool) error {
	params := tgbotapi.Params{"drop_pending_updates": strconv.FormatBool(dropPending)}
	resp, err := r.bot.MakeRequest("deleteWebhook", params)
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("delete webhook: %s", resp.Description)
	}
	return nil
}

// WebhookInfo proxies getWebhookInfo for the diagnostics endpoint.
func (r *RealTelegramBotAdapter) WebhookInfo(ctx context.Context) (*model.WebhookStatus, error) {
	info, err := r.bot.GetWebhookInfo()
	if err != nil {
		return nil, fmt.Errorf("get webhook info: %w", err)
	}
	st := &model.WebhookStatus{
		URL:                info.URL,
		PendingUpdateCount: info.PendingUpdateCount,
		LastErrorMessage:   info.LastErrorMessage,
		MaxConnections:     info.MaxConnections,
		IPAddress:          info.IPAddress,
	}
	if info.LastErrorDate > 0 {
		t := time.Unix(int64(info.LastErrorDate), 0).UTC()
		st.LastErrorDate = &t
	}
	return st, nil
}

// StartPolling switches to long polling for local development. Updates land
// in the same queue the webhook feeds, so the rest of the pipeline does not
// care where they came from.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	if err := r.DeleteWebhook(ctx, false); err != nil {
		r.log.Warn().Err(err).Msg("failed to drop the webhook before polling")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	go func() {
		for {
			select {
			case <-ctx.Done():
				r.bot.StopReceivingUpdates()
				return
			case up, ok := <-updates:
				if !ok {
					return
				}
				select {
				case r.updates <- up:
				default:
					metrics.IncUpdateDropped("queue_full")
					r.log.Warn().Int("update_id", up.UpdateID).Msg("queue full, polled update dropped")
				}
			}
		}
	}()
	r.log.Info().Msg("long polling started")
	return nil
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}
