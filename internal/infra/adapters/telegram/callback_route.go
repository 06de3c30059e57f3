package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-itmo-schedule/internal/application"
	"telegram-itmo-schedule/internal/infra/metrics"
	red "telegram-itmo-schedule/internal/infra/redis"
)

type cbHandler func(ctx context.Context, userID, chatID int64) error

func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		application.CallbackToday: r.cbToday,
		application.CallbackDate:  r.cbDate,
		application.CallbackWeek:  r.cbWeek,
	}
}

// handleQuery answers the callback immediately so the client stops its
// spinner, then routes by callback data. Unknown data is ignored.
func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	defer func() {
		cb := tgbotapi.NewCallback(query.ID, "")
		if _, err := r.bot.Request(cb); err != nil {
			r.log.Warn().Err(err).Msg("failed to answer callback query")
		}
	}()

	if query.From == nil {
		return nil
	}
	chatID := query.From.ID
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	}

	if r.rateLimiter != nil {
		allowed, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(query.From.ID, "cb:"+query.Data), red.CallbackLimit, red.LimitWindow)
		if err != nil {
			r.log.Warn().Err(err).Msg("rate limiter check failed")
		} else if !allowed {
			metrics.IncRateLimitTriggered()
			return nil
		}
	}

	metrics.IncTelegramCommand("cb:" + query.Data)
	r.facade.TrackUser(ctx, query.From.ID, query.From.UserName, query.From.FirstName)

	handler, ok := r.cbRoutes()[query.Data]
	if !ok {
		r.log.Warn().Str("data", query.Data).Msg("unknown callback data")
		return nil
	}
	if err := handler(ctx, query.From.ID, chatID); err != nil {
		return r.replyError(ctx, chatID, err)
	}
	return nil
}

func (r *RealTelegramBotAdapter) cbToday(ctx context.Context, userID, chatID int64) error {
	reply, err := r.facade.HandleToday(ctx, userID)
	if err != nil {
		return err
	}
	return r.sendWithMenu(ctx, chatID, reply)
}

func (r *RealTelegramBotAdapter) cbDate(ctx context.Context, userID, chatID int64) error {
	reply, err := r.facade.HandleDateRequest(ctx, userID)
	if err != nil {
		return err
	}
	return r.SendMessage(ctx, chatID, reply)
}

func (r *RealTelegramBotAdapter) cbWeek(ctx context.Context, userID, chatID int64) error {
	reply, err := r.facade.HandleWeek(ctx, userID)
	if err != nil {
		return err
	}
	return r.sendWithMenu(ctx, chatID, reply)
}
