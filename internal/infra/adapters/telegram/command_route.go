package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type commandHandler func(ctx context.Context, msg *tgbotapi.Message) error

// commandRoutes maps slash commands (without the leading slash) to handlers.
// Unknown commands fall through to the plain-text flow, which answers with
// the unknown-command hint unless a date dialog is open.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start": r.handleStartCommand,
		"today": r.handleTodayCommand,
		"week":  r.handleWeekCommand,
		"date":  r.handleDateCommand,
		"help":  r.handleHelpCommand,
	}
}

func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, msg *tgbotapi.Message) error {
	tgUser := msg.From
	reply, err := r.facade.HandleStart(ctx, tgUser.ID, tgUser.UserName, tgUser.FirstName)
	if err != nil {
		return r.replyError(ctx, msg.Chat.ID, err)
	}
	return r.sendWithMenu(ctx, msg.Chat.ID, reply)
}

func (r *RealTelegramBotAdapter) handleTodayCommand(ctx context.Context, msg *tgbotapi.Message) error {
	reply, err := r.facade.HandleToday(ctx, msg.From.ID)
	if err != nil {
		return r.replyError(ctx, msg.Chat.ID, err)
	}
	return r.sendWithMenu(ctx, msg.Chat.ID, reply)
}

func (r *RealTelegramBotAdapter) handleWeekCommand(ctx context.Context, msg *tgbotapi.Message) error {
	reply, err := r.facade.HandleWeek(ctx, msg.From.ID)
	if err != nil {
		return r.replyError(ctx, msg.Chat.ID, err)
	}
	return r.sendWithMenu(ctx, msg.Chat.ID, reply)
}

func (r *RealTelegramBotAdapter) handleDateCommand(ctx context.Context, msg *tgbotapi.Message) error {
	reply, err := r.facade.HandleDateRequest(ctx, msg.From.ID)
	if err != nil {
		return r.replyError(ctx, msg.Chat.ID, err)
	}
	// No menu here: the next message from this chat is the date answer.
	return r.SendMessage(ctx, msg.Chat.ID, reply)
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, msg *tgbotapi.Message) error {
	reply, err := r.facade.HandleHelp(ctx, msg.From.ID)
	if err != nil {
		return r.replyError(ctx, msg.Chat.ID, err)
	}
	return r.sendWithMenu(ctx, msg.Chat.ID, reply)
}

// handleTextMessage covers free-form text: either a date answer for an open
// dialog or an unknown input.
func (r *RealTelegramBotAdapter) handleTextMessage(ctx context.Context, msg *tgbotapi.Message) error {
	reply, err := r.facade.HandleText(ctx, msg.From.ID, msg.Text)
	if err != nil {
		return r.replyError(ctx, msg.Chat.ID, err)
	}
	return r.sendWithMenu(ctx, msg.Chat.ID, reply)
}
