package application

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"telegram-itmo-schedule/internal/domain"
	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/domain/ports/adapter"
	"telegram-itmo-schedule/internal/domain/ports/repository"
	"telegram-itmo-schedule/internal/usecase"
)

// Menu callback identifiers. The adapter's callback routes dispatch on them.
const (
	CallbackToday = "cmd:today"
	CallbackDate  = "cmd:date"
	CallbackWeek  = "cmd:week"
)

// BotFacade composes usecases into finished chat replies. Keeping the
// methods string-returning leaves the Telegram adapter a dumb transport and
// the tests free of any Telegram types.
type BotFacade struct {
	scheduleUC usecase.ScheduleUseCase
	userUC     usecase.UserUseCase
	states     repository.DialogStateRepository
	log        *zerolog.Logger
}

func NewBotFacade(
	scheduleUC usecase.ScheduleUseCase,
	userUC usecase.UserUseCase,
	states repository.DialogStateRepository,
	logger *zerolog.Logger,
) *BotFacade {
	l := logger.With().Str("component", "bot_facade").Logger()
	return &BotFacade{
		scheduleUC: scheduleUC,
		userUC:     userUC,
		states:     states,
		log:        &l,
	}
}

// MainMenu is the inline keyboard attached to every successful reply.
func (b *BotFacade) MainMenu() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: "📅 Сегодня", Data: CallbackToday}},
		{{Text: "📆 Конкретная дата", Data: CallbackDate}},
		{{Text: "📅 На неделю", Data: CallbackWeek}},
	}
}

// TrackUser records the sender of an update. Broadcast and stats depend on
// this running for every inbound update, not just /start.
func (b *BotFacade) TrackUser(ctx context.Context, tgID int64, username, firstName string) {
	if _, err := b.userUC.RegisterOrFetch(ctx, tgID, username, firstName); err != nil {
		b.log.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to track user")
	}
}

// HandleStart greets the chat. Registration problems are logged but never
// block the welcome.
func (b *BotFacade) HandleStart(ctx context.Context, tgID int64, username, firstName string) (string, error) {
	if _, err := b.userUC.RegisterOrFetch(ctx, tgID, username, firstName); err != nil {
		b.log.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to register user on /start")
	}
	return welcomeReply, nil
}

// HandleToday renders today's schedule in Moscow time.
func (b *BotFacade) HandleToday(ctx context.Context, tgID int64) (string, error) {
	return b.dayReply(ctx, model.Now()), nil
}

// HandleWeek renders the current week, Monday through Sunday.
func (b *BotFacade) HandleWeek(ctx context.Context, tgID int64) (string, error) {
	week, err := b.scheduleUC.WeekSchedule(ctx, model.Now())
	if err != nil {
		return withNextPrompt(b.scheduleErrorReply(err)), nil
	}
	return withNextPrompt(RenderWeek(week)), nil
}

// HandleDateRequest arms the date-input state and returns the prompt.
func (b *BotFacade) HandleDateRequest(ctx context.Context, tgID int64) (string, error) {
	if err := b.states.SetState(ctx, tgID, &repository.DialogState{AwaitingDate: true}); err != nil {
		// The prompt still goes out; the next message just falls through to
		// the unknown-command reply.
		b.log.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to arm date-input state")
	}
	return datePromptReply, nil
}

// HandleHelp lists the supported commands.
func (b *BotFacade) HandleHelp(ctx context.Context, tgID int64) (string, error) {
	return helpReply, nil
}

// HandleText routes a plain message: a date when the chat was prompted for
// one, the unknown-command reply otherwise.
func (b *BotFacade) HandleText(ctx context.Context, tgID int64, text string) (string, error) {
	st, err := b.states.GetState(ctx, tgID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		b.log.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to read dialog state")
	}
	if st == nil || !st.AwaitingDate {
		return unknownCommandReply, nil
	}

	// One prompt, one answer. The state clears even when the input is bad.
	if err := b.states.ClearState(ctx, tgID); err != nil {
		b.log.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to clear dialog state")
	}

	date, err := b.scheduleUC.ResolveDate(text, model.Now())
	if err != nil {
		return withNextPrompt(badDateReply), nil
	}
	return b.dayReply(ctx, date), nil
}

func (b *BotFacade) dayReply(ctx context.Context, date time.Time) string {
	day, err := b.scheduleUC.DaySchedule(ctx, date)
	if err != nil {
		return withNextPrompt(b.scheduleErrorReply(err))
	}
	return withNextPrompt(RenderDay(day))
}

// scheduleErrorReply maps source failures onto the user-facing strings. An
// absent source gets the actionable message naming the variable to set.
func (b *BotFacade) scheduleErrorReply(err error) string {
	b.log.Error().Err(err).Msg("schedule lookup failed")
	if errors.Is(err, domain.ErrScheduleUnavailable) {
		return scheduleMissingReply
	}
	return scheduleFailedReply
}
