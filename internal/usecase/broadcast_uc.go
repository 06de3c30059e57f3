package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/domain/ports/adapter"
	"telegram-itmo-schedule/internal/domain/ports/repository"
	"telegram-itmo-schedule/internal/infra/metrics"
	"telegram-itmo-schedule/internal/infra/worker"
)

// Compile-time check
var _ BroadcastUseCase = (*broadcastUC)(nil)

// BroadcastUseCase fans an admin announcement out to every known chat.
type BroadcastUseCase interface {
	BroadcastMessage(ctx context.Context, message string) (int, error)
}

type broadcastUC struct {
	users      repository.UserRepository
	bot        adapter.TelegramBotAdapter
	workerPool *worker.Pool
	log        *zerolog.Logger
}

func NewBroadcastUseCase(
	users repository.UserRepository,
	bot adapter.TelegramBotAdapter,
	pool *worker.Pool,
	logger *zerolog.Logger,
) *broadcastUC {
	return &broadcastUC{
		users:      users,
		bot:        bot,
		workerPool: pool,
		log:        logger,
	}
}

// BroadcastMessage queues the message for every non-admin user and returns
// how many sends were scheduled. Delivery happens in the background through
// the worker pool; the throttle stays under Telegram's ~30 msg/s limit.
func (uc *broadcastUC) BroadcastMessage(ctx context.Context, message string) (int, error) {
	allUsers, err := uc.users.List(ctx, repository.NoTX, 0, 0)
	if err != nil {
		uc.log.Error().Err(err).Msg("failed to fetch users for broadcast")
		return 0, err
	}

	var targets []*model.User
	for _, user := range allUsers {
		if !user.IsAdmin {
			targets = append(targets, user)
		}
	}

	throttle := time.NewTicker(time.Second / 25)
	go func() {
		defer throttle.Stop()
		uc.log.Info().Int("user_count", len(targets)).Msg("starting broadcast job")

		for _, user := range targets {
			<-throttle.C

			task := uc.createSendTask(user.TelegramID, message)
			if err := uc.workerPool.Submit(task); err != nil {
				uc.log.Warn().Err(err).Int64("tg_id", user.TelegramID).Msg("failed to submit broadcast task")
			}
		}
		uc.log.Info().Msg("broadcast job finished queuing all tasks")
	}()

	return len(targets), nil
}

// createSendTask wraps one delivery as a worker pool task. Send failures are
// expected (users block bots) and must not fail the task.
func (uc *broadcastUC) createSendTask(telegramID int64, message string) worker.Task {
	return func(ctx context.Context) error {
		if err := uc.bot.SendMessage(ctx, telegramID, message); err != nil {
			metrics.IncTelegramSendFailure()
			uc.log.Warn().Err(err).Int64("tg_id", telegramID).Msg("broadcast delivery failed")
			return nil
		}
		metrics.IncTelegramReply("broadcast")
		return nil
	}
}
