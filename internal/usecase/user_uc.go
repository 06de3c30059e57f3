package usecase

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-itmo-schedule/internal/domain"
	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/domain/ports/repository"
	"telegram-itmo-schedule/internal/infra/logging"
	"telegram-itmo-schedule/internal/infra/metrics"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes user-related operations used by bot/admin flows.
type UserUseCase interface {
	RegisterOrFetch(ctx context.Context, tgID int64, username, firstName string) (*model.User, error)
	GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error)
	TouchActivity(ctx context.Context, tgID int64) error
	List(ctx context.Context, offset, limit int) ([]*model.User, error)
	Count(ctx context.Context) (int, error)
}

type userUC struct {
	users repository.UserRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, logger *zerolog.Logger) *userUC {
	return &userUC{
		users: users,
		tm:    tm,
		log:   logger,
	}
}

// RegisterOrFetch records a user on first contact and refreshes the profile
// on every /start after that.
func (u *userUC) RegisterOrFetch(ctx context.Context, tgID int64, username, firstName string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.RegisterOrFetch")()

	var user *model.User
	// The find and the save run as one atomic step so two parallel /start
	// taps cannot register the same user twice.
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByTelegramID(ctx, tx, tgID)
		switch {
		case err == nil:
			if username != "" && usr.Username != username {
				usr.Username = username
			}
			if firstName != "" && usr.FirstName != firstName {
				usr.FirstName = firstName
			}
			usr.Touch()
			if err := u.users.Save(ctx, tx, usr); err != nil {
				u.log.Error().Err(err).Int64("tg_id", tgID).Msg("failed to update user")
				return err
			}
			user = usr
			return nil
		case errors.Is(err, domain.ErrNotFound):
			nu, err := model.NewUser("", tgID, username, firstName)
			if err != nil {
				return err
			}
			if err := u.users.Save(ctx, tx, nu); err != nil {
				return err
			}
			metrics.IncUsersRegistered()
			u.log.Info().Int64("tg_id", tgID).Msg("new user registered")
			user = nu
			return nil
		default:
			return err
		}
	})

	return user, err
}

func (u *userUC) GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.GetByTelegramID")()
	return u.users.FindByTelegramID(ctx, repository.NoTX, tgID)
}

// TouchActivity bumps last_active_at for a known user. Users who never ran
// /start are not recorded here, matching the registration-on-start contract.
func (u *userUC) TouchActivity(ctx context.Context, tgID int64) error {
	err := u.users.UpdateLastActive(ctx, repository.NoTX, tgID, model.Now())
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

func (u *userUC) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.List")()
	return u.users.List(ctx, repository.NoTX, offset, limit)
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.Count")()
	n, err := u.users.CountUsers(ctx, repository.NoTX)
	if err == nil {
		metrics.SetKnownUsers(n)
	}
	return n, err
}
