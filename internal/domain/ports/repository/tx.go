package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying handle through the repository methods' tx argument.
//
// USAGE
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx Tx) error {
//		u, err := users.FindByTelegramID(ctx, tx, tgID)
//		...
//		return err
//	})
//
// The concrete type of the handle is infra-defined (pgx.Tx for Postgres).
// Repositories MUST gracefully accept NoTX for the non-transactional path.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
