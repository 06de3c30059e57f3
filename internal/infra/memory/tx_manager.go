package memory

import (
	"context"

	"github.com/jackc/pgx/v4"

	"telegram-itmo-schedule/internal/domain/ports/repository"
)

var _ repository.TransactionManager = (*TxManager)(nil)

// TxManager satisfies the transaction port for the in-memory repositories,
// which have no transactions to offer. The callback simply runs with NoTX.
type TxManager struct{}

func NewTxManager() *TxManager { return &TxManager{} }

func (TxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}
