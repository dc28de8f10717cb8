package repository

import (
	"context"
)

// TxManager runs a function inside a single database transaction. The
// callback receives a transaction-scoped Querier; any error rolls the whole
// transaction back.
type TxManager interface {
	InTx(ctx context.Context, fn func(q Querier) error) error
}

type pgxTxManager struct {
	db TxBeginner
}

// NewTxManager builds a TxManager over a pool.
func NewTxManager(db TxBeginner) TxManager {
	return &pgxTxManager{db: db}
}

func (m *pgxTxManager) InTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
