package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TransactionalFn func(ctx context.Context) error

type TXManager interface {
	Begin(ctx context.Context, fn TransactionalFn) error
}

type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type txKey struct{}

func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

type Manager struct {
	pool txBeginner
	opts pgx.TxOptions
}

func NewTXManager(pool txBeginner) *Manager {
	return &Manager{
		pool: pool,
		opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
	}
}

// NewSerializableTXManager is used where a read-check-write sequence must not
// interleave with a concurrent one.
func NewSerializableTXManager(pool txBeginner) *Manager {
	return &Manager{
		pool: pool,
		opts: pgx.TxOptions{IsoLevel: pgx.Serializable},
	}
}

// Begin runs fn inside a transaction. A transaction already carried by ctx is
// joined instead of starting a new one.
func (m *Manager) Begin(ctx context.Context, fn TransactionalFn) (err error) {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := m.pool.BeginTx(ctx, m.opts)
	if err != nil {
		zap.L().Error("can't begin transaction", zap.Error(err))
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				zap.L().Error("can't rollback transaction", zap.Error(rbErr))
			}
			return
		}
		if err = tx.Commit(ctx); err != nil {
			zap.L().Error("can't commit transaction", zap.Error(err))
			err = fmt.Errorf("commit tx: %w", err)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, tx))
}
