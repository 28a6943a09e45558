package pg

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Begin(t *testing.T) {
	readCommitted := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	serializable := pgx.TxOptions{IsoLevel: pgx.Serializable}

	tests := []struct {
		name       string
		newManager func(pool txBeginner) *Manager
		mockSetup  func(mock pgxmock.PgxPoolIface)
		fn         func(m *Manager) TransactionalFn
		expectErr  bool
	}{
		{
			name:       "Commit on success",
			newManager: func(pool txBeginner) *Manager { return NewTXManager(pool) },
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBeginTx(readCommitted)
				mock.ExpectExec("UPDATE venues").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectCommit()
			},
			fn: func(_ *Manager) TransactionalFn {
				return func(ctx context.Context) error {
					tx, ok := txFromContext(ctx)
					if !ok {
						return errors.New("no tx in context")
					}
					_, err := tx.Exec(ctx, "UPDATE venues SET status = 'Available'")
					return err
				}
			},
			expectErr: false,
		},
		{
			name:       "Rollback on error",
			newManager: func(pool txBeginner) *Manager { return NewTXManager(pool) },
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBeginTx(readCommitted)
				mock.ExpectRollback()
			},
			fn: func(_ *Manager) TransactionalFn {
				return func(ctx context.Context) error {
					return errors.New("insert failed")
				}
			},
			expectErr: true,
		},
		{
			name:       "Begin failure",
			newManager: func(pool txBeginner) *Manager { return NewTXManager(pool) },
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBeginTx(readCommitted).WillReturnError(errors.New("connection refused"))
			},
			fn: func(_ *Manager) TransactionalFn {
				return func(ctx context.Context) error { return nil }
			},
			expectErr: true,
		},
		{
			name:       "Commit failure",
			newManager: func(pool txBeginner) *Manager { return NewSerializableTXManager(pool) },
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBeginTx(serializable)
				mock.ExpectCommit().WillReturnError(errors.New("could not serialize access"))
			},
			fn: func(_ *Manager) TransactionalFn {
				return func(ctx context.Context) error { return nil }
			},
			expectErr: true,
		},
		{
			name:       "Nested call joins outer transaction",
			newManager: func(pool txBeginner) *Manager { return NewTXManager(pool) },
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBeginTx(readCommitted)
				mock.ExpectCommit()
			},
			fn: func(m *Manager) TransactionalFn {
				return func(ctx context.Context) error {
					return m.Begin(ctx, func(ctx context.Context) error {
						_, ok := txFromContext(ctx)
						if !ok {
							return errors.New("no tx in context")
						}
						return nil
					})
				}
			},
			expectErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)
			m := tt.newManager(mock)

			err = m.Begin(context.Background(), tt.fn(m))
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
