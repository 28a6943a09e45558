package ledgerrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/GlebRadaev/venuebooking/internal/domain"
	"github.com/GlebRadaev/venuebooking/internal/pg"
	"go.uber.org/zap"
)

type Repository struct {
	db        pg.Database
	txManager pg.TXManager
}

func New(db pg.Database, txManager pg.TXManager) *Repository {
	return &Repository{
		db:        db,
		txManager: txManager,
	}
}

// LockBalance reads the cached balance and holds a row lock on the user until
// the surrounding transaction ends.
func (r *Repository) LockBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	query := `
		SELECT id, balance
		FROM users
		WHERE id = $1
		FOR UPDATE
	`
	var balance domain.Balance
	err := r.db.QueryRow(ctx, query, userID).Scan(&balance.UserID, &balance.Current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to lock user balance", zap.Error(err))
		return nil, err
	}
	return &balance, nil
}

// Apply stores entry.BalanceAfter as the user's balance and appends entry to
// the ledger in one transaction.
func (r *Repository) Apply(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	update := `
		UPDATE users
		SET balance = $1
		WHERE id = $2
	`
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		tag, err := r.db.Exec(ctx, update, entry.BalanceAfter, entry.UserID)
		if err != nil {
			zap.L().Error("failed to update user balance", zap.Error(err))
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return r.insert(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Append records entry without touching the cached balance.
func (r *Repository) Append(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	if err := r.insert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *Repository) insert(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (user_id, amount, kind, reference, balance_after)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, entry.UserID, entry.Amount, entry.Kind, entry.Reference, entry.BalanceAfter).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		zap.L().Error("failed to append ledger entry", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int) ([]domain.LedgerEntry, error) {
	query := `
		SELECT id, user_id, amount, kind, reference, balance_after, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY id DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		zap.L().Error("failed to fetch ledger entries", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0)
	for rows.Next() {
		var e domain.LedgerEntry
		err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Kind, &e.Reference, &e.BalanceAfter, &e.CreatedAt)
		if err != nil {
			zap.L().Error("failed to scan ledger row", zap.Error(err))
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		zap.L().Error("failed to iterate ledger rows", zap.Error(err))
		return nil, err
	}
	return entries, nil
}
