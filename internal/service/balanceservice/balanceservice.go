package balanceservice

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/venuebooking/internal/domain"
	"github.com/GlebRadaev/venuebooking/internal/metrics"
	"github.com/GlebRadaev/venuebooking/internal/pg"
)

const OpeningReference = "opening"

type LedgerRepo interface {
	LockBalance(ctx context.Context, userID int) (*domain.Balance, error)
	Apply(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error)
	Append(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error)
	ListByUser(ctx context.Context, userID int) ([]domain.LedgerEntry, error)
}

type Service struct {
	repo      LedgerRepo
	txManager pg.TXManager
}

func New(repo LedgerRepo, txManager pg.TXManager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrInvalidAmount     = errors.New("amount must not be negative")
)

// Debit takes amount from the user's balance and returns the new balance.
func (s *Service) Debit(ctx context.Context, userID int, amount float64, reference string) (float64, error) {
	return s.change(ctx, userID, domain.LedgerDebit, reference, func(current decimal.Decimal) (decimal.Decimal, error) {
		if amount < 0 {
			return decimal.Zero, ErrInvalidAmount
		}
		amt := decimal.NewFromFloat(amount)
		if current.LessThan(amt) {
			return decimal.Zero, ErrInsufficientFunds
		}
		return current.Sub(amt), nil
	})
}

// Credit adds amount to the user's balance and returns the new balance.
func (s *Service) Credit(ctx context.Context, userID int, amount float64, reference string) (float64, error) {
	return s.change(ctx, userID, domain.LedgerCredit, reference, func(current decimal.Decimal) (decimal.Decimal, error) {
		if amount < 0 {
			return decimal.Zero, ErrInvalidAmount
		}
		return current.Add(decimal.NewFromFloat(amount)), nil
	})
}

// Adjust sets the balance to target, recording the difference.
func (s *Service) Adjust(ctx context.Context, userID int, target float64, reference string) (float64, error) {
	return s.change(ctx, userID, domain.LedgerAdjustment, reference, func(_ decimal.Decimal) (decimal.Decimal, error) {
		if target < 0 {
			return decimal.Zero, ErrInvalidAmount
		}
		return decimal.NewFromFloat(target), nil
	})
}

func (s *Service) change(ctx context.Context, userID int, kind, reference string, next func(decimal.Decimal) (decimal.Decimal, error)) (float64, error) {
	var newBalance float64
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		balance, err := s.repo.LockBalance(ctx, userID)
		if err != nil {
			return err
		}
		if balance == nil {
			return ErrUserNotFound
		}

		current := decimal.NewFromFloat(balance.Current)
		after, err := next(current)
		if err != nil {
			return err
		}
		newBalance = after.InexactFloat64()
		if after.Equal(current) && kind == domain.LedgerAdjustment {
			return nil
		}

		entry := &domain.LedgerEntry{
			UserID:       userID,
			Amount:       after.Sub(current).InexactFloat64(),
			Kind:         kind,
			Reference:    reference,
			BalanceAfter: newBalance,
		}
		if _, err := s.repo.Apply(ctx, entry); err != nil {
			return err
		}
		metrics.LedgerEntry(kind)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrUserNotFound) {
			zap.L().Info("ledger change rejected", zap.Int("userID", userID), zap.String("kind", kind), zap.Error(err))
		} else {
			zap.L().Error("ledger change failed", zap.Int("userID", userID), zap.String("kind", kind), zap.Error(err))
		}
		return 0, err
	}
	return newBalance, nil
}

// Open records the starting balance of a freshly registered user.
func (s *Service) Open(ctx context.Context, userID int, amount float64) error {
	_, err := s.repo.Append(ctx, &domain.LedgerEntry{
		UserID:       userID,
		Amount:       amount,
		Kind:         domain.LedgerAdjustment,
		Reference:    OpeningReference,
		BalanceAfter: amount,
	})
	if err != nil {
		zap.L().Error("failed to open ledger", zap.Int("userID", userID), zap.Error(err))
		return err
	}
	metrics.LedgerEntry(domain.LedgerAdjustment)
	return nil
}

// Statement reads the cached balance and the ledger in one transaction and
// replays the entries.
func (s *Service) Statement(ctx context.Context, userID int) (*domain.Statement, error) {
	var statement *domain.Statement
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		balance, err := s.repo.LockBalance(ctx, userID)
		if err != nil {
			return err
		}
		if balance == nil {
			return ErrUserNotFound
		}
		entries, err := s.repo.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		statement = &domain.Statement{
			UserID:   userID,
			Balance:  balance.Current,
			Replayed: Replay(entries),
			Entries:  entries,
		}
		return nil
	})
	if err != nil {
		zap.L().Error("failed to build statement", zap.Int("userID", userID), zap.Error(err))
		return nil, err
	}
	if statement.Balance != statement.Replayed {
		zap.L().Warn("ledger drift detected", zap.Int("userID", userID),
			zap.Float64("balance", statement.Balance), zap.Float64("replayed", statement.Replayed))
	}
	return statement, nil
}

// Replay sums signed ledger amounts.
func Replay(entries []domain.LedgerEntry) float64 {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(decimal.NewFromFloat(e.Amount))
	}
	return total.InexactFloat64()
}
