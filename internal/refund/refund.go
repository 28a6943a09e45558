package refund

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GlebRadaev/venuebooking/internal/config"
	"github.com/GlebRadaev/venuebooking/internal/domain"
	"github.com/GlebRadaev/venuebooking/internal/metrics"
	"github.com/GlebRadaev/venuebooking/internal/pg"
)

const (
	batchLimit  = 100
	workerCount = 4
)

type Repo interface {
	FindPending(ctx context.Context, limit uint32) ([]domain.RefundTask, error)
	MarkDone(ctx context.Context, id int) error
	RecordFailure(ctx context.Context, id int, reason string, maxAttempts int) (string, error)
}

type Ledger interface {
	Credit(ctx context.Context, userID int, amount float64, reference string) (float64, error)
}

// Service retries refunds that the booking workflow could not apply inline.
type Service struct {
	repo           Repo
	ledger         Ledger
	txManager      pg.TXManager
	workerPool     WorkerPoolI
	limit          uint32
	maxAttempts    int
	updateInterval time.Duration
	inFlight       sync.Map
}

func New(cfg *config.Config, repo Repo, ledger Ledger, txManager pg.TXManager) *Service {
	interval := cfg.RefundInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	maxAttempts := cfg.RefundMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Service{
		repo:           repo,
		ledger:         ledger,
		txManager:      txManager,
		workerPool:     NewWorkerPool(workerCount),
		limit:          batchLimit,
		maxAttempts:    maxAttempts,
		updateInterval: interval,
	}
}

// Run polls for pending refunds until ctx is done. It returns only after
// refunds already handed to the worker pool have finished.
func (s *Service) Run(ctx context.Context) {
	zap.L().Info("refund worker started", zap.Duration("interval", s.updateInterval))
	ticker := time.NewTicker(s.updateInterval)
	defer ticker.Stop()
	defer s.workerPool.Close()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("refund worker stopped")
			return
		case <-ticker.C:
			s.processPending(ctx)
		}
	}
}

func (s *Service) processPending(ctx context.Context) {
	tasks, err := s.repo.FindPending(ctx, s.limit)
	if err != nil {
		zap.L().Error("can't fetch pending refunds", zap.Error(err))
		return
	}

	var g errgroup.Group
	for _, task := range tasks {
		task := task
		key := strconv.Itoa(task.ID)

		if _, loaded := s.inFlight.LoadOrStore(key, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := s.workerPool.AddTask(ctx, func() error {
				defer s.inFlight.Delete(key)
				return s.handleTask(ctx, task)
			})
			if err != nil {
				s.inFlight.Delete(key)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("can't schedule refunds", zap.Error(err))
	}
}

// handleTask credits the user and closes the task in one transaction, so a
// refund is applied at most once.
func (s *Service) handleTask(ctx context.Context, task domain.RefundTask) error {
	var balance float64
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		balance, err = s.ledger.Credit(ctx, task.UserID, task.Amount, task.Reference)
		if err != nil {
			return err
		}
		return s.repo.MarkDone(ctx, task.ID)
	})
	if err == nil {
		metrics.RefundTask(domain.RefundDone)
		zap.L().Info("refund applied", zap.Int("taskID", task.ID), zap.Int("userID", task.UserID),
			zap.Float64("amount", task.Amount), zap.Float64("newBalance", balance))
		return nil
	}

	status, ferr := s.repo.RecordFailure(ctx, task.ID, err.Error(), s.maxAttempts)
	if ferr != nil {
		return fmt.Errorf("record failure of refund %d: %w", task.ID, ferr)
	}
	metrics.RefundTask(status)
	if status == domain.RefundFailed {
		zap.L().Error("refund abandoned", zap.Int("taskID", task.ID), zap.Int("userID", task.UserID),
			zap.String("reference", task.Reference), zap.Error(err))
		return nil
	}
	return fmt.Errorf("refund %d: %w", task.ID, err)
}
