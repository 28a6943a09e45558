package refund

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/GlebRadaev/venuebooking/internal/config"
	"github.com/GlebRadaev/venuebooking/internal/domain"
	"github.com/GlebRadaev/venuebooking/internal/pg"
)

func NewMock(t *testing.T) (*Service, *MockRepo, *MockLedger) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepo(ctrl)
	ledger := NewMockLedger(ctrl)
	txManager := pg.NewMockTXManager(ctrl)
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn pg.TransactionalFn) error {
			return fn(ctx)
		}).AnyTimes()

	cfg := &config.Config{RefundInterval: 10 * time.Millisecond, RefundMaxAttempts: 3}
	service := New(cfg, repo, ledger, txManager)
	t.Cleanup(service.workerPool.Close)
	return service, repo, ledger
}

func TestService_Run(t *testing.T) {
	service, repo, _ := NewMock(t)
	repo.EXPECT().FindPending(gomock.Any(), uint32(batchLimit)).Return(nil, nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		service.Run(ctx)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refund worker did not stop")
	}
}

func TestService_RunWaitsForInFlightRefund(t *testing.T) {
	service, repo, ledger := NewMock(t)
	task := domain.RefundTask{ID: 1, UserID: 7, Amount: 5000, Reference: "ref-1"}

	started := make(chan struct{})
	var finished atomic.Bool
	gomock.InOrder(
		repo.EXPECT().FindPending(gomock.Any(), uint32(batchLimit)).Return([]domain.RefundTask{task}, nil),
		repo.EXPECT().FindPending(gomock.Any(), uint32(batchLimit)).Return(nil, nil).AnyTimes(),
	)
	ledger.EXPECT().Credit(gomock.Any(), 7, 5000.0, "ref-1").DoAndReturn(
		func(context.Context, int, float64, string) (float64, error) {
			close(started)
			time.Sleep(50 * time.Millisecond)
			finished.Store(true)
			return 10000, nil
		})
	repo.EXPECT().MarkDone(gomock.Any(), 1).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		service.Run(ctx)
	}()

	<-started
	cancel()
	<-done
	assert.True(t, finished.Load(), "Run returned before the refund finished")
}

func TestService_processPending(t *testing.T) {
	tests := []struct {
		name        string
		tasks       []domain.RefundTask
		findErr     error
		addTaskErr  error
		expectedAdd int
	}{
		{
			name: "schedules every pending task",
			tasks: []domain.RefundTask{
				{ID: 1, UserID: 7, Amount: 5000, Reference: "ref-1"},
				{ID: 2, UserID: 8, Amount: 8000, Reference: "ref-2"},
			},
			expectedAdd: 2,
		},
		{
			name:    "stops when pending tasks can't be read",
			findErr: errors.New("db error"),
		},
		{
			name:        "pool refuses the task",
			tasks:       []domain.RefundTask{{ID: 3}},
			addTaskErr:  context.Canceled,
			expectedAdd: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := NewMockRepo(ctrl)
			workerPool := NewMockWorkerPoolI(ctrl)

			repo.EXPECT().FindPending(gomock.Any(), uint32(2)).Return(tt.tasks, tt.findErr)
			workerPool.EXPECT().AddTask(gomock.Any(), gomock.Any()).Return(tt.addTaskErr).Times(tt.expectedAdd)

			service := &Service{
				repo:       repo,
				workerPool: workerPool,
				limit:      2,
			}
			service.processPending(context.Background())

			if tt.addTaskErr != nil {
				_, stillHeld := service.inFlight.Load("3")
				assert.False(t, stillHeld)
			}
		})
	}
}

func TestService_processPendingSkipsInFlight(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepo(ctrl)
	workerPool := NewMockWorkerPoolI(ctrl)

	repo.EXPECT().FindPending(gomock.Any(), gomock.Any()).Return([]domain.RefundTask{{ID: 4}}, nil)

	service := &Service{repo: repo, workerPool: workerPool, limit: 1}
	service.inFlight.Store("4", struct{}{})
	service.processPending(context.Background())
}

func TestService_handleTask(t *testing.T) {
	task := domain.RefundTask{ID: 1, UserID: 7, Amount: 5000, Reference: "ref-1"}

	tests := []struct {
		name        string
		prepareMock func(repo *MockRepo, ledger *MockLedger)
		expectErr   bool
	}{
		{
			name: "credit applied and task closed",
			prepareMock: func(repo *MockRepo, ledger *MockLedger) {
				ledger.EXPECT().Credit(gomock.Any(), 7, 5000.0, "ref-1").Return(10000.0, nil)
				repo.EXPECT().MarkDone(gomock.Any(), 1).Return(nil)
			},
		},
		{
			name: "credit fails and the attempt is recorded",
			prepareMock: func(repo *MockRepo, ledger *MockLedger) {
				ledger.EXPECT().Credit(gomock.Any(), 7, 5000.0, "ref-1").Return(0.0, errors.New("user not found"))
				repo.EXPECT().RecordFailure(gomock.Any(), 1, "user not found", 3).Return(domain.RefundPending, nil)
			},
			expectErr: true,
		},
		{
			name: "last attempt marks the task failed",
			prepareMock: func(repo *MockRepo, ledger *MockLedger) {
				ledger.EXPECT().Credit(gomock.Any(), 7, 5000.0, "ref-1").Return(0.0, errors.New("user not found"))
				repo.EXPECT().RecordFailure(gomock.Any(), 1, "user not found", 3).Return(domain.RefundFailed, nil)
			},
		},
		{
			name: "mark done fails and the attempt is recorded",
			prepareMock: func(repo *MockRepo, ledger *MockLedger) {
				ledger.EXPECT().Credit(gomock.Any(), 7, 5000.0, "ref-1").Return(10000.0, nil)
				repo.EXPECT().MarkDone(gomock.Any(), 1).Return(errors.New("db error"))
				repo.EXPECT().RecordFailure(gomock.Any(), 1, "db error", 3).Return(domain.RefundPending, nil)
			},
			expectErr: true,
		},
		{
			name: "failure can't be recorded",
			prepareMock: func(repo *MockRepo, ledger *MockLedger) {
				ledger.EXPECT().Credit(gomock.Any(), 7, 5000.0, "ref-1").Return(0.0, errors.New("db error"))
				repo.EXPECT().RecordFailure(gomock.Any(), 1, "db error", 3).Return("", errors.New("db down"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, ledger := NewMock(t)
			tt.prepareMock(repo, ledger)

			err := service.handleTask(context.Background(), task)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_processPendingRunsTasks(t *testing.T) {
	service, repo, ledger := NewMock(t)

	var wg sync.WaitGroup
	wg.Add(2)
	repo.EXPECT().FindPending(gomock.Any(), uint32(batchLimit)).Return([]domain.RefundTask{
		{ID: 1, UserID: 7, Amount: 100, Reference: "ref-1"},
		{ID: 2, UserID: 8, Amount: 200, Reference: "ref-2"},
	}, nil)
	ledger.EXPECT().Credit(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(1.0, nil).Times(2)
	repo.EXPECT().MarkDone(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, int) error {
		wg.Done()
		return nil
	}).Times(2)

	service.processPending(context.Background())
	wg.Wait()
}
