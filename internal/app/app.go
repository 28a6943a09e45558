package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/GlebRadaev/venuebooking/internal/cache"
	"github.com/GlebRadaev/venuebooking/internal/config"
	"github.com/GlebRadaev/venuebooking/internal/handlers"
	"github.com/GlebRadaev/venuebooking/internal/pg"
	"github.com/GlebRadaev/venuebooking/internal/refund"
	"github.com/GlebRadaev/venuebooking/internal/repo"
	"github.com/GlebRadaev/venuebooking/internal/service"
	"github.com/GlebRadaev/venuebooking/pkg/logger"
	"github.com/GlebRadaev/venuebooking/pkg/notify"
)

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg     *config.Config
	api     *handlers.Handlers
	srv     *service.Services
	repo    *repo.Repositories
	refunds *refund.Service

	closers []func() error

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()

	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}

	pool, err := getPgxpool(ctx, cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return fmt.Errorf("can't build pgx pool: %w", err)
	}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })
	if err := pg.RunMigrations(pool); err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return fmt.Errorf("can't run migrations: %w", err)
	}

	conn := pg.New(pool)
	a.cfg = cfg
	a.repo = repo.New(conn, pg.NewTXManager(pool), pg.NewSerializableTXManager(pool))
	a.srv = service.New(cfg, a.repo, service.Deps{
		Cache:    a.availabilityCache(ctx),
		Notifier: a.notifier(),
	})
	a.api = handlers.New(a.srv, cfg)
	a.refunds = refund.New(cfg, a.repo.RefundRepo, a.srv.Ledger, a.repo.TxManager)

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}

	a.startRefundWorker(ctx)

	a.ready = true
	zap.L().Info("all systems started successfully",
		zap.String("bookingMode", cfg.BookingMode), zap.String("conflictPolicy", cfg.ConflictPolicy))
	return nil
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		return nil, err
	}
	return dbpool, nil
}

// availabilityCache is a no-op cache when redis is not configured.
func (a *Application) availabilityCache(ctx context.Context) *cache.Availability {
	var cmd redis.Cmdable
	if client := cache.NewRedisClient(ctx, a.cfg.RedisAddress); client != nil {
		a.closers = append(a.closers, client.Close)
		cmd = client
	}
	return cache.NewAvailability(cmd)
}

// notifier falls back to logging when the broker is missing or unreachable.
func (a *Application) notifier() notify.Notifier {
	if a.cfg.RabbitURL == "" {
		return notify.LogNotifier{}
	}
	publisher, err := notify.NewPublisher(a.cfg.RabbitURL, notify.Exchange)
	if err != nil {
		zap.L().Warn("rabbitmq unavailable, notifications are logged only", zap.Error(err))
		return notify.LogNotifier{}
	}
	a.closers = append(a.closers, publisher.Close)
	return publisher
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:    a.cfg.Address,
		Handler: router,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(sCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

func (a *Application) startRefundWorker(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.refunds.Run(ctx)
	}()
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			zap.L().Warn("close failed", zap.Error(err))
		}
	}

	return appErr
}
