package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"go.uber.org/zap"

	"github.com/GlebRadaev/venuebooking/internal/app"
)

//	@title			Venue Booking API
//	@version		1.0
//	@description	Venues, bookings and user balances

// @host		localhost:8080
// @BasePath	/
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	booking := app.New()
	if err := booking.Start(ctx); err != nil {
		log.Error().Err(err).Msg("venuebooking failed to start")
		zap.L().Fatal("venuebooking failed to start", zap.Error(err))
	}

	if err := booking.Wait(ctx, stop); err != nil {
		zap.L().Fatal("venuebooking stopped with error", zap.Error(err))
	}

	zap.L().Info("venuebooking stopped")
	_ = zap.L().Sync()
}
