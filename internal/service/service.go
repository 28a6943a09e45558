package service

import (
	"github.com/GlebRadaev/venuebooking/internal/config"
	"github.com/GlebRadaev/venuebooking/internal/handlers/auth"
	"github.com/GlebRadaev/venuebooking/internal/handlers/bookings"
	"github.com/GlebRadaev/venuebooking/internal/handlers/venues"
	"github.com/GlebRadaev/venuebooking/internal/pg"
	"github.com/GlebRadaev/venuebooking/internal/repo"
	"github.com/GlebRadaev/venuebooking/internal/service/authservice"
	"github.com/GlebRadaev/venuebooking/internal/service/balanceservice"
	"github.com/GlebRadaev/venuebooking/internal/service/bookingservice"
	"github.com/GlebRadaev/venuebooking/internal/service/venueservice"
	pkgauth "github.com/GlebRadaev/venuebooking/pkg/auth"
	"github.com/GlebRadaev/venuebooking/pkg/notify"
)

type BookingService interface {
	bookings.Service
	venues.AvailabilityService
}

// Deps are the external systems the services talk to besides Postgres.
type Deps struct {
	Cache    bookingservice.AvailabilityCache
	Notifier notify.Notifier
}

type Services struct {
	AuthService    auth.Service
	VenueService   venues.Service
	BookingService BookingService
	Ledger         *balanceservice.Service
	Tokens         pkgauth.TokenValidator
}

func New(cfg *config.Config, repo *repo.Repositories, deps Deps) *Services {
	jwtService := pkgauth.NewJWTService(cfg.JWTSecret)
	ledger := balanceservice.New(repo.LedgerRepo, repo.TxManager)
	venueService := venueservice.New(repo.VenueRepo)

	authService := authservice.New(repo.UserRepo, ledger, pkgauth.NewHashService(10), jwtService,
		deps.Notifier, repo.TxManager, authservice.Options{
			TokenTTL:  cfg.JWTTTL,
			VerifyURL: cfg.VerifyURL,
		})

	var bookingTx pg.TXManager = repo.TxManager
	if cfg.Strict() {
		bookingTx = repo.StrictTxManager
	}
	bookingService := bookingservice.New(repo.BookingRepo, repo.UserRepo, venueService, ledger, repo.RefundRepo,
		deps.Cache, deps.Notifier, bookingTx, bookingservice.Options{
			Strict:         cfg.Strict(),
			ConflictPolicy: cfg.ConflictPolicy,
		})

	return &Services{
		AuthService:    authService,
		VenueService:   venueService,
		BookingService: bookingService,
		Ledger:         ledger,
		Tokens:         jwtService,
	}
}
