package repo

import (
	"github.com/GlebRadaev/venuebooking/internal/pg"
	"github.com/GlebRadaev/venuebooking/internal/refund"
	bookingrepo "github.com/GlebRadaev/venuebooking/internal/repo/booking-repo"
	ledgerrepo "github.com/GlebRadaev/venuebooking/internal/repo/ledger-repo"
	refundrepo "github.com/GlebRadaev/venuebooking/internal/repo/refund-repo"
	userrepo "github.com/GlebRadaev/venuebooking/internal/repo/user-repo"
	venuerepo "github.com/GlebRadaev/venuebooking/internal/repo/venue-repo"
	"github.com/GlebRadaev/venuebooking/internal/service/authservice"
	"github.com/GlebRadaev/venuebooking/internal/service/balanceservice"
	"github.com/GlebRadaev/venuebooking/internal/service/bookingservice"
	"github.com/GlebRadaev/venuebooking/internal/service/venueservice"
)

// RefundRepo is written by bookings and drained by the refund worker.
type RefundRepo interface {
	bookingservice.RefundQueue
	refund.Repo
}

type Repositories struct {
	UserRepo    authservice.Repo
	VenueRepo   venueservice.Repo
	BookingRepo bookingservice.Repo
	LedgerRepo  balanceservice.LedgerRepo
	RefundRepo  RefundRepo

	TxManager pg.TXManager
	// StrictTxManager runs serializable transactions for strict booking mode.
	StrictTxManager pg.TXManager
}

func New(conn pg.Database, txManager, strictTxManager pg.TXManager) *Repositories {
	return &Repositories{
		UserRepo:        userrepo.New(conn),
		VenueRepo:       venuerepo.New(conn),
		BookingRepo:     bookingrepo.New(conn),
		LedgerRepo:      ledgerrepo.New(conn, txManager),
		RefundRepo:      refundrepo.New(conn),
		TxManager:       txManager,
		StrictTxManager: strictTxManager,
	}
}
