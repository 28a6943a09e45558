package repo

import (
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/venuebooking/internal/pg"
	bookingrepo "github.com/GlebRadaev/venuebooking/internal/repo/booking-repo"
	ledgerrepo "github.com/GlebRadaev/venuebooking/internal/repo/ledger-repo"
	refundrepo "github.com/GlebRadaev/venuebooking/internal/repo/refund-repo"
	userrepo "github.com/GlebRadaev/venuebooking/internal/repo/user-repo"
	venuerepo "github.com/GlebRadaev/venuebooking/internal/repo/venue-repo"
)

func NewMock(t *testing.T) (*Repositories, pgxmock.PgxPoolIface) {
	ctrl := gomock.NewController(t)
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB, pg.NewMockTXManager(ctrl), pg.NewMockTXManager(ctrl))
	defer mockDB.Close()

	return repo, mockDB
}

func TestNew(t *testing.T) {
	repo, mock := NewMock(t)

	assert.IsType(t, &userrepo.Repository{}, repo.UserRepo)
	assert.IsType(t, &venuerepo.Repository{}, repo.VenueRepo)
	assert.IsType(t, &bookingrepo.Repository{}, repo.BookingRepo)
	assert.IsType(t, &ledgerrepo.Repository{}, repo.LedgerRepo)
	assert.IsType(t, &refundrepo.Repository{}, repo.RefundRepo)
	assert.NotNil(t, repo.TxManager)
	assert.NotNil(t, repo.StrictTxManager)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unmet expectations: %v", err)
	}
}
