package bookingrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/GlebRadaev/venuebooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
)

var (
	columns          = []string{"id", "venue_id", "user_id", "start_date", "number_of_guests", "total_price", "booking_type", "status", "payment_ref", "created_at", "updated_at"}
	populatedColumns = append(append([]string{}, columns...), "venue_name", "user_name")
	start            = time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	now              = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ref              = "5b0f0a8e-5a1f-4a8b-9a57-3b2d0f6c1e11"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	t.Cleanup(mockDB.Close)

	return repo, mockDB
}

func TestRepository_FindConflicts(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta(`
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE venue_id = $1 AND booking_type = $2 AND start_date = $3 AND status = 'confirmed'
	`)

	tests := []struct {
		name          string
		mockSetup     func()
		expectErr     bool
		expectedCount int
	}{
		{
			name: "Conflict found",
			mockSetup: func() {
				rows := pgxmock.NewRows(columns).
					AddRow(1, 1, 2, start, 50, 5000.0, "day", "confirmed", ref, now, now)
				mock.ExpectQuery(query).WithArgs(1, "day", start).WillReturnRows(rows)
			},
			expectedCount: 1,
		},
		{
			name: "No conflicts",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(1, "day", start).WillReturnRows(pgxmock.NewRows(columns))
			},
			expectedCount: 0,
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(1, "day", start).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			bookings, err := repo.FindConflicts(context.Background(), 1, "day", start)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Len(t, bookings, tt.expectedCount)
			}
		})
	}
}

func TestRepository_FindConflictsBetween(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta(`
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE venue_id = $1 AND booking_type = $2 AND start_date >= $3 AND start_date < $4 AND status = 'confirmed'
	`)
	from := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	rows := pgxmock.NewRows(columns).
		AddRow(1, 1, 2, start.Add(2*time.Hour), 50, 8000.0, "night", "confirmed", ref, now, now)
	mock.ExpectQuery(query).WithArgs(1, "night", from, to).WillReturnRows(rows)

	bookings, err := repo.FindConflictsBetween(context.Background(), 1, "night", from, to)
	assert.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.Equal(t, "night", bookings[0].BookingType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta(`
		INSERT INTO bookings (venue_id, user_id, start_date, number_of_guests, total_price, booking_type, status, payment_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`)

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
	}{
		{
			name: "Created",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs(1, 2, start, 50, 5000.0, "day", "confirmed", ref).
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(10, now, now))
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs(1, 2, start, 50, 5000.0, "day", "confirmed", ref).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			b := &domain.Booking{
				VenueID: 1, UserID: 2, StartDate: start, NumberOfGuests: 50, TotalPrice: 5000,
				BookingType: "day", Status: "confirmed", PaymentRef: ref,
			}
			created, err := repo.Create(context.Background(), b)
			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, created)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 10, created.ID)
				assert.Equal(t, now, created.CreatedAt)
			}
		})
	}
}

func TestRepository_FindByID(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta(populatedSelect + " WHERE b.id = $1")

	tests := []struct {
		name      string
		id        int
		mockSetup func()
		expectErr bool
		result    *domain.Booking
	}{
		{
			name: "Found with names",
			id:   10,
			mockSetup: func() {
				rows := pgxmock.NewRows(populatedColumns).
					AddRow(10, 1, 2, start, 50, 5000.0, "day", "confirmed", ref, now, now, "Grand Ballroom", "Ali")
				mock.ExpectQuery(query).WithArgs(10).WillReturnRows(rows)
			},
			result: &domain.Booking{
				ID: 10, VenueID: 1, UserID: 2, StartDate: start, NumberOfGuests: 50, TotalPrice: 5000,
				BookingType: "day", Status: "confirmed", PaymentRef: ref, CreatedAt: now, UpdatedAt: now,
				VenueName: "Grand Ballroom", UserName: "Ali",
			},
		},
		{
			name: "Not found",
			id:   11,
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(11).WillReturnError(pgx.ErrNoRows)
			},
			result: nil,
		},
		{
			name: "Database error",
			id:   12,
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(12).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			b, err := repo.FindByID(context.Background(), tt.id)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, b)
			}
		})
	}
}

func TestRepository_List(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta(populatedSelect + " ORDER BY b.start_date DESC, b.id DESC")

	rows := pgxmock.NewRows(populatedColumns).
		AddRow(11, 1, 2, start, 50, 8000.0, "night", "confirmed", ref, now, now, "Grand Ballroom", "Ali").
		AddRow(10, 1, 3, start, 20, 5000.0, "day", "cancelled", ref, now, now, "Grand Ballroom", "")
	mock.ExpectQuery(query).WillReturnRows(rows)

	bookings, err := repo.List(context.Background())
	assert.NoError(t, err)
	assert.Len(t, bookings, 2)
	assert.Equal(t, "", bookings[1].UserName)

	mock.ExpectQuery(query).WillReturnError(errors.New("database error"))
	_, err = repo.List(context.Background())
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatusAndDelete(t *testing.T) {
	repo, mock := NewMock(t)
	updateQuery := regexp.QuoteMeta(`
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + bookingColumns)

	mock.ExpectQuery(updateQuery).
		WithArgs("cancelled", 10).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(10, 1, 2, start, 50, 5000.0, "day", "cancelled", ref, now, now))
	b, err := repo.UpdateStatus(context.Background(), 10, "cancelled")
	assert.NoError(t, err)
	assert.Equal(t, "cancelled", b.Status)

	mock.ExpectQuery(updateQuery).
		WithArgs("cancelled", 99).
		WillReturnError(pgx.ErrNoRows)
	b, err = repo.UpdateStatus(context.Background(), 99, "cancelled")
	assert.NoError(t, err)
	assert.Nil(t, b)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookings WHERE id = $1")).
		WithArgs(10).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	assert.NoError(t, repo.Delete(context.Background(), 10))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookings WHERE id = $1")).
		WithArgs(11).
		WillReturnError(errors.New("database error"))
	assert.Error(t, repo.Delete(context.Background(), 11))

	assert.NoError(t, mock.ExpectationsWereMet())
}
