package bookingrepo

import (
	"context"
	"errors"
	"time"

	"github.com/GlebRadaev/venuebooking/internal/domain"
	"github.com/GlebRadaev/venuebooking/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	bookingColumns = "id, venue_id, user_id, start_date, number_of_guests, total_price, booking_type, status, payment_ref, created_at, updated_at"

	populatedSelect = `
		SELECT b.id, b.venue_id, b.user_id, b.start_date, b.number_of_guests, b.total_price,
			b.booking_type, b.status, b.payment_ref, b.created_at, b.updated_at,
			COALESCE(v.name, ''), COALESCE(u.name, '')
		FROM bookings b
		LEFT JOIN venues v ON v.id = b.venue_id
		LEFT JOIN users u ON u.id = b.user_id`
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.VenueID, &b.UserID, &b.StartDate, &b.NumberOfGuests, &b.TotalPrice,
		&b.BookingType, &b.Status, &b.PaymentRef, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func scanPopulated(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.VenueID, &b.UserID, &b.StartDate, &b.NumberOfGuests, &b.TotalPrice,
		&b.BookingType, &b.Status, &b.PaymentRef, &b.CreatedAt, &b.UpdatedAt, &b.VenueName, &b.UserName)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) collect(rows pgx.Rows, scan func(pgx.Row) (*domain.Booking, error)) ([]domain.Booking, error) {
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scan(rows)
		if err != nil {
			zap.L().Error("can't scan booking row", zap.Error(err))
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		zap.L().Error("can't iterate booking rows", zap.Error(err))
		return nil, err
	}
	return bookings, nil
}

// FindConflicts returns confirmed bookings of venueID with the same type and
// exactly the same start timestamp.
func (r *Repository) FindConflicts(ctx context.Context, venueID int, bookingType string, startDate time.Time) ([]domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE venue_id = $1 AND booking_type = $2 AND start_date = $3 AND status = 'confirmed'
	`
	rows, err := r.db.Query(ctx, query, venueID, bookingType, startDate)
	if err != nil {
		zap.L().Error("can't query booking conflicts", zap.Error(err))
		return nil, err
	}
	return r.collect(rows, scanBooking)
}

// FindConflictsBetween returns confirmed bookings of venueID with the same type
// starting in [from, to).
func (r *Repository) FindConflictsBetween(ctx context.Context, venueID int, bookingType string, from, to time.Time) ([]domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE venue_id = $1 AND booking_type = $2 AND start_date >= $3 AND start_date < $4 AND status = 'confirmed'
	`
	rows, err := r.db.Query(ctx, query, venueID, bookingType, from, to)
	if err != nil {
		zap.L().Error("can't query booking conflicts in range", zap.Error(err))
		return nil, err
	}
	return r.collect(rows, scanBooking)
}

func (r *Repository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	query := `
		INSERT INTO bookings (venue_id, user_id, start_date, number_of_guests, total_price, booking_type, status, payment_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		b.VenueID, b.UserID, b.StartDate, b.NumberOfGuests, b.TotalPrice, b.BookingType, b.Status, b.PaymentRef,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		zap.L().Error("can't save booking", zap.Error(err))
		return nil, err
	}
	return b, nil
}

func (r *Repository) FindByID(ctx context.Context, id int) (*domain.Booking, error) {
	b, err := scanPopulated(r.db.QueryRow(ctx, populatedSelect+" WHERE b.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find booking", zap.Error(err))
		return nil, err
	}
	return b, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, populatedSelect+" ORDER BY b.start_date DESC, b.id DESC")
	if err != nil {
		zap.L().Error("can't get bookings", zap.Error(err))
		return nil, err
	}
	return r.collect(rows, scanPopulated)
}

func (r *Repository) UpdateStatus(ctx context.Context, id int, status string) (*domain.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + bookingColumns
	b, err := scanBooking(r.db.QueryRow(ctx, query, status, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to update booking status", zap.Error(err))
		return nil, err
	}
	return b, nil
}

func (r *Repository) Delete(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, "DELETE FROM bookings WHERE id = $1", id)
	if err != nil {
		zap.L().Error("can't delete booking", zap.Error(err))
		return err
	}
	return nil
}
