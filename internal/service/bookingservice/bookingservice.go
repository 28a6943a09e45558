package bookingservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GlebRadaev/venuebooking/internal/config"
	"github.com/GlebRadaev/venuebooking/internal/domain"
	"github.com/GlebRadaev/venuebooking/internal/metrics"
	"github.com/GlebRadaev/venuebooking/internal/pg"
	"github.com/GlebRadaev/venuebooking/internal/service/balanceservice"
	"github.com/GlebRadaev/venuebooking/internal/service/venueservice"
	"github.com/GlebRadaev/venuebooking/pkg/notify"
	"github.com/GlebRadaev/venuebooking/pkg/validate"
)

const dateLayout = "2006-01-02 15:04"

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrValidation        = errors.New("validation error")
	ErrVenueNotFound     = venueservice.ErrVenueNotFound
	ErrUserNotFound      = balanceservice.ErrUserNotFound
	ErrInsufficientFunds = balanceservice.ErrInsufficientFunds
)

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError lists the confirmed bookings that already hold the slot.
type ConflictError struct {
	Bookings []domain.Booking
}

func (e *ConflictError) Error() string {
	return "Venue is already booked for the selected date/time"
}

type Repo interface {
	FindConflicts(ctx context.Context, venueID int, bookingType string, startDate time.Time) ([]domain.Booking, error)
	FindConflictsBetween(ctx context.Context, venueID int, bookingType string, from, to time.Time) ([]domain.Booking, error)
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	FindByID(ctx context.Context, id int) (*domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id int, status string) (*domain.Booking, error)
	Delete(ctx context.Context, id int) error
}

type UserRepo interface {
	FindByID(ctx context.Context, id int) (*domain.User, error)
}

type VenueDirectory interface {
	Get(ctx context.Context, id int) (*domain.Venue, error)
	SetStatus(ctx context.Context, id int, status string) error
}

type Ledger interface {
	Debit(ctx context.Context, userID int, amount float64, reference string) (float64, error)
	Credit(ctx context.Context, userID int, amount float64, reference string) (float64, error)
}

type RefundQueue interface {
	Enqueue(ctx context.Context, task *domain.RefundTask) (*domain.RefundTask, error)
}

type AvailabilityCache interface {
	Get(ctx context.Context, venueID int, bookingType string, date time.Time) (available bool, hit bool)
	Set(ctx context.Context, venueID int, bookingType string, date time.Time, available bool)
	InvalidateVenue(ctx context.Context, venueID int)
}

type Options struct {
	// Strict runs each workflow in a single transaction.
	Strict         bool
	ConflictPolicy string
}

type Service struct {
	repo      Repo
	users     UserRepo
	venues    VenueDirectory
	ledger    Ledger
	refunds   RefundQueue
	cache     AvailabilityCache
	notifier  notify.Notifier
	txManager pg.TXManager
	opts      Options
}

func New(repo Repo, users UserRepo, venues VenueDirectory, ledger Ledger, refunds RefundQueue,
	cache AvailabilityCache, notifier notify.Notifier, txManager pg.TXManager, opts Options) *Service {
	if opts.ConflictPolicy == "" {
		opts.ConflictPolicy = config.ConflictExact
	}
	return &Service{
		repo:      repo,
		users:     users,
		venues:    venues,
		ledger:    ledger,
		refunds:   refunds,
		cache:     cache,
		notifier:  notifier,
		txManager: txManager,
		opts:      opts,
	}
}

// Draft is a booking request as received from a client.
type Draft struct {
	VenueID        int
	UserID         int
	StartDate      time.Time
	NumberOfGuests int
	TotalPrice     float64
	BookingType    string
}

func validateDraft(d Draft) error {
	switch {
	case !validate.IsBookingType(d.BookingType):
		return &ValidationError{Message: `Booking type must be either "day" or "night"`}
	case d.VenueID <= 0:
		return &ValidationError{Message: "Venue is required"}
	case d.UserID <= 0:
		return &ValidationError{Message: "User is required"}
	case d.StartDate.IsZero():
		return &ValidationError{Message: "Start date is required"}
	case d.NumberOfGuests < 0:
		return &ValidationError{Message: "Number of guests cannot be negative"}
	case d.TotalPrice < 0:
		return &ValidationError{Message: "Total price cannot be negative"}
	}
	return nil
}

// run executes fn inside a transaction in strict mode and directly otherwise.
func (s *Service) run(ctx context.Context, fn pg.TransactionalFn) error {
	if s.opts.Strict {
		return s.txManager.Begin(ctx, fn)
	}
	return fn(ctx)
}

// conflicts finds confirmed bookings that occupy the same slot.
func (s *Service) conflicts(ctx context.Context, venueID int, bookingType string, start time.Time) ([]domain.Booking, error) {
	if s.opts.ConflictPolicy == config.ConflictSlot {
		day := start.UTC().Truncate(24 * time.Hour)
		return s.repo.FindConflictsBetween(ctx, venueID, bookingType, day, day.Add(24*time.Hour))
	}
	return s.repo.FindConflicts(ctx, venueID, bookingType, start)
}

// Create reserves a venue slot and debits the user. It returns the booking
// and the user's balance after the debit.
func (s *Service) Create(ctx context.Context, draft Draft) (*domain.Booking, float64, error) {
	started := time.Now()
	if err := validateDraft(draft); err != nil {
		s.rejected(draft, err)
		return nil, 0, err
	}

	var (
		booking    *domain.Booking
		user       *domain.User
		venue      *domain.Venue
		newBalance float64
	)
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		venue, err = s.venues.Get(ctx, draft.VenueID)
		if err != nil {
			return err
		}
		existing, err := s.conflicts(ctx, venue.ID, draft.BookingType, draft.StartDate)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return &ConflictError{Bookings: existing}
		}

		user, err = s.users.FindByID(ctx, draft.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		price := draft.TotalPrice
		if price == 0 {
			price = venue.Price(draft.BookingType)
		}
		if user.Balance < price {
			return ErrInsufficientFunds
		}

		paymentRef := uuid.NewString()
		newBalance, err = s.ledger.Debit(ctx, user.ID, price, paymentRef)
		if err != nil {
			return err
		}

		booking, err = s.repo.Create(ctx, &domain.Booking{
			VenueID:        venue.ID,
			UserID:         user.ID,
			StartDate:      draft.StartDate,
			NumberOfGuests: draft.NumberOfGuests,
			TotalPrice:     price,
			BookingType:    draft.BookingType,
			Status:         domain.BookingConfirmed,
			PaymentRef:     paymentRef,
		})
		if err != nil {
			if !s.opts.Strict {
				s.compensate(ctx, &domain.RefundTask{
					UserID:    user.ID,
					Amount:    price,
					Reference: paymentRef,
					LastError: err.Error(),
				})
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.rejected(draft, err)
		return nil, 0, err
	}

	booking.VenueName = venue.Name
	booking.UserName = user.Name
	s.cache.InvalidateVenue(ctx, booking.VenueID)
	s.notifier.Notify(ctx, notify.KeyBookingConfirmed, notify.Message{
		To:      user.Email,
		Subject: "Booking Confirmed",
		Body: fmt.Sprintf("Hi %s, your %s booking at %s on %s is confirmed. Total: %.2f",
			user.Name, booking.BookingType, venue.Name, booking.StartDate.Format(dateLayout), booking.TotalPrice),
	})
	metrics.BookingCreated(started)
	zap.L().Info("booking created", zap.Int("bookingID", booking.ID), zap.Int("venueID", booking.VenueID),
		zap.Int("userID", booking.UserID), zap.Float64("newBalance", newBalance))
	return booking, newBalance, nil
}

func (s *Service) rejected(draft Draft, err error) {
	var conflict *ConflictError
	reason := metrics.ReasonStore
	switch {
	case errors.Is(err, ErrValidation):
		reason = metrics.ReasonValidation
	case errors.As(err, &conflict):
		reason = metrics.ReasonConflict
	case errors.Is(err, ErrVenueNotFound), errors.Is(err, ErrUserNotFound):
		reason = metrics.ReasonNotFound
	case errors.Is(err, ErrInsufficientFunds):
		reason = metrics.ReasonInsufficient
	}
	metrics.BookingRejected(reason)

	fields := []zap.Field{zap.Int("venueID", draft.VenueID), zap.Int("userID", draft.UserID), zap.String("reason", reason), zap.Error(err)}
	if reason == metrics.ReasonStore {
		zap.L().Error("booking create failed", fields...)
		return
	}
	zap.L().Info("booking rejected", fields...)
}

// compensate queues a refund for a debit that could not be settled inline.
func (s *Service) compensate(ctx context.Context, task *domain.RefundTask) {
	if _, err := s.refunds.Enqueue(context.WithoutCancel(ctx), task); err != nil {
		zap.L().Error("can't enqueue refund, balance left debited",
			zap.Int("userID", task.UserID), zap.String("reference", task.Reference),
			zap.Float64("amount", task.Amount), zap.Error(err))
		return
	}
	metrics.RefundTask(domain.RefundPending)
	zap.L().Warn("refund queued", zap.Int("userID", task.UserID), zap.Int("bookingID", task.BookingID),
		zap.String("reference", task.Reference), zap.String("cause", task.LastError))
}

// Update sets the booking status. Moving a booking to cancelled frees the
// venue and refunds the user; the new balance is returned only when the
// refund was applied.
func (s *Service) Update(ctx context.Context, id int, status string) (*domain.Booking, *float64, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if existing == nil {
		return nil, nil, ErrBookingNotFound
	}
	if !validate.IsBookingStatus(status) {
		return nil, nil, &ValidationError{Message: `Status must be either "confirmed" or "cancelled"`}
	}

	var (
		updated    *domain.Booking
		user       *domain.User
		newBalance *float64
		cancelled  bool
	)
	err = s.run(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.repo.UpdateStatus(ctx, id, status)
		if err != nil {
			return err
		}
		if updated == nil {
			return ErrBookingNotFound
		}
		updated.VenueName, updated.UserName = existing.VenueName, existing.UserName

		if status != domain.BookingCancelled || existing.Status == domain.BookingCancelled {
			return nil
		}
		cancelled = true
		if err := s.venues.SetStatus(ctx, updated.VenueID, domain.VenueAvailable); err != nil {
			return err
		}

		refund := &domain.RefundTask{
			BookingID: updated.ID,
			UserID:    updated.UserID,
			Amount:    updated.TotalPrice,
			Reference: updated.PaymentRef,
		}
		user, err = s.users.FindByID(ctx, updated.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			refund.LastError = ErrUserNotFound.Error()
			s.compensate(ctx, refund)
			return nil
		}

		balance, err := s.ledger.Credit(ctx, user.ID, updated.TotalPrice, updated.PaymentRef)
		if err != nil {
			if s.opts.Strict {
				return err
			}
			refund.LastError = err.Error()
			s.compensate(ctx, refund)
			return nil
		}
		newBalance = &balance
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) || errors.Is(err, ErrVenueNotFound) {
			zap.L().Info("booking update rejected", zap.Int("bookingID", id), zap.Error(err))
		} else {
			zap.L().Error("booking update failed", zap.Int("bookingID", id), zap.Error(err))
		}
		return nil, nil, err
	}

	if updated.Status != existing.Status {
		s.cache.InvalidateVenue(ctx, updated.VenueID)
	}
	if cancelled {
		metrics.BookingCancelled()
		if user != nil {
			s.notifier.Notify(ctx, notify.KeyBookingCancelled, notify.Message{
				To:      user.Email,
				Subject: "Booking Cancelled",
				Body: fmt.Sprintf("Hi %s, your %s booking on %s was cancelled. Refund: %.2f",
					user.Name, updated.BookingType, updated.StartDate.Format(dateLayout), updated.TotalPrice),
			})
		}
	}
	zap.L().Info("booking updated", zap.Int("bookingID", id), zap.String("status", status), zap.Bool("refunded", newBalance != nil))
	return updated, newBalance, nil
}

// Delete frees the venue and removes the booking. It never refunds.
func (s *Service) Delete(ctx context.Context, id int) error {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if booking == nil {
		return ErrBookingNotFound
	}
	err = s.run(ctx, func(ctx context.Context) error {
		if err := s.venues.SetStatus(ctx, booking.VenueID, domain.VenueAvailable); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		zap.L().Error("booking delete failed", zap.Int("bookingID", id), zap.Error(err))
		return err
	}
	s.cache.InvalidateVenue(ctx, booking.VenueID)
	zap.L().Info("booking deleted", zap.Int("bookingID", id))
	return nil
}

func (s *Service) List(ctx context.Context) ([]domain.Booking, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int) (*domain.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

// Availability reports whether the slot is free according to the booking
// records. Answers are cached per venue until the next booking change.
func (s *Service) Availability(ctx context.Context, venueID int, bookingType string, date time.Time) (bool, error) {
	if !validate.IsBookingType(bookingType) {
		return false, &ValidationError{Message: `Booking type must be either "day" or "night"`}
	}
	if date.IsZero() {
		return false, &ValidationError{Message: "Date is required"}
	}
	if available, hit := s.cache.Get(ctx, venueID, bookingType, date); hit {
		return available, nil
	}
	if _, err := s.venues.Get(ctx, venueID); err != nil {
		return false, err
	}
	existing, err := s.conflicts(ctx, venueID, bookingType, date)
	if err != nil {
		return false, err
	}
	available := len(existing) == 0
	s.cache.Set(ctx, venueID, bookingType, date, available)
	return available, nil
}
