package dto

import (
	"errors"
	"time"

	"github.com/GlebRadaev/venuebooking/internal/domain"
)

var ErrInvalidDate = errors.New("invalid date")

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04", "2006-01-02"}

// ParseDate accepts RFC 3339 timestamps and plain dates. Values without a
// zone are read as UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

type CreateBookingRequestDTO struct {
	VenueID        int     `json:"venueId" example:"1"`
	UserID         int     `json:"userId" example:"1"`
	StartDate      string  `json:"startDate" example:"2024-03-20"`
	NumberOfGuests *int    `json:"numberOfGuests" example:"50"`
	TotalPrice     float64 `json:"totalPrice" example:"5000"`
	BookingType    string  `json:"bookingType" example:"day"`
}

type UpdateBookingRequestDTO struct {
	Status string `json:"status" example:"cancelled"`
}

type BookingDTO struct {
	ID             int       `json:"_id" example:"1"`
	VenueID        int       `json:"venueId" example:"1"`
	UserID         int       `json:"userId" example:"1"`
	StartDate      time.Time `json:"startDate"`
	NumberOfGuests int       `json:"numberOfGuests" example:"50"`
	TotalPrice     float64   `json:"totalPrice" example:"5000"`
	BookingType    string    `json:"bookingType" example:"day"`
	Status         string    `json:"status" example:"confirmed"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type RefDTO struct {
	ID   int    `json:"_id" example:"1"`
	Name string `json:"name" example:"Grand Hall"`
}

// PopulatedBookingDTO replaces the venue and user ids with {_id, name}, or
// null when the referenced record no longer exists.
type PopulatedBookingDTO struct {
	ID             int       `json:"_id" example:"1"`
	VenueID        *RefDTO   `json:"venueId"`
	UserID         *RefDTO   `json:"userId"`
	StartDate      time.Time `json:"startDate"`
	NumberOfGuests int       `json:"numberOfGuests" example:"50"`
	TotalPrice     float64   `json:"totalPrice" example:"5000"`
	BookingType    string    `json:"bookingType" example:"day"`
	Status         string    `json:"status" example:"confirmed"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type BookingWithBalanceDTO struct {
	Booking    BookingDTO `json:"booking"`
	NewBalance float64    `json:"newBalance" example:"5000"`
}

type ConflictResponseDTO struct {
	Message             string       `json:"message"`
	ConflictingBookings []BookingDTO `json:"conflictingBookings"`
}

func BookingFromDomain(b *domain.Booking) BookingDTO {
	return BookingDTO{
		ID:             b.ID,
		VenueID:        b.VenueID,
		UserID:         b.UserID,
		StartDate:      b.StartDate,
		NumberOfGuests: b.NumberOfGuests,
		TotalPrice:     b.TotalPrice,
		BookingType:    b.BookingType,
		Status:         b.Status,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func BookingsFromDomain(bookings []domain.Booking) []BookingDTO {
	out := make([]BookingDTO, 0, len(bookings))
	for i := range bookings {
		out = append(out, BookingFromDomain(&bookings[i]))
	}
	return out
}

func ref(id int, name string) *RefDTO {
	if name == "" {
		return nil
	}
	return &RefDTO{ID: id, Name: name}
}

func PopulatedBookingFromDomain(b *domain.Booking) PopulatedBookingDTO {
	return PopulatedBookingDTO{
		ID:             b.ID,
		VenueID:        ref(b.VenueID, b.VenueName),
		UserID:         ref(b.UserID, b.UserName),
		StartDate:      b.StartDate,
		NumberOfGuests: b.NumberOfGuests,
		TotalPrice:     b.TotalPrice,
		BookingType:    b.BookingType,
		Status:         b.Status,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func PopulatedBookingsFromDomain(bookings []domain.Booking) []PopulatedBookingDTO {
	out := make([]PopulatedBookingDTO, 0, len(bookings))
	for i := range bookings {
		out = append(out, PopulatedBookingFromDomain(&bookings[i]))
	}
	return out
}
