package validate

import (
	"net/mail"
	"slices"

	"github.com/GlebRadaev/venuebooking/internal/domain"
)

func IsLocation(s string) bool {
	return slices.Contains(domain.Locations, s)
}

func IsBookingType(s string) bool {
	return s == domain.BookingTypeDay || s == domain.BookingTypeNight
}

func IsBookingStatus(s string) bool {
	return s == domain.BookingConfirmed || s == domain.BookingCancelled
}

func IsRole(s string) bool {
	return s == domain.RoleUser || s == domain.RoleAdmin
}

func IsEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// IsCoordinate reports whether lat/lng is a valid WGS84 pair.
func IsCoordinate(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
