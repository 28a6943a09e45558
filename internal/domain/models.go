package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	VenueAvailable = "Available"
	VenueBooked    = "Booked"

	BookingTypeDay   = "day"
	BookingTypeNight = "night"

	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"

	LedgerDebit      = "debit"
	LedgerCredit     = "credit"
	LedgerAdjustment = "adjustment"

	RefundPending = "pending"
	RefundDone    = "done"
	RefundFailed  = "failed"
)

// Locations are the fixed city zones a venue can be listed in.
var Locations = []string{"Gulshan", "North", "Johar", "Clifton"}

type User struct {
	ID           int       `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Balance      float64   `db:"balance"`
	Role         string    `db:"role"`
	IsVerified   bool      `db:"is_verified"`
	CreatedAt    time.Time `db:"created_at"`
}

type Venue struct {
	ID         int       `db:"id"`
	Name       string    `db:"name"`
	Location   string    `db:"location"`
	DayPrice   float64   `db:"day_price"`
	NightPrice float64   `db:"night_price"`
	Capacity   int       `db:"capacity"`
	Status     string    `db:"status"`
	Images     []string  `db:"images"`
	Latitude   float64   `db:"latitude"`
	Longitude  float64   `db:"longitude"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Price returns the venue rate for the given booking type.
func (v *Venue) Price(bookingType string) float64 {
	if bookingType == BookingTypeNight {
		return v.NightPrice
	}
	return v.DayPrice
}

type Booking struct {
	ID             int       `db:"id"`
	VenueID        int       `db:"venue_id"`
	UserID         int       `db:"user_id"`
	StartDate      time.Time `db:"start_date"`
	NumberOfGuests int       `db:"number_of_guests"`
	TotalPrice     float64   `db:"total_price"`
	BookingType    string    `db:"booking_type"`
	Status         string    `db:"status"`
	PaymentRef     string    `db:"payment_ref"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`

	VenueName string `db:"venue_name"`
	UserName  string `db:"user_name"`
}

type Balance struct {
	UserID  int     `db:"id"`
	Current float64 `db:"balance"`
}

// LedgerEntry is a signed balance change. Amount is negative for debits.
type LedgerEntry struct {
	ID           int       `db:"id"`
	UserID       int       `db:"user_id"`
	Amount       float64   `db:"amount"`
	Kind         string    `db:"kind"`
	Reference    string    `db:"reference"`
	BalanceAfter float64   `db:"balance_after"`
	CreatedAt    time.Time `db:"created_at"`
}

type RefundTask struct {
	ID        int       `db:"id"`
	BookingID int       `db:"booking_id"`
	UserID    int       `db:"user_id"`
	Amount    float64   `db:"amount"`
	Reference string    `db:"reference"`
	Status    string    `db:"status"`
	Attempts  int       `db:"attempts"`
	LastError string    `db:"last_error"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Statement is a user's cached balance next to the balance rebuilt from the
// ledger. The two differ only if the ledger and users table have drifted.
type Statement struct {
	UserID   int
	Balance  float64
	Replayed float64
	Entries  []LedgerEntry
}
