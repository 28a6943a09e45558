package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlebRadaev/venuebooking/internal/domain"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"Plain date", "2024-03-20", time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), false},
		{"Date and time", "2024-03-20T18:30", time.Date(2024, 3, 20, 18, 30, 0, 0, time.UTC), false},
		{"Date and time with seconds", "2024-03-20T09:00:00", time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC), false},
		{"Fractional seconds without zone", "2024-03-20T09:00:00.250", time.Date(2024, 3, 20, 9, 0, 0, 250000000, time.UTC), false},
		{"RFC 3339 with zone", "2024-03-20T05:00:00+05:00", time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), false},
		{"Milliseconds", "2024-03-20T00:00:00.000Z", time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), false},
		{"Garbage", "20/03/2024", time.Time{}, true},
		{"Empty", "", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestPopulatedBookingFromDomain(t *testing.T) {
	b := &domain.Booking{ID: 1, VenueID: 2, UserID: 3, VenueName: "Grand Hall"}

	got := PopulatedBookingFromDomain(b)

	require.NotNil(t, got.VenueID)
	assert.Equal(t, RefDTO{ID: 2, Name: "Grand Hall"}, *got.VenueID)
	assert.Nil(t, got.UserID)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"userId":null`)
}

func TestVenueFromDomain(t *testing.T) {
	got := VenueFromDomain(&domain.Venue{ID: 1, Latitude: 24.8, Longitude: 67.0})

	assert.Equal(t, []string{}, got.Images)
	assert.Equal(t, Coordinates{Lat: 24.8, Lng: 67.0}, got.Coordinates)
}

func TestLedgerFromDomain(t *testing.T) {
	got := LedgerFromDomain(&domain.Statement{UserID: 1, Balance: 5000, Replayed: 5000})

	assert.NotNil(t, got.Entries)
	assert.Equal(t, 5000.0, got.ReplayedBalance)
}
