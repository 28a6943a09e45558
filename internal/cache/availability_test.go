package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestAvailability_Get(t *testing.T) {
	date := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	field := slotField("day", date)

	tests := []struct {
		name          string
		mockSetup     func(mock redismock.ClientMock)
		expectedValue bool
		expectedHit   bool
	}{
		{
			name: "Cached available",
			mockSetup: func(mock redismock.ClientMock) {
				mock.ExpectHGet("availability:1", field).SetVal("1")
			},
			expectedValue: true,
			expectedHit:   true,
		},
		{
			name: "Cached booked",
			mockSetup: func(mock redismock.ClientMock) {
				mock.ExpectHGet("availability:1", field).SetVal("0")
			},
			expectedValue: false,
			expectedHit:   true,
		},
		{
			name: "Miss",
			mockSetup: func(mock redismock.ClientMock) {
				mock.ExpectHGet("availability:1", field).RedisNil()
			},
		},
		{
			name: "Redis error is a miss",
			mockSetup: func(mock redismock.ClientMock) {
				mock.ExpectHGet("availability:1", field).SetErr(errors.New("connection reset"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := redismock.NewClientMock()
			c := NewAvailability(db)
			tt.mockSetup(mock)

			value, hit := c.Get(context.Background(), 1, "day", date)
			assert.Equal(t, tt.expectedValue, value)
			assert.Equal(t, tt.expectedHit, hit)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAvailability_Set(t *testing.T) {
	date := time.Date(2024, 3, 20, 18, 0, 0, 0, time.UTC)
	db, mock := redismock.NewClientMock()
	c := NewAvailability(db)

	mock.ExpectHSet("availability:2", slotField("night", date), "0").SetVal(1)
	mock.ExpectExpire("availability:2", time.Minute).SetVal(true)

	c.Set(context.Background(), 2, "night", date, false)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailability_InvalidateVenue(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewAvailability(db)

	mock.ExpectDel("availability:3").SetVal(1)

	c.InvalidateVenue(context.Background(), 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailability_Disabled(t *testing.T) {
	var nilCache *Availability
	disabled := NewAvailability(nil)

	for _, c := range []*Availability{nilCache, disabled} {
		_, hit := c.Get(context.Background(), 1, "day", time.Now())
		assert.False(t, hit)
		assert.NotPanics(t, func() {
			c.Set(context.Background(), 1, "day", time.Now(), true)
			c.InvalidateVenue(context.Background(), 1)
		})
	}
}

func TestNewRedisClient_EmptyAddress(t *testing.T) {
	assert.Nil(t, NewRedisClient(context.Background(), ""))
}
