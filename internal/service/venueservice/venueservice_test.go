package venueservice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/venuebooking/internal/domain"
)

func NewMock(t *testing.T) (*Service, *MockRepo) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepo(ctrl)
	return New(repo), repo
}

func validVenue() domain.Venue {
	return domain.Venue{
		Name:       "Grand Hall",
		Location:   "Clifton",
		DayPrice:   5000,
		NightPrice: 8000,
		Capacity:   100,
		Latitude:   24.81,
		Longitude:  67.03,
	}
}

func TestList(t *testing.T) {
	service, repo := NewMock(t)

	repo.EXPECT().List(gomock.Any(), "Clifton").Return([]domain.Venue{{ID: 1, Location: "Clifton"}}, nil)
	venues, err := service.List(context.Background(), "Clifton")
	assert.NoError(t, err)
	assert.Len(t, venues, 1)

	repo.EXPECT().List(gomock.Any(), "").Return(nil, nil)
	venues, err = service.List(context.Background(), "")
	assert.NoError(t, err)
	assert.NotNil(t, venues)
	assert.Empty(t, venues)

	repo.EXPECT().List(gomock.Any(), "").Return(nil, errors.New("db error"))
	_, err = service.List(context.Background(), "")
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	service, repo := NewMock(t)

	repo.EXPECT().FindByID(gomock.Any(), 1).Return(&domain.Venue{ID: 1}, nil)
	venue, err := service.Get(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, venue.ID)

	repo.EXPECT().FindByID(gomock.Any(), 2).Return(nil, nil)
	_, err = service.Get(context.Background(), 2)
	assert.ErrorIs(t, err, ErrVenueNotFound)
}

func TestCreate(t *testing.T) {
	service, repo := NewMock(t)

	tests := []struct {
		name          string
		venue         func() domain.Venue
		prepareMock   func()
		expectedError error
	}{
		{
			name: "Status is forced to Available",
			venue: func() domain.Venue {
				v := validVenue()
				v.Status = domain.VenueBooked
				return v
			},
			prepareMock: func() {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, v *domain.Venue) (*domain.Venue, error) {
					assert.Equal(t, domain.VenueAvailable, v.Status)
					assert.NotNil(t, v.Images)
					v.ID = 1
					return v, nil
				})
			},
		},
		{
			name: "Missing name",
			venue: func() domain.Venue {
				v := validVenue()
				v.Name = "  "
				return v
			},
			prepareMock:   func() {},
			expectedError: ErrValidation,
		},
		{
			name: "Unknown location",
			venue: func() domain.Venue {
				v := validVenue()
				v.Location = "Lahore"
				return v
			},
			prepareMock:   func() {},
			expectedError: ErrValidation,
		},
		{
			name: "Zero capacity",
			venue: func() domain.Venue {
				v := validVenue()
				v.Capacity = 0
				return v
			},
			prepareMock:   func() {},
			expectedError: ErrValidation,
		},
		{
			name: "Bad coordinates",
			venue: func() domain.Venue {
				v := validVenue()
				v.Latitude = 120
				return v
			},
			prepareMock:   func() {},
			expectedError: ErrValidation,
		},
		{
			name:  "Store failure",
			venue: validVenue,
			prepareMock: func() {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			venue, err := service.Create(context.Background(), tt.venue())
			if tt.expectedError != nil {
				assert.Error(t, err)
				if errors.Is(tt.expectedError, ErrValidation) {
					assert.ErrorIs(t, err, ErrValidation)
				}
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, domain.VenueAvailable, venue.Status)
		})
	}
}

func TestUpdate(t *testing.T) {
	service, repo := NewMock(t)
	price := 6000.0
	capacity := -5

	t.Run("Patch keeps status", func(t *testing.T) {
		stored := validVenue()
		stored.ID = 1
		stored.Status = domain.VenueBooked
		repo.EXPECT().FindByID(gomock.Any(), 1).Return(&stored, nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, v *domain.Venue) (*domain.Venue, error) {
			assert.Equal(t, 6000.0, v.DayPrice)
			assert.Equal(t, 8000.0, v.NightPrice)
			return v, nil
		})

		venue, err := service.Update(context.Background(), 1, VenuePatch{DayPrice: &price})
		assert.NoError(t, err)
		assert.Equal(t, domain.VenueBooked, venue.Status)
	})

	t.Run("Invalid patch", func(t *testing.T) {
		stored := validVenue()
		repo.EXPECT().FindByID(gomock.Any(), 1).Return(&stored, nil)

		_, err := service.Update(context.Background(), 1, VenuePatch{Capacity: &capacity})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("Not found", func(t *testing.T) {
		repo.EXPECT().FindByID(gomock.Any(), 9).Return(nil, nil)

		_, err := service.Update(context.Background(), 9, VenuePatch{DayPrice: &price})
		assert.ErrorIs(t, err, ErrVenueNotFound)
	})

	t.Run("Removed between read and write", func(t *testing.T) {
		stored := validVenue()
		repo.EXPECT().FindByID(gomock.Any(), 1).Return(&stored, nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil, nil)

		_, err := service.Update(context.Background(), 1, VenuePatch{DayPrice: &price})
		assert.ErrorIs(t, err, ErrVenueNotFound)
	})
}

func TestDelete(t *testing.T) {
	service, repo := NewMock(t)

	repo.EXPECT().Delete(gomock.Any(), 1).Return(true, nil)
	assert.NoError(t, service.Delete(context.Background(), 1))

	repo.EXPECT().Delete(gomock.Any(), 2).Return(false, nil)
	assert.ErrorIs(t, service.Delete(context.Background(), 2), ErrVenueNotFound)

	repo.EXPECT().Delete(gomock.Any(), 3).Return(false, errors.New("db error"))
	assert.Error(t, service.Delete(context.Background(), 3))
}

func TestSetStatus(t *testing.T) {
	service, repo := NewMock(t)

	repo.EXPECT().SetStatus(gomock.Any(), 1, domain.VenueAvailable).Return(true, nil)
	assert.NoError(t, service.SetStatus(context.Background(), 1, domain.VenueAvailable))

	repo.EXPECT().SetStatus(gomock.Any(), 2, domain.VenueAvailable).Return(false, nil)
	assert.ErrorIs(t, service.SetStatus(context.Background(), 2, domain.VenueAvailable), ErrVenueNotFound)
}
