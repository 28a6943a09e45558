package venueservice

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/GlebRadaev/venuebooking/internal/domain"
	"github.com/GlebRadaev/venuebooking/pkg/validate"
)

var (
	ErrVenueNotFound = errors.New("venue not found")
	ErrValidation    = errors.New("validation error")
)

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type Repo interface {
	List(ctx context.Context, location string) ([]domain.Venue, error)
	FindByID(ctx context.Context, id int) (*domain.Venue, error)
	Create(ctx context.Context, venue *domain.Venue) (*domain.Venue, error)
	Update(ctx context.Context, venue *domain.Venue) (*domain.Venue, error)
	Delete(ctx context.Context, id int) (bool, error)
	SetStatus(ctx context.Context, id int, status string) (bool, error)
}

type Service struct {
	repo Repo
}

func New(repo Repo) *Service {
	return &Service{repo: repo}
}

// VenuePatch holds the fields an update may change. Status is not one of them.
type VenuePatch struct {
	Name       *string
	Location   *string
	DayPrice   *float64
	NightPrice *float64
	Capacity   *int
	Images     *[]string
	Latitude   *float64
	Longitude  *float64
}

func (p VenuePatch) apply(v *domain.Venue) {
	if p.Name != nil {
		v.Name = strings.TrimSpace(*p.Name)
	}
	if p.Location != nil {
		v.Location = *p.Location
	}
	if p.DayPrice != nil {
		v.DayPrice = *p.DayPrice
	}
	if p.NightPrice != nil {
		v.NightPrice = *p.NightPrice
	}
	if p.Capacity != nil {
		v.Capacity = *p.Capacity
	}
	if p.Images != nil {
		v.Images = *p.Images
	}
	if p.Latitude != nil {
		v.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		v.Longitude = *p.Longitude
	}
}

func validateVenue(v *domain.Venue) error {
	switch {
	case strings.TrimSpace(v.Name) == "":
		return &ValidationError{Message: "Name is required"}
	case !validate.IsLocation(v.Location):
		return &ValidationError{Message: "Location must be one of " + strings.Join(domain.Locations, ", ")}
	case v.DayPrice < 0 || v.NightPrice < 0:
		return &ValidationError{Message: "Prices cannot be negative"}
	case v.Capacity <= 0:
		return &ValidationError{Message: "Capacity must be greater than zero"}
	case !validate.IsCoordinate(v.Latitude, v.Longitude):
		return &ValidationError{Message: "Invalid coordinates"}
	}
	return nil
}

// List returns all venues, or those whose location equals location when it
// is not empty.
func (s *Service) List(ctx context.Context, location string) ([]domain.Venue, error) {
	venues, err := s.repo.List(ctx, location)
	if err != nil {
		return nil, err
	}
	if venues == nil {
		venues = []domain.Venue{}
	}
	return venues, nil
}

func (s *Service) Get(ctx context.Context, id int) (*domain.Venue, error) {
	venue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if venue == nil {
		return nil, ErrVenueNotFound
	}
	return venue, nil
}

// Create stores the venue as Available whatever status the caller supplied.
func (s *Service) Create(ctx context.Context, venue domain.Venue) (*domain.Venue, error) {
	venue.Name = strings.TrimSpace(venue.Name)
	if err := validateVenue(&venue); err != nil {
		zap.L().Info("invalid venue", zap.String("name", venue.Name), zap.Error(err))
		return nil, err
	}
	venue.Status = domain.VenueAvailable
	if venue.Images == nil {
		venue.Images = []string{}
	}
	created, err := s.repo.Create(ctx, &venue)
	if err != nil {
		return nil, err
	}
	zap.L().Info("venue created", zap.Int("venueID", created.ID), zap.String("name", created.Name))
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int, patch VenuePatch) (*domain.Venue, error) {
	venue, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.apply(venue)
	if err := validateVenue(venue); err != nil {
		zap.L().Info("invalid venue update", zap.Int("venueID", id), zap.Error(err))
		return nil, err
	}
	if venue.Images == nil {
		venue.Images = []string{}
	}
	updated, err := s.repo.Update(ctx, venue)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrVenueNotFound
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrVenueNotFound
	}
	zap.L().Info("venue deleted", zap.Int("venueID", id))
	return nil
}

// SetStatus is used by the booking workflow only.
func (s *Service) SetStatus(ctx context.Context, id int, status string) error {
	ok, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return err
	}
	if !ok {
		zap.L().Info("status change for missing venue", zap.Int("venueID", id), zap.String("status", status))
		return ErrVenueNotFound
	}
	return nil
}
