package dto

import (
	"time"

	"github.com/GlebRadaev/venuebooking/internal/domain"
)

type Coordinates struct {
	Lat float64 `json:"lat" example:"24.8138"`
	Lng float64 `json:"lng" example:"67.0300"`
}

type VenueDTO struct {
	ID          int         `json:"_id" example:"1"`
	Name        string      `json:"name" example:"Grand Hall"`
	Location    string      `json:"location" example:"Clifton"`
	DayPrice    float64     `json:"dayPrice" example:"5000"`
	NightPrice  float64     `json:"nightPrice" example:"8000"`
	Capacity    int         `json:"capacity" example:"100"`
	Status      string      `json:"status" example:"Available"`
	Images      []string    `json:"images"`
	Coordinates Coordinates `json:"coordinates"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// CreateVenueRequestDTO accepts status for compatibility; it is ignored.
type CreateVenueRequestDTO struct {
	Name        string      `json:"name" example:"Grand Hall"`
	Location    string      `json:"location" example:"Clifton"`
	DayPrice    float64     `json:"dayPrice" example:"5000"`
	NightPrice  float64     `json:"nightPrice" example:"8000"`
	Capacity    int         `json:"capacity" example:"100"`
	Status      string      `json:"status,omitempty" swaggerignore:"true"`
	Images      []string    `json:"images"`
	Coordinates Coordinates `json:"coordinates"`
}

type CoordinatesPatch struct {
	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`
}

// UpdateVenueRequestDTO has no status field, so a client-supplied status is
// dropped while decoding.
type UpdateVenueRequestDTO struct {
	Name        *string           `json:"name,omitempty"`
	Location    *string           `json:"location,omitempty"`
	DayPrice    *float64          `json:"dayPrice,omitempty"`
	NightPrice  *float64          `json:"nightPrice,omitempty"`
	Capacity    *int              `json:"capacity,omitempty"`
	Images      *[]string         `json:"images,omitempty"`
	Coordinates *CoordinatesPatch `json:"coordinates,omitempty"`
}

type AvailabilityResponseDTO struct {
	VenueID     int       `json:"venueId" example:"1"`
	Date        time.Time `json:"date"`
	BookingType string    `json:"bookingType" example:"day"`
	Available   bool      `json:"available"`
}

func (r CreateVenueRequestDTO) ToDomain() domain.Venue {
	return domain.Venue{
		Name:       r.Name,
		Location:   r.Location,
		DayPrice:   r.DayPrice,
		NightPrice: r.NightPrice,
		Capacity:   r.Capacity,
		Status:     r.Status,
		Images:     r.Images,
		Latitude:   r.Coordinates.Lat,
		Longitude:  r.Coordinates.Lng,
	}
}

func VenueFromDomain(v *domain.Venue) VenueDTO {
	images := v.Images
	if images == nil {
		images = []string{}
	}
	return VenueDTO{
		ID:          v.ID,
		Name:        v.Name,
		Location:    v.Location,
		DayPrice:    v.DayPrice,
		NightPrice:  v.NightPrice,
		Capacity:    v.Capacity,
		Status:      v.Status,
		Images:      images,
		Coordinates: Coordinates{Lat: v.Latitude, Lng: v.Longitude},
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func VenuesFromDomain(venues []domain.Venue) []VenueDTO {
	out := make([]VenueDTO, 0, len(venues))
	for i := range venues {
		out = append(out, VenueFromDomain(&venues[i]))
	}
	return out
}
