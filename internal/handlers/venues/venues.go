package venues

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GlebRadaev/venuebooking/internal/domain"
	"github.com/GlebRadaev/venuebooking/internal/dto"
	"github.com/GlebRadaev/venuebooking/internal/service/bookingservice"
	"github.com/GlebRadaev/venuebooking/internal/service/venueservice"
	"github.com/GlebRadaev/venuebooking/pkg/utils"
)

type Service interface {
	List(ctx context.Context, location string) ([]domain.Venue, error)
	Get(ctx context.Context, id int) (*domain.Venue, error)
	Create(ctx context.Context, venue domain.Venue) (*domain.Venue, error)
	Update(ctx context.Context, id int, patch venueservice.VenuePatch) (*domain.Venue, error)
	Delete(ctx context.Context, id int) error
}

type AvailabilityService interface {
	Availability(ctx context.Context, venueID int, bookingType string, date time.Time) (bool, error)
}

type VenueHandler struct {
	venueService        Service
	availabilityService AvailabilityService
}

func New(venueService Service, availabilityService AvailabilityService) *VenueHandler {
	return &VenueHandler{
		venueService:        venueService,
		availabilityService: availabilityService,
	}
}

func venueIDParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id > 0
}

// List godoc
//
//	@Summary		List venues
//	@Description	All venues, optionally filtered by location
//	@Tags			Venues
//	@Produce		json
//	@Param			location	query		string	false	"Location filter"	Enums(Gulshan, North, Johar, Clifton)
//	@Success		200			{array}		dto.VenueDTO
//	@Failure		500			{object}	utils.Response	"Server error"
//	@Router			/api/venues [get]
func (h *VenueHandler) List(w http.ResponseWriter, r *http.Request) {
	venues, err := h.venueService.List(r.Context(), r.URL.Query().Get("location"))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.VenuesFromDomain(venues))
}

// Get godoc
//
//	@Summary	Get venue
//	@Tags		Venues
//	@Produce	json
//	@Param		id	path		int	true	"Venue ID"
//	@Success	200	{object}	dto.VenueDTO
//	@Failure	404	{object}	utils.Response	"Venue not found"
//	@Failure	500	{object}	utils.Response	"Server error"
//	@Router		/api/venues/{id} [get]
func (h *VenueHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := venueIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Venue not found")
		return
	}
	venue, err := h.venueService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, venueservice.ErrVenueNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Venue not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.VenueFromDomain(venue))
}

// Create godoc
//
//	@Summary		Create venue
//	@Description	Status is always set to Available
//	@Tags			Venues
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateVenueRequestDTO	true	"Venue"
//	@Success		201		{object}	dto.VenueDTO
//	@Failure		400		{object}	utils.Response	"Validation error"
//	@Failure		500		{object}	utils.Response	"Server error"
//	@Router			/api/venues [post]
func (h *VenueHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateVenueRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	venue, err := h.venueService.Create(r.Context(), req.ToDomain())
	if err != nil {
		if errors.Is(err, venueservice.ErrValidation) {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.VenueFromDomain(venue))
}

// Update godoc
//
//	@Summary		Update venue
//	@Description	Partial update. Status cannot be changed here.
//	@Tags			Venues
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Venue ID"
//	@Param			request	body		dto.UpdateVenueRequestDTO	true	"Fields to update"
//	@Success		200		{object}	dto.VenueDTO
//	@Failure		400		{object}	utils.Response	"Validation error"
//	@Failure		404		{object}	utils.Response	"Venue not found"
//	@Failure		500		{object}	utils.Response	"Server error"
//	@Router			/api/venues/{id} [put]
func (h *VenueHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := venueIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Venue not found")
		return
	}
	var req dto.UpdateVenueRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	patch := venueservice.VenuePatch{
		Name:       req.Name,
		Location:   req.Location,
		DayPrice:   req.DayPrice,
		NightPrice: req.NightPrice,
		Capacity:   req.Capacity,
		Images:     req.Images,
	}
	if req.Coordinates != nil {
		patch.Latitude = req.Coordinates.Lat
		patch.Longitude = req.Coordinates.Lng
	}
	venue, err := h.venueService.Update(r.Context(), id, patch)
	if err != nil {
		switch {
		case errors.Is(err, venueservice.ErrVenueNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "Venue not found")
		case errors.Is(err, venueservice.ErrValidation):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.VenueFromDomain(venue))
}

// Delete godoc
//
//	@Summary	Delete venue
//	@Tags		Venues
//	@Produce	json
//	@Param		id	path		int	true	"Venue ID"
//	@Success	200	{object}	utils.Response
//	@Failure	404	{object}	utils.Response	"Venue not found"
//	@Failure	500	{object}	utils.Response	"Server error"
//	@Router		/api/venues/{id} [delete]
func (h *VenueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := venueIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Venue not found")
		return
	}
	if err := h.venueService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, venueservice.ErrVenueNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Venue not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.Response{Message: "Venue deleted successfully"})
}

// Availability godoc
//
//	@Summary		Slot availability
//	@Description	Whether the venue is free for the booking type on the given date, computed from confirmed bookings
//	@Tags			Venues
//	@Produce		json
//	@Param			id		path		int		true	"Venue ID"
//	@Param			date	query		string	true	"Start date (RFC 3339 or YYYY-MM-DD)"
//	@Param			type	query		string	true	"Booking type"	Enums(day, night)
//	@Success		200		{object}	dto.AvailabilityResponseDTO
//	@Failure		400		{object}	utils.Response	"Validation error"
//	@Failure		404		{object}	utils.Response	"Venue not found"
//	@Failure		500		{object}	utils.Response	"Server error"
//	@Router			/api/venues/{id}/availability [get]
func (h *VenueHandler) Availability(w http.ResponseWriter, r *http.Request) {
	id, ok := venueIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Venue not found")
		return
	}
	date, err := dto.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid date")
		return
	}
	bookingType := r.URL.Query().Get("type")
	available, err := h.availabilityService.Availability(r.Context(), id, bookingType, date)
	if err != nil {
		switch {
		case errors.Is(err, bookingservice.ErrValidation):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, bookingservice.ErrVenueNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "Venue not found")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.AvailabilityResponseDTO{
		VenueID:     id,
		Date:        date,
		BookingType: bookingType,
		Available:   available,
	})
}
