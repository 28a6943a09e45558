package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GlebRadaev/venuebooking/internal/domain"
	"github.com/GlebRadaev/venuebooking/internal/dto"
	"github.com/GlebRadaev/venuebooking/internal/service/bookingservice"
	"github.com/GlebRadaev/venuebooking/pkg/utils"
)

type Service interface {
	Create(ctx context.Context, draft bookingservice.Draft) (*domain.Booking, float64, error)
	List(ctx context.Context) ([]domain.Booking, error)
	Get(ctx context.Context, id int) (*domain.Booking, error)
	Update(ctx context.Context, id int, status string) (*domain.Booking, *float64, error)
	Delete(ctx context.Context, id int) error
}

type BookingHandler struct {
	bookingService Service
}

func New(bookingService Service) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

func bookingIDParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id > 0
}

// Create godoc
//
//	@Summary		Create booking
//	@Description	Checks the slot and debits the user's balance
//	@Tags			Bookings
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateBookingRequestDTO	true	"Booking"
//	@Success		201		{object}	dto.BookingWithBalanceDTO
//	@Failure		400		{object}	dto.ConflictResponseDTO	"Slot already booked"
//	@Failure		400		{object}	utils.Response			"Validation error or insufficient balance"
//	@Failure		404		{object}	utils.Response			"Venue or user not found"
//	@Router			/api/bookings [post]
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookingRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	draft := bookingservice.Draft{
		VenueID:     req.VenueID,
		UserID:      req.UserID,
		TotalPrice:  req.TotalPrice,
		BookingType: req.BookingType,
	}
	if req.StartDate != "" {
		start, err := dto.ParseDate(req.StartDate)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid start date")
			return
		}
		draft.StartDate = start
	}
	if req.NumberOfGuests == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Number of guests is required")
		return
	}
	draft.NumberOfGuests = *req.NumberOfGuests

	booking, balance, err := h.bookingService.Create(r.Context(), draft)
	if err != nil {
		var conflict *bookingservice.ConflictError
		switch {
		case errors.As(err, &conflict):
			utils.RespondWithJSON(w, http.StatusBadRequest, dto.ConflictResponseDTO{
				Message:             conflict.Error(),
				ConflictingBookings: dto.BookingsFromDomain(conflict.Bookings),
			})
		case errors.Is(err, bookingservice.ErrInsufficientFunds):
			utils.RespondWithError(w, http.StatusBadRequest, "Insufficient balance")
		case errors.Is(err, bookingservice.ErrVenueNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "Venue not found")
		case errors.Is(err, bookingservice.ErrUserNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "User not found")
		default:
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.BookingWithBalanceDTO{
		Booking:    dto.BookingFromDomain(booking),
		NewBalance: balance,
	})
}

// List godoc
//
//	@Summary	List bookings
//	@Tags		Bookings
//	@Produce	json
//	@Success	200	{array}		dto.PopulatedBookingDTO
//	@Failure	500	{object}	utils.Response	"Server error"
//	@Router		/api/bookings [get]
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookingService.List(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.PopulatedBookingsFromDomain(bookings))
}

// Get godoc
//
//	@Summary	Get booking
//	@Tags		Bookings
//	@Produce	json
//	@Param		id	path		int	true	"Booking ID"
//	@Success	200	{object}	dto.PopulatedBookingDTO
//	@Failure	404	{object}	utils.Response	"Booking not found"
//	@Failure	500	{object}	utils.Response	"Server error"
//	@Router		/api/bookings/{id} [get]
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}
	booking, err := h.bookingService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, bookingservice.ErrBookingNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.PopulatedBookingFromDomain(booking))
}

// Update godoc
//
//	@Summary		Update booking status
//	@Description	Cancelling frees the venue and refunds the user. The response carries newBalance only when the refund was applied
//	@Tags			Bookings
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Booking ID"
//	@Param			request	body		dto.UpdateBookingRequestDTO	true	"Status"
//	@Success		200		{object}	dto.BookingWithBalanceDTO
//	@Failure		400		{object}	utils.Response	"Validation error"
//	@Failure		404		{object}	utils.Response	"Booking not found"
//	@Router			/api/bookings/{id} [put]
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}
	var req dto.UpdateBookingRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	booking, balance, err := h.bookingService.Update(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, bookingservice.ErrBookingNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
			return
		}
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if balance != nil {
		utils.RespondWithJSON(w, http.StatusOK, dto.BookingWithBalanceDTO{
			Booking:    dto.BookingFromDomain(booking),
			NewBalance: *balance,
		})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.BookingFromDomain(booking))
}

// Delete godoc
//
//	@Summary		Delete booking
//	@Description	Frees the venue without a refund
//	@Tags			Bookings
//	@Produce		json
//	@Param			id	path		int	true	"Booking ID"
//	@Success		200	{object}	utils.Response
//	@Failure		404	{object}	utils.Response	"Booking not found"
//	@Failure		500	{object}	utils.Response	"Server error"
//	@Router			/api/bookings/{id} [delete]
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}
	if err := h.bookingService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, bookingservice.ErrBookingNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}
	utils.RespondWithError(w, http.StatusOK, "Booking deleted successfully")
}
