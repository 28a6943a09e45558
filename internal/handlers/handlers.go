package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/GlebRadaev/venuebooking/docs"
	"github.com/GlebRadaev/venuebooking/internal/config"
	authhandlers "github.com/GlebRadaev/venuebooking/internal/handlers/auth"
	bookinghandlers "github.com/GlebRadaev/venuebooking/internal/handlers/bookings"
	venuehandlers "github.com/GlebRadaev/venuebooking/internal/handlers/venues"
	"github.com/GlebRadaev/venuebooking/internal/service"
	"github.com/GlebRadaev/venuebooking/pkg/auth"
)

const welcome = "Welcome to the Venue Booking API"

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Verify(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Ledger(w http.ResponseWriter, r *http.Request)
}

type VenueHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Availability(w http.ResponseWriter, r *http.Request)
}

type BookingHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AuthHandler    AuthHandler
	VenueHandler   VenueHandler
	BookingHandler BookingHandler

	Tokens auth.TokenValidator
	// AdminVenueWrites puts venue create, update and delete behind an admin token.
	AdminVenueWrites bool
}

func New(s *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		AuthHandler:      authhandlers.New(s.AuthService),
		VenueHandler:     venuehandlers.New(s.VenueService, s.BookingService),
		BookingHandler:   bookinghandlers.New(s.BookingService),
		Tokens:           s.Tokens,
		AdminVenueWrites: cfg.AdminVenueWrites,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(welcome))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.AuthHandler.Register)
		r.Post("/login", h.AuthHandler.Login)
		r.Get("/verify", h.AuthHandler.Verify)
		r.Put("/update/{userId}", h.AuthHandler.Update)
		r.Get("/{userId}/ledger", h.AuthHandler.Ledger)
		r.With(auth.AuthMiddleware(h.Tokens)).Get("/me", h.AuthHandler.Me)
	})

	r.Route("/api/venues", func(r chi.Router) {
		r.Get("/", h.VenueHandler.List)
		r.Get("/{id}", h.VenueHandler.Get)
		r.Get("/{id}/availability", h.VenueHandler.Availability)

		r.Group(func(r chi.Router) {
			if h.AdminVenueWrites {
				r.Use(auth.AuthMiddleware(h.Tokens), auth.RequireAdmin)
			}
			r.Post("/", h.VenueHandler.Create)
			r.Put("/{id}", h.VenueHandler.Update)
			r.Delete("/{id}", h.VenueHandler.Delete)
		})
	})

	r.Route("/api/bookings", func(r chi.Router) {
		r.Post("/", h.BookingHandler.Create)
		r.Get("/", h.BookingHandler.List)
		r.Get("/{id}", h.BookingHandler.Get)
		r.Put("/{id}", h.BookingHandler.Update)
		r.Delete("/{id}", h.BookingHandler.Delete)
	})

	return r
}
