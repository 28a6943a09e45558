package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GlebRadaev/venuebooking/internal/domain"
	"github.com/GlebRadaev/venuebooking/internal/dto"
	"github.com/GlebRadaev/venuebooking/internal/service/authservice"
	"github.com/GlebRadaev/venuebooking/pkg/auth"
	"github.com/GlebRadaev/venuebooking/pkg/utils"
)

type Service interface {
	Register(ctx context.Context, profile domain.User, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GenerateToken(user *domain.User) (string, error)
	Verify(ctx context.Context, token string) error
	GetUser(ctx context.Context, id int) (*domain.User, error)
	UpdateUser(ctx context.Context, id int, update authservice.UserUpdate) (*domain.User, error)
	Statement(ctx context.Context, userID int) (*domain.Statement, error)
}

type AuthHandler struct {
	authService Service
}

func New(authService Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func userIDParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "userId"))
	return id, err == nil && id > 0
}

// Register godoc
//
//	@Summary		Register a new user
//	@Description	Create a user account and send a verification email
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.RegisterRequestDTO	true	"Register request body"
//	@Success		201		{object}	utils.Response
//	@Failure		400		{object}	utils.Response	"User already exists or invalid fields"
//	@Failure		500		{object}	utils.Response	"Server error"
//	@Router			/api/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	profile := domain.User{
		Name:    req.Name,
		Email:   req.Email,
		Balance: req.Balance,
		Role:    req.Role,
	}
	_, err := h.authService.Register(r.Context(), profile, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, authservice.ErrUserExists):
			utils.RespondWithError(w, http.StatusBadRequest, "User already exists")
		case errors.Is(err, authservice.ErrValidation):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.Response{
		Message: "User registered. Verification email sent.",
	})
}

// Login godoc
//
//	@Summary		Authenticate user
//	@Description	Log in with email and password and get a JWT token
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.LoginRequestDTO	true	"Login request body"
//	@Success		200		{object}	dto.LoginResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid credentials"
//	@Failure		500		{object}	utils.Response	"Server error"
//	@Router			/api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.authService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}
	w.Header().Set("Authorization", "Bearer "+token)
	utils.RespondWithJSON(w, http.StatusOK, dto.LoginResponseDTO{
		Token: token,
		User:  dto.UserFromDomain(user),
	})
}

// Verify godoc
//
//	@Summary		Verify email
//	@Description	Confirm the email address with the token from the verification email
//	@Tags			Auth
//	@Produce		json
//	@Param			token	query		string	true	"Verification token"
//	@Success		200		{object}	utils.Response
//	@Failure		400		{object}	utils.Response	"Invalid or expired token"
//	@Failure		404		{object}	utils.Response	"User not found"
//	@Failure		500		{object}	utils.Response	"Server error"
//	@Router			/api/auth/verify [get]
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Token is required")
		return
	}
	err := h.authService.Verify(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, authservice.ErrInvalidToken):
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid or expired token")
		case errors.Is(err, authservice.ErrUserNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "User not found")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.Response{Message: "Email verified successfully"})
}

// Me godoc
//
//	@Summary		Current user
//	@Tags			Auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	dto.UserDTO
//	@Failure		401	{object}	utils.Response	"Unauthorized"
//	@Failure		404	{object}	utils.Response	"User not found"
//	@Router			/api/auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(auth.UserIDKey).(int)

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, authservice.ErrUserNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}
	resp := dto.UserFromDomain(user)
	resp.IsVerified = &user.IsVerified
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// Update godoc
//
//	@Summary		Update user
//	@Description	Update name, email, password or balance. Balance changes are recorded in the ledger.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			userId	path		int							true	"User ID"
//	@Param			request	body		dto.UpdateUserRequestDTO	true	"Fields to update"
//	@Success		200		{object}	dto.UpdateUserResponseDTO
//	@Failure		400		{object}	utils.Response	"Email already in use or invalid fields"
//	@Failure		404		{object}	utils.Response	"User not found"
//	@Failure		500		{object}	utils.Response	"Server error"
//	@Router			/api/auth/update/{userId} [put]
func (h *AuthHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	var req dto.UpdateUserRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.authService.UpdateUser(r.Context(), userID, authservice.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Balance:  req.Balance,
	})
	if err != nil {
		switch {
		case errors.Is(err, authservice.ErrUserNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, authservice.ErrEmailInUse):
			utils.RespondWithError(w, http.StatusBadRequest, "Email already in use")
		case errors.Is(err, authservice.ErrValidation):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.UpdateUserResponseDTO{
		Message: "User updated successfully",
		User:    dto.UserFromDomain(user),
	})
}

// Ledger godoc
//
//	@Summary		Balance ledger
//	@Description	Ledger entries newest first, with the cached and the replayed balance
//	@Tags			Auth
//	@Produce		json
//	@Param			userId	path		int	true	"User ID"
//	@Success		200		{object}	dto.LedgerResponseDTO
//	@Failure		404		{object}	utils.Response	"User not found"
//	@Failure		500		{object}	utils.Response	"Server error"
//	@Router			/api/auth/{userId}/ledger [get]
func (h *AuthHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	statement, err := h.authService.Statement(r.Context(), userID)
	if err != nil {
		if errors.Is(err, authservice.ErrUserNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.LedgerFromDomain(statement))
}
