package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	userapp "github.com/dialhub/golang_services/internal/user_service/app"
	userdomain "github.com/dialhub/golang_services/internal/user_service/domain"
)

// AuthService is the part of the user service the auth routes need.
type AuthService interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*userdomain.User, error)
	Login(ctx context.Context, email, password string) (*userapp.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*userapp.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	Me(ctx context.Context, userID uuid.UUID) (*userdomain.User, error)
}

type OTPService interface {
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
}

// AuthHandler handles authentication related HTTP requests.
type AuthHandler struct {
	auth     AuthService
	otp      OTPService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewAuthHandler(auth AuthService, otp OTPService, logger *slog.Logger, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		otp:      otp,
		logger:   logger.With("handler", "auth"),
		validate: validate,
	}
}

// RegisterRoutes registers the unauthenticated /auth routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh_token", h.RefreshToken)
	r.Post("/otp", h.RequestOTP)
	r.Post("/otp/verify", h.VerifyOTP)
}

// RegisterProtectedRoutes registers routes that need an authenticated caller.
func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/users/me", h.Me)
	r.Post("/auth/logout", h.Logout)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.auth.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		respondWithDomainError(w, r, h.logger, "Registration failed", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, toUserProfile(user))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	tokens, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithDomainError(w, r, h.logger, "Login failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, tokens)
}

func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	tokens, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondWithDomainError(w, r, h.logger, "Token refresh failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, tokens)
}

// RequestOTP answers 202 for unknown emails too so callers cannot learn which emails exist.
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req OTPRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.otp.RequestOTP(r.Context(), req.Email); err != nil {
		respondWithDomainError(w, r, h.logger, "OTP request failed", err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "If the account exists, a code has been sent."})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req OTPVerifyRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.otp.VerifyOTP(r.Context(), req.Email, req.Code); err != nil {
		respondWithDomainError(w, r, h.logger, "OTP verification failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.auth.Me(r.Context(), caller.ID)
	if err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to load profile", err)
		return
	}
	respondWithJSON(w, http.StatusOK, toUserProfile(user))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.auth.Logout(r.Context(), caller.ID); err != nil {
		respondWithDomainError(w, r, h.logger, "Logout failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
