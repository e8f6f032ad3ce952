package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	notificationdomain "github.com/dialhub/golang_services/internal/notification_service/domain"
	numberdomain "github.com/dialhub/golang_services/internal/number_service/domain"
	"github.com/dialhub/golang_services/internal/public_api_service/middleware"
	userdomain "github.com/dialhub/golang_services/internal/user_service/domain"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// GenericErrorResponse for API errors
type GenericErrorResponse struct {
	Error string `json:"error"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Default().Error("Failed to write JSON response", "error", err)
		}
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, GenericErrorResponse{Error: message})
}

// mapErrorToHTTPStatus converts domain errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, numberdomain.ErrNotFound),
		errors.Is(err, userdomain.ErrUserNotFound),
		errors.Is(err, userdomain.ErrRoleNotFound),
		errors.Is(err, notificationdomain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, numberdomain.ErrNotAssignable),
		errors.Is(err, numberdomain.ErrNumberDeleted),
		errors.Is(err, numberdomain.ErrDuplicateEntry),
		errors.Is(err, numberdomain.ErrUserDisabled),
		errors.Is(err, userdomain.ErrEmailExists),
		errors.Is(err, userdomain.ErrOwnershipConflict):
		return http.StatusConflict
	case errors.Is(err, numberdomain.ErrInvalidArgument),
		errors.Is(err, userdomain.ErrInvalidArgument),
		errors.Is(err, userdomain.ErrOTPInvalid):
		return http.StatusBadRequest
	case errors.Is(err, userdomain.ErrInvalidCredentials),
		errors.Is(err, userdomain.ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, userdomain.ErrOTPThrottled):
		return http.StatusTooManyRequests
	case errors.Is(err, userdomain.ErrAccountDisabled):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondWithDomainError writes the mapped status. Server errors are logged and hidden from the client.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	code := mapErrorToHTTPStatus(err)
	if code >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), msg, "error", err)
		respondWithError(w, code, msg)
		return
	}
	respondWithError(w, code, err.Error())
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
func decodeAndValidate(r *http.Request, validate *validator.Validate, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request payload: %w", err)
	}
	if err := validate.StructCtx(r.Context(), dst); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s format", name)
	}
	return id, nil
}

// pagination reads offset and limit query parameters with sane bounds.
func pagination(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return offset, limit
}

func currentUser(w http.ResponseWriter, r *http.Request) (*middleware.AuthenticatedUser, bool) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
	}
	return u, ok
}
