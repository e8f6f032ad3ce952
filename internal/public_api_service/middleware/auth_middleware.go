package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	userapp "github.com/dialhub/golang_services/internal/user_service/app"
	userdomain "github.com/dialhub/golang_services/internal/user_service/domain"
	"github.com/google/uuid"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	AuthenticatedUserContextKey = ContextKey("authenticatedUser")
)

// TokenValidator checks an access token and that its account is still enabled.
type TokenValidator interface {
	Authenticate(ctx context.Context, token string) (*userapp.AccessClaims, error)
}

// AuthenticatedUser holds information about the authenticated user.
type AuthenticatedUser struct {
	ID    uuid.UUID
	Email string
	Role  userdomain.RoleName
}

func (u *AuthenticatedUser) IsAdmin() bool {
	return u.Role.IsAdmin()
}

// UserFromContext returns the user stored by AuthMiddleware.
func UserFromContext(ctx context.Context) (*AuthenticatedUser, bool) {
	u, ok := ctx.Value(AuthenticatedUserContextKey).(*AuthenticatedUser)
	return u, ok && u != nil
}

// WithUser stores u in ctx the way AuthMiddleware does.
func WithUser(ctx context.Context, u *AuthenticatedUser) context.Context {
	return context.WithValue(ctx, AuthenticatedUserContextKey, u)
}

// AuthMiddleware authenticates requests carrying a Bearer access token.
func AuthMiddleware(validator TokenValidator, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(r.Context(), "Authorization header missing")
				writeError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				logger.WarnContext(r.Context(), "Invalid Authorization header format")
				writeError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			claims, err := validator.Authenticate(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, userdomain.ErrAccountDisabled):
				writeError(w, http.StatusForbidden, "Account disabled")
				return
			case errors.Is(err, userdomain.ErrTokenInvalid):
				logger.WarnContext(r.Context(), "Token validation failed", "error", err)
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			default:
				logger.ErrorContext(r.Context(), "Failed to authenticate request", "error", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			authUser := &AuthenticatedUser{
				ID:    claims.UserID,
				Email: claims.Email,
				Role:  claims.Role,
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), authUser)))
		})
	}
}

// RequireAdmin lets ADMIN and SUPER_ADMIN through. AuthMiddleware must run first.
func RequireAdmin(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authUser, ok := UserFromContext(r.Context())
			if !ok {
				logger.ErrorContext(r.Context(), "AuthenticatedUser not found in context. AuthMiddleware must run first.")
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !authUser.IsAdmin() {
				logger.WarnContext(r.Context(), "Permission denied", "user_id", authUser.ID, "role", authUser.Role)
				writeError(w, http.StatusForbidden, "Forbidden: admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
