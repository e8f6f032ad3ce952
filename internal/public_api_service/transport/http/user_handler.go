package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	numberdomain "github.com/dialhub/golang_services/internal/number_service/domain"
	userdomain "github.com/dialhub/golang_services/internal/user_service/domain"
)

type AccountService interface {
	DisableAccount(ctx context.Context, userID uuid.UUID) error
	ReplaceOwnedNumbers(ctx context.Context, userID uuid.UUID, numberIDs []uuid.UUID) ([]*numberdomain.PhoneNumber, error)
}

type RoleAssigner interface {
	AssignRole(ctx context.Context, userID uuid.UUID, role userdomain.RoleName) (*userdomain.User, error)
}

// UserAdminHandler serves the admin-only user management routes.
type UserAdminHandler struct {
	accounts AccountService
	roles    RoleAssigner
	logger   *slog.Logger
	validate *validator.Validate
}

func NewUserAdminHandler(accounts AccountService, roles RoleAssigner, logger *slog.Logger, validate *validator.Validate) *UserAdminHandler {
	return &UserAdminHandler{
		accounts: accounts,
		roles:    roles,
		logger:   logger.With("handler", "user_admin"),
		validate: validate,
	}
}

func (h *UserAdminHandler) RegisterRoutes(r chi.Router) {
	r.Post("/users/{userID}/disable", h.DisableAccount)
	r.Put("/users/{userID}/numbers", h.ReplaceNumbers)
	r.Put("/users/{userID}/role", h.AssignRole)
}

func (h *UserAdminHandler) DisableAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.accounts.DisableAccount(r.Context(), userID); err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to disable account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceNumbers makes the given set the numbers owned by the user.
// Numbers the user owns outside the set must be unassigned first.
func (h *UserAdminHandler) ReplaceNumbers(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req ReplaceNumbersRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	numbers, err := h.accounts.ReplaceOwnedNumbers(r.Context(), userID, req.NumberIDs)
	if err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to replace numbers", err)
		return
	}
	resp := make([]PhoneNumberResponse, 0, len(numbers))
	for _, n := range numbers {
		resp = append(resp, toPhoneNumberResponse(n))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *UserAdminHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req AssignRoleRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	role, err := userdomain.ParseRoleName(req.Role)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.roles.AssignRole(r.Context(), userID, role)
	if err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to assign role", err)
		return
	}
	respondWithJSON(w, http.StatusOK, toUserProfile(user))
}
