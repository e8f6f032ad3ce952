package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	numberdomain "github.com/dialhub/golang_services/internal/number_service/domain"
	"github.com/dialhub/golang_services/internal/public_api_service/middleware"
)

// NumberService is the number application surface used by the HTTP layer.
type NumberService interface {
	CreateNumber(ctx context.Context, number, ownerLabel string) (*numberdomain.PhoneNumber, error)
	GetSummary(ctx context.Context, id uuid.UUID) (*numberdomain.NumberSummary, error)
	ListSummaries(ctx context.Context, offset, limit int) ([]numberdomain.NumberSummary, error)
	ListOwnedSummaries(ctx context.Context, userID uuid.UUID) ([]numberdomain.NumberSummary, error)
	EnsureOwner(ctx context.Context, numberID, userID uuid.UUID) error
	AssignToUser(ctx context.Context, numberID, userID uuid.UUID, actor string) (*numberdomain.PhoneNumber, error)
	Unassign(ctx context.Context, numberID uuid.UUID) (*numberdomain.PhoneNumber, error)
	MarkRedirected(ctx context.Context, numberID, supportLineID uuid.UUID) (*numberdomain.PhoneNumber, error)
	ReleaseSupport(ctx context.Context, numberID uuid.UUID) (*numberdomain.PhoneNumber, error)
	AssociateRoom(ctx context.Context, numberID, roomID uuid.UUID) (*numberdomain.PhoneNumber, error)
	ReleaseRoom(ctx context.Context, numberID uuid.UUID) (*numberdomain.PhoneNumber, error)
	Delete(ctx context.Context, numberID uuid.UUID) error
	UpdateForwarding(ctx context.Context, numberID uuid.UUID, target string, enabled bool) (*numberdomain.PhoneNumber, error)
	SetVoicemail(ctx context.Context, numberID uuid.UUID, enabled bool, storageKey string) (*numberdomain.PhoneNumber, error)
}

type VoicemailLister interface {
	ListForNumber(ctx context.Context, numberID uuid.UUID, offset, limit int) ([]numberdomain.VoicemailView, error)
}

type UsageRecomputer interface {
	RecomputeAll(ctx context.Context, reference time.Time) (visited, changed int, err error)
}

// NumberHandler serves the phone number routes. Employees may read their own
// numbers and change forwarding on them; everything else is admin only.
type NumberHandler struct {
	numbers    NumberService
	voicemails VoicemailLister
	usage      UsageRecomputer
	logger     *slog.Logger
	validate   *validator.Validate
}

func NewNumberHandler(numbers NumberService, voicemails VoicemailLister, usage UsageRecomputer, logger *slog.Logger, validate *validator.Validate) *NumberHandler {
	return &NumberHandler{
		numbers:    numbers,
		voicemails: voicemails,
		usage:      usage,
		logger:     logger.With("handler", "numbers"),
		validate:   validate,
	}
}

// RegisterRoutes registers routes open to any authenticated user.
func (h *NumberHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users/me/numbers", h.ListMyNumbers)
	r.Get("/numbers/{numberID}", h.GetNumber)
	r.Get("/numbers/{numberID}/voicemails", h.ListVoicemails)
	r.Put("/numbers/{numberID}/forwarding", h.UpdateForwarding)
}

// RegisterAdminRoutes registers routes that RequireAdmin must guard.
func (h *NumberHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/numbers", h.ListNumbers)
	r.Post("/numbers", h.CreateNumber)
	r.Delete("/numbers/{numberID}", h.DeleteNumber)
	r.Post("/numbers/{numberID}/assign", h.AssignNumber)
	r.Post("/numbers/{numberID}/unassign", h.UnassignNumber)
	r.Post("/numbers/{numberID}/redirect", h.RedirectNumber)
	r.Delete("/numbers/{numberID}/redirect", h.ReleaseSupport)
	r.Post("/numbers/{numberID}/room", h.AssociateRoom)
	r.Delete("/numbers/{numberID}/room", h.ReleaseRoom)
	r.Put("/numbers/{numberID}/voicemail", h.SetVoicemail)
	r.Post("/usage/recompute", h.RecomputeUsage)
}

func toPhoneNumberResponse(n *numberdomain.PhoneNumber) PhoneNumberResponse {
	a := n.Association()
	resp := PhoneNumberResponse{
		ID:                 n.ID,
		PhoneNumber:        n.Number,
		ForwardedNumber:    n.ForwardedNumber,
		IsForwarded:        n.IsForwarded,
		ActiveAssociation:  string(a.Kind),
		IsVoiceMailEnabled: n.IsVoiceMailEnabled,
	}
	if a.Kind != numberdomain.AssociationNone {
		ref := a.RefID
		resp.AssociatedID = &ref
	}
	return resp
}

// authorizeNumber resolves the number id and, for non-admins, checks ownership.
// Numbers the caller does not own are reported as not found.
func (h *NumberHandler) authorizeNumber(w http.ResponseWriter, r *http.Request) (uuid.UUID, *middleware.AuthenticatedUser, bool) {
	caller, ok := currentUser(w, r)
	if !ok {
		return uuid.Nil, nil, false
	}
	numberID, err := uuidParam(r, "numberID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return uuid.Nil, nil, false
	}
	if !caller.IsAdmin() {
		if err := h.numbers.EnsureOwner(r.Context(), numberID, caller.ID); err != nil {
			respondWithDomainError(w, r, h.logger, "Failed to load phone number", err)
			return uuid.Nil, nil, false
		}
	}
	return numberID, caller, true
}

func (h *NumberHandler) ListMyNumbers(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}
	summaries, err := h.numbers.ListOwnedSummaries(r.Context(), caller.ID)
	if err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to list phone numbers", err)
		return
	}
	respondWithJSON(w, http.StatusOK, summaries)
}

func (h *NumberHandler) GetNumber(w http.ResponseWriter, r *http.Request) {
	numberID, _, ok := h.authorizeNumber(w, r)
	if !ok {
		return
	}
	summary, err := h.numbers.GetSummary(r.Context(), numberID)
	if err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to load phone number", err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func (h *NumberHandler) ListVoicemails(w http.ResponseWriter, r *http.Request) {
	numberID, _, ok := h.authorizeNumber(w, r)
	if !ok {
		return
	}
	offset, limit := pagination(r)
	views, err := h.voicemails.ListForNumber(r.Context(), numberID, offset, limit)
	if err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to list voicemails", err)
		return
	}
	respondWithJSON(w, http.StatusOK, views)
}

func (h *NumberHandler) UpdateForwarding(w http.ResponseWriter, r *http.Request) {
	numberID, _, ok := h.authorizeNumber(w, r)
	if !ok {
		return
	}
	var req UpdateForwardingRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := h.numbers.UpdateForwarding(r.Context(), numberID, req.ForwardedNumber, req.IsForwarded)
	h.respondNumber(w, r, n, err, "Failed to update forwarding")
}

func (h *NumberHandler) ListNumbers(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	summaries, err := h.numbers.ListSummaries(r.Context(), offset, limit)
	if err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to list phone numbers", err)
		return
	}
	respondWithJSON(w, http.StatusOK, summaries)
}

func (h *NumberHandler) CreateNumber(w http.ResponseWriter, r *http.Request) {
	var req CreateNumberRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := h.numbers.CreateNumber(r.Context(), req.PhoneNumber, req.OwnerLabel)
	if err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to create phone number", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, toPhoneNumberResponse(n))
}

func (h *NumberHandler) DeleteNumber(w http.ResponseWriter, r *http.Request) {
	numberID, err := uuidParam(r, "numberID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.numbers.Delete(r.Context(), numberID); err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to delete phone number", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NumberHandler) AssignNumber(w http.ResponseWriter, r *http.Request) {
	numberID, caller, ok := h.authorizeNumber(w, r)
	if !ok {
		return
	}
	var req AssignNumberRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := h.numbers.AssignToUser(r.Context(), numberID, req.UserID, caller.Email)
	h.respondNumber(w, r, n, err, "Failed to assign phone number")
}

func (h *NumberHandler) UnassignNumber(w http.ResponseWriter, r *http.Request) {
	h.simpleMutation(w, r, h.numbers.Unassign, "Failed to unassign phone number")
}

func (h *NumberHandler) ReleaseSupport(w http.ResponseWriter, r *http.Request) {
	h.simpleMutation(w, r, h.numbers.ReleaseSupport, "Failed to release support line")
}

func (h *NumberHandler) ReleaseRoom(w http.ResponseWriter, r *http.Request) {
	h.simpleMutation(w, r, h.numbers.ReleaseRoom, "Failed to release room")
}

func (h *NumberHandler) RedirectNumber(w http.ResponseWriter, r *http.Request) {
	numberID, err := uuidParam(r, "numberID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req RedirectNumberRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := h.numbers.MarkRedirected(r.Context(), numberID, req.SupportLineID)
	h.respondNumber(w, r, n, err, "Failed to redirect phone number")
}

func (h *NumberHandler) AssociateRoom(w http.ResponseWriter, r *http.Request) {
	numberID, err := uuidParam(r, "numberID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req AssociateRoomRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := h.numbers.AssociateRoom(r.Context(), numberID, req.RoomID)
	h.respondNumber(w, r, n, err, "Failed to associate room")
}

func (h *NumberHandler) SetVoicemail(w http.ResponseWriter, r *http.Request) {
	numberID, err := uuidParam(r, "numberID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req SetVoicemailRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := h.numbers.SetVoicemail(r.Context(), numberID, req.Enabled, req.StorageKey)
	h.respondNumber(w, r, n, err, "Failed to update voicemail")
}

// RecomputeUsage refreshes every idle flag against the current time.
func (h *NumberHandler) RecomputeUsage(w http.ResponseWriter, r *http.Request) {
	visited, changed, err := h.usage.RecomputeAll(r.Context(), time.Now())
	if err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to recompute usage", err)
		return
	}
	respondWithJSON(w, http.StatusOK, RecomputeUsageResponse{Visited: visited, Changed: changed})
}

func (h *NumberHandler) simpleMutation(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID) (*numberdomain.PhoneNumber, error), msg string) {
	numberID, err := uuidParam(r, "numberID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := fn(r.Context(), numberID)
	h.respondNumber(w, r, n, err, msg)
}

func (h *NumberHandler) respondNumber(w http.ResponseWriter, r *http.Request, n *numberdomain.PhoneNumber, err error, msg string) {
	if err != nil {
		respondWithDomainError(w, r, h.logger, msg, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toPhoneNumberResponse(n))
}
