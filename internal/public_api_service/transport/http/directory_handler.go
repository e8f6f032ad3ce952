package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	numberdomain "github.com/dialhub/golang_services/internal/number_service/domain"
)

type DirectoryService interface {
	Create(ctx context.Context, label, phoneNumber string) (*numberdomain.DirectoryNumber, error)
	List(ctx context.Context, offset, limit int) ([]*numberdomain.DirectoryNumber, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DirectoryHandler manages the shared list of labelled external numbers.
type DirectoryHandler struct {
	directory DirectoryService
	logger    *slog.Logger
	validate  *validator.Validate
}

func NewDirectoryHandler(directory DirectoryService, logger *slog.Logger, validate *validator.Validate) *DirectoryHandler {
	return &DirectoryHandler{
		directory: directory,
		logger:    logger.With("handler", "directory"),
		validate:  validate,
	}
}

func (h *DirectoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/directory", h.List)
	r.Post("/directory", h.Create)
	r.Delete("/directory/{entryID}", h.Delete)
}

func (h *DirectoryHandler) List(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	entries, err := h.directory.List(r.Context(), offset, limit)
	if err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to list directory", err)
		return
	}
	if entries == nil {
		entries = []*numberdomain.DirectoryNumber{}
	}
	respondWithJSON(w, http.StatusOK, entries)
}

func (h *DirectoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDirectoryNumberRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := h.directory.Create(r.Context(), req.Label, req.PhoneNumber)
	if err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to create directory entry", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, entry)
}

func (h *DirectoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "entryID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.directory.Delete(r.Context(), id); err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to delete directory entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
