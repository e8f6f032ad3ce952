package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	notificationdomain "github.com/dialhub/golang_services/internal/notification_service/domain"
)

type NotificationService interface {
	ListForNotifier(ctx context.Context, notifierID uuid.UUID, unreadOnly bool, offset, limit int) ([]*notificationdomain.Notification, error)
	MarkRead(ctx context.Context, id, notifierID uuid.UUID) error
	MarkAllRead(ctx context.Context, notifierID uuid.UUID) (int64, error)
}

// NotificationHandler serves the caller's own notifications.
type NotificationHandler struct {
	notifications NotificationService
	logger        *slog.Logger
}

func NewNotificationHandler(notifications NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		logger:        logger.With("handler", "notifications"),
	}
}

func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.List)
	r.Post("/notifications/read_all", h.MarkAllRead)
	r.Post("/notifications/{notificationID}/read", h.MarkRead)
}

// List accepts ?unread=true to skip notifications already read.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	offset, limit := pagination(r)
	list, err := h.notifications.ListForNotifier(r.Context(), caller.ID, unreadOnly, offset, limit)
	if err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to list notifications", err)
		return
	}
	if list == nil {
		list = []*notificationdomain.Notification{}
	}
	respondWithJSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "notificationID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.notifications.MarkRead(r.Context(), id, caller.ID); err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to mark notification read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}
	n, err := h.notifications.MarkAllRead(r.Context(), caller.ID)
	if err != nil {
		respondWithDomainError(w, r, h.logger, "Failed to mark notifications read", err)
		return
	}
	respondWithJSON(w, http.StatusOK, MarkAllReadResponse{Updated: n})
}
