package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	numberdomain "github.com/dialhub/golang_services/internal/number_service/domain"
	"github.com/dialhub/golang_services/internal/notification_service/domain"
	"github.com/dialhub/golang_services/internal/platform/messagebroker"
	"github.com/google/uuid"
)

const SubjectNotificationCreated = "notification.created"

type Service struct {
	repo      domain.Repository
	publisher messagebroker.Publisher
	logger    *slog.Logger
}

func NewService(repo domain.Repository, publisher messagebroker.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger.With("component", "notification_service"),
	}
}

// Create stores the notification and announces it on notification.created.
// A failed announcement is logged; the stored notification is still returned.
func (s *Service) Create(ctx context.Context, actor string, notifierID uuid.UUID, entity, entityType string) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:         uuid.New(),
		Actor:      actor,
		NotifierID: notifierID,
		Entity:     entity,
		EntityType: entityType,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(n); err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal notification", "error", err, "notification_id", n.ID)
	} else if err := s.publisher.Publish(ctx, SubjectNotificationCreated, payload); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish notification", "error", err, "notification_id", n.ID)
	}
	return n, nil
}

// NotifyNumberAssigned tells userID that actor gave them number.
func (s *Service) NotifyNumberAssigned(ctx context.Context, actor string, userID uuid.UUID, number *numberdomain.PhoneNumber) error {
	_, err := s.Create(ctx, actor, userID, number.Number, domain.EntityPhoneNumber)
	return err
}

func (s *Service) ListForNotifier(ctx context.Context, notifierID uuid.UUID, unreadOnly bool, offset, limit int) ([]*domain.Notification, error) {
	return s.repo.ListForNotifier(ctx, notifierID, unreadOnly, offset, limit)
}

func (s *Service) MarkRead(ctx context.Context, id, notifierID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, notifierID)
}

func (s *Service) MarkAllRead(ctx context.Context, notifierID uuid.UUID) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, notifierID)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "Notifications marked read", "notifier", notifierID, "count", n)
	return n, nil
}
