package postgres

import (
	"context"
	"log/slog"

	"github.com/dialhub/golang_services/internal/notification_service/domain"
	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/google/uuid"
)

type PgNotificationRepository struct {
	db     database.DBTX
	logger *slog.Logger
}

func NewPgNotificationRepository(db database.DBTX, logger *slog.Logger) *PgNotificationRepository {
	return &PgNotificationRepository{db: db, logger: logger.With("component", "notification_repository")}
}

var _ domain.Repository = (*PgNotificationRepository)(nil)

func (r *PgNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, actor, notifier, entity, entity_type, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query, n.ID, n.Actor, n.NotifierID, n.Entity, n.EntityType, n.IsRead, n.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating notification", "error", err, "notifier", n.NotifierID)
		return err
	}
	return nil
}

func (r *PgNotificationRepository) ListForNotifier(ctx context.Context, notifierID uuid.UUID, unreadOnly bool, offset, limit int) ([]*domain.Notification, error) {
	query := `
		SELECT id, actor, notifier, entity, entity_type, is_read, created_at
		FROM notifications
		WHERE notifier = $1 AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, notifierID, unreadOnly, limit, offset)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing notifications", "error", err, "notifier", notifierID)
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		n := &domain.Notification{}
		if err := rows.Scan(&n.ID, &n.Actor, &n.NotifierID, &n.Entity, &n.EntityType, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PgNotificationRepository) MarkRead(ctx context.Context, id, notifierID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND notifier = $2`, id, notifierID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error marking notification read", "error", err, "notification_id", id)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PgNotificationRepository) MarkAllRead(ctx context.Context, notifierID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE notifier = $1 AND NOT is_read`, notifierID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error marking notifications read", "error", err, "notifier", notifierID)
		return 0, err
	}
	return tag.RowsAffected(), nil
}
