package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dialhub/golang_services/internal/number_service/domain"
	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const phoneNumberColumns = `id, phone_number, forwarded_number, is_forwarded, association_kind,
		owner_user_id, room_id, support_line_id, is_deleted, is_voice_mail_enabled,
		voicemail_storage_key, created_at, updated_at`

type PgPhoneNumberRepository struct {
	db     database.DBTX
	logger *slog.Logger
}

func NewPgPhoneNumberRepository(db database.DBTX, logger *slog.Logger) *PgPhoneNumberRepository {
	return &PgPhoneNumberRepository{db: db, logger: logger.With("component", "phone_number_repository")}
}

var _ domain.PhoneNumberRepository = (*PgPhoneNumberRepository)(nil)

func scanPhoneNumber(row pgx.Row) (*domain.PhoneNumber, error) {
	n := &domain.PhoneNumber{}
	var (
		kind                           string
		ownerUserID, roomID, supportID *uuid.UUID
	)
	err := row.Scan(
		&n.ID, &n.Number, &n.ForwardedNumber, &n.IsForwarded, &kind,
		&ownerUserID, &roomID, &supportID, &n.IsDeleted, &n.IsVoiceMailEnabled,
		&n.VoicemailStorageKey, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	k, err := domain.ParseAssociationKind(kind)
	if err != nil {
		return nil, err
	}
	if err := n.RestoreAssociation(k, ownerUserID, roomID, supportID); err != nil {
		return nil, fmt.Errorf("phone number %s: %w", n.ID, err)
	}
	return n, nil
}

func (r *PgPhoneNumberRepository) Create(ctx context.Context, q database.DBTX, n *domain.PhoneNumber) error {
	if q == nil {
		q = r.db
	}
	kind, owner, room, support := n.AssociationColumns()
	query := `
		INSERT INTO twilio_numbers (` + phoneNumberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := q.Exec(ctx, query,
		n.ID, n.Number, n.ForwardedNumber, n.IsForwarded, string(kind),
		owner, room, support, n.IsDeleted, n.IsVoiceMailEnabled,
		n.VoicemailStorageKey, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateEntry
		}
		r.logger.ErrorContext(ctx, "Error creating phone number", "error", err, "number_id", n.ID)
		return err
	}
	return nil
}

func (r *PgPhoneNumberRepository) getOne(ctx context.Context, q database.DBTX, query string, arg any) (*domain.PhoneNumber, error) {
	n, err := scanPhoneNumber(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting phone number", "error", err, "key", arg)
		return nil, err
	}
	return n, nil
}

func (r *PgPhoneNumberRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PhoneNumber, error) {
	return r.getOne(ctx, r.db, `SELECT `+phoneNumberColumns+` FROM twilio_numbers WHERE id = $1`, id)
}

func (r *PgPhoneNumberRepository) GetByNumber(ctx context.Context, number string) (*domain.PhoneNumber, error) {
	return r.getOne(ctx, r.db, `SELECT `+phoneNumberColumns+` FROM twilio_numbers WHERE phone_number = $1`, number)
}

// GetByIDForUpdate locks the row until the surrounding transaction ends.
func (r *PgPhoneNumberRepository) GetByIDForUpdate(ctx context.Context, q database.DBTX, id uuid.UUID) (*domain.PhoneNumber, error) {
	return r.getOne(ctx, q, `SELECT `+phoneNumberColumns+` FROM twilio_numbers WHERE id = $1 FOR UPDATE`, id)
}

func (r *PgPhoneNumberRepository) list(ctx context.Context, q database.DBTX, query string, args ...any) ([]*domain.PhoneNumber, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing phone numbers", "error", err)
		return nil, err
	}
	defer rows.Close()

	var numbers []*domain.PhoneNumber
	for rows.Next() {
		n, err := scanPhoneNumber(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Error scanning phone number row", "error", err)
			return nil, err
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating phone number rows", "error", err)
		return nil, err
	}
	return numbers, nil
}

func (r *PgPhoneNumberRepository) List(ctx context.Context, offset, limit int) ([]*domain.PhoneNumber, error) {
	query := `SELECT ` + phoneNumberColumns + ` FROM twilio_numbers
		WHERE is_deleted = FALSE ORDER BY phone_number ASC LIMIT $1 OFFSET $2`
	return r.list(ctx, r.db, query, limit, offset)
}

func (r *PgPhoneNumberRepository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*domain.PhoneNumber, error) {
	query := `SELECT ` + phoneNumberColumns + ` FROM twilio_numbers
		WHERE owner_user_id = $1 ORDER BY phone_number ASC`
	return r.list(ctx, r.db, query, userID)
}

// ListByOwnerForUpdate locks every number owned by userID.
func (r *PgPhoneNumberRepository) ListByOwnerForUpdate(ctx context.Context, q database.DBTX, userID uuid.UUID) ([]*domain.PhoneNumber, error) {
	query := `SELECT ` + phoneNumberColumns + ` FROM twilio_numbers
		WHERE owner_user_id = $1 ORDER BY id FOR UPDATE`
	return r.list(ctx, q, query, userID)
}

// Save writes every mutable column. A nil q uses the pool.
func (r *PgPhoneNumberRepository) Save(ctx context.Context, q database.DBTX, n *domain.PhoneNumber) error {
	if q == nil {
		q = r.db
	}
	n.UpdatedAt = time.Now().UTC()
	kind, owner, room, support := n.AssociationColumns()
	query := `
		UPDATE twilio_numbers SET
			forwarded_number = $2, is_forwarded = $3, association_kind = $4,
			owner_user_id = $5, room_id = $6, support_line_id = $7, is_deleted = $8,
			is_voice_mail_enabled = $9, voicemail_storage_key = $10, updated_at = $11
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query,
		n.ID, n.ForwardedNumber, n.IsForwarded, string(kind),
		owner, room, support, n.IsDeleted,
		n.IsVoiceMailEnabled, n.VoicemailStorageKey, n.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error saving phone number", "error", err, "number_id", n.ID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
