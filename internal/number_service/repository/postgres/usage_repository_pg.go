package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dialhub/golang_services/internal/number_service/domain"
	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const usageColumns = `u.id, u.twilio_number_id, u.owner_name,
		u.last_incoming_call_date, u.last_outgoing_call_date,
		u.last_incoming_sms_date, u.last_outgoing_sms_date,
		u.last_used_more_than_15_days, u.last_used_more_than_30_days, u.last_used_more_than_60_days,
		u.updated_at`

type PgUsageRepository struct {
	db     database.DBTX
	logger *slog.Logger
}

func NewPgUsageRepository(db database.DBTX, logger *slog.Logger) *PgUsageRepository {
	return &PgUsageRepository{db: db, logger: logger.With("component", "usage_repository")}
}

var _ domain.UsageRepository = (*PgUsageRepository)(nil)

func scanUsage(row pgx.Row) (*domain.UsageRecord, error) {
	u := &domain.UsageRecord{}
	err := row.Scan(
		&u.ID, &u.PhoneNumberID, &u.OwnerLabel,
		&u.LastIncomingCallAt, &u.LastOutgoingCallAt,
		&u.LastIncomingSMSAt, &u.LastOutgoingSMSAt,
		&u.IdleOver15Days, &u.IdleOver30Days, &u.IdleOver60Days,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PgUsageRepository) Create(ctx context.Context, q database.DBTX, u *domain.UsageRecord) error {
	if q == nil {
		q = r.db
	}
	query := `
		INSERT INTO twilio_number_usage (id, twilio_number_id, owner_name,
			last_incoming_call_date, last_outgoing_call_date, last_incoming_sms_date, last_outgoing_sms_date,
			last_used_more_than_15_days, last_used_more_than_30_days, last_used_more_than_60_days, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := q.Exec(ctx, query,
		u.ID, u.PhoneNumberID, u.OwnerLabel,
		u.LastIncomingCallAt, u.LastOutgoingCallAt, u.LastIncomingSMSAt, u.LastOutgoingSMSAt,
		u.IdleOver15Days, u.IdleOver30Days, u.IdleOver60Days, u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateEntry
		}
		r.logger.ErrorContext(ctx, "Error creating usage record", "error", err, "number_id", u.PhoneNumberID)
		return err
	}
	return nil
}

func (r *PgUsageRepository) GetByPhoneNumberID(ctx context.Context, phoneNumberID uuid.UUID) (*domain.UsageRecord, error) {
	query := `SELECT ` + usageColumns + ` FROM twilio_number_usage u WHERE u.twilio_number_id = $1`
	u, err := scanUsage(r.db.QueryRow(ctx, query, phoneNumberID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting usage record", "error", err, "number_id", phoneNumberID)
		return nil, err
	}
	return u, nil
}

// GetByNumberForUpdate locks the usage row of the number with the given E.164 value.
func (r *PgUsageRepository) GetByNumberForUpdate(ctx context.Context, q database.DBTX, number string) (*domain.UsageRecord, error) {
	query := `SELECT ` + usageColumns + `
		FROM twilio_number_usage u
		JOIN twilio_numbers n ON n.id = u.twilio_number_id
		WHERE n.phone_number = $1
		FOR UPDATE OF u`
	u, err := scanUsage(q.QueryRow(ctx, query, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error locking usage record", "error", err, "phone_number", number)
		return nil, err
	}
	return u, nil
}

func (r *PgUsageRepository) ListAfter(ctx context.Context, afterID uuid.UUID, limit int) ([]*domain.UsageRecord, error) {
	query := `SELECT ` + usageColumns + ` FROM twilio_number_usage u WHERE u.id > $1 ORDER BY u.id ASC LIMIT $2`
	rows, err := r.db.Query(ctx, query, afterID, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing usage records", "error", err)
		return nil, err
	}
	defer rows.Close()

	var records []*domain.UsageRecord
	for rows.Next() {
		u, err := scanUsage(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Error scanning usage row", "error", err)
			return nil, err
		}
		records = append(records, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *PgUsageRepository) Save(ctx context.Context, q database.DBTX, u *domain.UsageRecord) error {
	if q == nil {
		q = r.db
	}
	u.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE twilio_number_usage SET
			owner_name = $2,
			last_incoming_call_date = $3, last_outgoing_call_date = $4,
			last_incoming_sms_date = $5, last_outgoing_sms_date = $6,
			last_used_more_than_15_days = $7, last_used_more_than_30_days = $8, last_used_more_than_60_days = $9,
			updated_at = $10
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query,
		u.ID, u.OwnerLabel,
		u.LastIncomingCallAt, u.LastOutgoingCallAt, u.LastIncomingSMSAt, u.LastOutgoingSMSAt,
		u.IdleOver15Days, u.IdleOver30Days, u.IdleOver60Days, u.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error saving usage record", "error", err, "usage_id", u.ID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SaveIdleFlags writes only the derived flags, leaving event timestamps untouched.
// The timestamps the flags were computed from guard the update, so an event
// recorded in the meantime wins and the write is skipped.
func (r *PgUsageRepository) SaveIdleFlags(ctx context.Context, u *domain.UsageRecord) (bool, error) {
	query := `
		UPDATE twilio_number_usage SET
			last_used_more_than_15_days = $2, last_used_more_than_30_days = $3, last_used_more_than_60_days = $4,
			updated_at = $5
		WHERE id = $1
			AND last_incoming_call_date IS NOT DISTINCT FROM $6
			AND last_outgoing_call_date IS NOT DISTINCT FROM $7
			AND last_incoming_sms_date IS NOT DISTINCT FROM $8
			AND last_outgoing_sms_date IS NOT DISTINCT FROM $9
	`
	tag, err := r.db.Exec(ctx, query,
		u.ID, u.IdleOver15Days, u.IdleOver30Days, u.IdleOver60Days, time.Now().UTC(),
		u.LastIncomingCallAt, u.LastOutgoingCallAt, u.LastIncomingSMSAt, u.LastOutgoingSMSAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error saving idle flags", "error", err, "usage_id", u.ID)
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
