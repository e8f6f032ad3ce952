package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/dialhub/golang_services/internal/user_service/domain"
	"github.com/dialhub/golang_services/internal/user_service/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PgOtpRepository struct {
	db     database.DBTX
	logger *slog.Logger
}

func NewPgOtpRepository(db database.DBTX, logger *slog.Logger) *PgOtpRepository {
	return &PgOtpRepository{db: db, logger: logger.With("component", "otp_repository")}
}

var _ repository.OtpRepository = (*PgOtpRepository)(nil)

func (r *PgOtpRepository) Create(ctx context.Context, otp *domain.Otp) error {
	query := `INSERT INTO otps (id, user_id, value_hash, valid_until, verified, verified_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, query, otp.ID, otp.UserID, otp.ValueHash, otp.ValidUntil, otp.Verified, otp.VerifiedAt, otp.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error storing otp", "error", err, "user_id", otp.UserID)
		return err
	}
	return nil
}

func (r *PgOtpRepository) GetLatestPending(ctx context.Context, userID uuid.UUID) (*domain.Otp, error) {
	o := &domain.Otp{}
	query := `
		SELECT id, user_id, value_hash, valid_until, verified, verified_at, created_at
		FROM otps
		WHERE user_id = $1 AND NOT verified
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, userID).Scan(&o.ID, &o.UserID, &o.ValueHash, &o.ValidUntil, &o.Verified, &o.VerifiedAt, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOTPInvalid
		}
		r.logger.ErrorContext(ctx, "Error fetching otp", "error", err, "user_id", userID)
		return nil, err
	}
	return o, nil
}

// MarkVerified only succeeds once per code.
func (r *PgOtpRepository) MarkVerified(ctx context.Context, otp *domain.Otp) error {
	tag, err := r.db.Exec(ctx, `UPDATE otps SET verified = TRUE, verified_at = $2 WHERE id = $1 AND NOT verified`, otp.ID, otp.VerifiedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error marking otp verified", "error", err, "otp_id", otp.ID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOTPInvalid
	}
	return nil
}
