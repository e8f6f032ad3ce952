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

type PgRefreshTokenRepository struct {
	db     database.DBTX
	logger *slog.Logger
}

func NewPgRefreshTokenRepository(db database.DBTX, logger *slog.Logger) *PgRefreshTokenRepository {
	return &PgRefreshTokenRepository{db: db, logger: logger.With("component", "refresh_token_repository")}
}

var _ repository.RefreshTokenRepository = (*PgRefreshTokenRepository)(nil)

func (r *PgRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (id, user_id, expiration_at, is_valid, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, query, token.ID, token.UserID, token.ExpirationAt, token.IsValid, token.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error storing refresh token", "error", err, "user_id", token.UserID)
		return err
	}
	return nil
}

func (r *PgRefreshTokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RefreshToken, error) {
	t := &domain.RefreshToken{}
	query := `SELECT id, user_id, expiration_at, is_valid, created_at FROM refresh_tokens WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.UserID, &t.ExpirationAt, &t.IsValid, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenInvalid
		}
		r.logger.ErrorContext(ctx, "Error fetching refresh token", "error", err, "token_id", id)
		return nil, err
	}
	return t, nil
}

func (r *PgRefreshTokenRepository) Invalidate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE refresh_tokens SET is_valid = FALSE WHERE id = $1 AND is_valid`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error invalidating refresh token", "error", err, "token_id", id)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTokenInvalid
	}
	return nil
}

func (r *PgRefreshTokenRepository) InvalidateForUser(ctx context.Context, q database.DBTX, userID uuid.UUID) error {
	if q == nil {
		q = r.db
	}
	_, err := q.Exec(ctx, `UPDATE refresh_tokens SET is_valid = FALSE WHERE user_id = $1 AND is_valid`, userID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error invalidating user refresh tokens", "error", err, "user_id", userID)
		return err
	}
	return nil
}
