package postgres

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/dialhub/golang_services/internal/user_service/domain"
	"github.com/dialhub/golang_services/internal/user_service/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const userSelect = `
	SELECT u.id, u.email, u.hashed_password, u.first_name, u.last_name, u.role_id, r.name,
	       u.is_enabled, u.is_voice_mail_enabled, u.voicemail_storage_key, u.created_at, u.updated_at
	FROM users u
	JOIN roles r ON r.id = u.role_id`

type PgUserRepository struct {
	db     database.DBTX
	logger *slog.Logger
}

func NewPgUserRepository(db database.DBTX, logger *slog.Logger) *PgUserRepository {
	return &PgUserRepository{db: db, logger: logger.With("component", "user_repository")}
}

var _ repository.UserRepository = (*PgUserRepository)(nil)

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	var role string
	err := row.Scan(
		&u.ID, &u.Email, &u.HashedPassword, &u.FirstName, &u.LastName, &u.RoleID, &role,
		&u.IsEnabled, &u.IsVoiceMailEnabled, &u.VoicemailStorageKey, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	u.Role = domain.RoleName(role)
	return u, nil
}

func (r *PgUserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, hashed_password, first_name, last_name, role_id,
		                   is_enabled, is_voice_mail_enabled, voicemail_storage_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Email, user.HashedPassword, user.FirstName, user.LastName, user.RoleID,
		user.IsEnabled, user.IsVoiceMailEnabled, user.VoicemailStorageKey, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrEmailExists
		}
		r.logger.ErrorContext(ctx, "Error creating user", "error", err, "user_id", user.ID)
		return err
	}
	return nil
}

func (r *PgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, userSelect+` WHERE u.id = $1`, id))
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		r.logger.ErrorContext(ctx, "Error fetching user", "error", err, "user_id", id)
	}
	return u, err
}

// GetByEmail matches case-insensitively; emails are stored lower-cased.
func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, userSelect+` WHERE u.email = $1`, strings.ToLower(email)))
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		r.logger.ErrorContext(ctx, "Error fetching user by email", "error", err)
	}
	return u, err
}

func (r *PgUserRepository) GetByIDForUpdate(ctx context.Context, q database.DBTX, id uuid.UUID) (*domain.User, error) {
	if q == nil {
		q = r.db
	}
	u, err := scanUser(q.QueryRow(ctx, userSelect+` WHERE u.id = $1 FOR UPDATE OF u`, id))
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		r.logger.ErrorContext(ctx, "Error locking user", "error", err, "user_id", id)
	}
	return u, err
}

// Update writes the mutable columns. Email and password are not changed here.
func (r *PgUserRepository) Update(ctx context.Context, q database.DBTX, user *domain.User) error {
	if q == nil {
		q = r.db
	}
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, role_id = $4, is_enabled = $5,
		    is_voice_mail_enabled = $6, voicemail_storage_key = $7, updated_at = $8
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query,
		user.ID, user.FirstName, user.LastName, user.RoleID, user.IsEnabled,
		user.IsVoiceMailEnabled, user.VoicemailStorageKey, user.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating user", "error", err, "user_id", user.ID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
