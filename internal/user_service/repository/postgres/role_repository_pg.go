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

type PgRoleRepository struct {
	db     database.DBTX
	logger *slog.Logger
}

func NewPgRoleRepository(db database.DBTX, logger *slog.Logger) *PgRoleRepository {
	return &PgRoleRepository{db: db, logger: logger.With("component", "role_repository")}
}

var _ repository.RoleRepository = (*PgRoleRepository)(nil)

func (r *PgRoleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Role, error) {
	return r.get(ctx, `SELECT id, name, created_at FROM roles WHERE id = $1`, id)
}

func (r *PgRoleRepository) GetByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	return r.get(ctx, `SELECT id, name, created_at FROM roles WHERE name = $1`, string(name))
}

func (r *PgRoleRepository) get(ctx context.Context, query string, arg any) (*domain.Role, error) {
	role := &domain.Role{}
	var name string
	err := r.db.QueryRow(ctx, query, arg).Scan(&role.ID, &name, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoleNotFound
		}
		r.logger.ErrorContext(ctx, "Error fetching role", "error", err, "key", arg)
		return nil, err
	}
	role.Name = domain.RoleName(name)
	return role, nil
}
