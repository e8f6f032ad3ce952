package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dialhub/golang_services/internal/number_service/domain"
	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type PgDirectoryNumberRepository struct {
	db     database.DBTX
	logger *slog.Logger
}

func NewPgDirectoryNumberRepository(db database.DBTX, logger *slog.Logger) *PgDirectoryNumberRepository {
	return &PgDirectoryNumberRepository{db: db, logger: logger.With("component", "directory_repository")}
}

var _ domain.DirectoryNumberRepository = (*PgDirectoryNumberRepository)(nil)

func (r *PgDirectoryNumberRepository) Create(ctx context.Context, d *domain.DirectoryNumber) error {
	query := `INSERT INTO directory_numbers (id, label, phone_number, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.Exec(ctx, query, d.ID, d.Label, d.PhoneNumber, d.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateEntry
		}
		r.logger.ErrorContext(ctx, "Error creating directory number", "error", err, "phone_number", d.PhoneNumber)
		return err
	}
	return nil
}

func (r *PgDirectoryNumberRepository) List(ctx context.Context, offset, limit int) ([]*domain.DirectoryNumber, error) {
	query := `SELECT id, label, phone_number, created_at FROM directory_numbers ORDER BY label ASC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing directory numbers", "error", err)
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.DirectoryNumber
	for rows.Next() {
		d := &domain.DirectoryNumber{}
		if err := rows.Scan(&d.ID, &d.Label, &d.PhoneNumber, &d.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *PgDirectoryNumberRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM directory_numbers WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error deleting directory number", "error", err, "directory_id", id)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
