package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dialhub/golang_services/internal/number_service/domain"
	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PgActorDirectory resolves association targets from the users, conference_rooms and call_redirects tables.
type PgActorDirectory struct {
	db     database.DBTX
	logger *slog.Logger
}

func NewPgActorDirectory(db database.DBTX, logger *slog.Logger) *PgActorDirectory {
	return &PgActorDirectory{db: db, logger: logger.With("component", "actor_directory")}
}

var _ domain.ActorDirectory = (*PgActorDirectory)(nil)

func (d *PgActorDirectory) GetUser(ctx context.Context, id uuid.UUID) (*domain.Actor, error) {
	a := &domain.Actor{Kind: domain.AssociationUser}
	err := d.db.QueryRow(ctx, `SELECT id, first_name, last_name FROM users WHERE id = $1`, id).
		Scan(&a.ID, &a.FirstName, &a.LastName)
	return d.result(ctx, a, err, "user", id)
}

func (d *PgActorDirectory) LockUser(ctx context.Context, q database.DBTX, id uuid.UUID) (*domain.Actor, error) {
	if q == nil {
		q = d.db
	}
	a := &domain.Actor{Kind: domain.AssociationUser}
	err := q.QueryRow(ctx, `SELECT id, first_name, last_name, is_enabled FROM users WHERE id = $1 FOR SHARE`, id).
		Scan(&a.ID, &a.FirstName, &a.LastName, &a.Enabled)
	return d.result(ctx, a, err, "user", id)
}

func (d *PgActorDirectory) GetRoom(ctx context.Context, id uuid.UUID) (*domain.Actor, error) {
	a := &domain.Actor{Kind: domain.AssociationConference}
	err := d.db.QueryRow(ctx, `SELECT id, room_name FROM conference_rooms WHERE id = $1`, id).
		Scan(&a.ID, &a.Title)
	return d.result(ctx, a, err, "room", id)
}

func (d *PgActorDirectory) GetSupportLine(ctx context.Context, id uuid.UUID) (*domain.Actor, error) {
	a := &domain.Actor{Kind: domain.AssociationSupport}
	err := d.db.QueryRow(ctx, `SELECT id, name FROM call_redirects WHERE id = $1`, id).
		Scan(&a.ID, &a.Title)
	return d.result(ctx, a, err, "support_line", id)
}

func (d *PgActorDirectory) result(ctx context.Context, a *domain.Actor, err error, kind string, id uuid.UUID) (*domain.Actor, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		d.logger.ErrorContext(ctx, "Error resolving actor", "error", err, "kind", kind, "id", id)
		return nil, err
	}
	return a, nil
}
