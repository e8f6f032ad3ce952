package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dialhub/golang_services/internal/number_service/domain"
	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/jackc/pgx/v5"
)

const voicemailColumns = `id, date_created, COALESCE(media_url, ''), COALESCE(from_number, ''),
		COALESCE(to_number, ''), COALESCE(duration, ''), COALESCE(status, ''),
		COALESCE(call_sid, ''), COALESCE(transcription_sid, ''),
		should_post_on_slack, has_posted_on_slack`

type PgVoicemailRepository struct {
	db     database.DBTX
	logger *slog.Logger
}

func NewPgVoicemailRepository(db database.DBTX, logger *slog.Logger) *PgVoicemailRepository {
	return &PgVoicemailRepository{db: db, logger: logger.With("component", "voicemail_repository")}
}

var _ domain.VoicemailRepository = (*PgVoicemailRepository)(nil)

func scanVoicemail(row pgx.Row) (*domain.Voicemail, error) {
	v := &domain.Voicemail{}
	err := row.Scan(
		&v.ID, &v.DateCreated, &v.MediaURL, &v.FromNumber,
		&v.ToNumber, &v.Duration, &v.Status,
		&v.CallSID, &v.TranscriptionSID,
		&v.ShouldPostOnSlack, &v.HasPostedOnSlack,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Upsert inserts the voicemail or refreshes the carrier-provided fields of an existing one.
// has_posted_on_slack is never reset by an upsert.
func (r *PgVoicemailRepository) Upsert(ctx context.Context, v *domain.Voicemail) error {
	query := `
		INSERT INTO voicemails (id, date_created, media_url, from_number, to_number, duration, status,
			call_sid, transcription_sid, should_post_on_slack, has_posted_on_slack)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''),
			NULLIF($8, ''), NULLIF($9, ''), $10, FALSE)
		ON CONFLICT (id) DO UPDATE SET
			date_created = COALESCE(EXCLUDED.date_created, voicemails.date_created),
			media_url = COALESCE(EXCLUDED.media_url, voicemails.media_url),
			from_number = COALESCE(EXCLUDED.from_number, voicemails.from_number),
			to_number = COALESCE(EXCLUDED.to_number, voicemails.to_number),
			duration = COALESCE(EXCLUDED.duration, voicemails.duration),
			status = COALESCE(EXCLUDED.status, voicemails.status),
			call_sid = COALESCE(EXCLUDED.call_sid, voicemails.call_sid),
			transcription_sid = COALESCE(EXCLUDED.transcription_sid, voicemails.transcription_sid),
			should_post_on_slack = voicemails.should_post_on_slack OR EXCLUDED.should_post_on_slack
		RETURNING has_posted_on_slack
	`
	err := r.db.QueryRow(ctx, query,
		v.ID, v.DateCreated, v.MediaURL, v.FromNumber, v.ToNumber, v.Duration, v.Status,
		v.CallSID, v.TranscriptionSID, v.ShouldPostOnSlack,
	).Scan(&v.HasPostedOnSlack)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error upserting voicemail", "error", err, "voicemail_id", v.ID)
		return err
	}
	return nil
}

func (r *PgVoicemailRepository) GetByID(ctx context.Context, id string) (*domain.Voicemail, error) {
	query := `SELECT ` + voicemailColumns + ` FROM voicemails WHERE id = $1`
	v, err := scanVoicemail(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting voicemail", "error", err, "voicemail_id", id)
		return nil, err
	}
	return v, nil
}

func (r *PgVoicemailRepository) ListByToNumber(ctx context.Context, toNumber string, offset, limit int) ([]*domain.Voicemail, error) {
	query := `SELECT ` + voicemailColumns + ` FROM voicemails
		WHERE to_number = $1 ORDER BY date_created DESC NULLS LAST LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, toNumber, limit, offset)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing voicemails", "error", err, "to_number", toNumber)
		return nil, err
	}
	defer rows.Close()

	var voicemails []*domain.Voicemail
	for rows.Next() {
		v, err := scanVoicemail(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Error scanning voicemail row", "error", err)
			return nil, err
		}
		voicemails = append(voicemails, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return voicemails, nil
}

func (r *PgVoicemailRepository) MarkPostedOnSlack(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE voicemails SET has_posted_on_slack = TRUE WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error marking voicemail posted", "error", err, "voicemail_id", id)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
