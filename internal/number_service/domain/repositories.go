package domain

import (
	"context"

	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/google/uuid"
)

// PhoneNumberRepository persists phone numbers. Methods taking a q run on that
// querier so callers can group them in one transaction.
type PhoneNumberRepository interface {
	Create(ctx context.Context, q database.DBTX, n *PhoneNumber) error
	GetByID(ctx context.Context, id uuid.UUID) (*PhoneNumber, error)
	GetByNumber(ctx context.Context, number string) (*PhoneNumber, error)
	List(ctx context.Context, offset, limit int) ([]*PhoneNumber, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]*PhoneNumber, error)
	GetByIDForUpdate(ctx context.Context, q database.DBTX, id uuid.UUID) (*PhoneNumber, error)
	ListByOwnerForUpdate(ctx context.Context, q database.DBTX, userID uuid.UUID) ([]*PhoneNumber, error)
	Save(ctx context.Context, q database.DBTX, n *PhoneNumber) error
}

// UsageRepository persists usage records.
type UsageRepository interface {
	Create(ctx context.Context, q database.DBTX, u *UsageRecord) error
	GetByPhoneNumberID(ctx context.Context, phoneNumberID uuid.UUID) (*UsageRecord, error)
	GetByNumberForUpdate(ctx context.Context, q database.DBTX, number string) (*UsageRecord, error)
	// ListAfter pages through all records ordered by id, starting after afterID.
	ListAfter(ctx context.Context, afterID uuid.UUID, limit int) ([]*UsageRecord, error)
	Save(ctx context.Context, q database.DBTX, u *UsageRecord) error
	// SaveIdleFlags writes the flags only if the event timestamps still match u.
	// It reports false when the stored record moved on or is gone.
	SaveIdleFlags(ctx context.Context, u *UsageRecord) (bool, error)
}

// VoicemailRepository persists voicemail metadata.
type VoicemailRepository interface {
	Upsert(ctx context.Context, v *Voicemail) error
	GetByID(ctx context.Context, id string) (*Voicemail, error)
	ListByToNumber(ctx context.Context, toNumber string, offset, limit int) ([]*Voicemail, error)
	MarkPostedOnSlack(ctx context.Context, id string) error
}

// DirectoryNumberRepository persists directory entries.
type DirectoryNumberRepository interface {
	Create(ctx context.Context, d *DirectoryNumber) error
	List(ctx context.Context, offset, limit int) ([]*DirectoryNumber, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
