package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("notification not found")

// EntityPhoneNumber marks notifications about a phone number; Entity holds the number.
const EntityPhoneNumber = "TWILIO_NUMBER"

// Notification tells NotifierID that Actor did something to Entity.
type Notification struct {
	ID         uuid.UUID `json:"id"`
	Actor      string    `json:"actor"`
	NotifierID uuid.UUID `json:"notifier"`
	Entity     string    `json:"entity"`
	EntityType string    `json:"entity_type"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListForNotifier(ctx context.Context, notifierID uuid.UUID, unreadOnly bool, offset, limit int) ([]*Notification, error)
	// MarkRead only touches notifications addressed to notifierID.
	MarkRead(ctx context.Context, id, notifierID uuid.UUID) error
	MarkAllRead(ctx context.Context, notifierID uuid.UUID) (int64, error)
}
