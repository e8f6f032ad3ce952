package domain

import (
	"context"
	"errors"

	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/google/uuid"
)

// Actor describes whoever currently holds a number.
// Title is set for rooms and support lines, FirstName/LastName for users.
type Actor struct {
	Kind      AssociationKind `json:"kind"`
	ID        uuid.UUID       `json:"id"`
	Title     string          `json:"title,omitempty"`
	FirstName string          `json:"first_name,omitempty"`
	LastName  string          `json:"last_name,omitempty"`
	// Enabled is only filled by LockUser.
	Enabled   bool            `json:"-"`
}

// ActorDirectory resolves association targets. Implementations return ErrNotFound for missing records.
type ActorDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*Actor, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*Actor, error)
	GetSupportLine(ctx context.Context, id uuid.UUID) (*Actor, error)
	// LockUser reads the user inside q and holds a share lock on the row until
	// q ends, so the account cannot be disabled concurrently.
	LockUser(ctx context.Context, q database.DBTX, id uuid.UUID) (*Actor, error)
}

// DescribeActor looks up the holder of the number. It returns nil without an
// error when the number is unbound, the target record is missing, or the holder
// is a user and excludeIdentity is set.
func (n *PhoneNumber) DescribeActor(ctx context.Context, directory ActorDirectory, excludeIdentity bool) (*Actor, error) {
	a := n.Association()
	var (
		actor *Actor
		err   error
	)
	switch a.Kind {
	case AssociationConference:
		actor, err = directory.GetRoom(ctx, a.RefID)
	case AssociationSupport:
		actor, err = directory.GetSupportLine(ctx, a.RefID)
	case AssociationUser:
		if excludeIdentity {
			return nil, nil
		}
		actor, err = directory.GetUser(ctx, a.RefID)
	default:
		return nil, nil
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	actor.Kind = a.Kind
	return actor, nil
}
