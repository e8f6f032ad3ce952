package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AssociationKind names the entity a phone number is bound to.
type AssociationKind string

const (
	AssociationNone       AssociationKind = "NONE"
	AssociationUser       AssociationKind = "USER"
	AssociationConference AssociationKind = "CONFERENCE"
	AssociationSupport    AssociationKind = "SUPPORT"
)

// ParseAssociationKind converts a stored value into an AssociationKind.
func ParseAssociationKind(s string) (AssociationKind, error) {
	switch k := AssociationKind(s); k {
	case AssociationNone, AssociationUser, AssociationConference, AssociationSupport:
		return k, nil
	}
	return "", fmt.Errorf("%w: association kind %q", ErrInvalidArgument, s)
}

// Association is the single binding of a number. RefID is uuid.Nil for AssociationNone.
type Association struct {
	Kind  AssociationKind
	RefID uuid.UUID
}

// PhoneNumber is a carrier number that can be bound to one user, conference room or support line.
type PhoneNumber struct {
	ID                  uuid.UUID
	Number              string
	ForwardedNumber     *string
	IsForwarded         bool
	IsDeleted           bool
	IsVoiceMailEnabled  bool
	VoicemailStorageKey *string
	CreatedAt           time.Time
	UpdatedAt           time.Time

	association Association
}

// NewPhoneNumber creates an unassigned number.
func NewPhoneNumber(id uuid.UUID, number string, isPhoneNumber func(string) bool) (*PhoneNumber, error) {
	if !isPhoneNumber(number) {
		return nil, fmt.Errorf("%w: %q is not a phone number", ErrInvalidArgument, number)
	}
	now := time.Now().UTC()
	return &PhoneNumber{
		ID:          id,
		Number:      number,
		CreatedAt:   now,
		UpdatedAt:   now,
		association: Association{Kind: AssociationNone},
	}, nil
}

// setAssociation is the only place the binding changes.
func (n *PhoneNumber) setAssociation(kind AssociationKind, ref uuid.UUID) {
	if kind == AssociationNone {
		ref = uuid.Nil
	}
	n.association = Association{Kind: kind, RefID: ref}
	n.UpdatedAt = time.Now().UTC()
}

// Association returns the current binding.
func (n *PhoneNumber) Association() Association {
	if n.association.Kind == "" {
		return Association{Kind: AssociationNone}
	}
	return n.association
}

// CurrentAssociationKind reports which kind of entity holds the number.
func (n *PhoneNumber) CurrentAssociationKind() AssociationKind {
	return n.Association().Kind
}

func (n *PhoneNumber) IsRoomAssociated() bool {
	return n.CurrentAssociationKind() == AssociationConference
}

func (n *PhoneNumber) IsSupportNumber() bool {
	return n.CurrentAssociationKind() == AssociationSupport
}

// OwnerUserID returns the bound user, if any.
func (n *PhoneNumber) OwnerUserID() (uuid.UUID, bool) {
	a := n.Association()
	if a.Kind != AssociationUser {
		return uuid.Nil, false
	}
	return a.RefID, true
}

// AssignToUser binds the number to userID, replacing any previous user.
func (n *PhoneNumber) AssignToUser(userID uuid.UUID) error {
	if n.IsDeleted {
		return ErrNumberDeleted
	}
	if userID == uuid.Nil {
		return fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}
	switch n.CurrentAssociationKind() {
	case AssociationConference, AssociationSupport:
		return ErrNotAssignable
	}
	n.setAssociation(AssociationUser, userID)
	return nil
}

// Unassign drops a user binding and always clears forwarding.
// Room and support bindings are left in place.
func (n *PhoneNumber) Unassign() {
	if n.CurrentAssociationKind() == AssociationUser {
		n.setAssociation(AssociationNone, uuid.Nil)
	}
	n.clearForwarding()
}

// MarkRedirected turns the number into a support line.
func (n *PhoneNumber) MarkRedirected(supportLineID uuid.UUID) error {
	if n.IsDeleted {
		return ErrNumberDeleted
	}
	if supportLineID == uuid.Nil {
		return fmt.Errorf("%w: empty support line id", ErrInvalidArgument)
	}
	switch n.CurrentAssociationKind() {
	case AssociationConference, AssociationUser:
		return ErrNotAssignable
	}
	n.setAssociation(AssociationSupport, supportLineID)
	return nil
}

// ReleaseSupport clears a support binding. Other bindings are untouched.
func (n *PhoneNumber) ReleaseSupport() {
	if n.CurrentAssociationKind() == AssociationSupport {
		n.setAssociation(AssociationNone, uuid.Nil)
	}
}

// AssociateRoom binds the number to a conference room.
func (n *PhoneNumber) AssociateRoom(roomID uuid.UUID) error {
	if n.IsDeleted {
		return ErrNumberDeleted
	}
	if roomID == uuid.Nil {
		return fmt.Errorf("%w: empty room id", ErrInvalidArgument)
	}
	switch n.CurrentAssociationKind() {
	case AssociationUser, AssociationSupport:
		return ErrNotAssignable
	}
	n.setAssociation(AssociationConference, roomID)
	return nil
}

// ReleaseRoom clears a conference binding. Other bindings are untouched.
func (n *PhoneNumber) ReleaseRoom() {
	if n.CurrentAssociationKind() == AssociationConference {
		n.setAssociation(AssociationNone, uuid.Nil)
	}
}

// MarkDeleted is terminal. Repeating it leaves the same state.
func (n *PhoneNumber) MarkDeleted() {
	n.IsDeleted = true
	n.Unassign()
}

// UpdateForwarding enables forwarding to target only when target is a valid
// phone number and enabled is set. Any other input disables forwarding.
// The returned bool reports whether the target was rejected as malformed.
func (n *PhoneNumber) UpdateForwarding(target string, enabled bool, isPhoneNumber func(string) bool) (bool, error) {
	if n.IsDeleted {
		return false, ErrNumberDeleted
	}
	valid := target != "" && isPhoneNumber(target)
	if valid && enabled {
		t := target
		n.ForwardedNumber = &t
		n.IsForwarded = true
		n.UpdatedAt = time.Now().UTC()
		return false, nil
	}
	n.clearForwarding()
	return target != "" && !valid, nil
}

func (n *PhoneNumber) clearForwarding() {
	n.ForwardedNumber = nil
	n.IsForwarded = false
	n.UpdatedAt = time.Now().UTC()
}

// EnableVoicemail turns voicemail on with the greeting stored under storageKey.
func (n *PhoneNumber) EnableVoicemail(storageKey string) error {
	if storageKey == "" {
		return fmt.Errorf("%w: empty voicemail storage key", ErrInvalidArgument)
	}
	k := storageKey
	n.IsVoiceMailEnabled = true
	n.VoicemailStorageKey = &k
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// DisableVoicemail turns voicemail off and forgets the storage key.
func (n *PhoneNumber) DisableVoicemail() {
	n.IsVoiceMailEnabled = false
	n.VoicemailStorageKey = nil
	n.UpdatedAt = time.Now().UTC()
}

// AssociationColumns projects the binding onto the stored columns.
func (n *PhoneNumber) AssociationColumns() (kind AssociationKind, ownerUserID, roomID, supportLineID *uuid.UUID) {
	a := n.Association()
	ref := a.RefID
	switch a.Kind {
	case AssociationUser:
		ownerUserID = &ref
	case AssociationConference:
		roomID = &ref
	case AssociationSupport:
		supportLineID = &ref
	}
	return a.Kind, ownerUserID, roomID, supportLineID
}

// RestoreAssociation rebuilds the binding from stored columns.
func (n *PhoneNumber) RestoreAssociation(kind AssociationKind, ownerUserID, roomID, supportLineID *uuid.UUID) error {
	set := 0
	for _, p := range []*uuid.UUID{ownerUserID, roomID, supportLineID} {
		if p != nil {
			set++
		}
	}
	var ref *uuid.UUID
	switch kind {
	case AssociationNone:
		if set != 0 {
			return ErrInconsistentAssociation
		}
		n.association = Association{Kind: AssociationNone}
		return nil
	case AssociationUser:
		ref = ownerUserID
	case AssociationConference:
		ref = roomID
	case AssociationSupport:
		ref = supportLineID
	default:
		return fmt.Errorf("%w: association kind %q", ErrInvalidArgument, kind)
	}
	if ref == nil || set != 1 {
		return ErrInconsistentAssociation
	}
	n.association = Association{Kind: kind, RefID: *ref}
	return nil
}
