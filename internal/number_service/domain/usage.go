package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind is the channel of a usage event.
type EventKind string

const (
	EventCall EventKind = "CALL"
	EventSMS  EventKind = "SMS"
)

// Direction of a usage event relative to the number.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// NoUserAssigned is the softphone owner label for unbound numbers.
const NoUserAssigned = "~~No User Assigned~~"

// IdleThresholds are the day counts the idle flags are computed for.
var IdleThresholds = [...]int{15, 30, 60}

// UsageRecord tracks the latest activity of one number.
// The idle flags are derived by RecomputeIdleFlags and never by the Record methods.
type UsageRecord struct {
	ID                 uuid.UUID
	PhoneNumberID      uuid.UUID
	OwnerLabel         string
	LastIncomingCallAt *time.Time
	LastOutgoingCallAt *time.Time
	LastIncomingSMSAt  *time.Time
	LastOutgoingSMSAt  *time.Time
	IdleOver15Days     bool
	IdleOver30Days     bool
	IdleOver60Days     bool
	UpdatedAt          time.Time
}

// NewUsageRecord creates a record with no activity, idle at every threshold.
func NewUsageRecord(id, phoneNumberID uuid.UUID, ownerLabel string) *UsageRecord {
	return &UsageRecord{
		ID:             id,
		PhoneNumberID:  phoneNumberID,
		OwnerLabel:     ownerLabel,
		IdleOver15Days: true,
		IdleOver30Days: true,
		IdleOver60Days: true,
		UpdatedAt:      time.Now().UTC(),
	}
}

// RecordIncoming stores ts as the latest incoming event of kind if it is newer.
// It reports whether the record changed.
func (u *UsageRecord) RecordIncoming(kind EventKind, ts time.Time) (bool, error) {
	switch kind {
	case EventCall:
		return advance(&u.LastIncomingCallAt, ts), nil
	case EventSMS:
		return advance(&u.LastIncomingSMSAt, ts), nil
	}
	return false, fmt.Errorf("%w: event kind %q", ErrInvalidArgument, kind)
}

// RecordOutgoing stores ts as the latest outgoing event of kind if it is newer.
func (u *UsageRecord) RecordOutgoing(kind EventKind, ts time.Time) (bool, error) {
	switch kind {
	case EventCall:
		return advance(&u.LastOutgoingCallAt, ts), nil
	case EventSMS:
		return advance(&u.LastOutgoingSMSAt, ts), nil
	}
	return false, fmt.Errorf("%w: event kind %q", ErrInvalidArgument, kind)
}

// Record dispatches on direction.
func (u *UsageRecord) Record(direction Direction, kind EventKind, ts time.Time) (bool, error) {
	switch direction {
	case DirectionIncoming:
		return u.RecordIncoming(kind, ts)
	case DirectionOutgoing:
		return u.RecordOutgoing(kind, ts)
	}
	return false, fmt.Errorf("%w: direction %q", ErrInvalidArgument, direction)
}

func advance(field **time.Time, ts time.Time) bool {
	if *field != nil && !ts.After(**field) {
		return false
	}
	t := ts.UTC()
	*field = &t
	return true
}

// RecomputeIdleFlags sets each flag when no activity happened in the d days before reference.
// It reports whether any flag changed.
func (u *UsageRecord) RecomputeIdleFlags(reference time.Time) bool {
	before := [3]bool{u.IdleOver15Days, u.IdleOver30Days, u.IdleOver60Days}
	u.IdleOver15Days = u.idleSince(reference.AddDate(0, 0, -IdleThresholds[0]))
	u.IdleOver30Days = u.idleSince(reference.AddDate(0, 0, -IdleThresholds[1]))
	u.IdleOver60Days = u.idleSince(reference.AddDate(0, 0, -IdleThresholds[2]))
	return before != [3]bool{u.IdleOver15Days, u.IdleOver30Days, u.IdleOver60Days}
}

func (u *UsageRecord) idleSince(cutoff time.Time) bool {
	for _, ts := range []*time.Time{u.LastIncomingCallAt, u.LastOutgoingCallAt, u.LastIncomingSMSAt, u.LastOutgoingSMSAt} {
		if ts != nil && !ts.Before(cutoff) {
			return false
		}
	}
	return true
}

// UsageReport is the read model of a usage record.
type UsageReport struct {
	TwilioNumber           string     `json:"twilio_number"`
	OwnerTwilio            string     `json:"owner_twilio"`
	OwnerSoftphone         string     `json:"owner_softphone"`
	LastIncomingCallDate   *time.Time `json:"last_incoming_call_date"`
	LastOutgoingCallDate   *time.Time `json:"last_outgoing_call_date"`
	LastIncomingSMSDate    *time.Time `json:"last_incoming_sms_date"`
	LastOutgoingSMSDate    *time.Time `json:"last_outgoing_sms_date"`
	LastUsedMoreThan15Days bool       `json:"last_used_more_than_15_days"`
	LastUsedMoreThan30Days bool       `json:"last_used_more_than_30_days"`
	LastUsedMoreThan60Days bool       `json:"last_used_more_than_60_days"`
}

// Report builds the read model. An empty ownerFullName means no user is bound.
func (u *UsageRecord) Report(phoneNumber, ownerFullName string) UsageReport {
	softphone := ownerFullName
	if softphone == "" {
		softphone = NoUserAssigned
	}
	return UsageReport{
		TwilioNumber:           phoneNumber,
		OwnerTwilio:            u.OwnerLabel,
		OwnerSoftphone:         softphone,
		LastIncomingCallDate:   u.LastIncomingCallAt,
		LastOutgoingCallDate:   u.LastOutgoingCallAt,
		LastIncomingSMSDate:    u.LastIncomingSMSAt,
		LastOutgoingSMSDate:    u.LastOutgoingSMSAt,
		LastUsedMoreThan15Days: u.IdleOver15Days,
		LastUsedMoreThan30Days: u.IdleOver30Days,
		LastUsedMoreThan60Days: u.IdleOver60Days,
	}
}
