package domain

import "github.com/google/uuid"

// NumberSummary is the read model of a phone number served to clients.
type NumberSummary struct {
	ID                 uuid.UUID       `json:"id"`
	PhoneNumber        string          `json:"phone_number"`
	ForwardedNumber    *string         `json:"forwarded_number"`
	IsForwarded        bool            `json:"is_forwarded"`
	ActiveAssociation  AssociationKind `json:"active_association"`
	Actor              *Actor          `json:"actor"`
	LastUsageReport    *UsageReport    `json:"last_usage_report"`
	IsVoiceMailEnabled bool            `json:"is_voice_mail_enabled"`
}

// Summary combines the number with an already resolved actor and usage report.
func (n *PhoneNumber) Summary(actor *Actor, usage *UsageReport) NumberSummary {
	return NumberSummary{
		ID:                 n.ID,
		PhoneNumber:        n.Number,
		ForwardedNumber:    n.ForwardedNumber,
		IsForwarded:        n.IsForwarded,
		ActiveAssociation:  n.CurrentAssociationKind(),
		Actor:              actor,
		LastUsageReport:    usage,
		IsVoiceMailEnabled: n.IsVoiceMailEnabled,
	}
}
