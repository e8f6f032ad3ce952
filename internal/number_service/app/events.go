package app

import (
	"time"

	"github.com/dialhub/golang_services/internal/number_service/domain"
)

// NATS subjects used by the number service.
const (
	// SubjectUsagePrefix is followed by .<incoming|outgoing>.<call|sms>.
	SubjectUsagePrefix             = "telephony.usage"
	SubjectVoicemailSlackRequested = "voicemail.slack.requested"
	SubjectVoicemailSlackPosted    = "voicemail.slack.posted"
)

// UsageEvent is the payload of a telephony.usage.* message.
type UsageEvent struct {
	PhoneNumber string    `json:"phone_number"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// VoicemailSlackRequest asks the Slack poster to announce a voicemail.
type VoicemailSlackRequest struct {
	VoicemailID string `json:"voicemail_id"`
	domain.SlackMessage
}

// VoicemailSlackPosted is sent back by the Slack poster once the message is out.
type VoicemailSlackPosted struct {
	VoicemailID string `json:"voicemail_id"`
}
