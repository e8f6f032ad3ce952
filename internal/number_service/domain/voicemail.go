package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Voicemail is the metadata of a recorded voicemail. ID is the carrier recording sid.
type Voicemail struct {
	ID                string
	DateCreated       *time.Time
	MediaURL          string
	FromNumber        string
	ToNumber          string
	Duration          string // milliseconds
	Status            string
	CallSID           string
	TranscriptionSID  string
	ShouldPostOnSlack bool
	HasPostedOnSlack  bool
}

// VoicemailView is the API shape of a voicemail.
type VoicemailView struct {
	ID                    string     `json:"id"`
	MediaURL              string     `json:"media_url"`
	IsTranscriptAvailable bool       `json:"is_transcript_available"`
	DateCreated           *time.Time `json:"date_created"`
	FromNumber            string     `json:"from_number"`
	Duration              *string    `json:"duration"`
}

// SlackMessage is the payload handed to the Slack poster.
type SlackMessage struct {
	VoicemailURL string `json:"voicemail_url"`
	Caller       string `json:"caller"`
	Callee       string `json:"callee"`
}

// View converts to the API shape. An unparsable duration is reported as absent.
func (v *Voicemail) View() VoicemailView {
	view := VoicemailView{
		ID:                    v.ID,
		MediaURL:              v.MediaURL,
		IsTranscriptAvailable: v.TranscriptionSID != "",
		DateCreated:           v.DateCreated,
		FromNumber:            v.FromNumber,
	}
	if v.Duration != "" {
		if d, err := FormatMillis(v.Duration); err == nil {
			view.Duration = &d
		}
	}
	return view
}

func (v *Voicemail) SlackMessage() SlackMessage {
	return SlackMessage{VoicemailURL: v.MediaURL, Caller: v.FromNumber, Callee: v.ToNumber}
}

// NeedsSlackPost reports whether a Slack post was requested and has not happened yet.
func (v *Voicemail) NeedsSlackPost() bool {
	return v.ShouldPostOnSlack && !v.HasPostedOnSlack
}

// FormatMillis renders a millisecond count as mm:ss.
func FormatMillis(ms string) (string, error) {
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil || n < 0 {
		return "", fmt.Errorf("%w: duration %q", ErrInvalidArgument, ms)
	}
	secs := n / 1000
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60), nil
}
