package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dialhub/golang_services/internal/number_service/domain"
	"github.com/dialhub/golang_services/internal/platform/messagebroker"
	"github.com/google/uuid"
)

// VoicemailService stores voicemail metadata and requests Slack announcements.
type VoicemailService struct {
	voicemails domain.VoicemailRepository
	numbers    domain.PhoneNumberRepository
	publisher  messagebroker.Publisher
	logger     *slog.Logger
}

func NewVoicemailService(voicemails domain.VoicemailRepository, numbers domain.PhoneNumberRepository, publisher messagebroker.Publisher, logger *slog.Logger) *VoicemailService {
	return &VoicemailService{
		voicemails: voicemails,
		numbers:    numbers,
		publisher:  publisher,
		logger:     logger.With("component", "voicemail_service"),
	}
}

// Save upserts the voicemail and publishes a Slack request when one is still owed.
// A failed publish is logged; the voicemail stays pending and is retried on the next save.
func (s *VoicemailService) Save(ctx context.Context, v *domain.Voicemail) error {
	if v.ID == "" {
		return fmt.Errorf("%w: voicemail id is required", domain.ErrInvalidArgument)
	}
	if err := s.voicemails.Upsert(ctx, v); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save voicemail", "voicemail_id", v.ID, "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "Voicemail saved", "voicemail_id", v.ID, "to", v.ToNumber)

	if !v.NeedsSlackPost() {
		return nil
	}
	payload, err := json.Marshal(VoicemailSlackRequest{VoicemailID: v.ID, SlackMessage: v.SlackMessage()})
	if err != nil {
		voicemailSlackRequestsCounter.WithLabelValues("error").Inc()
		s.logger.ErrorContext(ctx, "Failed to marshal slack request", "voicemail_id", v.ID, "error", err)
		return nil
	}
	if err := s.publisher.Publish(ctx, SubjectVoicemailSlackRequested, payload); err != nil {
		voicemailSlackRequestsCounter.WithLabelValues("error").Inc()
		s.logger.ErrorContext(ctx, "Failed to publish slack request", "voicemail_id", v.ID, "error", err)
		return nil
	}
	voicemailSlackRequestsCounter.WithLabelValues("success").Inc()
	return nil
}

func (s *VoicemailService) Get(ctx context.Context, id string) (*domain.VoicemailView, error) {
	v, err := s.voicemails.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := v.View()
	return &view, nil
}

// ListForNumber lists voicemails left on the given phone number.
func (s *VoicemailService) ListForNumber(ctx context.Context, numberID uuid.UUID, offset, limit int) ([]domain.VoicemailView, error) {
	n, err := s.numbers.GetByID(ctx, numberID)
	if err != nil {
		return nil, err
	}
	voicemails, err := s.voicemails.ListByToNumber(ctx, n.Number, offset, limit)
	if err != nil {
		return nil, err
	}
	views := make([]domain.VoicemailView, 0, len(voicemails))
	for _, v := range voicemails {
		views = append(views, v.View())
	}
	return views, nil
}

// MarkPostedOnSlack records that the announcement went out.
func (s *VoicemailService) MarkPostedOnSlack(ctx context.Context, id string) error {
	if err := s.voicemails.MarkPostedOnSlack(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Voicemail posted on slack", "voicemail_id", id)
	return nil
}

// HandleSlackPosted consumes voicemail.slack.posted acknowledgements.
func (s *VoicemailService) HandleSlackPosted(ctx context.Context, subject string, data []byte) error {
	var ack VoicemailSlackPosted
	if err := json.Unmarshal(data, &ack); err != nil || ack.VoicemailID == "" {
		s.logger.WarnContext(ctx, "Dropping malformed slack acknowledgement", "subject", subject, "payload", string(data))
		return nil
	}
	err := s.MarkPostedOnSlack(ctx, ack.VoicemailID)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "Slack acknowledgement for unknown voicemail", "voicemail_id", ack.VoicemailID)
		return nil
	}
	return err
}
