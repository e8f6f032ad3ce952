package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dialhub/golang_services/internal/number_service/domain"
	"github.com/dialhub/golang_services/internal/platform/messagebroker"
)

// Subscriber is the queue-subscription side of the message broker.
type Subscriber interface {
	QueueSubscribe(ctx context.Context, subject, queueGroup string, handler messagebroker.MessageHandler) error
}

// EventRecorder stores a single usage event.
type EventRecorder interface {
	RecordEvent(ctx context.Context, number string, direction domain.Direction, kind domain.EventKind, occurredAt time.Time) error
}

// UsageConsumer feeds telephony.usage.* messages into the usage service.
type UsageConsumer struct {
	recorder   EventRecorder
	subscriber Subscriber
	subject    string
	queueGroup string
	logger     *slog.Logger
}

func NewUsageConsumer(recorder EventRecorder, subscriber Subscriber, subject, queueGroup string, logger *slog.Logger) *UsageConsumer {
	return &UsageConsumer{
		recorder:   recorder,
		subscriber: subscriber,
		subject:    subject,
		queueGroup: queueGroup,
		logger:     logger.With("component", "usage_consumer"),
	}
}

// Start blocks consuming until ctx is done.
func (c *UsageConsumer) Start(ctx context.Context) error {
	c.logger.InfoContext(ctx, "Usage consumer subscribing", "subject", c.subject, "queue_group", c.queueGroup)
	return c.subscriber.QueueSubscribe(ctx, c.subject, c.queueGroup, c.HandleMessage)
}

// HandleMessage processes one event. Malformed messages and unknown numbers are
// logged and dropped; only infrastructure failures are returned.
func (c *UsageConsumer) HandleMessage(ctx context.Context, subject string, data []byte) error {
	direction, kind, err := ParseUsageSubject(subject)
	if err != nil {
		c.logger.WarnContext(ctx, "Dropping usage event with unknown subject", "subject", subject, "error", err)
		return nil
	}

	var event UsageEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.logger.WarnContext(ctx, "Dropping malformed usage event", "subject", subject, "error", err)
		return nil
	}
	if event.PhoneNumber == "" || event.OccurredAt.IsZero() {
		c.logger.WarnContext(ctx, "Dropping incomplete usage event", "subject", subject, "payload", string(data))
		return nil
	}

	err = c.recorder.RecordEvent(ctx, event.PhoneNumber, direction, kind, event.OccurredAt)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound):
		c.logger.WarnContext(ctx, "Usage event for unknown number", "number", event.PhoneNumber, "subject", subject)
		return nil
	default:
		c.logger.ErrorContext(ctx, "Failed to record usage event", "number", event.PhoneNumber, "subject", subject, "error", err)
		return err
	}
}

// ParseUsageSubject splits telephony.usage.<direction>.<kind>.
func ParseUsageSubject(subject string) (domain.Direction, domain.EventKind, error) {
	rest, ok := strings.CutPrefix(subject, SubjectUsagePrefix+".")
	if !ok {
		return "", "", fmt.Errorf("%w: subject %q", domain.ErrInvalidArgument, subject)
	}
	parts := strings.Split(rest, ".")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: subject %q", domain.ErrInvalidArgument, subject)
	}

	direction := domain.Direction(strings.ToLower(parts[0]))
	if direction != domain.DirectionIncoming && direction != domain.DirectionOutgoing {
		return "", "", fmt.Errorf("%w: direction %q", domain.ErrInvalidArgument, parts[0])
	}
	kind := domain.EventKind(strings.ToUpper(parts[1]))
	if kind != domain.EventCall && kind != domain.EventSMS {
		return "", "", fmt.Errorf("%w: event kind %q", domain.ErrInvalidArgument, parts[1])
	}
	return direction, kind, nil
}
