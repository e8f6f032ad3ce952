package app

import (
	"errors"

	"github.com/dialhub/golang_services/internal/number_service/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	numberOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "number_service",
			Name:      "operations_total",
			Help:      "Total phone number mutations by operation and result.",
		},
		[]string{"operation", "result"},
	)

	forwardingRejectedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "number_service",
			Name:      "forwarding_targets_rejected_total",
			Help:      "Forwarding updates whose target was not a phone number.",
		},
	)

	usageEventsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "number_service",
			Name:      "usage_events_total",
			Help:      "Usage events processed by direction, kind and result.",
		},
		[]string{"direction", "kind", "result"},
	)

	idleSweepDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "number_service",
			Name:      "idle_sweep_duration_seconds",
			Help:      "Duration of a full idle flag recompute.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	idleFlagsChangedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "number_service",
			Name:      "idle_flags_changed_total",
			Help:      "Usage records whose idle flags changed during a recompute.",
		},
	)

	voicemailSlackRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "number_service",
			Name:      "voicemail_slack_requests_total",
			Help:      "Slack post requests published for voicemails.",
		},
		[]string{"result"},
	)
)

// resultLabel maps an operation error to a low-cardinality metric label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrNotAssignable):
		return "not_assignable"
	case errors.Is(err, domain.ErrNumberDeleted):
		return "deleted"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid"
	default:
		return "error"
	}
}

// isClientError reports whether err comes from caller input rather than infrastructure.
func isClientError(err error) bool {
	return resultLabel(err) != "error"
}
