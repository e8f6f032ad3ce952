package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/dialhub/golang_services/internal/number_service/domain"
	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/google/uuid"
)

const defaultRecomputeBatchSize = 500

// UsageService records call and SMS activity and derives the idle flags.
type UsageService struct {
	usage     domain.UsageRepository
	tx        database.Transactor
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

func NewUsageService(usage domain.UsageRepository, tx database.Transactor, batchSize int, logger *slog.Logger) *UsageService {
	if batchSize <= 0 {
		batchSize = defaultRecomputeBatchSize
	}
	return &UsageService{
		usage:     usage,
		tx:        tx,
		batchSize: batchSize,
		logger:    logger.With("component", "usage_service"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RecordEvent stores an event for the number if it is newer than the last one
// of its kind. Older or equal timestamps are ignored.
func (s *UsageService) RecordEvent(ctx context.Context, number string, direction domain.Direction, kind domain.EventKind, occurredAt time.Time) error {
	var changed bool
	err := s.tx.WithinTx(ctx, func(q database.DBTX) error {
		record, err := s.usage.GetByNumberForUpdate(ctx, q, number)
		if err != nil {
			return err
		}
		changed, err = record.Record(direction, kind, occurredAt)
		if err != nil || !changed {
			return err
		}
		record.UpdatedAt = s.now()
		return s.usage.Save(ctx, q, record)
	})

	result := resultLabel(err)
	if err == nil && !changed {
		result = "stale"
	}
	usageEventsCounter.WithLabelValues(string(direction), string(kind), result).Inc()
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "Usage event processed", "number", number, "direction", direction, "kind", kind, "changed", changed)
	return nil
}

// RecomputeAll refreshes the idle flags of every record against reference.
// It returns how many records were visited and how many changed. Records that
// received an event after they were listed keep their flags until the next run.
func (s *UsageService) RecomputeAll(ctx context.Context, reference time.Time) (visited, changed int, err error) {
	start := time.Now()
	defer func() { idleSweepDurationHist.Observe(time.Since(start).Seconds()) }()

	after := uuid.Nil
	for {
		if err := ctx.Err(); err != nil {
			return visited, changed, err
		}
		batch, err := s.usage.ListAfter(ctx, after, s.batchSize)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to list usage records", "after", after, "error", err)
			return visited, changed, err
		}
		for _, record := range batch {
			visited++
			if !record.RecomputeIdleFlags(reference) {
				continue
			}
			saved, err := s.usage.SaveIdleFlags(ctx, record)
			if err != nil {
				s.logger.ErrorContext(ctx, "Failed to save idle flags", "usage_id", record.ID, "error", err)
				return visited, changed, err
			}
			if !saved {
				s.logger.DebugContext(ctx, "Usage record changed during recompute, skipped", "usage_id", record.ID)
				continue
			}
			changed++
			idleFlagsChangedCounter.Inc()
		}
		if len(batch) < s.batchSize {
			break
		}
		after = batch[len(batch)-1].ID
	}
	s.logger.InfoContext(ctx, "Idle flags recomputed", "visited", visited, "changed", changed)
	return visited, changed, nil
}
