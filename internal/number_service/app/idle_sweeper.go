package app

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// IdleRecomputer is the part of UsageService the sweeper drives.
type IdleRecomputer interface {
	RecomputeAll(ctx context.Context, reference time.Time) (visited, changed int, err error)
}

// IdleSweeper recomputes the idle flags on a fixed interval.
type IdleSweeper struct {
	recomputer IdleRecomputer
	interval   time.Duration
	logger     *slog.Logger
}

func NewIdleSweeper(recomputer IdleRecomputer, interval time.Duration, logger *slog.Logger) *IdleSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &IdleSweeper{
		recomputer: recomputer,
		interval:   interval,
		logger:     logger.With("component", "idle_sweeper"),
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
// A failed sweep is logged and retried on the next tick.
func (s *IdleSweeper) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Idle sweeper started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Idle sweeper stopping")
			return nil
		case <-ticker.C:
		}
	}
}

func (s *IdleSweeper) sweep(ctx context.Context) {
	if _, _, err := s.recomputer.RecomputeAll(ctx, time.Now().UTC()); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.ErrorContext(ctx, "Idle sweep failed", "error", err)
	}
}
