package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name the usage processor reports under.
const ServiceName = "dialhub.UsageProcessor"

// DependencyCheck reports whether one dependency is usable.
type DependencyCheck func(ctx context.Context) error

// HealthReporter keeps a gRPC health server in line with the processor's dependencies.
type HealthReporter struct {
	server   *health.Server
	checks   map[string]DependencyCheck
	interval time.Duration
	logger   *slog.Logger
}

func NewHealthReporter(server *health.Server, checks map[string]DependencyCheck, interval time.Duration, logger *slog.Logger) *HealthReporter {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &HealthReporter{
		server:   server,
		checks:   checks,
		interval: interval,
		logger:   logger.With("component", "grpc_health"),
	}
}

// Run runs the checks on every tick until ctx is done, then reports NOT_SERVING.
func (h *HealthReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return nil
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// Check runs every check once and publishes the combined status.
func (h *HealthReporter) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, check := range h.checks {
		checkCtx, cancel := context.WithTimeout(ctx, h.interval/2)
		err := check(checkCtx)
		cancel()
		if err != nil {
			h.logger.WarnContext(ctx, "Dependency unhealthy", "dependency", name, "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.server.SetServingStatus(ServiceName, status)
	h.server.SetServingStatus("", status)
	return status
}
