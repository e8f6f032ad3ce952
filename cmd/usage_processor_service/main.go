package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/dialhub/golang_services/internal/number_service/adapters/grpc"
	"github.com/dialhub/golang_services/internal/number_service/app"
	"github.com/dialhub/golang_services/internal/number_service/repository/postgres"
	"github.com/dialhub/golang_services/internal/platform/config"
	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/dialhub/golang_services/internal/platform/logger"
	"github.com/dialhub/golang_services/internal/platform/messagebroker"
)

const (
	serviceName          = "usage_processor_service"
	slackAckQueueGroup   = "usage_processor_slack_ack"
	healthCheckInterval  = 15 * time.Second
	shutdownTimeout      = 10 * time.Second
	metricsReadHeaderTTL = 5 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel).With("service", serviceName)
	log.Info("Starting service...")

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN)
	if err != nil {
		log.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	log.Info("Database connection pool initialized")

	natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, serviceName, log)
	if err != nil {
		log.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	log.Info("NATS connection initialized")

	usageRepo := postgres.NewPgUsageRepository(dbPool, log)
	numberRepo := postgres.NewPgPhoneNumberRepository(dbPool, log)
	voicemailRepo := postgres.NewPgVoicemailRepository(dbPool, log)

	usageService := app.NewUsageService(usageRepo, database.NewTransactor(dbPool), cfg.IdleSweepBatchSize, log)
	consumer := app.NewUsageConsumer(usageService, natsClient, cfg.UsageEventsSubject, cfg.UsageEventsQueueGroup, log)
	sweeper := app.NewIdleSweeper(usageService, cfg.IdleSweepInterval, log)
	voicemailService := app.NewVoicemailService(voicemailRepo, numberRepo, natsClient, log)

	natsCheck := func(context.Context) error {
		if !natsClient.IsConnected() {
			return errors.New("nats not connected")
		}
		return nil
	}
	healthServer := health.NewServer()
	healthReporter := grpcadapter.NewHealthReporter(healthServer, map[string]grpcadapter.DependencyCheck{
		"postgres": dbPool.Ping,
		"nats":     natsCheck,
	}, healthCheckInterval, log)

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.UsageProcessorMetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: metricsReadHeaderTTL,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		return ignoreCanceled(consumer.Start(groupCtx))
	})

	g.Go(func() error {
		return ignoreCanceled(natsClient.QueueSubscribe(groupCtx, app.SubjectVoicemailSlackPosted, slackAckQueueGroup, voicemailService.HandleSlackPosted))
	})

	g.Go(func() error {
		log.Info("Starting idle sweeper", "interval", cfg.IdleSweepInterval)
		return sweeper.Run(groupCtx)
	})

	g.Go(func() error {
		return healthReporter.Run(groupCtx)
	})

	g.Go(func() error {
		grpcListenAddress := fmt.Sprintf(":%d", cfg.UsageProcessorGRPCPort)
		log.Info("Starting gRPC server...", "address", grpcListenAddress)
		lis, err := net.Listen("tcp", grpcListenAddress)
		if err != nil {
			return fmt.Errorf("listen for gRPC: %w", err)
		}
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server: %w", err)
		}
		log.Info("gRPC server stopped gracefully.")
		return nil
	})

	g.Go(func() error {
		log.Info("Starting metrics server...", "address", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		log.Info("Initiating graceful shutdown of servers...")
		grpcServer.GracefulStop()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return metricsServer.Shutdown(ctx)
	})

	log.Info("Service components initialized and workers started. Service is ready.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var groupErr error
	select {
	case sig := <-sigCh:
		log.Info("Received termination signal", "signal", sig)
	case groupErr = <-watchGroup(g):
		if groupErr != nil {
			log.Error("A critical component failed, initiating shutdown", "error", groupErr)
		}
	}

	mainCancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Error during graceful shutdown of components", "error", err)
	}
	log.Info("Service shutdown complete.")
	if groupErr != nil {
		os.Exit(1)
	}
}

// watchGroup returns a channel that receives the result of g.Wait().
func watchGroup(g *errgroup.Group) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- g.Wait()
		close(errCh)
	}()
	return errCh
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
