package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	notificationapp "github.com/dialhub/golang_services/internal/notification_service/app"
	notificationpg "github.com/dialhub/golang_services/internal/notification_service/repository/postgres"
	numberapp "github.com/dialhub/golang_services/internal/number_service/app"
	numberpg "github.com/dialhub/golang_services/internal/number_service/repository/postgres"
	"github.com/dialhub/golang_services/internal/platform/cache"
	"github.com/dialhub/golang_services/internal/platform/config"
	"github.com/dialhub/golang_services/internal/platform/database"
	"github.com/dialhub/golang_services/internal/platform/logger"
	"github.com/dialhub/golang_services/internal/platform/messagebroker"
	"github.com/dialhub/golang_services/internal/platform/phonenumber"
	httptransport "github.com/dialhub/golang_services/internal/public_api_service/transport/http"
	userapp "github.com/dialhub/golang_services/internal/user_service/app"
	userpg "github.com/dialhub/golang_services/internal/user_service/repository/postgres"
	userredis "github.com/dialhub/golang_services/internal/user_service/repository/redis"
)

const (
	serviceName     = "public_api_service"
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("Public API service starting...", "port", cfg.PublicAPIServicePort)

	dbPool, err := database.NewDBPool(context.Background(), cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Connected to PostgreSQL database")

	natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, serviceName, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	appLogger.Info("Connected to NATS")

	tx := database.NewTransactor(dbPool)

	// Repositories
	userRepo := userpg.NewPgUserRepository(dbPool, appLogger)
	roleRepo := userpg.NewPgRoleRepository(dbPool, appLogger)
	refreshTokenRepo := userpg.NewPgRefreshTokenRepository(dbPool, appLogger)
	otpRepo := userpg.NewPgOtpRepository(dbPool, appLogger)
	numberRepo := numberpg.NewPgPhoneNumberRepository(dbPool, appLogger)
	usageRepo := numberpg.NewPgUsageRepository(dbPool, appLogger)
	voicemailRepo := numberpg.NewPgVoicemailRepository(dbPool, appLogger)
	directoryRepo := numberpg.NewPgDirectoryNumberRepository(dbPool, appLogger)
	actorDirectory := numberpg.NewPgActorDirectory(dbPool, appLogger)
	notificationRepo := notificationpg.NewPgNotificationRepository(dbPool, appLogger)

	// Application services
	authService := userapp.NewAuthService(userRepo, roleRepo, refreshTokenRepo, natsClient, userapp.AuthConfig{
		JWTAccessSecret:  cfg.JWTAccessSecret,
		JWTRefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:        time.Duration(cfg.JWTAccessExpiryHours) * time.Hour,
		RefreshTTL:       time.Duration(cfg.JWTRefreshExpiryHours) * time.Hour,
	}, appLogger)
	otpService := userapp.NewOTPService(userRepo, otpRepo, natsClient, time.Duration(cfg.OTPTTLMinutes)*time.Minute, appLogger)
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			appLogger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		otpService.WithThrottle(userredis.NewOTPThrottle(redisClient, cfg.OTPRequestLimit, cfg.OTPRequestWindow, appLogger))
		appLogger.Info("OTP request throttling enabled", "limit", cfg.OTPRequestLimit, "window", cfg.OTPRequestWindow)
	}
	accountService := userapp.NewAccountService(userRepo, refreshTokenRepo, numberRepo, tx, appLogger)
	notificationService := notificationapp.NewService(notificationRepo, natsClient, appLogger)
	numberApp := numberapp.NewNumberApplication(numberRepo, usageRepo, actorDirectory, tx, notificationService, phonenumber.IsPhoneNumber, appLogger)
	usageService := numberapp.NewUsageService(usageRepo, tx, cfg.IdleSweepBatchSize, appLogger)
	voicemailService := numberapp.NewVoicemailService(voicemailRepo, numberRepo, natsClient, appLogger)
	directoryService := numberapp.NewDirectoryService(directoryRepo, phonenumber.IsPhoneNumber, appLogger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Auth:           httptransport.NewAuthHandler(authService, otpService, appLogger, validate),
		UserAdmin:      httptransport.NewUserAdminHandler(accountService, authService, appLogger, validate),
		Numbers:        httptransport.NewNumberHandler(numberApp, voicemailService, usageService, appLogger, validate),
		Notifications:  httptransport.NewNotificationHandler(notificationService, appLogger),
		Directory:      httptransport.NewDirectoryHandler(directoryService, appLogger, validate),
		Webhook:        httptransport.NewVoicemailWebhookHandler(voicemailService, cfg.VoicemailWebhookSecret, appLogger, validate),
		TokenValidator: authService,
		Logger:         appLogger,
	})
	if cfg.VoicemailWebhookSecret == "" {
		appLogger.Warn("VOICEMAIL_WEBHOOK_SECRET is empty, voicemail webhook accepts unauthenticated calls")
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.PublicAPIServicePort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("Public API server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed to serve", "error", err)
			os.Exit(1)
		}
	}()

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChan
	appLogger.Info("Shutdown signal received, shutting down HTTP server...", "signal", sig)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("HTTP server shutdown failed", "error", err)
	} else {
		appLogger.Info("HTTP server shut down gracefully.")
	}
	appLogger.Info("Public API service shut down.")
}
