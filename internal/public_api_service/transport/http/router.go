package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dialhub/golang_services/internal/public_api_service/middleware"
)

// RouterDeps groups the handlers mounted by NewRouter.
type RouterDeps struct {
	Auth           *AuthHandler
	UserAdmin      *UserAdminHandler
	Numbers        *NumberHandler
	Notifications  *NotificationHandler
	Directory      *DirectoryHandler
	Webhook        *VoicemailWebhookHandler
	TokenValidator middleware.TokenValidator
	Metrics        *HTTPMetrics
	Logger         *slog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = defaultHTTPMetrics
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", deps.Auth.RegisterRoutes)
	r.Post("/webhooks/voicemail", deps.Webhook.HandleVoicemail)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.AuthMiddleware(deps.TokenValidator, deps.Logger))

		deps.Auth.RegisterProtectedRoutes(v1)
		deps.Numbers.RegisterRoutes(v1)
		deps.Notifications.RegisterRoutes(v1)

		v1.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireAdmin(deps.Logger))
			deps.Numbers.RegisterAdminRoutes(admin)
			deps.UserAdmin.RegisterRoutes(admin)
			deps.Directory.RegisterRoutes(admin)
		})
	})
	return r
}
