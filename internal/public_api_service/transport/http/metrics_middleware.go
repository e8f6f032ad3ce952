package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "public_api"

// Surfaces group routes by who calls them.
const (
	surfaceHealth  = "health"
	surfaceAuth    = "auth"
	surfaceWebhook = "webhook"
	surfaceAPI     = "api"
	surfaceUnknown = "unknown"
)

// HTTPMetrics records per-route request metrics for the public API.
type HTTPMetrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	responseBytes *prometheus.HistogramVec
	inFlight      prometheus.Gauge
}

// NewHTTPMetrics registers the collectors on reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	factory := promauto.With(reg)
	return &HTTPMetrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status code.",
			},
			[]string{"surface", "method", "path", "status_code"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"surface", "method", "path"},
		),
		responseBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response body size by surface.",
				Buckets:   prometheus.ExponentialBuckets(64, 4, 7),
			},
			[]string{"surface"},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_in_flight",
				Help:      "HTTP requests currently being served.",
			},
		),
	}
}

var defaultHTTPMetrics = NewHTTPMetrics(prometheus.DefaultRegisterer)

// Middleware labels requests with the chi route pattern, so number and user ids
// never become label values.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := surfaceUnknown
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		statusCode := ww.Status()
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		surface := routeSurface(path)

		m.duration.WithLabelValues(surface, r.Method, path).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(surface, r.Method, path, strconv.Itoa(statusCode)).Inc()
		m.responseBytes.WithLabelValues(surface).Observe(float64(ww.BytesWritten()))
	})
}

func routeSurface(pattern string) string {
	switch {
	case pattern == "/health" || pattern == "/metrics":
		return surfaceHealth
	case strings.HasPrefix(pattern, "/auth/"):
		return surfaceAuth
	case strings.HasPrefix(pattern, "/webhooks/"):
		return surfaceWebhook
	case strings.HasPrefix(pattern, "/api/"):
		return surfaceAPI
	default:
		return surfaceUnknown
	}
}
