package handler

import (
	"net/http"
	"time"

	"github.com/finboard/recurring-go/internal/config"
	"github.com/finboard/recurring-go/internal/domain"
	"github.com/finboard/recurring-go/internal/infra/memory"
	"github.com/finboard/recurring-go/internal/infra/observability"
	"github.com/finboard/recurring-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// devStore is nil outside development mode, which disables the dev routes.
func NewRouter(svc *service.Subscriptions, devStore *memory.Store, metrics *observability.Metrics, cfg *config.Config, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/detection", detectionMetricsHandler(svc))

		// User-scoped routes require a dashboard session token.
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(cfg.JWTSecret, logger))
			r.Get("/users/{userId}/subscriptions", listSubscriptionsHandler(svc, logger))
			r.Post("/users/{userId}/subscriptions", acceptCandidateHandler(svc, logger))
			r.Get("/users/{userId}/subscriptions/detected", detectedCandidatesHandler(svc, logger))
			r.Get("/users/{userId}/subscriptions/summary", costSummaryHandler(svc, logger))
		})

		// Dev tools (testing helpers, in-memory store only)
		r.Group(func(r chi.Router) {
			r.Use(DevTokenMiddleware(cfg.DevTokenHash, logger))
			r.Post("/dev/users/{userId}/transactions", devSeedTransactionsHandler(devStore, logger))
			r.Post("/dev/categories", devSeedCategoriesHandler(devStore, logger))
			r.Post("/dev/reset", devResetHandler(devStore, logger))
		})
	})

	return r
}

func healthzHandler(svc *service.Subscriptions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "recurring-api", Status: "healthy", LatencyMs: 0, UptimePercent: 99.99, LastChecked: now},
		}

		start := time.Now()
		_, err := svc.ListSubscriptions(ctx, "health-check")
		latency := time.Since(start).Milliseconds()
		status := "healthy"
		if err != nil {
			status = "degraded"
		}
		services = append(services, domain.ServiceHealth{
			Name: "store", Status: status, LatencyMs: latency,
			UptimePercent: 99.9, LastChecked: now,
		})

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func detectionMetricsHandler(svc *service.Subscriptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.GetDetectionMetrics())
	}
}
