// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services and never embed business logic, so transport concerns stay
// isolated from the invariant engine.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rosterd/internal/platform/metrics"
	"rosterd/internal/platform/middleware"
	"rosterd/pkg/platform/httputil"
)

// HealthChecker reports the health of a backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// RouterConfig carries everything the router needs. Nil optional fields
// disable the corresponding behavior.
type RouterConfig struct {
	Auth      *AuthHandler
	Work      *WorkHandler
	Leave     *LeaveHandler
	Transfers *TransferHandler
	Entries   *EntriesHandler
	Analytics *AnalyticsHandler

	TokenValidator middleware.TokenValidator
	Logger         *slog.Logger
	Metrics        *metrics.Metrics

	// Named dependency health checks for /healthz.
	HealthChecks map[string]HealthChecker

	RequestTimeout time.Duration
}

// NewRouter wires middleware and all public endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
	}))
	r.Use(endpointLatency(cfg.Metrics))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/healthz", healthHandler(cfg.HealthChecks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/auth/login", cfg.Auth.HandleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.TokenValidator, cfg.Logger))

		r.Get("/me", cfg.Auth.HandleGetMe)

		r.Route("/work", func(r chi.Router) {
			r.Post("/start", cfg.Work.HandleStartWork)
			r.Post("/close", cfg.Work.HandleCloseWork)
			r.Post("/correct", cfg.Work.HandleCorrectWork)
			r.Get("/status", cfg.Work.HandleWorkStatus)
		})

		r.Route("/leave", func(r chi.Router) {
			r.Post("/record", cfg.Leave.HandleRecordLeave)
			r.Post("/correct", cfg.Leave.HandleCorrectLeave)
		})

		r.Route("/transfers", func(r chi.Router) {
			r.Post("/record", cfg.Transfers.HandleRecordTransfer)
			r.Get("/", cfg.Transfers.HandleListTransfers)
		})

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", cfg.Entries.HandleListEntries)
			r.Get("/{id}", cfg.Entries.HandleGetEntry)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/work-summary", cfg.Analytics.HandleWorkSummary)
			r.Get("/leave-count", cfg.Analytics.HandleLeaveCount)
			r.Get("/transfer-count", cfg.Analytics.HandleTransferCount)
			r.Get("/accepted-shifts", cfg.Analytics.HandleAcceptedShifts)
			r.Get("/daily", cfg.Analytics.HandleDaily)
		})
	})

	return r
}

// endpointLatency records request duration against the chi route pattern, so
// /entries/{id} is one series rather than one per entry.
func endpointLatency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = r.URL.Path
			}
			m.ObserveEndpointLatency(pattern, time.Since(start).Seconds())
		})
	}
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check.Health(ctx); err != nil {
				deps[name] = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		body := map[string]any{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(deps) > 0 {
			body["dependencies"] = deps
		}
		httputil.WriteJSON(w, status, body)
	}
}
