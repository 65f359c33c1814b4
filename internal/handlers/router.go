package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ukydev/fleet-lifecycle/internal/db"
	"github.com/ukydev/fleet-lifecycle/internal/metrics"
	"github.com/ukydev/fleet-lifecycle/internal/middleware"
	"github.com/ukydev/fleet-lifecycle/internal/models"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Auth      *middleware.AuthMiddleware
	Reports   ReportService
	Refresher StatusRefresher
	Users     db.UserCollection

	// RefreshLimit is the number of refresh actions a caller may trigger per minute.
	RefreshLimit int

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	// Health reports store reachability; nil always answers ok.
	Health func(ctx context.Context) error
}

// NewRouter builds the chi router serving every endpoint.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.RefreshLimit < 1 {
		cfg.RefreshLimit = 6
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	reportHandler := NewReportHandler(cfg.Reports)
	statusHandler := NewStatusHandler(cfg.Reports, cfg.Refresher)
	limiter := middleware.NewRateLimitMiddleware()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.Get("/health", healthHandler(cfg.Health))
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(cfg.Auth.Authenticate)

		if cfg.Users != nil {
			r.Get("/profile", NewProfileHandler(cfg.Users).GetProfile)
		}

		r.Route("/reports", func(r chi.Router) {
			r.With(cfg.Auth.RequirePermission(models.ActionViewReports)).Get("/dashboard", reportHandler.Dashboard)
			r.With(cfg.Auth.RequirePermission(models.ActionViewReports)).Get("/vehicles", reportHandler.Vehicles)
			r.With(cfg.Auth.RequirePermission(models.ActionViewReports)).Get("/drivers", reportHandler.Drivers)
			r.With(cfg.Auth.RequirePermission(models.ActionViewCosts)).Get("/costs", reportHandler.Costs)
		})

		refresh := chi.Chain(
			cfg.Auth.RequirePermission(models.ActionRefreshStatus),
			limiter.RateLimit(cfg.RefreshLimit, time.Minute),
		)
		view := cfg.Auth.RequirePermission(models.ActionViewDocuments)

		r.Route("/documents", func(r chi.Router) {
			r.With(view).Get("/", statusHandler.ListDocuments)
			r.With(view).Get("/expiring", statusHandler.ExpiringDocuments)
			r.With(refresh...).Post("/refresh-status", statusHandler.RefreshDocuments)
		})
		r.Route("/insurance", func(r chi.Router) {
			r.With(view).Get("/expiring", statusHandler.ExpiringInsurance)
			r.With(refresh...).Put("/refresh-status", statusHandler.RefreshInsurance)
		})
	})
	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
