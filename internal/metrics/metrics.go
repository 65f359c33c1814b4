// Package metrics exposes Prometheus collectors for status refreshes,
// aggregation passes and HTTP requests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/ukydev/fleet-lifecycle/internal/models"
)

const namespace = "fleet_lifecycle"

// Metrics holds every collector. It satisfies lifecycle.Recorder and
// aggregate.Recorder.
type Metrics struct {
	refreshRuns     *prometheus.CounterVec
	refreshScanned  *prometheus.CounterVec
	refreshChanged  *prometheus.CounterVec
	refreshFailed   *prometheus.CounterVec
	aggregation     *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		refreshRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_refresh_runs_total",
			Help:      "Number of status refresh runs",
		}, []string{"kind"}),
		refreshScanned: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_refresh_scanned_total",
			Help:      "Records scanned by status refresh runs",
		}, []string{"kind"}),
		refreshChanged: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_refresh_changed_total",
			Help:      "Records whose stored status was rewritten",
		}, []string{"kind"}),
		refreshFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_refresh_failed_total",
			Help:      "Records whose status update failed",
		}, []string{"kind"}),
		aggregation: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of aggregation passes",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pass"}),
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveRefresh records one refresh run.
func (m *Metrics) ObserveRefresh(kind models.Kind, scanned, changed, failed int) {
	k := string(kind)
	m.refreshRuns.WithLabelValues(k).Inc()
	m.refreshScanned.WithLabelValues(k).Add(float64(scanned))
	m.refreshChanged.WithLabelValues(k).Add(float64(changed))
	m.refreshFailed.WithLabelValues(k).Add(float64(failed))
}

// ObserveAggregation records the duration of one aggregation pass.
func (m *Metrics) ObserveAggregation(pass string, d time.Duration) {
	m.aggregation.WithLabelValues(pass).Observe(d.Seconds())
}

// Middleware counts requests by method, matched route pattern and status.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
