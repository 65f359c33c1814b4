package handlers

import (
	"context"
	"net/http"

	"github.com/ukydev/fleet-lifecycle/internal/aggregate"
	"github.com/ukydev/fleet-lifecycle/internal/models"
	"github.com/ukydev/fleet-lifecycle/internal/reports"
)

// ReportService is the read side served over HTTP.
type ReportService interface {
	DashboardStats(ctx context.Context) (reports.Dashboard, error)
	VehicleReport(ctx context.Context, rng *aggregate.DateRange) ([]reports.VehicleRow, error)
	DriverReport(ctx context.Context) ([]reports.DriverRow, error)
	CostAnalysis(ctx context.Context, scope aggregate.Scope) (reports.CostAnalysis, error)
	Expiring(ctx context.Context, kind models.Kind, filter reports.ExpiringFilter) ([]reports.ExpiringItem, error)
	ListDocuments(ctx context.Context, statuses []models.Status) ([]models.Document, error)
}

// ReportHandler serves the report endpoints.
type ReportHandler struct {
	reports ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(svc ReportService) *ReportHandler {
	return &ReportHandler{reports: svc}
}

// Dashboard handles GET /api/reports/dashboard
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.reports.DashboardStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Vehicles handles GET /api/reports/vehicles?from&to
func (h *ReportHandler) Vehicles(w http.ResponseWriter, r *http.Request) {
	rng, err := dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.reports.VehicleReport(r.Context(), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// Drivers handles GET /api/reports/drivers
func (h *ReportHandler) Drivers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.DriverReport(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// Costs handles GET /api/reports/costs?from&to&vehicle&driver
func (h *ReportHandler) Costs(w http.ResponseWriter, r *http.Request) {
	rng, err := dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	c, err := h.reports.CostAnalysis(r.Context(), aggregate.Scope{
		VehicleID: q.Get("vehicle"),
		DriverID:  q.Get("driver"),
		Range:     rng,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
