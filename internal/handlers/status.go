package handlers

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-lifecycle/internal/lifecycle"
	"github.com/ukydev/fleet-lifecycle/internal/middleware"
	"github.com/ukydev/fleet-lifecycle/internal/models"
	"github.com/ukydev/fleet-lifecycle/internal/reports"
)

// StatusRefresher persists derived statuses.
type StatusRefresher interface {
	RefreshStatuses(ctx context.Context, kind models.Kind, scope lifecycle.Scope) (lifecycle.Summary, error)
}

// StatusHandler serves the document and insurance status endpoints.
type StatusHandler struct {
	reports   ReportService
	refresher StatusRefresher
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(svc ReportService, refresher StatusRefresher) *StatusHandler {
	return &StatusHandler{reports: svc, refresher: refresher}
}

// ExpiringDocuments handles GET /api/documents/expiring?category&vehicle&driver
func (h *StatusHandler) ExpiringDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.reports.Expiring(r.Context(), models.KindDocument, reports.ExpiringFilter{
		VehicleID:  q.Get("vehicle"),
		DriverID:   q.Get("driver"),
		Categories: listParam(r, "category"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// ListDocuments handles GET /api/documents?statut
func (h *StatusHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	var statuses []models.Status
	for _, s := range listParam(r, "statut") {
		statuses = append(statuses, models.Status(s))
	}
	docs, err := h.reports.ListDocuments(r.Context(), statuses)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// ExpiringInsurance handles GET /api/insurance/expiring?vehicle
func (h *StatusHandler) ExpiringInsurance(w http.ResponseWriter, r *http.Request) {
	items, err := h.reports.Expiring(r.Context(), models.KindInsurance, reports.ExpiringFilter{
		VehicleID: r.URL.Query().Get("vehicle"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// RefreshDocuments handles POST /api/documents/refresh-status?vehicle&driver&category&active_only
func (h *StatusHandler) RefreshDocuments(w http.ResponseWriter, r *http.Request) {
	active, err := boolParam(r, "active_only")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	h.refresh(w, r, models.KindDocument, lifecycle.Scope{
		VehicleID:          q.Get("vehicle"),
		DriverID:           q.Get("driver"),
		Categories:         listParam(r, "category"),
		ActiveVehiclesOnly: active,
	})
}

// RefreshInsurance handles PUT /api/insurance/refresh-status?vehicle&active_only
func (h *StatusHandler) RefreshInsurance(w http.ResponseWriter, r *http.Request) {
	active, err := boolParam(r, "active_only")
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.refresh(w, r, models.KindInsurance, lifecycle.Scope{
		VehicleID:          r.URL.Query().Get("vehicle"),
		ActiveVehiclesOnly: active,
	})
}

// refresh answers 200 with the summary even when some records failed; the
// failures are listed in the summary's errors.
func (h *StatusHandler) refresh(w http.ResponseWriter, r *http.Request, kind models.Kind, scope lifecycle.Scope) {
	summary, err := h.refresher.RefreshStatuses(r.Context(), kind, scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fields := log.Fields{"kind": kind, "scanned": summary.Scanned, "changed": summary.Changed}
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		fields["user_id"] = claims.UserID
	}
	if err := summary.Err(); err != nil {
		log.WithFields(fields).WithError(err).Warn("Status refresh partially failed")
	} else {
		log.WithFields(fields).Info("Status refresh requested")
	}
	writeJSON(w, http.StatusOK, summary)
}
