package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-lifecycle/internal/aggregate"
	"github.com/ukydev/fleet-lifecycle/internal/apperr"
	"github.com/ukydev/fleet-lifecycle/internal/auth"
	"github.com/ukydev/fleet-lifecycle/internal/db"
	"github.com/ukydev/fleet-lifecycle/internal/lifecycle"
	"github.com/ukydev/fleet-lifecycle/internal/metrics"
	"github.com/ukydev/fleet-lifecycle/internal/middleware"
	"github.com/ukydev/fleet-lifecycle/internal/models"
	"github.com/ukydev/fleet-lifecycle/internal/reports"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var now = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return now }

func in(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

type testServer struct {
	store   *db.MemoryStore
	auth    *auth.Service
	handler http.Handler
	users   map[models.Role]models.User
	truck   models.Vehicle
	alice   models.Driver
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	authService, err := auth.NewService("handlers-test-secret", time.Hour)
	require.NoError(t, err)

	s := &testServer{
		store: db.NewMemoryStore(),
		auth:  authService,
		users: map[models.Role]models.User{},
		truck: models.Vehicle{ID: primitive.NewObjectID(), Immatriculation: "AB-123-CD", Status: models.VehicleInService},
		alice: models.Driver{ID: primitive.NewObjectID(), Prenom: "Alice", Nom: "Martin", Status: models.DriverActive},
	}
	for _, role := range []models.Role{models.RoleAdmin, models.RoleManager, models.RoleViewer, models.RoleDriver} {
		u := models.User{ID: primitive.NewObjectID(), Username: string(role), Role: role, IsActive: true}
		s.users[role] = u
		s.store.AddUsers(u)
	}
	s.store.AddVehicles(s.truck)
	s.store.AddDrivers(s.alice)
	s.store.AddDocuments(
		models.Document{ID: primitive.NewObjectID(), Category: "registration", VehicleID: &s.truck.ID, ExpirationDate: in(-lifecycle.Day), Status: models.StatusValid},
		models.Document{ID: primitive.NewObjectID(), Category: "license", DriverID: &s.alice.ID, ExpirationDate: in(365 * lifecycle.Day), Status: models.StatusValid},
	)
	s.store.AddInsurance(models.Insurance{ID: primitive.NewObjectID(), VehicleID: s.truck.ID, EndDate: in(10 * lifecycle.Day), Status: models.StatusActive})
	s.store.AddFuel(models.Fuel{ID: primitive.NewObjectID(), VehicleID: s.truck.ID, DriverID: s.alice.ID, Date: now.AddDate(0, 0, -1), Quantity: 70, UnitPrice: 650})

	policy := lifecycle.DefaultPolicy()
	assembler := reports.NewAssembler(s.store.Store(), nil, policy, reports.WithClock(clock))
	refresher := lifecycle.NewRefresher(s.store.Store(), policy, lifecycle.WithClock(clock))

	s.handler = NewRouter(RouterConfig{
		Auth:         middleware.NewAuthMiddleware(authService, s.store),
		Reports:      assembler,
		Refresher:    refresher,
		Users:        s.store,
		RefreshLimit: 2,
		Metrics:      metrics.New(prometheus.NewRegistry()),
		Gatherer:     prometheus.NewRegistry(),
	})
	return s
}

func (s *testServer) do(t *testing.T, method, target string, role models.Role) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if role != "" {
		u := s.users[role]
		token, err := s.auth.GenerateToken(&u)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth_StoreDown(t *testing.T) {
	h := NewRouter(RouterConfig{
		Auth:   middleware.NewAuthMiddleware(nil, nil),
		Health: func(context.Context) error { return errors.New("server selection timeout") },
	})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAPI_RequiresToken(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/reports/dashboard", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPermissions(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		method, path string
		role         models.Role
		want         int
	}{
		{http.MethodGet, "/api/reports/dashboard", models.RoleViewer, http.StatusOK},
		{http.MethodGet, "/api/reports/dashboard", models.RoleDriver, http.StatusForbidden},
		{http.MethodGet, "/api/reports/costs", models.RoleViewer, http.StatusOK},
		{http.MethodGet, "/api/reports/costs", models.RoleDriver, http.StatusForbidden},
		{http.MethodGet, "/api/documents/expiring", models.RoleDriver, http.StatusOK},
		{http.MethodPost, "/api/documents/refresh-status", models.RoleViewer, http.StatusForbidden},
		{http.MethodPut, "/api/insurance/refresh-status", models.RoleManager, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+" "+tt.method+" "+tt.path, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.role)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/reports/dashboard", models.RoleManager)
	require.Equal(t, http.StatusOK, w.Code)

	var d reports.Dashboard
	decode(t, w, &d)
	assert.Equal(t, 1, d.VehiculesTotal)
	assert.Equal(t, 1, d.DocumentsExpirant)
	assert.Equal(t, 1, d.AssurancesExpirant)
	assert.Equal(t, models.Amount(45500), d.CoutsMois.CoutCarburant)
	assert.Equal(t, 100.0, d.CoutsMois.Pourcentages.Carburant)
}

func TestVehicleReport_DateParams(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/reports/vehicles?from=2026-10-13&to=2026-10-13", models.RoleViewer)
	require.Equal(t, http.StatusOK, w.Code)
	var rows []reports.VehicleRow
	decode(t, w, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Carburant.Count)

	w = s.do(t, http.MethodGet, "/api/reports/vehicles?from=2026-10-14T00:00:00Z", models.RoleViewer)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &rows)
	assert.Zero(t, rows[0].Carburant.Count)

	w = s.do(t, http.MethodGet, "/api/reports/vehicles?from=yesterday", models.RoleViewer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var e errorResponse
	decode(t, w, &e)
	assert.Equal(t, "from", e.Field)

	w = s.do(t, http.MethodGet, "/api/reports/vehicles?from=2026-10-14&to=2026-10-01", models.RoleViewer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDriverReport(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/reports/drivers", models.RoleViewer)
	require.Equal(t, http.StatusOK, w.Code)
	var rows []reports.DriverRow
	decode(t, w, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice Martin", rows[0].Nom)
}

func TestCosts(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/reports/costs?vehicle="+s.truck.ID.Hex(), models.RoleViewer)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, 45500.0, body["coutCarburant"])
	assert.Equal(t, 45500.0, body["coutTotal"])
	assert.Equal(t, map[string]interface{}{"maintenance": 0.0, "carburant": 100.0, "trajets": 0.0}, body["pourcentages"])

	w = s.do(t, http.MethodGet, "/api/reports/costs?vehicle="+primitive.NewObjectID().Hex(), models.RoleViewer)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/reports/costs?driver=bogus", models.RoleViewer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpiringDocuments(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/documents/expiring", models.RoleViewer)
	require.Equal(t, http.StatusOK, w.Code)
	var items []reports.ExpiringItem
	decode(t, w, &items)
	require.Len(t, items, 1)
	assert.Equal(t, models.StatusExpired, items[0].Statut)
	assert.Equal(t, -1, items[0].JoursRestants)

	w = s.do(t, http.MethodGet, "/api/documents/expiring?category=license,insurance", models.RoleViewer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestExpiringInsurance(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/insurance/expiring?vehicle="+s.truck.ID.Hex(), models.RoleViewer)
	require.Equal(t, http.StatusOK, w.Code)
	var items []reports.ExpiringItem
	decode(t, w, &items)
	require.Len(t, items, 1)
	assert.Equal(t, models.StatusExpiringSoon, items[0].Statut)
	assert.Equal(t, 10, items[0].JoursRestants)
}

func TestRefreshThenList(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/documents?statut=expired", models.RoleViewer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/documents/refresh-status", models.RoleManager)
	require.Equal(t, http.StatusOK, w.Code)
	var summary lifecycle.Summary
	decode(t, w, &summary)
	assert.Equal(t, 2, summary.Scanned)
	assert.Equal(t, 1, summary.Changed)
	assert.Empty(t, summary.Errors)

	w = s.do(t, http.MethodGet, "/api/documents?statut=expired", models.RoleViewer)
	require.Equal(t, http.StatusOK, w.Code)
	var docs []models.Document
	decode(t, w, &docs)
	assert.Len(t, docs, 1)

	w = s.do(t, http.MethodPost, "/api/documents/refresh-status", models.RoleManager)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &summary)
	assert.Zero(t, summary.Changed)
}

func TestRefresh_RateLimited(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPut, "/api/insurance/refresh-status?active_only=true", models.RoleAdmin)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := s.do(t, http.MethodPut, "/api/insurance/refresh-status", models.RoleAdmin)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = s.do(t, http.MethodPut, "/api/insurance/refresh-status", models.RoleManager)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRefresh_BadParams(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/insurance/refresh-status?active_only=maybe", models.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/documents/refresh-status?vehicle="+primitive.NewObjectID().Hex(), models.RoleAdmin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfile(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/profile", models.RoleViewer)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Username    string   `json:"username"`
		Permissions []string `json:"permissions"`
	}
	decode(t, w, &body)
	assert.Equal(t, "viewer", body.Username)
	assert.Equal(t, []string{models.ActionViewReports, models.ActionViewCosts, models.ActionViewDocuments}, body.Permissions)
}

// MockReports is a mock implementation of ReportService
type MockReports struct {
	mock.Mock
}

func (m *MockReports) DashboardStats(ctx context.Context) (reports.Dashboard, error) {
	args := m.Called(ctx)
	return args.Get(0).(reports.Dashboard), args.Error(1)
}

func (m *MockReports) VehicleReport(ctx context.Context, rng *aggregate.DateRange) ([]reports.VehicleRow, error) {
	args := m.Called(ctx, rng)
	return args.Get(0).([]reports.VehicleRow), args.Error(1)
}

func (m *MockReports) DriverReport(ctx context.Context) ([]reports.DriverRow, error) {
	args := m.Called(ctx)
	return args.Get(0).([]reports.DriverRow), args.Error(1)
}

func (m *MockReports) CostAnalysis(ctx context.Context, scope aggregate.Scope) (reports.CostAnalysis, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).(reports.CostAnalysis), args.Error(1)
}

func (m *MockReports) Expiring(ctx context.Context, kind models.Kind, filter reports.ExpiringFilter) ([]reports.ExpiringItem, error) {
	args := m.Called(ctx, kind, filter)
	return args.Get(0).([]reports.ExpiringItem), args.Error(1)
}

func (m *MockReports) ListDocuments(ctx context.Context, statuses []models.Status) ([]models.Document, error) {
	args := m.Called(ctx, statuses)
	return args.Get(0).([]models.Document), args.Error(1)
}

func TestReportHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		body string
	}{
		{"store down", apperr.Unavailable("find vehicles", errors.New("socket closed")), http.StatusServiceUnavailable, "Service Unavailable"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "Gateway Timeout"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "Internal Server Error"},
		{"not found", apperr.NotFound("vehicle", "abc"), http.StatusNotFound, "vehicle abc not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockReports)
			svc.On("DashboardStats", mock.Anything).Return(reports.Dashboard{}, tt.err)
			h := NewReportHandler(svc)

			w := httptest.NewRecorder()
			h.Dashboard(w, httptest.NewRequest(http.MethodGet, "/api/reports/dashboard", nil))

			assert.Equal(t, tt.want, w.Code)
			var e errorResponse
			decode(t, w, &e)
			assert.Equal(t, tt.body, e.Error)
			svc.AssertExpectations(t)
		})
	}
}

func TestReportHandler_CostsPassesScope(t *testing.T) {
	svc := new(MockReports)
	want := aggregate.Scope{
		VehicleID: "v1",
		DriverID:  "d1",
		Range: &aggregate.DateRange{
			Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 1, 31, 23, 59, 59, 999999999, time.UTC),
		},
	}
	svc.On("CostAnalysis", mock.Anything, want).Return(reports.CostAnalysis{}, nil)

	w := httptest.NewRecorder()
	NewReportHandler(svc).Costs(w, httptest.NewRequest(http.MethodGet, "/api/reports/costs?vehicle=v1&driver=d1&from=2026-01-01&to=2026-01-31", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestWriteError_ClientGone(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	req := httptest.NewRequest(http.MethodGet, "/api/reports/dashboard", nil)
	w := httptest.NewRecorder()
	writeError(w, req, apperr.Unavailable("find vehicles", fmt.Errorf("read: %w", context.Canceled)))

	assert.Equal(t, statusClientClosedRequest, w.Code)
	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, log.ErrorLevel, e.Level)
	}

	w = httptest.NewRecorder()
	writeError(w, req, context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, log.ErrorLevel, hook.LastEntry().Level)
}
