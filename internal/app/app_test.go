package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-lifecycle/internal/config"
	"github.com/ukydev/fleet-lifecycle/internal/db"
	"github.com/ukydev/fleet-lifecycle/internal/lifecycle"
	"github.com/ukydev/fleet-lifecycle/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:               "8080",
		MongoDB:            "fleet_test",
		JWTSecret:          "app-test-secret",
		JWTExpiry:          time.Hour,
		RefreshInterval:    time.Hour,
		RefreshConcurrency: 2,
		RefreshRateLimit:   6,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

func TestNew_RequiresConfigAndStore(t *testing.T) {
	_, err := New(nil, db.NewMemoryStore().Store(), nil)
	assert.Error(t, err)

	_, err = New(testConfig(), nil, nil)
	assert.Error(t, err)
}

func TestHandler_RequiresSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = ""
	a, err := New(cfg, db.NewMemoryStore().Store(), nil)
	require.NoError(t, err)
	assert.Nil(t, a.Auth)

	_, err = a.Handler()
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestHandler_RefreshIsCountedInMetrics(t *testing.T) {
	store := db.NewMemoryStore()
	admin := models.User{ID: primitive.NewObjectID(), Username: "admin", Role: models.RoleAdmin, IsActive: true}
	store.AddUsers(admin)
	expired := time.Now().Add(-48 * time.Hour)
	store.AddDocuments(models.Document{ID: primitive.NewObjectID(), Category: "registration", ExpirationDate: &expired, Status: models.StatusValid})

	a, err := New(testConfig(), store.Store(), nil)
	require.NoError(t, err)
	h, err := a.Handler()
	require.NoError(t, err)
	token, err := a.Auth.GenerateToken(&admin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/refresh-status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary lifecycle.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Changed)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `fleet_lifecycle_status_refresh_changed_total{kind="document"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestHandler_HealthWithoutMongo(t *testing.T) {
	a, err := New(testConfig(), db.NewMemoryStore().Store(), nil)
	require.NoError(t, err)
	h, err := a.Handler()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, a.Close(context.Background()))
}

func TestOpen_MongoUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a closed port")
	}
	cfg := testConfig()
	cfg.MongoURI = "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Open(ctx, cfg)
	assert.Error(t, err)
}
