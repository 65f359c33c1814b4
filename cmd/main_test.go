package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-lifecycle/internal/app"
	"github.com/ukydev/fleet-lifecycle/internal/config"
	"github.com/ukydev/fleet-lifecycle/internal/db"
)

func testApp(t *testing.T, secret string) *app.App {
	t.Helper()
	a, err := app.New(&config.Config{
		Port:               "0",
		MongoDB:            "fleet_test",
		JWTSecret:          secret,
		JWTExpiry:          time.Hour,
		RefreshInterval:    time.Hour,
		RefreshConcurrency: 1,
		RefreshRateLimit:   6,
		LogLevel:           "info",
		LogFormat:          "text",
	}, db.NewMemoryStore().Store(), nil)
	require.NoError(t, err)
	return a
}

func TestNewServer(t *testing.T) {
	srv, err := newServer(testApp(t, "main-test-secret"))
	require.NoError(t, err)
	assert.Equal(t, ":0", srv.Addr)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNewServer_MissingSecret(t *testing.T) {
	_, err := newServer(testApp(t, ""))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestServe_GracefulShutdown(t *testing.T) {
	srv, err := newServer(testApp(t, "main-test-secret"))
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
