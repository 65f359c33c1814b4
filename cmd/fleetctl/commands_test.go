package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-lifecycle/internal/apperr"
	"github.com/ukydev/fleet-lifecycle/internal/app"
	"github.com/ukydev/fleet-lifecycle/internal/config"
	"github.com/ukydev/fleet-lifecycle/internal/db"
	"github.com/ukydev/fleet-lifecycle/internal/lifecycle"
	"github.com/ukydev/fleet-lifecycle/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	store *db.MemoryStore
	app   *app.App
	truck models.Vehicle
	admin models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: db.NewMemoryStore(),
		truck: models.Vehicle{ID: primitive.NewObjectID(), Immatriculation: "AB-123-CD", Status: models.VehicleInService},
		admin: models.User{ID: primitive.NewObjectID(), Username: "admin", Role: models.RoleAdmin, IsActive: true},
	}
	expired := time.Now().Add(-48 * time.Hour)
	f.store.AddVehicles(f.truck)
	f.store.AddUsers(f.admin, models.User{ID: primitive.NewObjectID(), Username: "gone", Role: models.RoleViewer})
	f.store.AddDocuments(models.Document{ID: primitive.NewObjectID(), Category: "registration", VehicleID: &f.truck.ID, ExpirationDate: &expired, Status: models.StatusValid})
	f.store.AddInsurance(models.Insurance{ID: primitive.NewObjectID(), VehicleID: f.truck.ID, EndDate: &expired, Status: models.StatusActive})
	f.store.AddFuel(models.Fuel{ID: primitive.NewObjectID(), VehicleID: f.truck.ID, Date: time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC), Quantity: 70, UnitPrice: 650})

	a, err := app.New(&config.Config{
		Port:               "8080",
		MongoDB:            "fleet_test",
		JWTSecret:          "fleetctl-test-secret",
		JWTExpiry:          time.Hour,
		RefreshInterval:    time.Hour,
		RefreshConcurrency: 1,
		RefreshRateLimit:   6,
		LogLevel:           "info",
		LogFormat:          "text",
	}, f.store.Store(), nil)
	require.NoError(t, err)
	f.app = a
	return f
}

func (f *fixture) exec(ctx context.Context, args ...string) (string, error) {
	cmd := newRootCmd(func(context.Context) (*app.App, error) { return f.app, nil })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestRefreshDocuments(t *testing.T) {
	f := newFixture(t)

	out, err := f.exec(context.Background(), "refresh", "documents", "--category", "registration")
	require.NoError(t, err)

	var summary lifecycle.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, models.KindDocument, summary.Kind)
	assert.Equal(t, 1, summary.Changed)
	assert.Equal(t, 1, f.store.Updates)
}

func TestRefreshInsurance_RejectsDriverScope(t *testing.T) {
	f := newFixture(t)

	_, err := f.exec(context.Background(), "refresh", "insurance", "--driver", primitive.NewObjectID().Hex())
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, 0, f.store.Updates)
}

func TestRefresh_PartialFailureFails(t *testing.T) {
	f := newFixture(t)
	f.store.UpdateErr = func(models.Kind, string) error { return errors.New("write conflict") }

	out, err := f.exec(context.Background(), "refresh", "documents")
	var partial *apperr.PartialFailure
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, partial.Failed)
	assert.Contains(t, out, "write conflict")
}

func TestRefreshAll(t *testing.T) {
	f := newFixture(t)

	out, err := f.exec(context.Background(), "refresh", "all", "--active-only")
	require.NoError(t, err)

	var summaries []lifecycle.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, 1, summaries[0].Changed)
	assert.Equal(t, 1, summaries[1].Changed)
}

func TestSweep_StopsWhenInterrupted(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.exec(ctx, "sweep", "--interval", "1h")
	assert.NoError(t, err)
}

func TestReportCosts(t *testing.T) {
	f := newFixture(t)

	out, err := f.exec(context.Background(), "report", "costs", "--from", "2026-02-01", "--to", "2026-02-28", "--vehicle", f.truck.ID.Hex())
	require.NoError(t, err)

	var costs map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &costs))
	assert.Equal(t, float64(45500), costs["coutCarburant"])
	assert.Equal(t, float64(45500), costs["coutTotal"])
	assert.Equal(t, map[string]interface{}{"maintenance": 0.0, "carburant": 100.0, "trajets": 0.0}, costs["pourcentages"])

	out, err = f.exec(context.Background(), "report", "costs", "--from", "2026-03-01")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &costs))
	assert.Equal(t, float64(0), costs["coutTotal"])
}

func TestReport_BadDates(t *testing.T) {
	f := newFixture(t)

	_, err := f.exec(context.Background(), "report", "vehicles", "--from", "yesterday")
	assert.True(t, apperr.IsValidation(err))

	_, err = f.exec(context.Background(), "report", "costs", "--from", "2026-03-01", "--to", "2026-02-01")
	assert.True(t, apperr.IsValidation(err))
}

func TestReportVehiclesAndDrivers(t *testing.T) {
	f := newFixture(t)

	out, err := f.exec(context.Background(), "report", "vehicles")
	require.NoError(t, err)
	assert.Contains(t, out, `"immatriculation": "AB-123-CD"`)

	out, err = f.exec(context.Background(), "report", "drivers")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))

	out, err = f.exec(context.Background(), "report", "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, `"vehiculesTotal": 1`)
}

func TestToken(t *testing.T) {
	f := newFixture(t)

	out, err := f.exec(context.Background(), "token", f.admin.ID.Hex())
	require.NoError(t, err)
	claims, err := f.app.Auth.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, f.admin.ID.Hex(), claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, err = f.exec(context.Background(), "token", primitive.NewObjectID().Hex())
	assert.True(t, apperr.IsNotFound(err))

	_, err = f.exec(context.Background(), "token")
	assert.Error(t, err)
}

func TestOpenErrorIsReturned(t *testing.T) {
	cmd := newRootCmd(func(context.Context) (*app.App, error) { return nil, errors.New("no database") })
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"report", "dashboard"})

	assert.EqualError(t, cmd.Execute(), "no database")
}
