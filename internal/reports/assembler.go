// Package reports composes the aggregation engine and the status policy
// into the report shapes served to callers. Every report is zero-filled
// when nothing matches.
package reports

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-lifecycle/internal/aggregate"
	"github.com/ukydev/fleet-lifecycle/internal/apperr"
	"github.com/ukydev/fleet-lifecycle/internal/db"
	"github.com/ukydev/fleet-lifecycle/internal/lifecycle"
	"github.com/ukydev/fleet-lifecycle/internal/models"
	"golang.org/x/sync/errgroup"
)

// Assembler builds reports. It only reads.
type Assembler struct {
	store  *db.Store
	engine *aggregate.Engine
	policy *lifecycle.Policy
	now    func() time.Time
	log    *log.Entry
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Entry) Option {
	return func(a *Assembler) { a.log = l }
}

// NewAssembler creates an Assembler. A nil engine is built over store and a
// nil policy falls back to the defaults.
func NewAssembler(store *db.Store, engine *aggregate.Engine, policy *lifecycle.Policy, opts ...Option) *Assembler {
	if engine == nil {
		engine = aggregate.NewEngine(store)
	}
	if policy == nil {
		policy = lifecycle.DefaultPolicy()
	}
	a := &Assembler{
		store:  store,
		engine: engine,
		policy: policy,
		now:    time.Now,
		log:    log.WithField("component", "reports"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Dashboard is the fleet overview.
type Dashboard struct {
	VehiculesParStatut  map[string]int          `json:"vehiculesParStatut"`
	VehiculesTotal      int                     `json:"vehiculesTotal"`
	ConducteursActifs   int                     `json:"conducteursActifs"`
	MaintenancesEnCours int                     `json:"maintenancesEnCours"`
	TrajetsEnCours      int                     `json:"trajetsEnCours"`
	DocumentsExpirant   int                     `json:"documentsExpirant"`
	AssurancesExpirant  int                     `json:"assurancesExpirant"`
	CoutsMois           aggregate.CostBreakdown `json:"coutsMois"`
	GenereLe            time.Time               `json:"genereLe"`
}

// DashboardStats counts the fleet by status and rolls up month-to-date
// costs. Expiring counts are derived from the current dates, not read from
// the stored statuses.
func (a *Assembler) DashboardStats(ctx context.Context) (Dashboard, error) {
	now := a.now()
	d := Dashboard{VehiculesParStatut: make(map[string]int, len(models.VehicleStatuses)), GenereLe: now}
	for _, s := range models.VehicleStatuses {
		d.VehiculesParStatut[string(s)] = 0
	}

	var (
		vehicles  []models.Vehicle
		drivers   []models.Driver
		maint     []models.Maintenance
		trips     []models.Trip
		documents []models.Document
		policies  []models.Insurance
		month     aggregate.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		vehicles, err = a.store.Vehicles.FindVehicles(gctx, db.Filter{})
		return apperr.Unavailable("find vehicles", err)
	})
	g.Go(func() (err error) {
		drivers, err = a.store.Drivers.FindDrivers(gctx, db.Filter{Statuses: []string{string(models.DriverActive)}})
		return apperr.Unavailable("find drivers", err)
	})
	g.Go(func() (err error) {
		maint, err = a.store.Maintenance.FindMaintenance(gctx, db.Filter{Statuses: []string{string(models.MaintenanceInProgress)}})
		return apperr.Unavailable("find maintenance", err)
	})
	g.Go(func() (err error) {
		trips, err = a.store.Trips.FindTrips(gctx, db.Filter{Statuses: []string{string(models.TripInProgress)}})
		return apperr.Unavailable("find trips", err)
	})
	g.Go(func() (err error) {
		documents, err = a.store.Documents.FindDocuments(gctx, db.Filter{})
		return apperr.Unavailable("find documents", err)
	})
	g.Go(func() (err error) {
		policies, err = a.store.Insurance.FindInsurance(gctx, db.Filter{})
		return apperr.Unavailable("find insurance", err)
	})
	g.Go(func() (err error) {
		month, err = a.engine.Aggregate(gctx, aggregate.Scope{Range: aggregate.MonthToDate(now)})
		return err
	})
	if err := g.Wait(); err != nil {
		a.log.WithError(err).Error("Failed to assemble dashboard")
		return d, err
	}

	for _, v := range vehicles {
		d.VehiculesParStatut[string(v.Status)]++
	}
	d.VehiculesTotal = len(vehicles)
	d.ConducteursActifs = len(drivers)
	d.MaintenancesEnCours = len(maint)
	d.TrajetsEnCours = len(trips)
	for _, doc := range documents {
		if a.policy.DocumentStatus(doc, now).NeedsAttention() {
			d.DocumentsExpirant++
		}
	}
	for _, p := range policies {
		if a.policy.InsuranceStatus(p, now).NeedsAttention() {
			d.AssurancesExpirant++
		}
	}
	d.CoutsMois = month.Costs()
	return d, nil
}
