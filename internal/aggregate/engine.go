// Package aggregate rolls maintenance, fuel and trip records up into cost
// and usage statistics per scope, per vehicle and per driver.
package aggregate

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-lifecycle/internal/apperr"
	"github.com/ukydev/fleet-lifecycle/internal/db"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// Recorder receives aggregation timings.
type Recorder interface {
	ObserveAggregation(pass string, d time.Duration)
}

// Engine computes rollups from the store. It never writes.
type Engine struct {
	store    *db.Store
	recorder Recorder
	log      *log.Entry
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder reports pass durations.
func WithRecorder(rec Recorder) Option {
	return func(e *Engine) { e.recorder = rec }
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Entry) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an Engine reading from store.
func NewEngine(store *db.Store, opts ...Option) *Engine {
	e := &Engine{store: store, log: log.WithField("component", "aggregate")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Aggregate rolls up every record matching scope. Maintenance has no driver,
// so a driver scope yields empty maintenance stats.
func (e *Engine) Aggregate(ctx context.Context, scope Scope) (Result, error) {
	defer e.observe("scope", time.Now())

	if err := scope.Range.Validate(); err != nil {
		return Result{}, err
	}
	f, err := e.resolve(ctx, scope)
	if err != nil {
		return Result{}, err
	}
	s, err := e.load(ctx, f, scope.DriverID == "")
	if err != nil {
		return Result{}, err
	}
	return Reduce(s), nil
}

// ByVehicle loads the fleet's records once and rolls them up per vehicle.
// Vehicles without records are absent from the map.
func (e *Engine) ByVehicle(ctx context.Context, rng *DateRange) (map[primitive.ObjectID]Result, error) {
	defer e.observe("by_vehicle", time.Now())
	ix, err := e.Index(ctx, rng)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]Result, len(ix.byVehicle))
	for id, s := range ix.byVehicle {
		out[id] = Reduce(*s)
	}
	return out, nil
}

// ByDriver loads the fleet's records once and rolls up fuel and trips per driver.
func (e *Engine) ByDriver(ctx context.Context, rng *DateRange) (map[primitive.ObjectID]Result, error) {
	defer e.observe("by_driver", time.Now())
	ix, err := e.Index(ctx, rng)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]Result, len(ix.byDriver))
	for id, s := range ix.byDriver {
		out[id] = Reduce(*s)
	}
	return out, nil
}

// Index loads every record inside rng and groups it by foreign key.
func (e *Engine) Index(ctx context.Context, rng *DateRange) (*Index, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	f := db.Filter{}
	f.From, f.To = rng.bounds()
	s, err := e.load(ctx, f, true)
	if err != nil {
		return nil, err
	}
	return BuildIndex(s), nil
}

func (e *Engine) resolve(ctx context.Context, scope Scope) (db.Filter, error) {
	f := db.Filter{}
	f.From, f.To = scope.Range.bounds()
	if scope.VehicleID != "" {
		oid, err := db.ParseID("vehicle", scope.VehicleID)
		if err != nil {
			return f, err
		}
		if _, err := e.store.Vehicles.FindVehicleByID(ctx, scope.VehicleID); err != nil {
			return f, apperr.Unavailable("find vehicle", err)
		}
		f.VehicleIDs = []primitive.ObjectID{oid}
	}
	if scope.DriverID != "" {
		oid, err := db.ParseID("driver", scope.DriverID)
		if err != nil {
			return f, err
		}
		if _, err := e.store.Drivers.FindDriverByID(ctx, scope.DriverID); err != nil {
			return f, apperr.Unavailable("find driver", err)
		}
		f.DriverIDs = []primitive.ObjectID{oid}
	}
	return f, nil
}

// load reads the three event streams concurrently. The maintenance stream
// ignores DriverIDs and is skipped when withMaintenance is false.
func (e *Engine) load(ctx context.Context, f db.Filter, withMaintenance bool) (Slices, error) {
	var s Slices
	g, gctx := errgroup.WithContext(ctx)
	if withMaintenance {
		g.Go(func() error {
			mf := f
			mf.DriverIDs = nil
			recs, err := e.store.Maintenance.FindMaintenance(gctx, mf)
			if err != nil {
				return apperr.Unavailable("find maintenance", err)
			}
			s.Maintenance = recs
			return nil
		})
	}
	g.Go(func() error {
		recs, err := e.store.Fuel.FindFuel(gctx, f)
		if err != nil {
			return apperr.Unavailable("find fuel", err)
		}
		s.Fuel = recs
		return nil
	})
	g.Go(func() error {
		recs, err := e.store.Trips.FindTrips(gctx, f)
		if err != nil {
			return apperr.Unavailable("find trips", err)
		}
		s.Trips = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		e.log.WithError(err).Error("Failed to load records for aggregation")
		return Slices{}, err
	}
	return s, nil
}

func (e *Engine) observe(pass string, start time.Time) {
	if e.recorder != nil {
		e.recorder.ObserveAggregation(pass, time.Since(start))
	}
}
