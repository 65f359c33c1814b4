package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-lifecycle/internal/apperr"
	"github.com/ukydev/fleet-lifecycle/internal/db"
	"github.com/ukydev/fleet-lifecycle/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// Scope selects the records a refresh walks. The zero Scope is every record.
type Scope struct {
	VehicleID string
	// DriverID applies to documents only.
	DriverID string
	// Categories applies to documents only.
	Categories []string
	// ActiveVehiclesOnly skips records of retired vehicles. Documents
	// owned by a driver are always walked.
	ActiveVehiclesOnly bool
}

// RecordError is a per-record failure that did not stop the batch.
type RecordError struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Summary reports the outcome of one refresh run.
type Summary struct {
	Kind       models.Kind   `json:"kind"`
	Scanned    int           `json:"scanned"`
	Changed    int           `json:"changed"`
	ChangedIDs []string      `json:"changedIds"`
	Errors     []RecordError `json:"errors"`
	RanAt      time.Time     `json:"ranAt"`
}

// Err returns a PartialFailure when some records could not be updated.
func (s Summary) Err() error {
	if len(s.Errors) == 0 {
		return nil
	}
	return &apperr.PartialFailure{Failed: len(s.Errors), Total: s.Scanned}
}

// Notifier is told about runs that changed at least one record.
type Notifier interface {
	PublishRefresh(ctx context.Context, s Summary) error
}

// Recorder receives per-run counters.
type Recorder interface {
	ObserveRefresh(kind models.Kind, scanned, changed, failed int)
}

// Refresher recomputes derived statuses and persists the ones that drifted.
// It is the only writer of status fields.
type Refresher struct {
	store       *db.Store
	policy      *Policy
	now         func() time.Time
	concurrency int
	notifier    Notifier
	recorder    Recorder
	log         *log.Entry
}

// Option configures a Refresher.
type Option func(*Refresher)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Refresher) { r.now = now }
}

// WithConcurrency bounds the number of in-flight updates. Values below 2 run sequentially.
func WithConcurrency(n int) Option {
	return func(r *Refresher) { r.concurrency = n }
}

// WithNotifier publishes summaries of runs that changed records.
func WithNotifier(n Notifier) Option {
	return func(r *Refresher) { r.notifier = n }
}

// WithRecorder reports run counters.
func WithRecorder(rec Recorder) Option {
	return func(r *Refresher) { r.recorder = rec }
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Entry) Option {
	return func(r *Refresher) { r.log = l }
}

// NewRefresher creates a Refresher over store using policy.
func NewRefresher(store *db.Store, policy *Policy, opts ...Option) *Refresher {
	if policy == nil {
		policy = DefaultPolicy()
	}
	r := &Refresher{
		store:       store,
		policy:      policy,
		now:         time.Now,
		concurrency: 1,
		log:         log.WithField("component", "status_refresh"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the policy the refresher derives with.
func (r *Refresher) Policy() *Policy { return r.policy }

// candidate is one scanned record.
type candidate struct {
	id      string
	stored  models.Status
	derived models.Status
}

// RefreshStatuses walks every record of kind in scope and rewrites the
// status of those whose derived status differs from the stored one.
//
// Validation and not-found errors on the scope, and a failed read, abort the
// run before any write. Failed updates are collected in Summary.Errors and
// the run continues. On cancellation the partial summary is returned with
// the context error; updates already written stay correct.
func (r *Refresher) RefreshStatuses(ctx context.Context, kind models.Kind, scope Scope) (Summary, error) {
	now := r.now()
	summary := Summary{Kind: kind, ChangedIDs: []string{}, Errors: []RecordError{}, RanAt: now}

	if !models.IsValidKind(kind) {
		return summary, apperr.Invalid("kind", "unknown entity kind %q", kind)
	}
	filter, empty, err := r.resolve(ctx, kind, scope)
	if err != nil {
		return summary, err
	}
	var candidates []candidate
	if !empty {
		candidates, err = r.scan(ctx, kind, filter, now)
		if err != nil {
			return summary, err
		}
	}
	summary.Scanned = len(candidates)

	results := make([]error, len(candidates))
	attempted := make([]bool, len(candidates))
	limit := r.concurrency
	if limit < 1 {
		limit = 1
	}
	g := new(errgroup.Group)
	g.SetLimit(limit)
	var mu sync.Mutex
	for i, c := range candidates {
		if c.derived == c.stored {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		i, c := i, c
		g.Go(func() error {
			err := r.update(ctx, kind, c.id, c.derived)
			mu.Lock()
			results[i] = err
			attempted[i] = true
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for i, c := range candidates {
		if !attempted[i] {
			continue
		}
		if err := results[i]; err != nil {
			summary.Errors = append(summary.Errors, RecordError{ID: c.id, Reason: err.Error()})
			r.log.WithFields(log.Fields{"kind": kind, "id": c.id}).WithError(err).Warn("Failed to update status")
			continue
		}
		summary.Changed++
		summary.ChangedIDs = append(summary.ChangedIDs, c.id)
	}

	if r.recorder != nil {
		r.recorder.ObserveRefresh(kind, summary.Scanned, summary.Changed, len(summary.Errors))
	}
	r.log.WithFields(log.Fields{
		"kind":    kind,
		"scanned": summary.Scanned,
		"changed": summary.Changed,
		"errors":  len(summary.Errors),
	}).Info("Status refresh completed")

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("refresh %s interrupted: %w", kind, err)
	}
	if summary.Changed > 0 && r.notifier != nil {
		if err := r.notifier.PublishRefresh(ctx, summary); err != nil {
			r.log.WithError(err).Warn("Failed to publish refresh summary")
		}
	}
	return summary, nil
}

// RefreshAll refreshes documents then insurance policies.
func (r *Refresher) RefreshAll(ctx context.Context, scope Scope) ([]Summary, error) {
	docs, err := r.RefreshStatuses(ctx, models.KindDocument, scope)
	if err != nil {
		return []Summary{docs}, err
	}
	insScope := scope
	insScope.DriverID = ""
	insScope.Categories = nil
	ins, err := r.RefreshStatuses(ctx, models.KindInsurance, insScope)
	return []Summary{docs, ins}, err
}

// resolve turns a scope into a store filter. empty is true when the scope
// provably matches nothing.
func (r *Refresher) resolve(ctx context.Context, kind models.Kind, scope Scope) (f db.Filter, empty bool, err error) {
	if kind == models.KindInsurance {
		if scope.DriverID != "" {
			return f, false, apperr.Invalid("driver", "insurance policies are not scoped by driver")
		}
		if len(scope.Categories) > 0 {
			return f, false, apperr.Invalid("categories", "insurance policies have no category")
		}
	}
	f.Categories = scope.Categories

	if scope.DriverID != "" {
		oid, err := db.ParseID("driver", scope.DriverID)
		if err != nil {
			return f, false, err
		}
		if _, err := r.store.Drivers.FindDriverByID(ctx, scope.DriverID); err != nil {
			return f, false, apperr.Unavailable("find driver", err)
		}
		f.DriverIDs = []primitive.ObjectID{oid}
	}

	if scope.VehicleID != "" {
		oid, err := db.ParseID("vehicle", scope.VehicleID)
		if err != nil {
			return f, false, err
		}
		v, err := r.store.Vehicles.FindVehicleByID(ctx, scope.VehicleID)
		if err != nil {
			return f, false, apperr.Unavailable("find vehicle", err)
		}
		if scope.ActiveVehiclesOnly && !v.IsActive() {
			return f, true, nil
		}
		f.VehicleIDs = []primitive.ObjectID{oid}
		return f, false, nil
	}

	if scope.ActiveVehiclesOnly && kind == models.KindDocument {
		retired, err := r.store.Vehicles.FindVehicles(ctx, db.Filter{Statuses: []string{string(models.VehicleRetired)}})
		if err != nil {
			return f, false, apperr.Unavailable("find vehicles", err)
		}
		for _, v := range retired {
			f.ExcludeVehicleIDs = append(f.ExcludeVehicleIDs, v.ID)
		}
		return f, false, nil
	}

	if scope.ActiveVehiclesOnly {
		vehicles, err := r.store.Vehicles.FindVehicles(ctx, db.Filter{Statuses: activeVehicleStatuses()})
		if err != nil {
			return f, false, apperr.Unavailable("find vehicles", err)
		}
		if len(vehicles) == 0 {
			return f, true, nil
		}
		for _, v := range vehicles {
			f.VehicleIDs = append(f.VehicleIDs, v.ID)
		}
	}
	return f, false, nil
}

func (r *Refresher) scan(ctx context.Context, kind models.Kind, f db.Filter, now time.Time) ([]candidate, error) {
	switch kind {
	case models.KindDocument:
		docs, err := r.store.Documents.FindDocuments(ctx, f)
		if err != nil {
			return nil, apperr.Unavailable("find documents", err)
		}
		out := make([]candidate, 0, len(docs))
		for _, d := range docs {
			out = append(out, candidate{id: d.ID.Hex(), stored: d.Status, derived: r.policy.DocumentStatus(d, now)})
		}
		return out, nil
	default:
		policies, err := r.store.Insurance.FindInsurance(ctx, f)
		if err != nil {
			return nil, apperr.Unavailable("find insurance", err)
		}
		out := make([]candidate, 0, len(policies))
		for _, p := range policies {
			out = append(out, candidate{id: p.ID.Hex(), stored: p.Status, derived: r.policy.InsuranceStatus(p, now)})
		}
		return out, nil
	}
}

func (r *Refresher) update(ctx context.Context, kind models.Kind, id string, status models.Status) error {
	if kind == models.KindDocument {
		return r.store.Documents.UpdateDocumentStatus(ctx, id, status)
	}
	return r.store.Insurance.UpdateInsuranceStatus(ctx, id, status)
}

func activeVehicleStatuses() []string {
	out := make([]string, 0, len(models.VehicleStatuses))
	for _, s := range models.VehicleStatuses {
		if s != models.VehicleRetired {
			out = append(out, string(s))
		}
	}
	return out
}
