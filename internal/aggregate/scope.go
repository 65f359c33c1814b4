package aggregate

import (
	"time"

	"github.com/ukydev/fleet-lifecycle/internal/apperr"
)

// DateRange is an inclusive [Start, End] interval. A zero bound is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Validate rejects a range whose start is after its end.
func (r *DateRange) Validate() error {
	if r == nil {
		return nil
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return apperr.Invalid("dateRange", "start %s is after end %s",
			r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t falls inside the range, bounds included.
func (r *DateRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

func (r *DateRange) bounds() (from, to *time.Time) {
	if r == nil {
		return nil, nil
	}
	if !r.Start.IsZero() {
		s := r.Start
		from = &s
	}
	if !r.End.IsZero() {
		e := r.End
		to = &e
	}
	return from, to
}

// MonthToDate returns the range from the first instant of now's month to now.
func MonthToDate(now time.Time) *DateRange {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return &DateRange{Start: start, End: now}
}

// Scope narrows an aggregation. The zero Scope is the whole fleet and all history.
type Scope struct {
	VehicleID string
	DriverID  string
	Range     *DateRange
}

const dateOnly = "2006-01-02"

// ParseBound reads an RFC3339 or YYYY-MM-DD value. A date-only upper bound
// covers the whole day.
func ParseBound(field, value string, upper bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateOnly, value)
	if err != nil {
		return time.Time{}, apperr.Invalid(field, "%q is neither RFC3339 nor YYYY-MM-DD", value)
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// ParseRange builds a validated range from optional from/to values. Both
// empty yields nil, meaning all history.
func ParseRange(from, to string) (*DateRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	rng := &DateRange{}
	var err error
	if from != "" {
		if rng.Start, err = ParseBound("from", from, false); err != nil {
			return nil, err
		}
	}
	if to != "" {
		if rng.End, err = ParseBound("to", to, true); err != nil {
			return nil, err
		}
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return rng, nil
}
