// Package lifecycle derives time-dependent statuses for documents and
// insurance policies and synchronizes the cached copies held in the store.
package lifecycle

import (
	"time"

	"github.com/ukydev/fleet-lifecycle/internal/models"
)

// Day is the unit of expiry windows.
const Day = 24 * time.Hour

// DefaultWindowDays is the expiring-soon window used when nothing else is configured.
const DefaultWindowDays = 30

// Derive maps an entity's dates to its lifecycle status at now.
//
// Without an expiration date the status is valid (active for insurance).
// An expiration at or before now is expired: the instant of expiration
// already counts as expired. An expiration at most thresholdDays after now
// is expiring_soon. The issue date does not influence the result.
//
// Derive is pure and does not retain or modify its arguments.
func Derive(kind models.Kind, issueDate time.Time, expirationDate *time.Time, now time.Time, thresholdDays int) models.Status {
	ok := models.StatusValid
	if kind == models.KindInsurance {
		ok = models.StatusActive
	}
	if expirationDate == nil {
		return ok
	}
	if thresholdDays < 0 {
		thresholdDays = 0
	}
	exp := *expirationDate
	if !now.Before(exp) {
		return models.StatusExpired
	}
	if exp.Sub(now) <= time.Duration(thresholdDays)*Day {
		return models.StatusExpiringSoon
	}
	return ok
}

// DaysRemaining returns whole days from now until exp, negative once expired.
// Partial days round toward the expiration: 36h left is 1 day, 12h past is -1.
func DaysRemaining(exp, now time.Time) int {
	d := exp.Sub(now)
	if d >= 0 {
		return int(d / Day)
	}
	days := int(d / Day)
	if d%Day != 0 {
		days--
	}
	return days
}
