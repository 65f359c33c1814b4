package lifecycle

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-lifecycle/internal/apperr"
)

// Sweep runs RefreshAll immediately and then every interval until ctx is
// done. A failed run is logged and retried on the next tick. Scope errors
// stop the sweep.
func (r *Refresher) Sweep(ctx context.Context, interval time.Duration, scope Scope) error {
	if interval <= 0 {
		return apperr.Invalid("interval", "must be positive, got %s", interval)
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		if err := r.sweepOnce(ctx, scope); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			r.log.Info("Status sweep stopped")
			return nil
		case <-tick.C:
		}
	}
}

func (r *Refresher) sweepOnce(ctx context.Context, scope Scope) error {
	summaries, err := r.RefreshAll(ctx, scope)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil
	case apperr.IsValidation(err), apperr.IsNotFound(err):
		return err
	default:
		r.log.WithError(err).Error("Status sweep run failed")
		return nil
	}
	for _, s := range summaries {
		if err := s.Err(); err != nil {
			r.log.WithFields(log.Fields{"kind": s.Kind}).WithError(err).Warn("Status sweep run had failures")
		}
	}
	return nil
}
