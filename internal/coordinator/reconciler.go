package coordinator

import (
	"context"
	"errors"
	"sync/atomic"

	"remindd/internal/reminder"
	"remindd/internal/timer"
	logx "remindd/pkg/logx"
)

// Reconciler periodically retires active one-shot reminders whose
// instant has already passed. Delivery and response handling keep the
// common path correct on their own; the sweep catches reminders that
// expired while the process was down or the response never arrived.
type Reconciler struct {
	coord *Coordinator
	log   logx.Logger

	sweeping atomic.Bool

	// onExpired fires once per expired timer reminder, for surfacing
	// "time's up" in a frontend.
	onExpired func(*reminder.Reminder)
}

func NewReconciler(coord *Coordinator, log logx.Logger) *Reconciler {
	return &Reconciler{coord: coord, log: log}
}

// OnExpired registers the expiry callback. Not safe to call after the
// first sweep.
func (rc *Reconciler) OnExpired(fn func(*reminder.Reminder)) {
	rc.onExpired = fn
}

// Sweep walks active reminders and deactivates the expired one-shots.
// Overlapping invocations are collapsed: a sweep that arrives while one
// is running returns immediately.
func (rc *Reconciler) Sweep(ctx context.Context) error {
	if !rc.sweeping.CompareAndSwap(false, true) {
		return nil
	}
	defer rc.sweeping.Store(false)

	active, err := rc.coord.store.ListActive(ctx)
	if err != nil {
		return err
	}
	now := rc.coord.clock.Now()

	var errs []error
	for _, r := range active {
		if r.Repeat.Repeats() {
			continue
		}
		if r.Kind.IsTimer() {
			// Paused countdowns hold their remaining time indefinitely.
			if timer.StateOf(r) != timer.Active || r.EndDate == nil || r.EndDate.After(now) {
				continue
			}
		} else if _, ok := rc.coord.calc.NextFor(now, r); ok {
			continue
		}
		if err := rc.coord.deactivateExpired(ctx, r); err != nil {
			errs = append(errs, err)
			continue
		}
		rc.log.Debug("reminder expired",
			logx.String("reminder", r.ID.String()),
			logx.String("kind", string(r.Kind)))
		if r.Kind.IsTimer() && rc.onExpired != nil {
			rc.onExpired(r)
		}
	}
	return errors.Join(errs...)
}
