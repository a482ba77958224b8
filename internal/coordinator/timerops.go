package coordinator

import (
	"context"
	"fmt"
	"time"

	"remindd/internal/notify"
	"remindd/internal/reminder"
	"remindd/internal/timer"
)

// Timer-kind reminders bypass the recurrence calculator: their
// notification fires at the countdown's end instant, and pause/resume
// moves that instant instead of recomputing a rule.

func (c *Coordinator) StartTimer(ctx context.Context, r *reminder.Reminder, d time.Duration) error {
	l := c.lockFor(r.ID)
	l.Lock()
	defer l.Unlock()

	now := c.clock.Now()
	if err := timer.Start(r, d, now); err != nil {
		return err
	}
	return c.armTimerLocked(ctx, r, now)
}

func (c *Coordinator) PauseTimer(ctx context.Context, r *reminder.Reminder) error {
	l := c.lockFor(r.ID)
	l.Lock()
	defer l.Unlock()

	now := c.clock.Now()
	if err := timer.Pause(r, now); err != nil {
		return err
	}
	if r.NotificationID != "" {
		_ = c.sink.Cancel(ctx, r.NotificationID)
		r.NotificationID = ""
	}
	return c.save(ctx, r)
}

func (c *Coordinator) ResumeTimer(ctx context.Context, r *reminder.Reminder) error {
	l := c.lockFor(r.ID)
	l.Lock()
	defer l.Unlock()

	now := c.clock.Now()
	if err := timer.Resume(r, now); err != nil {
		return err
	}
	return c.armTimerLocked(ctx, r, now)
}

func (c *Coordinator) RestartTimer(ctx context.Context, r *reminder.Reminder) error {
	l := c.lockFor(r.ID)
	l.Lock()
	defer l.Unlock()

	now := c.clock.Now()
	if err := timer.Restart(r, now); err != nil {
		return err
	}
	return c.armTimerLocked(ctx, r, now)
}

func (c *Coordinator) FinishTimer(ctx context.Context, r *reminder.Reminder) error {
	l := c.lockFor(r.ID)
	l.Lock()
	defer l.Unlock()

	now := c.clock.Now()
	if err := timer.Finish(r, now); err != nil {
		return err
	}
	c.withdrawLocked(ctx, r, now)
	return c.save(ctx, r)
}

// rearmTimer restores the "time's up" notification after a bulk cancel.
// A countdown whose end already passed is left for the expiry sweep.
func (c *Coordinator) rearmTimer(ctx context.Context, r *reminder.Reminder) error {
	l := c.lockFor(r.ID)
	l.Lock()
	defer l.Unlock()

	now := c.clock.Now()
	if timer.StateOf(r) != timer.Active || r.EndDate == nil || !r.EndDate.After(now) {
		return c.save(ctx, r)
	}
	return c.armTimerLocked(ctx, r, now)
}

// armTimerLocked points the outstanding notification at the current
// countdown end. The lifecycle call before it guarantees EndDate is set.
func (c *Coordinator) armTimerLocked(ctx context.Context, r *reminder.Reminder, now time.Time) error {
	if r.EndDate == nil {
		return timer.ErrNoTimer
	}
	if r.NotificationID != "" {
		_ = c.sink.Cancel(ctx, r.NotificationID)
	}
	handle, err := c.sink.Schedule(ctx, r.ID.String(), *r.EndDate, notify.PayloadFor(r))
	if err != nil {
		return fmt.Errorf("schedule timer %s: %w", r.ID, err)
	}
	r.NotificationID = handle
	r.UpdatedAt = now
	return c.save(ctx, r)
}
