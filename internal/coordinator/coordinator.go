// Package coordinator keeps each reminder's single outstanding
// notification consistent with its computed next trigger. All decisions
// are made reactively from the state visible at call time; there is no
// per-reminder background loop.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"remindd/internal/clock"
	"remindd/internal/notify"
	"remindd/internal/reminder"
	"remindd/internal/storage"
	"remindd/internal/trigger"
	logx "remindd/pkg/logx"
)

// ErrNoValidSchedule means the rule and bounds produce no future
// occurrence. Expected and recoverable: callers surface it as "this
// reminder cannot fire again" and may deactivate.
var ErrNoValidSchedule = errors.New("no valid schedule")

const defaultSnoozeInterval = 5 * time.Minute

type Coordinator struct {
	log    logx.Logger
	clock  clock.Clock
	calc   *trigger.Calculator
	sink   notify.Sink
	store  storage.Store
	snooze time.Duration

	// mu guards the two maps. Each reminder's operations serialize on
	// its own lock so cross-reminder work stays concurrent.
	mu            sync.Mutex
	locks         map[uuid.UUID]*sync.Mutex
	snoozeHandles map[uuid.UUID]string
}

type Option func(*Coordinator)

// WithSnoozeInterval overrides the 5 minute default follow-up delay.
func WithSnoozeInterval(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.snooze = d
		}
	}
}

func New(calc *trigger.Calculator, sink notify.Sink, store storage.Store, clk clock.Clock, log logx.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		log:           log,
		clock:         clk,
		calc:          calc,
		sink:          sink,
		store:         store,
		snooze:        defaultSnoozeInterval,
		locks:         map[uuid.UUID]*sync.Mutex{},
		snoozeHandles: map[uuid.UUID]string{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Coordinator) lockFor(id uuid.UUID) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	return l
}

// NextTrigger is the read-only query for display ("next in 2h 15m").
func (c *Coordinator) NextTrigger(r *reminder.Reminder, now time.Time) (time.Time, bool) {
	return c.calc.NextFor(now, r)
}

// ScheduleReminder synchronizes the outstanding notification after a
// create or edit. Idempotent: an unchanged reminder scheduled twice ends
// up with exactly one outstanding notification.
func (c *Coordinator) ScheduleReminder(ctx context.Context, r *reminder.Reminder) error {
	l := c.lockFor(r.ID)
	l.Lock()
	defer l.Unlock()
	return c.scheduleLocked(ctx, r)
}

func (c *Coordinator) scheduleLocked(ctx context.Context, r *reminder.Reminder) error {
	now := c.clock.Now()

	// Todo reminders are never scheduled; timers are owned by the
	// countdown lifecycle. Inactive reminders keep nothing outstanding.
	if r.Kind == reminder.KindTodo || !r.IsActive {
		c.withdrawLocked(ctx, r, now)
		return c.save(ctx, r)
	}
	if r.Kind.IsTimer() {
		// The countdown lifecycle arms timer notifications itself.
		return c.save(ctx, r)
	}

	next, ok := c.calc.NextFor(now, r)
	if !ok {
		return fmt.Errorf("reminder %s: %w", r.ID, ErrNoValidSchedule)
	}

	// Cancel-then-create keeps at most one outstanding notification.
	if r.NotificationID != "" {
		_ = c.sink.Cancel(ctx, r.NotificationID)
	}
	handle, err := c.sink.Schedule(ctx, r.ID.String(), next, notify.PayloadFor(r))
	if err != nil {
		// The stored handle stays as it was: never record a schedule
		// call that did not succeed, and leave the state retriable.
		return fmt.Errorf("schedule reminder %s: %w", r.ID, err)
	}
	r.NotificationID = handle
	r.UpdatedAt = now

	c.log.Debug("reminder scheduled",
		logx.String("reminder", r.ID.String()),
		logx.Time("at", next),
		logx.String("rule", r.Repeat.Describe()))
	return c.save(ctx, r)
}

// withdrawLocked cancels the outstanding notification (and any pending
// snooze follow-up) and clears the stored handle.
func (c *Coordinator) withdrawLocked(ctx context.Context, r *reminder.Reminder, now time.Time) {
	if r.NotificationID != "" {
		_ = c.sink.Cancel(ctx, r.NotificationID)
		r.NotificationID = ""
		r.UpdatedAt = now
	}
	c.mu.Lock()
	h := c.snoozeHandles[r.ID]
	delete(c.snoozeHandles, r.ID)
	c.mu.Unlock()
	if h != "" {
		_ = c.sink.Cancel(ctx, h)
	}
}

// ToggleActive flips a reminder on or off. Flipping off withdraws the
// outstanding notification; flipping on re-validates and schedules. A
// one-shot reminder re-enabled after its instant passed is re-anchored
// to the next future occurrence of its time of day.
func (c *Coordinator) ToggleActive(ctx context.Context, r *reminder.Reminder, active bool) error {
	l := c.lockFor(r.ID)
	l.Lock()
	defer l.Unlock()

	now := c.clock.Now()
	if !active {
		r.IsActive = false
		r.UpdatedAt = now
		c.withdrawLocked(ctx, r, now)
		return c.save(ctx, r)
	}

	r.IsActive = true
	r.UpdatedAt = now
	if !r.Repeat.Repeats() {
		today := r.TimeOfDay.On(now)
		if today.After(now) {
			r.StartDate = today
		} else {
			r.StartDate = r.TimeOfDay.On(now.AddDate(0, 0, 1))
		}
	}
	return c.scheduleLocked(ctx, r)
}

// HandleResponse records how the user answered a delivered notification
// and synchronizes scheduling: snooze gets an independent one-shot
// follow-up, a one-shot reminder deactivates after its first response,
// and a repeating reminder is rescheduled unless it was completed.
func (c *Coordinator) HandleResponse(ctx context.Context, r *reminder.Reminder, resp reminder.Response, notes string) error {
	l := c.lockFor(r.ID)
	l.Lock()
	defer l.Unlock()

	now := c.clock.Now()
	entry := reminder.TriggerLog{
		ID:         uuid.New(),
		ReminderID: r.ID,
		At:         now,
		Action:     reminder.LogActionFor(resp),
		Notes:      notes,
	}
	if err := c.store.AppendLog(ctx, entry); err != nil {
		return fmt.Errorf("append trigger log: %w", err)
	}
	r.LastTriggered = &now
	r.UpdatedAt = now

	switch resp {
	case reminder.ResponseSnoozed:
		r.SnoozeCount++
		if err := c.scheduleSnoozeLocked(ctx, r, now); err != nil {
			return err
		}
	case reminder.ResponseCompleted:
		r.SnoozeCount = 0
	}

	if !r.Repeat.Repeats() {
		// First response retires a one-shot reminder; a pending snooze
		// follow-up still goes out.
		if r.NotificationID != "" {
			_ = c.sink.Cancel(ctx, r.NotificationID)
			r.NotificationID = ""
		}
		r.IsActive = false
		return c.save(ctx, r)
	}

	// The sink delivers one-shot notifications, so every response on a
	// repeating reminder re-arms the next occurrence.
	return c.scheduleLocked(ctx, r)
}

func (c *Coordinator) scheduleSnoozeLocked(ctx context.Context, r *reminder.Reminder, now time.Time) error {
	p := notify.PayloadFor(r)
	p.Snooze = true

	c.mu.Lock()
	old := c.snoozeHandles[r.ID]
	c.mu.Unlock()
	if old != "" {
		_ = c.sink.Cancel(ctx, old)
	}

	handle, err := c.sink.Schedule(ctx, r.ID.String()+"-snooze", now.Add(c.snooze), p)
	if err != nil {
		return fmt.Errorf("schedule snooze for %s: %w", r.ID, err)
	}
	c.mu.Lock()
	c.snoozeHandles[r.ID] = handle
	c.mu.Unlock()
	return nil
}

// RescheduleAll cancels every pending notification and rebuilds the
// outstanding set from the given reminders. Used after bulk state
// changes such as a permission re-grant or a config reload.
func (c *Coordinator) RescheduleAll(ctx context.Context, reminders []*reminder.Reminder) error {
	if err := c.sink.CancelAll(ctx); err != nil {
		return fmt.Errorf("cancel all: %w", err)
	}
	c.mu.Lock()
	c.snoozeHandles = map[uuid.UUID]string{}
	c.mu.Unlock()

	var errs []error
	for _, r := range reminders {
		if !r.IsActive {
			continue
		}
		// Handles were withdrawn wholesale above; don't cancel stale ones.
		r.NotificationID = ""
		var err error
		switch {
		case r.Kind.IsTimer():
			// Running countdowns keep their end instant across a rebuild.
			err = c.rearmTimer(ctx, r)
		case r.Kind.Schedulable():
			err = c.ScheduleReminder(ctx, r)
		default:
			continue
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Delete withdraws any outstanding notification and removes the
// reminder (its trigger logs cascade).
func (c *Coordinator) Delete(ctx context.Context, r *reminder.Reminder) error {
	l := c.lockFor(r.ID)
	l.Lock()
	defer l.Unlock()

	c.withdrawLocked(ctx, r, c.clock.Now())
	if err := c.store.DeleteReminder(ctx, r.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	c.mu.Lock()
	delete(c.locks, r.ID)
	c.mu.Unlock()
	return nil
}

// deactivateExpired retires a one-shot reminder whose instant has
// passed. Takes the per-reminder lock itself; used by the reconciler.
func (c *Coordinator) deactivateExpired(ctx context.Context, r *reminder.Reminder) error {
	l := c.lockFor(r.ID)
	l.Lock()
	defer l.Unlock()

	now := c.clock.Now()
	if !r.IsActive {
		return nil
	}
	r.IsActive = false
	r.UpdatedAt = now
	c.withdrawLocked(ctx, r, now)
	return c.save(ctx, r)
}

func (c *Coordinator) save(ctx context.Context, r *reminder.Reminder) error {
	if err := c.store.SaveReminder(ctx, r); err != nil {
		return fmt.Errorf("save reminder %s: %w", r.ID, err)
	}
	return nil
}
