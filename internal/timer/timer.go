// Package timer is the countdown lifecycle for timer-kind reminders.
// It mutates the shared reminder aggregate; callers (the coordinator)
// serialize access per reminder.
package timer

import (
	"errors"
	"time"

	"remindd/internal/reminder"
)

type State int

const (
	// Finished covers both "never started" and "completed": no countdown
	// state remains on the reminder.
	Finished State = iota
	Active
	Paused
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Paused:
		return "paused"
	default:
		return "finished"
	}
}

var (
	ErrNotActive = errors.New("timer is not running")
	ErrNotPaused = errors.New("timer is not paused")
	ErrNoTimer   = errors.New("reminder is not a timer")
)

// StateOf derives the lifecycle state from the reminder fields.
// Invariant: TimerPausedRemaining is non-nil only in Paused, IsActive is
// true only in Active.
func StateOf(r *reminder.Reminder) State {
	switch {
	case r.TimerPausedRemaining != nil:
		return Paused
	case r.IsActive:
		return Active
	default:
		return Finished
	}
}

// Start begins (or re-begins) a countdown of d from now. Valid from any
// state.
func Start(r *reminder.Reminder, d time.Duration, now time.Time) error {
	if !r.Kind.IsTimer() {
		return ErrNoTimer
	}
	target := now.Add(d)
	r.TimerDuration = d
	r.EndDate = &target
	r.IsActive = true
	r.TimerPausedRemaining = nil
	r.UpdatedAt = now
	return nil
}

// Pause freezes the remaining duration. Only valid while Active.
func Pause(r *reminder.Reminder, now time.Time) error {
	if !r.Kind.IsTimer() {
		return ErrNoTimer
	}
	if StateOf(r) != Active || r.EndDate == nil {
		return ErrNotActive
	}
	remaining := r.EndDate.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	r.TimerPausedRemaining = &remaining
	r.IsActive = false
	r.UpdatedAt = now
	return nil
}

// Resume continues a paused countdown with the frozen remainder.
func Resume(r *reminder.Reminder, now time.Time) error {
	if !r.Kind.IsTimer() {
		return ErrNoTimer
	}
	if StateOf(r) != Paused {
		return ErrNotPaused
	}
	target := now.Add(*r.TimerPausedRemaining)
	r.EndDate = &target
	r.TimerPausedRemaining = nil
	r.IsActive = true
	r.UpdatedAt = now
	return nil
}

// Restart begins a fresh countdown with the originally configured
// duration. Valid from any state.
func Restart(r *reminder.Reminder, now time.Time) error {
	if !r.Kind.IsTimer() {
		return ErrNoTimer
	}
	return Start(r, r.TimerDuration, now)
}

// Finish ends the countdown and clears all lifecycle state. Valid from
// any state.
func Finish(r *reminder.Reminder, now time.Time) error {
	if !r.Kind.IsTimer() {
		return ErrNoTimer
	}
	r.IsActive = false
	r.EndDate = nil
	r.TimerPausedRemaining = nil
	r.UpdatedAt = now
	return nil
}

// Remaining reports how much countdown is left at now.
func Remaining(r *reminder.Reminder, now time.Time) time.Duration {
	switch StateOf(r) {
	case Paused:
		return *r.TimerPausedRemaining
	case Active:
		if r.EndDate == nil {
			return 0
		}
		if d := r.EndDate.Sub(now); d > 0 {
			return d
		}
		return 0
	default:
		return 0
	}
}
