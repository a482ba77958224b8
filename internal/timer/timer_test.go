package timer

import (
	"errors"
	"testing"
	"time"

	"remindd/internal/reminder"
	"remindd/internal/rule"
)

func newTimer(t *testing.T) *reminder.Reminder {
	t.Helper()
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	r := reminder.New("tea", reminder.KindTimer, reminder.At(9, 0), rule.NewNever(), now)
	r.IsActive = false
	return r
}

func TestPauseResumeKeepsRemaining(t *testing.T) {
	t.Parallel()
	r := newTimer(t)
	t0 := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	if err := Start(r, 10*time.Minute, t0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := StateOf(r); got != Active {
		t.Fatalf("state after start = %v, want Active", got)
	}

	// Pause at +3m freezes 7m of countdown.
	if err := Pause(r, t0.Add(3*time.Minute)); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if got := StateOf(r); got != Paused {
		t.Fatalf("state after pause = %v, want Paused", got)
	}
	if r.TimerPausedRemaining == nil || *r.TimerPausedRemaining != 7*time.Minute {
		t.Fatalf("paused remaining = %v, want 7m", r.TimerPausedRemaining)
	}
	if r.IsActive {
		t.Fatal("paused timer must not be active")
	}

	// Two minutes of wall time pass while paused; resuming at +5m still
	// leaves the full 7m.
	if err := Resume(r, t0.Add(5*time.Minute)); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if got := StateOf(r); got != Active {
		t.Fatalf("state after resume = %v, want Active", got)
	}
	if r.TimerPausedRemaining != nil {
		t.Fatal("resumed timer must clear the paused remainder")
	}
	if want := t0.Add(12 * time.Minute); r.EndDate == nil || !r.EndDate.Equal(want) {
		t.Fatalf("end date = %v, want %v", r.EndDate, want)
	}
	if got := Remaining(r, t0.Add(5*time.Minute)); got != 7*time.Minute {
		t.Fatalf("remaining = %v, want 7m", got)
	}
}

func TestPauseClampsNegativeRemaining(t *testing.T) {
	t.Parallel()
	r := newTimer(t)
	t0 := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	if err := Start(r, time.Minute, t0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := Pause(r, t0.Add(5*time.Minute)); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if *r.TimerPausedRemaining != 0 {
		t.Fatalf("remaining = %v, want 0", *r.TimerPausedRemaining)
	}
}

func TestLifecycleRejectsWrongState(t *testing.T) {
	t.Parallel()
	r := newTimer(t)
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	if err := Pause(r, now); !errors.Is(err, ErrNotActive) {
		t.Fatalf("Pause on finished timer = %v, want ErrNotActive", err)
	}
	if err := Resume(r, now); !errors.Is(err, ErrNotPaused) {
		t.Fatalf("Resume on finished timer = %v, want ErrNotPaused", err)
	}

	plain := reminder.New("water", reminder.KindWater, reminder.At(9, 0), rule.NewDaily(), now)
	if err := Start(plain, time.Minute, now); !errors.Is(err, ErrNoTimer) {
		t.Fatalf("Start on non-timer = %v, want ErrNoTimer", err)
	}
}

func TestRestartUsesConfiguredDuration(t *testing.T) {
	t.Parallel()
	r := newTimer(t)
	t0 := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	if err := Start(r, 10*time.Minute, t0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := Finish(r, t0.Add(time.Minute)); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if got := StateOf(r); got != Finished {
		t.Fatalf("state after finish = %v, want Finished", got)
	}
	if r.EndDate != nil {
		t.Fatalf("end date after finish = %v, want cleared", r.EndDate)
	}

	later := t0.Add(time.Hour)
	if err := Restart(r, later); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if want := later.Add(10 * time.Minute); r.EndDate == nil || !r.EndDate.Equal(want) {
		t.Fatalf("end date = %v, want %v", r.EndDate, want)
	}
}
