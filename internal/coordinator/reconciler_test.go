package coordinator

import (
	"context"
	"testing"
	"time"

	"remindd/internal/reminder"
	"remindd/internal/rule"
	"remindd/internal/timer"
	logx "remindd/pkg/logx"
)

func TestSweepDeactivatesExpiredOneShots(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	rec := NewReconciler(f.coord, logx.Nop())
	ctx := context.Background()

	expired := reminder.New("dentist", reminder.KindCustom, reminder.At(9, 0), rule.NewNever(), now.AddDate(0, 0, -1))
	expired.NotificationID = "stale"
	pendingOneShot := reminder.New("call bank", reminder.KindCustom, reminder.At(15, 0), rule.NewNever(), now)
	repeating := dailyReminder(now.AddDate(0, 0, -10))
	for _, r := range []*reminder.Reminder{expired, pendingOneShot, repeating} {
		if err := f.store.SaveReminder(ctx, r); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	if err := rec.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	got, err := f.store.GetReminder(ctx, expired.ID)
	if err != nil {
		t.Fatalf("GetReminder: %v", err)
	}
	if got.IsActive || got.NotificationID != "" {
		t.Fatalf("expired one-shot not retired: active=%v handle=%q", got.IsActive, got.NotificationID)
	}

	for _, r := range []*reminder.Reminder{pendingOneShot, repeating} {
		got, err := f.store.GetReminder(ctx, r.ID)
		if err != nil {
			t.Fatalf("GetReminder: %v", err)
		}
		if !got.IsActive {
			t.Fatalf("%q must stay active", got.Title)
		}
	}
}

func TestSweepFiresTimerExpiryOnce(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, t0)
	rec := NewReconciler(f.coord, logx.Nop())
	ctx := context.Background()

	var expiries int
	rec.OnExpired(func(*reminder.Reminder) { expiries++ })

	tea := reminder.New("tea", reminder.KindTimer, reminder.At(9, 0), rule.NewNever(), t0)
	tea.IsActive = false
	if err := timer.Start(tea, 10*time.Minute, t0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.store.SaveReminder(ctx, tea); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Countdown still running: nothing expires.
	if err := rec.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if expiries != 0 {
		t.Fatalf("expiries = %d before the countdown ended", expiries)
	}

	f.clock.Set(t0.Add(11 * time.Minute))
	if err := rec.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if expiries != 1 {
		t.Fatalf("expiries = %d, want 1", expiries)
	}

	// The first sweep flipped it inactive, so the event never repeats.
	if err := rec.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if expiries != 1 {
		t.Fatalf("expiries = %d after second sweep, want still 1", expiries)
	}
}

func TestSweepSkipsPausedTimers(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, t0)
	rec := NewReconciler(f.coord, logx.Nop())
	ctx := context.Background()

	tea := reminder.New("tea", reminder.KindTimer, reminder.At(9, 0), rule.NewNever(), t0)
	tea.IsActive = false
	if err := timer.Start(tea, 10*time.Minute, t0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := timer.Pause(tea, t0.Add(time.Minute)); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := f.store.SaveReminder(ctx, tea); err != nil {
		t.Fatalf("save: %v", err)
	}

	f.clock.Set(t0.Add(time.Hour))
	if err := rec.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	got, err := f.store.GetReminder(ctx, tea.ID)
	if err != nil {
		t.Fatalf("GetReminder: %v", err)
	}
	if got.TimerPausedRemaining == nil {
		t.Fatal("paused countdown must survive the sweep untouched")
	}
}
