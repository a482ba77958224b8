package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"remindd/internal/reminder"
	"remindd/internal/rule"
	logx "remindd/pkg/logx"
)

// openStores returns every store implementation the suite exercises.
// Postgres needs a live server and is covered by its own deployment
// checks instead.
func openStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := Open(context.Background(), Config{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "remindd.db"),
		BusyTimeout: time.Second,
	}, logx.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func sampleReminder(t *testing.T) *reminder.Reminder {
	t.Helper()
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	weekly, err := rule.NewWeekly(rule.Monday, rule.Friday)
	if err != nil {
		t.Fatalf("NewWeekly: %v", err)
	}
	r := reminder.New("stretch", reminder.KindExercise, reminder.At(9, 30), weekly, now)
	r.Notes = "neck and shoulders"
	r.ExcludeHolidays = true
	end := now.AddDate(0, 6, 0)
	r.EndDate = &end
	last := now.Add(-24 * time.Hour)
	r.LastTriggered = &last
	r.SnoozeCount = 2
	r.NotificationID = "handle-1"
	return r
}

func TestReminderRoundTrip(t *testing.T) {
	t.Parallel()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := sampleReminder(t)
			if err := store.SaveReminder(ctx, want); err != nil {
				t.Fatalf("SaveReminder: %v", err)
			}

			got, err := store.GetReminder(ctx, want.ID)
			if err != nil {
				t.Fatalf("GetReminder: %v", err)
			}
			if got.Title != want.Title || got.Notes != want.Notes || got.Kind != want.Kind {
				t.Fatalf("basic fields differ: %+v", got)
			}
			if !got.Repeat.Same(want.Repeat) {
				t.Fatalf("rule differs: %+v vs %+v", got.Repeat, want.Repeat)
			}
			if got.TimeOfDay != want.TimeOfDay {
				t.Fatalf("time of day %v, want %v", got.TimeOfDay, want.TimeOfDay)
			}
			if !got.ExcludeHolidays || got.SnoozeCount != 2 || got.NotificationID != "handle-1" {
				t.Fatalf("scheduling fields differ: %+v", got)
			}
			if got.EndDate == nil || !got.EndDate.Equal(*want.EndDate) {
				t.Fatalf("end date %v, want %v", got.EndDate, want.EndDate)
			}
			if got.LastTriggered == nil || !got.LastTriggered.Equal(*want.LastTriggered) {
				t.Fatalf("last triggered %v, want %v", got.LastTriggered, want.LastTriggered)
			}
		})
	}
}

func TestSaveReminderUpserts(t *testing.T) {
	t.Parallel()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := sampleReminder(t)
			if err := store.SaveReminder(ctx, r); err != nil {
				t.Fatalf("insert: %v", err)
			}
			r.Title = "stretch (updated)"
			r.IsActive = false
			r.NotificationID = ""
			if err := store.SaveReminder(ctx, r); err != nil {
				t.Fatalf("update: %v", err)
			}

			got, err := store.GetReminder(ctx, r.ID)
			if err != nil {
				t.Fatalf("GetReminder: %v", err)
			}
			if got.Title != "stretch (updated)" || got.IsActive || got.NotificationID != "" {
				t.Fatalf("update not applied: %+v", got)
			}

			all, err := store.ListReminders(ctx)
			if err != nil {
				t.Fatalf("ListReminders: %v", err)
			}
			if len(all) != 1 {
				t.Fatalf("reminders = %d, want 1 after upsert", len(all))
			}
		})
	}
}

func TestListActiveFilters(t *testing.T) {
	t.Parallel()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			active := sampleReminder(t)
			inactive := sampleReminder(t)
			inactive.ID = uuid.New()
			inactive.IsActive = false
			for _, r := range []*reminder.Reminder{active, inactive} {
				if err := store.SaveReminder(ctx, r); err != nil {
					t.Fatalf("save: %v", err)
				}
			}

			got, err := store.ListActive(ctx)
			if err != nil {
				t.Fatalf("ListActive: %v", err)
			}
			if len(got) != 1 || got[0].ID != active.ID {
				t.Fatalf("ListActive = %d entries, want just the active one", len(got))
			}
		})
	}
}

func TestDeleteCascadesLogs(t *testing.T) {
	t.Parallel()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := sampleReminder(t)
			if err := store.SaveReminder(ctx, r); err != nil {
				t.Fatalf("save: %v", err)
			}
			entry := reminder.TriggerLog{
				ID:         uuid.New(),
				ReminderID: r.ID,
				At:         time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC),
				Action:     reminder.LogSnoozed,
				Notes:      "later",
			}
			if err := store.AppendLog(ctx, entry); err != nil {
				t.Fatalf("AppendLog: %v", err)
			}

			logs, err := store.ListLogs(ctx, r.ID)
			if err != nil {
				t.Fatalf("ListLogs: %v", err)
			}
			if len(logs) != 1 || logs[0].Action != reminder.LogSnoozed || logs[0].Notes != "later" {
				t.Fatalf("logs = %+v", logs)
			}

			if err := store.DeleteReminder(ctx, r.ID); err != nil {
				t.Fatalf("DeleteReminder: %v", err)
			}
			if _, err := store.GetReminder(ctx, r.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("GetReminder after delete = %v, want ErrNotFound", err)
			}
			logs, err = store.ListLogs(ctx, r.ID)
			if err != nil {
				t.Fatalf("ListLogs after delete: %v", err)
			}
			if len(logs) != 0 {
				t.Fatalf("logs survived the cascade: %+v", logs)
			}

			if err := store.DeleteReminder(ctx, r.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("second delete = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestRepeatRuleRRuleColumn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st, err := Open(ctx, Config{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "remindd.db"),
	}, logx.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	sq := st.(*sqliteStore)

	r := sampleReminder(t)
	if err := st.SaveReminder(ctx, r); err != nil {
		t.Fatalf("SaveReminder: %v", err)
	}

	// Saving renders the rule as an RRULE alongside the JSON form.
	var stored string
	if err := sq.db.QueryRowContext(ctx,
		`SELECT repeat_rrule FROM reminders WHERE id = ?`, r.ID.String()).Scan(&stored); err != nil {
		t.Fatalf("read repeat_rrule: %v", err)
	}
	want, err := r.Repeat.RRule()
	if err != nil {
		t.Fatalf("RRule: %v", err)
	}
	if stored != want {
		t.Fatalf("repeat_rrule = %q, want %q", stored, want)
	}

	// A row written by calendar tooling may carry only the RRULE form.
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	imported := uuid.New()
	if _, err := sq.db.ExecContext(ctx, `
		INSERT INTO reminders(id, title, kind, created_at, updated_at,
			time_hour, time_minute, start_date, repeat_rule, repeat_rrule)
		VALUES(?,?,?,?,?,?,?,?,?,?)`,
		imported.String(), "imported", string(reminder.KindCustom),
		fmtTime(now), fmtTime(now), 9, 0, fmtTime(now), "", "FREQ=DAILY"); err != nil {
		t.Fatalf("insert imported row: %v", err)
	}
	got, err := st.GetReminder(ctx, imported)
	if err != nil {
		t.Fatalf("GetReminder: %v", err)
	}
	if !got.Repeat.Same(rule.NewDaily()) {
		t.Fatalf("imported rule = %+v, want daily", got.Repeat)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(context.Background(), Config{Driver: "cassandra"}, logx.Nop()); err == nil {
		t.Fatal("expected an error for an unknown driver")
	}
}
