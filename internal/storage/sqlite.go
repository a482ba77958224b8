package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"remindd/internal/reminder"
	logx "remindd/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA foreign_keys = ON")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) SaveReminder(ctx context.Context, r *reminder.Reminder) error {
	ruleJSON, rruleStr, err := ruleColumns(r.Repeat)
	if err != nil {
		return err
	}
	var pausedMS any
	if r.TimerPausedRemaining != nil {
		pausedMS = r.TimerPausedRemaining.Milliseconds()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reminders(
			id, title, notes, kind, is_active, created_at, updated_at,
			time_hour, time_minute, start_date, end_date, repeat_rule, repeat_rrule,
			exclude_holidays, notification_id, snooze_count, last_triggered,
			timer_duration_ms, timer_paused_ms
		) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, notes=excluded.notes, kind=excluded.kind,
			is_active=excluded.is_active, updated_at=excluded.updated_at,
			time_hour=excluded.time_hour, time_minute=excluded.time_minute,
			start_date=excluded.start_date, end_date=excluded.end_date,
			repeat_rule=excluded.repeat_rule, repeat_rrule=excluded.repeat_rrule,
			exclude_holidays=excluded.exclude_holidays,
			notification_id=excluded.notification_id, snooze_count=excluded.snooze_count,
			last_triggered=excluded.last_triggered,
			timer_duration_ms=excluded.timer_duration_ms,
			timer_paused_ms=excluded.timer_paused_ms`,
		r.ID.String(), r.Title, r.Notes, string(r.Kind), r.IsActive,
		fmtTime(r.CreatedAt), fmtTime(r.UpdatedAt),
		r.TimeOfDay.Hour, r.TimeOfDay.Minute,
		fmtTime(r.StartDate), fmtTimePtr(r.EndDate), ruleJSON, rruleStr,
		r.ExcludeHolidays, r.NotificationID, r.SnoozeCount, fmtTimePtr(r.LastTriggered),
		r.TimerDuration.Milliseconds(), pausedMS,
	)
	return err
}

const reminderColumns = `id, title, notes, kind, is_active, created_at, updated_at,
	time_hour, time_minute, start_date, end_date, repeat_rule, repeat_rrule,
	exclude_holidays, notification_id, snooze_count, last_triggered,
	timer_duration_ms, timer_paused_ms`

func (s *sqliteStore) GetReminder(ctx context.Context, id uuid.UUID) (*reminder.Reminder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id.String())
	r, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *sqliteStore) ListReminders(ctx context.Context) ([]*reminder.Reminder, error) {
	return s.query(ctx, `SELECT `+reminderColumns+` FROM reminders ORDER BY created_at`)
}

func (s *sqliteStore) ListActive(ctx context.Context) ([]*reminder.Reminder, error) {
	return s.query(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE is_active = 1 ORDER BY created_at`)
}

func (s *sqliteStore) query(ctx context.Context, q string, args ...any) ([]*reminder.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*reminder.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) DeleteReminder(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) AppendLog(ctx context.Context, l reminder.TriggerLog) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trigger_logs(id, reminder_id, at, action, notes) VALUES(?,?,?,?,?)`,
		l.ID.String(), l.ReminderID.String(), fmtTime(l.At), string(l.Action), l.Notes)
	return err
}

func (s *sqliteStore) ListLogs(ctx context.Context, reminderID uuid.UUID) ([]reminder.TriggerLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, reminder_id, at, action, notes FROM trigger_logs WHERE reminder_id = ? ORDER BY at`,
		reminderID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reminder.TriggerLog
	for rows.Next() {
		var (
			l            reminder.TriggerLog
			idStr, remID string
			atStr        string
			action       string
		)
		if err := rows.Scan(&idStr, &remID, &atStr, &action, &l.Notes); err != nil {
			return nil, err
		}
		if l.ID, err = uuid.Parse(idStr); err != nil {
			return nil, err
		}
		if l.ReminderID, err = uuid.Parse(remID); err != nil {
			return nil, err
		}
		if l.At, err = parseTime(atStr); err != nil {
			return nil, err
		}
		l.Action = reminder.LogAction(action)
		out = append(out, l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (*reminder.Reminder, error) {
	var (
		r                 reminder.Reminder
		idStr             string
		kind              string
		createdStr        string
		updatedStr        string
		startStr          string
		endStr            sql.NullString
		ruleJSON          string
		rruleStr          string
		lastTriggeredStr  sql.NullString
		timerDurMS        int64
		pausedMS          sql.NullInt64
	)
	err := row.Scan(
		&idStr, &r.Title, &r.Notes, &kind, &r.IsActive, &createdStr, &updatedStr,
		&r.TimeOfDay.Hour, &r.TimeOfDay.Minute, &startStr, &endStr, &ruleJSON, &rruleStr,
		&r.ExcludeHolidays, &r.NotificationID, &r.SnoozeCount, &lastTriggeredStr,
		&timerDurMS, &pausedMS,
	)
	if err != nil {
		return nil, err
	}
	if r.ID, err = uuid.Parse(idStr); err != nil {
		return nil, err
	}
	r.Kind = reminder.Kind(kind)
	if r.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return nil, err
	}
	if r.StartDate, err = parseTime(startStr); err != nil {
		return nil, err
	}
	if endStr.Valid {
		t, err := parseTime(endStr.String)
		if err != nil {
			return nil, err
		}
		r.EndDate = &t
	}
	if r.Repeat, err = decodeRule(ruleJSON, rruleStr); err != nil {
		return nil, err
	}
	if lastTriggeredStr.Valid {
		t, err := parseTime(lastTriggeredStr.String)
		if err != nil {
			return nil, err
		}
		r.LastTriggered = &t
	}
	r.TimerDuration = time.Duration(timerDurMS) * time.Millisecond
	if pausedMS.Valid {
		d := time.Duration(pausedMS.Int64) * time.Millisecond
		r.TimerPausedRemaining = &d
	}
	return &r, nil
}

func fmtTime(t time.Time) string { return t.Format(time.RFC3339Nano) }

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
