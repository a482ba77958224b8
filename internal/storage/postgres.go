package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"remindd/internal/reminder"
	logx "remindd/pkg/logx"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS reminders (
    id               UUID PRIMARY KEY,
    title            TEXT NOT NULL,
    notes            TEXT NOT NULL DEFAULT '',
    kind             TEXT NOT NULL,
    is_active        BOOLEAN NOT NULL DEFAULT FALSE,
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL,
    time_hour        INT NOT NULL,
    time_minute      INT NOT NULL,
    start_date       TIMESTAMPTZ NOT NULL,
    end_date         TIMESTAMPTZ,
    repeat_rule      JSONB NOT NULL,
    repeat_rrule     TEXT NOT NULL DEFAULT '',
    exclude_holidays BOOLEAN NOT NULL DEFAULT FALSE,
    notification_id  TEXT NOT NULL DEFAULT '',
    snooze_count     INT NOT NULL DEFAULT 0,
    last_triggered   TIMESTAMPTZ,
    timer_duration_ms BIGINT NOT NULL DEFAULT 0,
    timer_paused_ms  BIGINT
);

CREATE INDEX IF NOT EXISTS idx_reminders_active ON reminders(is_active);

CREATE TABLE IF NOT EXISTS trigger_logs (
    id          UUID PRIMARY KEY,
    reminder_id UUID NOT NULL REFERENCES reminders(id) ON DELETE CASCADE,
    at          TIMESTAMPTZ NOT NULL,
    action      TEXT NOT NULL,
    notes       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_trigger_logs_reminder ON trigger_logs(reminder_id);
`

type postgresStore struct {
	pool *pgxpool.Pool
	log  logx.Logger
}

func openPostgres(ctx context.Context, cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	return &postgresStore{pool: pool, log: log}, nil
}

func (s *postgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *postgresStore) SaveReminder(ctx context.Context, r *reminder.Reminder) error {
	ruleJSON, rruleStr, err := ruleColumns(r.Repeat)
	if err != nil {
		return err
	}
	var pausedMS *int64
	if r.TimerPausedRemaining != nil {
		v := r.TimerPausedRemaining.Milliseconds()
		pausedMS = &v
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO reminders(
			id, title, notes, kind, is_active, created_at, updated_at,
			time_hour, time_minute, start_date, end_date, repeat_rule, repeat_rrule,
			exclude_holidays, notification_id, snooze_count, last_triggered,
			timer_duration_ms, timer_paused_ms
		) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		ON CONFLICT(id) DO UPDATE SET
			title=EXCLUDED.title, notes=EXCLUDED.notes, kind=EXCLUDED.kind,
			is_active=EXCLUDED.is_active, updated_at=EXCLUDED.updated_at,
			time_hour=EXCLUDED.time_hour, time_minute=EXCLUDED.time_minute,
			start_date=EXCLUDED.start_date, end_date=EXCLUDED.end_date,
			repeat_rule=EXCLUDED.repeat_rule, repeat_rrule=EXCLUDED.repeat_rrule,
			exclude_holidays=EXCLUDED.exclude_holidays,
			notification_id=EXCLUDED.notification_id, snooze_count=EXCLUDED.snooze_count,
			last_triggered=EXCLUDED.last_triggered,
			timer_duration_ms=EXCLUDED.timer_duration_ms,
			timer_paused_ms=EXCLUDED.timer_paused_ms`,
		r.ID, r.Title, r.Notes, string(r.Kind), r.IsActive, r.CreatedAt, r.UpdatedAt,
		r.TimeOfDay.Hour, r.TimeOfDay.Minute, r.StartDate, r.EndDate, []byte(ruleJSON), rruleStr,
		r.ExcludeHolidays, r.NotificationID, r.SnoozeCount, r.LastTriggered,
		r.TimerDuration.Milliseconds(), pausedMS,
	)
	return err
}

const pgReminderColumns = `id, title, notes, kind, is_active, created_at, updated_at,
	time_hour, time_minute, start_date, end_date, repeat_rule, repeat_rrule,
	exclude_holidays, notification_id, snooze_count, last_triggered,
	timer_duration_ms, timer_paused_ms`

func (s *postgresStore) GetReminder(ctx context.Context, id uuid.UUID) (*reminder.Reminder, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgReminderColumns+` FROM reminders WHERE id = $1`, id)
	r, err := scanPGReminder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *postgresStore) ListReminders(ctx context.Context) ([]*reminder.Reminder, error) {
	return s.query(ctx, `SELECT `+pgReminderColumns+` FROM reminders ORDER BY created_at`)
}

func (s *postgresStore) ListActive(ctx context.Context) ([]*reminder.Reminder, error) {
	return s.query(ctx, `SELECT `+pgReminderColumns+` FROM reminders WHERE is_active ORDER BY created_at`)
}

func (s *postgresStore) query(ctx context.Context, q string, args ...any) ([]*reminder.Reminder, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*reminder.Reminder
	for rows.Next() {
		r, err := scanPGReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *postgresStore) DeleteReminder(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *postgresStore) AppendLog(ctx context.Context, l reminder.TriggerLog) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO trigger_logs(id, reminder_id, at, action, notes) VALUES($1,$2,$3,$4,$5)`,
		l.ID, l.ReminderID, l.At, string(l.Action), l.Notes)
	return err
}

func (s *postgresStore) ListLogs(ctx context.Context, reminderID uuid.UUID) ([]reminder.TriggerLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, reminder_id, at, action, notes FROM trigger_logs WHERE reminder_id = $1 ORDER BY at`,
		reminderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reminder.TriggerLog
	for rows.Next() {
		var (
			l      reminder.TriggerLog
			action string
		)
		if err := rows.Scan(&l.ID, &l.ReminderID, &l.At, &action, &l.Notes); err != nil {
			return nil, err
		}
		l.Action = reminder.LogAction(action)
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanPGReminder(row pgx.Row) (*reminder.Reminder, error) {
	var (
		r          reminder.Reminder
		kind       string
		ruleJSON   []byte
		rruleStr   string
		timerDurMS int64
		pausedMS   *int64
	)
	err := row.Scan(
		&r.ID, &r.Title, &r.Notes, &kind, &r.IsActive, &r.CreatedAt, &r.UpdatedAt,
		&r.TimeOfDay.Hour, &r.TimeOfDay.Minute, &r.StartDate, &r.EndDate, &ruleJSON, &rruleStr,
		&r.ExcludeHolidays, &r.NotificationID, &r.SnoozeCount, &r.LastTriggered,
		&timerDurMS, &pausedMS,
	)
	if err != nil {
		return nil, err
	}
	r.Kind = reminder.Kind(kind)
	if r.Repeat, err = decodeRule(string(ruleJSON), rruleStr); err != nil {
		return nil, err
	}
	r.TimerDuration = time.Duration(timerDurMS) * time.Millisecond
	if pausedMS != nil {
		d := time.Duration(*pausedMS) * time.Millisecond
		r.TimerPausedRemaining = &d
	}
	return &r, nil
}
