// Package storage persists reminders and their trigger logs. The engine
// only sees the Store interface; backends are selected by config.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"remindd/internal/reminder"
)

var ErrNotFound = errors.New("reminder not found")

// Config selects and configures a backend.
//
// Driver values:
//   - "memory": process-lifetime only (default when empty)
//   - "sqlite": SQLite database file
//   - "postgres": PostgreSQL via DSN
type Config struct {
	Driver      string
	Path        string        // sqlite only
	DSN         string        // postgres only
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the persistence API used by the coordinator and reconciler.
//
// SaveReminder is an upsert. DeleteReminder cascades the reminder's
// trigger logs. Log entries are append-only and never updated.
type Store interface {
	SaveReminder(ctx context.Context, r *reminder.Reminder) error
	GetReminder(ctx context.Context, id uuid.UUID) (*reminder.Reminder, error)
	ListReminders(ctx context.Context) ([]*reminder.Reminder, error)
	ListActive(ctx context.Context) ([]*reminder.Reminder, error)
	DeleteReminder(ctx context.Context, id uuid.UUID) error

	AppendLog(ctx context.Context, l reminder.TriggerLog) error
	ListLogs(ctx context.Context, reminderID uuid.UUID) ([]reminder.TriggerLog, error)

	Close() error
}
