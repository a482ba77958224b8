package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"remindd/internal/reminder"
	"remindd/internal/rule"
)

// memoryStore keeps everything in maps. It backs the "memory" driver and
// the engine tests. Values are copied on the way in and out so callers
// can't alias store state.
type memoryStore struct {
	mu        sync.Mutex
	reminders map[uuid.UUID]reminder.Reminder
	logs      map[uuid.UUID][]reminder.TriggerLog
}

func NewMemory() Store {
	return &memoryStore{
		reminders: map[uuid.UUID]reminder.Reminder{},
		logs:      map[uuid.UUID][]reminder.TriggerLog{},
	}
}

func (s *memoryStore) SaveReminder(ctx context.Context, r *reminder.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminders[r.ID] = cloneReminder(r)
	return nil
}

func (s *memoryStore) GetReminder(ctx context.Context, id uuid.UUID) (*reminder.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneReminder(&r)
	return &cp, nil
}

func (s *memoryStore) ListReminders(ctx context.Context) ([]*reminder.Reminder, error) {
	return s.list(func(reminder.Reminder) bool { return true })
}

func (s *memoryStore) ListActive(ctx context.Context) ([]*reminder.Reminder, error) {
	return s.list(func(r reminder.Reminder) bool { return r.IsActive })
}

func (s *memoryStore) list(keep func(reminder.Reminder) bool) ([]*reminder.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*reminder.Reminder
	for _, r := range s.reminders {
		if keep(r) {
			cp := cloneReminder(&r)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) DeleteReminder(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reminders[id]; !ok {
		return ErrNotFound
	}
	delete(s.reminders, id)
	delete(s.logs, id) // cascade
	return nil
}

func (s *memoryStore) AppendLog(ctx context.Context, l reminder.TriggerLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[l.ReminderID] = append(s.logs[l.ReminderID], l)
	return nil
}

func (s *memoryStore) ListLogs(ctx context.Context, reminderID uuid.UUID) ([]reminder.TriggerLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]reminder.TriggerLog(nil), s.logs[reminderID]...), nil
}

func (s *memoryStore) Close() error { return nil }

func cloneReminder(r *reminder.Reminder) reminder.Reminder {
	cp := *r
	if r.EndDate != nil {
		v := *r.EndDate
		cp.EndDate = &v
	}
	if r.LastTriggered != nil {
		v := *r.LastTriggered
		cp.LastTriggered = &v
	}
	if r.TimerPausedRemaining != nil {
		v := *r.TimerPausedRemaining
		cp.TimerPausedRemaining = &v
	}
	if r.Repeat.Weekdays != nil {
		cp.Repeat.Weekdays = append([]rule.Weekday(nil), r.Repeat.Weekdays...)
	}
	return cp
}
