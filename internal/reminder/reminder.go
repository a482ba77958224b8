// Package reminder holds the reminder aggregate and its append-only
// trigger log. The coordinator is the only writer of the notification
// handle and timer fields; everything else treats a Reminder as data.
package reminder

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"remindd/internal/rule"
)

// Kind categorizes a reminder. It only affects notification payload text
// and two scheduling special cases: todo reminders are never scheduled,
// and timer reminders are driven by the countdown lifecycle instead of
// the recurrence search.
type Kind string

const (
	KindWater    Kind = "water"
	KindMeal     Kind = "meal"
	KindCooking  Kind = "cooking"
	KindRest     Kind = "rest"
	KindSleep    Kind = "sleep"
	KindMedicine Kind = "medicine"
	KindExercise Kind = "exercise"
	KindTodo     Kind = "todo"
	KindCustom   Kind = "custom"
	KindTimer    Kind = "timer"
)

func (k Kind) IsTimer() bool { return k == KindTimer }

// Schedulable reports whether the recurrence engine schedules
// notifications for this kind.
func (k Kind) Schedulable() bool { return k != KindTodo && k != KindTimer }

func (k Kind) Emoji() string {
	switch k {
	case KindWater:
		return "💧"
	case KindMeal:
		return "🍽️"
	case KindCooking:
		return "🍳"
	case KindRest:
		return "🧘"
	case KindSleep:
		return "😴"
	case KindMedicine:
		return "💊"
	case KindExercise:
		return "🏃"
	case KindTodo:
		return "✅"
	case KindTimer:
		return "⏰"
	default:
		return "📝"
	}
}

// TimeOfDay is the date-agnostic firing time.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func At(hour, minute int) TimeOfDay { return TimeOfDay{Hour: hour, Minute: minute} }

// TimeOfDayOf keeps only the hour and minute of t.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// On combines the time of day with the calendar day of the given instant,
// in that instant's location.
func (td TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), td.Hour, td.Minute, 0, 0, day.Location())
}

func (td TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", td.Hour, td.Minute) }

// Reminder is the scheduling-relevant aggregate.
type Reminder struct {
	ID        uuid.UUID
	Title     string
	Notes     string
	Kind      Kind
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time

	TimeOfDay       TimeOfDay
	StartDate       time.Time
	EndDate         *time.Time // inclusive search ceiling; nil means one year
	Repeat          rule.Rule
	ExcludeHolidays bool

	// NotificationID is the opaque sink handle of the one outstanding
	// notification, empty when none. Written only by the coordinator.
	NotificationID string
	SnoozeCount    int
	LastTriggered  *time.Time

	// Countdown fields, timer kind only. TimerPausedRemaining is non-nil
	// exactly while paused.
	TimerDuration        time.Duration
	TimerPausedRemaining *time.Duration
}

// New creates an active reminder starting now.
func New(title string, kind Kind, tod TimeOfDay, r rule.Rule, now time.Time) *Reminder {
	return &Reminder{
		ID:        uuid.New(),
		Title:     title,
		Kind:      kind,
		TimeOfDay: tod,
		Repeat:    r,
		IsActive:  true,
		StartDate: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Response is how a user answered a delivered notification.
type Response string

const (
	ResponseCompleted    Response = "completed"
	ResponseSnoozed      Response = "snoozed"
	ResponseAcknowledged Response = "acknowledged"
	ResponseSkipped      Response = "skipped"
)

// LogAction is the recorded event type of a TriggerLog entry.
type LogAction string

const (
	LogTriggered    LogAction = "triggered"
	LogAcknowledged LogAction = "acknowledged"
	LogSnoozed      LogAction = "snoozed"
	LogSkipped      LogAction = "skipped"
	LogCompleted    LogAction = "completed"
)

// LogActionFor maps a user response to the log entry it produces.
func LogActionFor(resp Response) LogAction {
	switch resp {
	case ResponseCompleted:
		return LogCompleted
	case ResponseSnoozed:
		return LogSnoozed
	case ResponseSkipped:
		return LogSkipped
	default:
		return LogAcknowledged
	}
}

// TriggerLog is one append-only history entry. Entries are created by the
// coordinator, never mutated, and removed only when the owning reminder
// is deleted.
type TriggerLog struct {
	ID         uuid.UUID
	ReminderID uuid.UUID
	At         time.Time
	Action     LogAction
	Notes      string
}
