// Package notify owns the notification sink boundary: the coordinator
// asks for "deliver this payload at this instant" and gets back an
// opaque handle it can later cancel. The in-process sink delivers
// through a pluggable transport (Telegram, or just the log).
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"remindd/internal/reminder"
)

// ErrUnavailable means the sink could not accept or deliver; callers
// surface it for corrective action and may retry later.
var ErrUnavailable = errors.New("notification sink unavailable")

// Payload is what the user eventually sees, plus correlation data for
// handling their response.
type Payload struct {
	Title      string
	Body       string
	ReminderID uuid.UUID
	Kind       reminder.Kind
	Snooze     bool // follow-up scheduled outside the recurrence rule
}

// PayloadFor builds the standard payload for a reminder, mirroring the
// notification text conventions: kind emoji in the title, a "time's up"
// body for timers.
func PayloadFor(r *reminder.Reminder) Payload {
	body := "It's time: " + r.Title
	if r.Kind.IsTimer() {
		body = "Time's up!"
	}
	return Payload{
		Title:      r.Kind.Emoji() + " " + r.Title,
		Body:       body,
		ReminderID: r.ID,
		Kind:       r.Kind,
	}
}

// Sink schedules and withdraws future notifications.
//
// Schedule returns an opaque handle; the same id scheduled again yields
// a new handle (callers cancel the old one first to keep at most one
// outstanding notification per reminder).
type Sink interface {
	Schedule(ctx context.Context, id string, at time.Time, p Payload) (handle string, err error)
	Cancel(ctx context.Context, handle string) error
	CancelAll(ctx context.Context) error
}

// Delivery is the transport behind the in-process sink.
type Delivery interface {
	Deliver(ctx context.Context, p Payload) error
}

// DeliveryFunc adapts a function to Delivery.
type DeliveryFunc func(ctx context.Context, p Payload) error

func (f DeliveryFunc) Deliver(ctx context.Context, p Payload) error { return f(ctx, p) }
