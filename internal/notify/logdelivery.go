package notify

import (
	"context"

	logx "remindd/pkg/logx"
)

// LogDelivery writes notifications to the log. It is the default
// transport when no Telegram chat is configured, and keeps the engine
// fully functional in development.
type LogDelivery struct {
	log logx.Logger
}

func NewLogDelivery(log logx.Logger) *LogDelivery {
	return &LogDelivery{log: log}
}

func (d *LogDelivery) Deliver(ctx context.Context, p Payload) error {
	d.log.Info("REMINDER "+p.Title,
		logx.String("body", p.Body),
		logx.String("reminder", p.ReminderID.String()),
		logx.String("kind", string(p.Kind)),
		logx.Bool("snooze", p.Snooze))
	return nil
}
