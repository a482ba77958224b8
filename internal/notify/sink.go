package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	logx "remindd/pkg/logx"
)

const deliverTimeout = 30 * time.Second

// TimerSink is an in-process Sink: each scheduled notification is a
// time.Timer that fires the delivery transport. Deliveries are rate
// limited so a burst of simultaneous triggers cannot flood the
// transport.
type TimerSink struct {
	log      logx.Logger
	delivery Delivery
	limiter  *rate.Limiter

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewTimerSink wires a sink to its transport. ratePerSec <= 0 defaults
// to 3 deliveries per second (burst equal to the rate, so short spikes
// don't block too hard).
func NewTimerSink(delivery Delivery, ratePerSec int, log logx.Logger) *TimerSink {
	if ratePerSec <= 0 {
		ratePerSec = 3
	}
	return &TimerSink{
		log:      log,
		delivery: delivery,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		timers:   map[string]*time.Timer{},
	}
}

// Schedule arms a timer firing at the given instant. An instant already
// in the past fires immediately.
func (s *TimerSink) Schedule(ctx context.Context, id string, at time.Time, p Payload) (string, error) {
	if s.delivery == nil {
		return "", fmt.Errorf("%w: no delivery transport", ErrUnavailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", fmt.Errorf("%w: sink closed", ErrUnavailable)
	}

	handle := id + ":" + uuid.NewString()
	t := time.AfterFunc(time.Until(at), func() {
		s.fire(handle, p)
	})
	s.timers[handle] = t

	s.log.Debug("notification scheduled",
		logx.String("handle", handle), logx.Time("at", at))
	return handle, nil
}

func (s *TimerSink) fire(handle string, p Payload) {
	s.mu.Lock()
	delete(s.timers, handle)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		s.log.Warn("notification dropped waiting on rate limit",
			logx.String("handle", handle), logx.Err(err))
		return
	}
	if err := s.delivery.Deliver(ctx, p); err != nil {
		s.log.Warn("notification delivery failed",
			logx.String("handle", handle), logx.Err(err))
		return
	}
	s.log.Info("notification delivered",
		logx.String("reminder", p.ReminderID.String()), logx.Bool("snooze", p.Snooze))
}

// Cancel disarms a pending notification. Cancelling an unknown or
// already-fired handle is a no-op.
func (s *TimerSink) Cancel(ctx context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[handle]; ok {
		t.Stop()
		delete(s.timers, handle)
		s.log.Debug("notification cancelled", logx.String("handle", handle))
	}
	return nil
}

// CancelAll disarms every pending notification.
func (s *TimerSink) CancelAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, t := range s.timers {
		t.Stop()
		delete(s.timers, h)
	}
	return nil
}

// Pending reports how many notifications are armed.
func (s *TimerSink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Test delivers a payload immediately, bypassing scheduling. Used by the
// daemon's startup self-check.
func (s *TimerSink) Test(ctx context.Context, p Payload) error {
	if s.delivery == nil {
		return fmt.Errorf("%w: no delivery transport", ErrUnavailable)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.delivery.Deliver(ctx, p)
}

// Close disarms everything and rejects further scheduling.
func (s *TimerSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for h, t := range s.timers {
		t.Stop()
		delete(s.timers, h)
	}
	return nil
}
