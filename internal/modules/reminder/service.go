// README: Reminder service schedules one-shot reminders and runs the firing loop.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pizzabot/internal/metrics"
)

const batchSize = 100

type Queue interface {
	Put(ctx context.Context, userKey string, fireAt time.Time) error
	Due(ctx context.Context, now time.Time, limit int64) ([]string, error)
	Claim(ctx context.Context, userKey string, now time.Time) (bool, error)
}

// Notifier delivers the reminder text to a user.
type Notifier interface {
	Remind(ctx context.Context, userKey string) error
}

type Service struct {
	queue       Queue
	notifier    Notifier
	tick        time.Duration
	sendTimeout time.Duration
	log         *slog.Logger
	now         func() time.Time
}

func NewService(queue Queue, tick, sendTimeout time.Duration, log *slog.Logger) *Service {
	return &Service{queue: queue, tick: tick, sendTimeout: sendTimeout, log: log, now: time.Now}
}

// SetNotifier wires the sender after construction; the engine that sends
// reminders also schedules them, so the two depend on each other.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Service) Schedule(ctx context.Context, userKey string, delay time.Duration) error {
	if err := s.queue.Put(ctx, userKey, s.now().Add(delay)); err != nil {
		return fmt.Errorf("schedule reminder for %s: %w", userKey, err)
	}
	return nil
}

func (s *Service) RunScheduler(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fireDue(ctx)
		}
	}
}

// fireDue sends every due reminder once. Failures are logged and dropped.
func (s *Service) fireDue(ctx context.Context) {
	now := s.now()
	keys, err := s.queue.Due(ctx, now, batchSize)
	if err != nil {
		s.log.Error("reminder poll failed", "err", err)
		return
	}
	for _, key := range keys {
		claimed, err := s.queue.Claim(ctx, key, now)
		if err != nil {
			s.log.Error("reminder claim failed", "session", key, "err", err)
			continue
		}
		if !claimed {
			continue
		}
		s.send(ctx, key)
	}
}

func (s *Service) send(ctx context.Context, key string) {
	if s.notifier == nil {
		s.log.Error("reminder dropped: no notifier", "session", key)
		metrics.RemindersFired.WithLabelValues("dropped").Inc()
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	if err := s.notifier.Remind(sendCtx, key); err != nil {
		s.log.Warn("reminder send failed", "session", key, "err", err)
		metrics.RemindersFired.WithLabelValues("failed").Inc()
		return
	}
	metrics.RemindersFired.WithLabelValues("sent").Inc()
}
