package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type autoNotifyUserSource interface {
	ListAutoNotifyUsers(ctx context.Context) ([]string, error)
}

// NotifyScheduler periodically enqueues dispatch runs for every user that
// opted into automatic notifications.
type NotifyScheduler struct {
	users    autoNotifyUserSource
	enqueue  func(userID string) error
	interval time.Duration
	logger   *zap.Logger
}

// NewNotifyScheduler constructs the scheduler. A non-positive interval
// disables it; Run returns immediately in that case.
func NewNotifyScheduler(users autoNotifyUserSource, enqueue func(userID string) error, interval time.Duration, logger *zap.Logger) *NotifyScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotifyScheduler{users: users, enqueue: enqueue, interval: interval, logger: logger}
}

// Run blocks until the context is cancelled, ticking at the configured
// interval. Intended to be started in its own goroutine.
func (s *NotifyScheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *NotifyScheduler) tick(ctx context.Context) {
	ids, err := s.users.ListAutoNotifyUsers(ctx)
	if err != nil {
		s.logger.Warn("auto-notify user lookup failed", zap.Error(err))
		return
	}
	for _, id := range ids {
		if err := s.enqueue(id); err != nil {
			s.logger.Warn("failed to enqueue auto-notify run", zap.String("user_id", id), zap.Error(err))
		}
	}
}
