package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// retentionLoop prunes history once a day. Failures are logged and
// retried at the next occurrence.
func (s *Scheduler) retentionLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		wait := time.Until(nextRetentionRun(time.Now()))
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		s.runRetention(ctx)
	}
}

func (s *Scheduler) runRetention(ctx context.Context) {
	n, err := s.store.Cleanup(ctx, s.cfg.RetentionDays)
	if err != nil {
		s.log.Warn("retention_cleanup_failed", zap.Error(err))
		return
	}
	s.log.Info("retention_cleanup_done",
		zap.Int64("rows_removed", n),
		zap.Int("older_than_days", s.cfg.RetentionDays))
}

// nextRetentionRun is the next 03:00 local after now, when check
// traffic is typically at its lowest.
func nextRetentionRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), 3, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
