package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// ErrNotPushTarget rejects heartbeats for targets without a push type.
var ErrNotPushTarget = errors.New("target has no push type")

// CheckResultSet is the outcome of a manual run: one result per
// configured type plus the overall verdict.
type CheckResultSet struct {
	Results map[domain.CheckType]domain.CheckResult `json:"results"`
	Status  domain.Status                           `json:"status"`
}

// CheckNow runs every configured type, push included, through the same
// pipeline a tick uses, with the retry decorator on top. Logs, tracker
// feeds, events and notifications all behave exactly as on a tick.
func (s *Scheduler) CheckNow(ctx context.Context, targetID string) (*CheckResultSet, error) {
	t, err := s.store.Target(ctx, targetID)
	if err != nil {
		return nil, err
	}

	out := &CheckResultSet{
		Results: make(map[domain.CheckType]domain.CheckResult, len(t.Types)),
		Status:  domain.StatusUp,
	}

	for _, ct := range t.Types {
		res := s.runCheck(ctx, t, ct, s.manual)
		out.Results[ct] = res
		if res.Status == domain.StatusDown {
			out.Status = domain.StatusDown
		}
	}

	s.stats.Increment("scheduler.manual_check")
	return out, nil
}

// RecordHeartbeat ingests one push report: heartbeat row, push check
// log, tracker feed. It does not re-probe anything; staleness is
// judged lazily by the push checker on the next evaluation.
func (s *Scheduler) RecordHeartbeat(ctx context.Context, targetID string, status domain.Status, message string) error {
	t, err := s.store.Target(ctx, targetID)
	if err != nil {
		return err
	}
	if !t.HasType(domain.CheckPush) {
		return fmt.Errorf("target %s: %w", targetID, ErrNotPushTarget)
	}

	if status != domain.StatusDown {
		status = domain.StatusUp
	}
	if message == "" {
		message = "OK"
	}

	hb := &domain.Heartbeat{TargetID: t.ID, Status: status, Message: message}
	if err := s.store.AppendHeartbeat(ctx, hb); err != nil {
		return fmt.Errorf("append heartbeat: %w", err)
	}

	res := domain.CheckResult{
		Status:    status,
		Message:   message,
		CheckedAt: hb.CreatedAt,
	}
	if res.CheckedAt.IsZero() {
		res.CheckedAt = time.Now().UTC()
	}

	if err := s.store.AppendLog(ctx, domain.NewCheckLog(t.ID, domain.CheckPush, res)); err != nil {
		s.log.Warn("heartbeat_log_append_failed",
			zap.String("target_id", t.ID),
			zap.Error(err))
	}

	s.observe(ctx, t, domain.CheckPush, res)

	s.log.Debug("heartbeat_recorded",
		zap.String("target_id", t.ID),
		zap.String("status", status.String()))
	return nil
}
