package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// PushChecker never reaches out. It judges the last heartbeat the
// target sent in: none is down, one older than twice the interval is
// down, otherwise the heartbeat's own status and message stand.
type PushChecker struct {
	Beats HeartbeatSource
}

func (p *PushChecker) Check(ctx context.Context, t *domain.Target) domain.CheckResult {
	hb, err := p.Beats.LastHeartbeat(ctx, t.ID)
	if err != nil {
		return domain.CheckResult{Status: domain.StatusDown, Message: "heartbeat lookup failed: " + truncate(err.Error(), 100)}
	}
	if hb == nil {
		return domain.CheckResult{Status: domain.StatusDown, Message: "no heartbeat received"}
	}

	window := 2 * t.IntervalDuration()
	if time.Since(hb.CreatedAt) > window {
		return domain.CheckResult{
			Status:  domain.StatusDown,
			Message: fmt.Sprintf("heartbeat overdue, last seen %s", hb.CreatedAt.Format("2006-01-02 15:04:05")),
		}
	}

	msg := hb.Message
	if msg == "" {
		msg = "OK"
	}
	return domain.CheckResult{Status: hb.Status, Message: msg}
}
