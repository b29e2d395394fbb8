package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/store"
)

const (
	uptimeWindowDays = 30
	avgWindowHours   = 24
	historyHours     = 24
)

// Source is the read surface the aggregator projects from. Any full
// store satisfies it.
type Source interface {
	store.TargetStore
	store.LogStore
}

// Aggregator answers dashboard questions straight from the store. It
// holds no state and never writes.
type Aggregator struct {
	src Source
}

func New(src Source) *Aggregator {
	return &Aggregator{src: src}
}

// TypeSnapshot is the latest known state of one check type. A type
// that has never produced a log row is pending: it reports 100 uptime
// and does not drag the overall status down.
type TypeSnapshot struct {
	Status       domain.Status `json:"status"`
	Pending      bool          `json:"pending,omitempty"`
	ResponseTime int64         `json:"response_time"`
	HTTPStatus   int           `json:"http_status,omitempty"`
	CertDaysLeft *int          `json:"cert_days_left,omitempty"`
	Message      string        `json:"message"`
	LastCheck    *time.Time    `json:"last_check,omitempty"`
	Uptime       float64       `json:"uptime"`
}

// Overview is the per-target dashboard projection.
type Overview struct {
	TargetID    string                            `json:"target_id"`
	Name        string                            `json:"name"`
	Status      domain.Status                     `json:"status"`
	Uptime      float64                           `json:"uptime"`
	AvgResponse float64                           `json:"avg_response_time"`
	LastCheck   *time.Time                        `json:"last_check,omitempty"`
	Types       map[domain.CheckType]TypeSnapshot `json:"types"`
	History     []*domain.CheckLog                `json:"history"`
}

// Summary is the fleet-wide rollup.
type Summary struct {
	Total           int     `json:"total"`
	Online          int     `json:"online"`
	Offline         int     `json:"offline"`
	AvgUptime       float64 `json:"avg_uptime"`
	AvgResponseTime float64 `json:"avg_response_time"`
}

// Uptime is the share of up rows over the window, 100 when nothing was
// observed.
func (a *Aggregator) Uptime(ctx context.Context, targetID string, days int, ct domain.CheckType) (float64, error) {
	return a.src.Uptime(ctx, targetID, days, ct)
}

// AvgResponseTime averages over up rows in the window, 0 when none.
func (a *Aggregator) AvgResponseTime(ctx context.Context, targetID string, hours int) (float64, error) {
	return a.src.AvgResponseTime(ctx, targetID, hours)
}

// TargetOverview builds the full dashboard view for one target: latest
// snapshot per check type, overall status (down if any type is down),
// 30d uptime, 24h average response time, and the 24h history rows.
func (a *Aggregator) TargetOverview(ctx context.Context, t *domain.Target) (*Overview, error) {
	ov := &Overview{
		TargetID: t.ID,
		Name:     t.Name,
		Status:   domain.StatusUp,
		Types:    make(map[domain.CheckType]TypeSnapshot, len(t.Types)),
	}

	for _, ct := range t.Types {
		latest, err := a.src.LatestLog(ctx, t.ID, ct)
		if err != nil {
			return nil, fmt.Errorf("latest %s log: %w", ct, err)
		}

		up, err := a.src.Uptime(ctx, t.ID, uptimeWindowDays, ct)
		if err != nil {
			return nil, fmt.Errorf("%s uptime: %w", ct, err)
		}

		snap := TypeSnapshot{Uptime: up}
		if latest == nil {
			snap.Pending = true
			snap.Message = "pending"
		} else {
			snap.Status = latest.Status
			snap.ResponseTime = latest.ResponseTime
			snap.HTTPStatus = latest.HTTPStatus
			snap.CertDaysLeft = latest.CertDaysLeft
			snap.Message = latest.Message
			at := latest.CreatedAt
			snap.LastCheck = &at

			if latest.Status == domain.StatusDown {
				ov.Status = domain.StatusDown
			}
			if ov.LastCheck == nil || at.After(*ov.LastCheck) {
				ov.LastCheck = &at
			}
		}
		ov.Types[ct] = snap
	}

	up, err := a.src.Uptime(ctx, t.ID, uptimeWindowDays, "")
	if err != nil {
		return nil, fmt.Errorf("overall uptime: %w", err)
	}
	ov.Uptime = up

	avg, err := a.src.AvgResponseTime(ctx, t.ID, avgWindowHours)
	if err != nil {
		return nil, fmt.Errorf("avg response time: %w", err)
	}
	ov.AvgResponse = avg

	hist, err := a.src.RecentLogs(ctx, t.ID, historyHours, "")
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	ov.History = hist

	return ov, nil
}

// Summary rolls the whole fleet up. A target is offline when the
// latest row of any of its types is down; targets with no rows at all
// count as online. Response times average only over targets that have
// one.
func (a *Aggregator) Summary(ctx context.Context) (*Summary, error) {
	targets, err := a.src.ListTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}

	sum := &Summary{Total: len(targets), AvgUptime: 100}
	if len(targets) == 0 {
		return sum, nil
	}

	var uptimeTotal, rtTotal float64
	var rtCount int

	for _, t := range targets {
		down := false
		for _, ct := range t.Types {
			latest, err := a.src.LatestLog(ctx, t.ID, ct)
			if err != nil {
				return nil, fmt.Errorf("latest log: %w", err)
			}
			if latest != nil && latest.Status == domain.StatusDown {
				down = true
				break
			}
		}
		if down {
			sum.Offline++
		} else {
			sum.Online++
		}

		up, err := a.src.Uptime(ctx, t.ID, uptimeWindowDays, "")
		if err != nil {
			return nil, fmt.Errorf("uptime: %w", err)
		}
		uptimeTotal += up

		avg, err := a.src.AvgResponseTime(ctx, t.ID, avgWindowHours)
		if err != nil {
			return nil, fmt.Errorf("avg response time: %w", err)
		}
		if avg > 0 {
			rtTotal += avg
			rtCount++
		}
	}

	sum.AvgUptime = uptimeTotal / float64(len(targets))
	if rtCount > 0 {
		sum.AvgResponseTime = rtTotal / float64(rtCount)
	}
	return sum, nil
}
