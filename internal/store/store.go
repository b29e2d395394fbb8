package store

import (
	"context"
	"errors"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// ErrNotFound is returned by lookups whose subject does not exist.
var ErrNotFound = errors.New("not found")

// TargetStore is the port for monitored targets. Create assigns the ID
// and timestamps when the caller left them empty.
type TargetStore interface {
	CreateTarget(ctx context.Context, t *domain.Target) error
	Target(ctx context.Context, id string) (*domain.Target, error)
	UpdateTarget(ctx context.Context, t *domain.Target) error
	DeleteTarget(ctx context.Context, id string) error
	ListTargets(ctx context.Context) ([]*domain.Target, error)
}

// LogStore persists check results and answers the aggregate questions
// the stats layer asks. checkType == "" means all types.
type LogStore interface {
	AppendLog(ctx context.Context, l *domain.CheckLog) error
	// Logs returns the newest rows first, at most limit.
	Logs(ctx context.Context, targetID string, limit int) ([]*domain.CheckLog, error)
	// RecentLogs returns rows from the last N hours, oldest first.
	RecentLogs(ctx context.Context, targetID string, hours int, checkType domain.CheckType) ([]*domain.CheckLog, error)
	// LatestLog returns nil, nil when the target has no rows yet.
	LatestLog(ctx context.Context, targetID string, checkType domain.CheckType) (*domain.CheckLog, error)
	// Uptime is the share of up rows in the window, 0..100.
	// A window with no rows counts as 100: nothing observed, nothing down.
	Uptime(ctx context.Context, targetID string, days int, checkType domain.CheckType) (float64, error)
	// AvgResponseTime averages response_time over up rows in the last N
	// hours, 0 when there are none.
	AvgResponseTime(ctx context.Context, targetID string, hours int) (float64, error)
}

// HeartbeatStore persists push reports.
type HeartbeatStore interface {
	AppendHeartbeat(ctx context.Context, hb *domain.Heartbeat) error
	// LastHeartbeat returns nil, nil when the target never reported.
	LastHeartbeat(ctx context.Context, targetID string) (*domain.Heartbeat, error)
}

// ChannelStore persists notification channels.
type ChannelStore interface {
	CreateChannel(ctx context.Context, c *domain.Channel) error
	ListChannels(ctx context.Context) ([]*domain.Channel, error)
	DeleteChannel(ctx context.Context, id string) error
}

// EventStore persists the audit timeline.
type EventStore interface {
	AppendEvent(ctx context.Context, e *domain.Event) error
	// RecentEvents returns the newest events first, at most limit.
	RecentEvents(ctx context.Context, limit int) ([]*domain.Event, error)
}

// Cleaner prunes history older than the retention window. It returns
// the number of rows removed across logs, heartbeats and events.
type Cleaner interface {
	Cleanup(ctx context.Context, olderThanDays int) (int64, error)
}

// Store is the full persistence surface the daemon wires up once.
type Store interface {
	TargetStore
	LogStore
	HeartbeatStore
	ChannelStore
	EventStore
	Cleaner

	Close() error
}
