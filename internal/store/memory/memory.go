package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/store"
)

// Store keeps everything in process memory. It backs tests and runs
// the daemon when no database is configured; history is gone on exit.
type Store struct {
	mu         sync.RWMutex
	targets    map[string]*domain.Target
	logs       []*domain.CheckLog
	heartbeats []*domain.Heartbeat
	channels   map[string]*domain.Channel
	events     []*domain.Event
	logSeq     int64
	eventSeq   int64
	beatSeq    int64
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		targets:  make(map[string]*domain.Target),
		logs:     make([]*domain.CheckLog, 0, 128),
		channels: make(map[string]*domain.Channel),
	}
}

func (m *Store) CreateTarget(ctx context.Context, t *domain.Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	m.targets[t.ID] = cloneTarget(t)
	return nil
}

func (m *Store) Target(ctx context.Context, id string) (*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.targets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTarget(t), nil
}

func (m *Store) UpdateTarget(ctx context.Context, t *domain.Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.targets[t.ID]; !ok {
		return store.ErrNotFound
	}
	t.UpdatedAt = time.Now().UTC()
	m.targets[t.ID] = cloneTarget(t)
	return nil
}

func (m *Store) DeleteTarget(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.targets[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.targets, id)
	return nil
}

func (m *Store) ListTargets(ctx context.Context) ([]*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Target, 0, len(m.targets))
	for _, t := range m.targets {
		out = append(out, cloneTarget(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Store) AppendLog(ctx context.Context, l *domain.CheckLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logSeq++
	cp := *l
	cp.ID = m.logSeq
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	l.ID = cp.ID
	m.logs = append(m.logs, &cp)
	return nil
}

func (m *Store) Logs(ctx context.Context, targetID string, limit int) ([]*domain.CheckLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.CheckLog, 0, limit)
	for i := len(m.logs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if m.logs[i].TargetID == targetID {
			cp := *m.logs[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Store) RecentLogs(ctx context.Context, targetID string, hours int, checkType domain.CheckType) ([]*domain.CheckLog, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.CheckLog
	for _, l := range m.logs {
		if l.TargetID != targetID || l.CreatedAt.Before(cutoff) {
			continue
		}
		if checkType != "" && l.CheckType != checkType {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Store) LatestLog(ctx context.Context, targetID string, checkType domain.CheckType) (*domain.CheckLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.logs) - 1; i >= 0; i-- {
		l := m.logs[i]
		if l.TargetID != targetID {
			continue
		}
		if checkType != "" && l.CheckType != checkType {
			continue
		}
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (m *Store) Uptime(ctx context.Context, targetID string, days int, checkType domain.CheckType) (float64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total, up int
	for _, l := range m.logs {
		if l.TargetID != targetID || l.CreatedAt.Before(cutoff) {
			continue
		}
		if checkType != "" && l.CheckType != checkType {
			continue
		}
		total++
		if l.Status == domain.StatusUp {
			up++
		}
	}
	if total == 0 {
		return 100.0, nil
	}
	return float64(up) / float64(total) * 100.0, nil
}

func (m *Store) AvgResponseTime(ctx context.Context, targetID string, hours int) (float64, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	var n int
	for _, l := range m.logs {
		if l.TargetID != targetID || l.Status != domain.StatusUp || l.CreatedAt.Before(cutoff) {
			continue
		}
		sum += l.ResponseTime
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func (m *Store) AppendHeartbeat(ctx context.Context, hb *domain.Heartbeat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beatSeq++
	cp := *hb
	cp.ID = m.beatSeq
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	hb.ID = cp.ID
	m.heartbeats = append(m.heartbeats, &cp)
	return nil
}

func (m *Store) LastHeartbeat(ctx context.Context, targetID string) (*domain.Heartbeat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.heartbeats) - 1; i >= 0; i-- {
		if m.heartbeats[i].TargetID == targetID {
			cp := *m.heartbeats[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Store) CreateChannel(ctx context.Context, c *domain.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	m.channels[c.ID] = cloneChannel(c)
	return nil
}

func (m *Store) ListChannels(ctx context.Context) ([]*domain.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Channel, 0, len(m.channels))
	for _, c := range m.channels {
		out = append(out, cloneChannel(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Store) DeleteChannel(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.channels[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.channels, id)
	return nil
}

func (m *Store) AppendEvent(ctx context.Context, e *domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventSeq++
	cp := *e
	cp.ID = m.eventSeq
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	e.ID = cp.ID
	m.events = append(m.events, &cp)
	return nil
}

func (m *Store) RecentEvents(ctx context.Context, limit int) ([]*domain.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Event, 0, limit)
	for i := len(m.events) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		cp := *m.events[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	logs := m.logs[:0]
	for _, l := range m.logs {
		if l.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		logs = append(logs, l)
	}
	m.logs = logs

	beats := m.heartbeats[:0]
	for _, hb := range m.heartbeats {
		if hb.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		beats = append(beats, hb)
	}
	m.heartbeats = beats

	events := m.events[:0]
	for _, e := range m.events {
		if e.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		events = append(events, e)
	}
	m.events = events

	return removed, nil
}

func (m *Store) Close() error { return nil }

func cloneTarget(t *domain.Target) *domain.Target {
	cp := *t
	if t.Types != nil {
		cp.Types = append([]domain.CheckType(nil), t.Types...)
	}
	if t.Headers != nil {
		cp.Headers = make(map[string]string, len(t.Headers))
		for k, v := range t.Headers {
			cp.Headers[k] = v
		}
	}
	if t.NotifyChannels != nil {
		cp.NotifyChannels = append([]string(nil), t.NotifyChannels...)
	}
	if t.Tags != nil {
		cp.Tags = append([]string(nil), t.Tags...)
	}
	return &cp
}

func cloneChannel(c *domain.Channel) *domain.Channel {
	cp := *c
	if c.Config != nil {
		cp.Config = make(map[string]string, len(c.Config))
		for k, v := range c.Config {
			cp.Config[k] = v
		}
	}
	return &cp
}
