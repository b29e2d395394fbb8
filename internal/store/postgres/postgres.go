package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/multierr"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store is the postgres backend for multi-instance deployments. The
// JSON-shaped target fields live in jsonb columns; pgx marshals them
// on the way in and out.
type Store struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS monitors (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	types JSONB NOT NULL,
	address TEXT NOT NULL,
	interval_seconds INT NOT NULL DEFAULT 60,
	timeout_seconds INT NOT NULL DEFAULT 30,
	method TEXT NOT NULL DEFAULT 'GET',
	headers JSONB NOT NULL DEFAULT '{}',
	body TEXT NOT NULL DEFAULT '',
	expected_status INT NOT NULL DEFAULT 200,
	keyword TEXT NOT NULL DEFAULT '',
	port INT NOT NULL DEFAULT 0,
	notify_channels JSONB NOT NULL DEFAULT '[]',
	tags JSONB NOT NULL DEFAULT '[]',
	enabled BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS monitor_logs (
	id BIGSERIAL PRIMARY KEY,
	monitor_id TEXT NOT NULL,
	check_type TEXT NOT NULL,
	status SMALLINT NOT NULL,
	response_time BIGINT NOT NULL DEFAULT 0,
	http_status INT,
	cert_days_left INT,
	message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_logs_monitor_created
	ON monitor_logs(monitor_id, created_at);
CREATE INDEX IF NOT EXISTS idx_logs_monitor_type_created
	ON monitor_logs(monitor_id, check_type, created_at);

CREATE TABLE IF NOT EXISTS heartbeats (
	id BIGSERIAL PRIMARY KEY,
	monitor_id TEXT NOT NULL,
	status SMALLINT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_heartbeats_monitor_created
	ON heartbeats(monitor_id, created_at);

CREATE TABLE IF NOT EXISTS notify_channels (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	provider TEXT NOT NULL,
	config JSONB NOT NULL DEFAULT '{}',
	enabled BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id BIGSERIAL PRIMARY KEY,
	monitor_id TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at);
`

// New connects, pings with a short deadline and applies the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// ---- TargetStore ----

func (s *Store) CreateTarget(ctx context.Context, t *domain.Target) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO monitors
		   (id, name, types, address, interval_seconds, timeout_seconds,
		    method, headers, body, expected_status, keyword, port,
		    notify_channels, tags, enabled, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		t.ID, t.Name, t.Types, t.Address, t.Interval, t.Timeout,
		t.Method, t.Headers, t.Body, t.ExpectedStatus, t.Keyword, t.Port,
		t.NotifyChannels, t.Tags, t.Enabled, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert monitor: %w", err)
	}
	return nil
}

var targetColumns = []string{
	"id", "name", "types", "address", "interval_seconds", "timeout_seconds",
	"method", "headers", "body", "expected_status", "keyword", "port",
	"notify_channels", "tags", "enabled", "created_at", "updated_at",
}

func (s *Store) Target(ctx context.Context, id string) (*domain.Target, error) {
	q, args, err := squirrel.Select(targetColumns...).
		From("monitors").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	t, err := scanTarget(s.pool.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select monitor: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTarget(ctx context.Context, t *domain.Target) error {
	t.UpdatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE monitors SET
		   name = $1, types = $2, address = $3, interval_seconds = $4,
		   timeout_seconds = $5, method = $6, headers = $7, body = $8,
		   expected_status = $9, keyword = $10, port = $11,
		   notify_channels = $12, tags = $13, enabled = $14, updated_at = $15
		 WHERE id = $16`,
		t.Name, t.Types, t.Address, t.Interval,
		t.Timeout, t.Method, t.Headers, t.Body,
		t.ExpectedStatus, t.Keyword, t.Port,
		t.NotifyChannels, t.Tags, t.Enabled, t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("update monitor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTarget(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM monitors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete monitor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListTargets(ctx context.Context) ([]*domain.Target, error) {
	q, args, err := squirrel.Select(targetColumns...).
		From("monitors").
		OrderBy("created_at", "id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}
	defer rows.Close()

	var out []*domain.Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan monitor: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ---- LogStore ----

func (s *Store) AppendLog(ctx context.Context, l *domain.CheckLog) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	var httpStatus *int
	if l.HTTPStatus != 0 {
		httpStatus = &l.HTTPStatus
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO monitor_logs
		   (monitor_id, check_type, status, response_time, http_status,
		    cert_days_left, message, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING id`,
		l.TargetID, string(l.CheckType), int(l.Status), l.ResponseTime,
		httpStatus, l.CertDaysLeft, l.Message, l.CreatedAt,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

var logColumns = []string{
	"id", "monitor_id", "check_type", "status", "response_time",
	"http_status", "cert_days_left", "message", "created_at",
}

func (s *Store) Logs(ctx context.Context, targetID string, limit int) ([]*domain.CheckLog, error) {
	b := squirrel.Select(logColumns...).
		From("monitor_logs").
		Where(squirrel.Eq{"monitor_id": targetID}).
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(squirrel.Dollar)
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select logs: %w", err)
	}
	defer rows.Close()
	return collectLogs(rows)
}

func (s *Store) RecentLogs(ctx context.Context, targetID string, hours int, checkType domain.CheckType) ([]*domain.CheckLog, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	b := squirrel.Select(logColumns...).
		From("monitor_logs").
		Where(squirrel.Eq{"monitor_id": targetID}).
		Where(squirrel.GtOrEq{"created_at": cutoff}).
		OrderBy("created_at", "id").
		PlaceholderFormat(squirrel.Dollar)
	if checkType != "" {
		b = b.Where(squirrel.Eq{"check_type": string(checkType)})
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select recent logs: %w", err)
	}
	defer rows.Close()
	return collectLogs(rows)
}

func (s *Store) LatestLog(ctx context.Context, targetID string, checkType domain.CheckType) (*domain.CheckLog, error) {
	b := squirrel.Select(logColumns...).
		From("monitor_logs").
		Where(squirrel.Eq{"monitor_id": targetID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)
	if checkType != "" {
		b = b.Where(squirrel.Eq{"check_type": string(checkType)})
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	l, err := scanLog(s.pool.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select latest log: %w", err)
	}
	return l, nil
}

func (s *Store) Uptime(ctx context.Context, targetID string, days int, checkType domain.CheckType) (float64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	b := squirrel.Select("COUNT(*)", "COALESCE(SUM(status), 0)").
		From("monitor_logs").
		Where(squirrel.Eq{"monitor_id": targetID}).
		Where(squirrel.GtOrEq{"created_at": cutoff}).
		PlaceholderFormat(squirrel.Dollar)
	if checkType != "" {
		b = b.Where(squirrel.Eq{"check_type": string(checkType)})
	}
	q, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var total, up int64
	if err := s.pool.QueryRow(ctx, q, args...).Scan(&total, &up); err != nil {
		return 0, fmt.Errorf("uptime query: %w", err)
	}
	if total == 0 {
		return 100.0, nil
	}
	return float64(up) / float64(total) * 100.0, nil
}

func (s *Store) AvgResponseTime(ctx context.Context, targetID string, hours int) (float64, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	var avg float64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(response_time), 0) FROM monitor_logs
		 WHERE monitor_id = $1 AND status = 1 AND created_at >= $2`,
		targetID, cutoff,
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("avg response time query: %w", err)
	}
	return avg, nil
}

// ---- HeartbeatStore ----

func (s *Store) AppendHeartbeat(ctx context.Context, hb *domain.Heartbeat) error {
	if hb.CreatedAt.IsZero() {
		hb.CreatedAt = time.Now().UTC()
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO heartbeats (monitor_id, status, message, created_at)
		 VALUES ($1,$2,$3,$4) RETURNING id`,
		hb.TargetID, int(hb.Status), hb.Message, hb.CreatedAt,
	).Scan(&hb.ID)
	if err != nil {
		return fmt.Errorf("insert heartbeat: %w", err)
	}
	return nil
}

func (s *Store) LastHeartbeat(ctx context.Context, targetID string) (*domain.Heartbeat, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, monitor_id, status, message, created_at FROM heartbeats
		 WHERE monitor_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`,
		targetID,
	)

	var hb domain.Heartbeat
	var status int
	err := row.Scan(&hb.ID, &hb.TargetID, &status, &hb.Message, &hb.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select heartbeat: %w", err)
	}
	hb.Status = domain.Status(status)
	return &hb, nil
}

// ---- ChannelStore ----

func (s *Store) CreateChannel(ctx context.Context, c *domain.Channel) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO notify_channels (id, name, provider, config, enabled, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.Name, c.Provider, c.Config, c.Enabled, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert channel: %w", err)
	}
	return nil
}

func (s *Store) ListChannels(ctx context.Context) ([]*domain.Channel, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, provider, config, enabled, created_at
		 FROM notify_channels ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var out []*domain.Channel
	for rows.Next() {
		var c domain.Channel
		if err := rows.Scan(&c.ID, &c.Name, &c.Provider, &c.Config, &c.Enabled, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *Store) DeleteChannel(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notify_channels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ---- EventStore ----

func (s *Store) AppendEvent(ctx context.Context, e *domain.Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO events (monitor_id, kind, message, created_at)
		 VALUES ($1,$2,$3,$4) RETURNING id`,
		e.TargetID, string(e.Kind), e.Message, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *Store) RecentEvents(ctx context.Context, limit int) ([]*domain.Event, error) {
	b := squirrel.Select("id", "monitor_id", "kind", "message", "created_at").
		From("events").
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(squirrel.Dollar)
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		var e domain.Event
		var kind string
		if err := rows.Scan(&e.ID, &e.TargetID, &kind, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = domain.EventKind(kind)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// ---- Cleaner ----

// Cleanup keeps going when one table fails; the caller gets every
// failure at once.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)

	var removed int64
	var errs error
	for _, table := range []string{"monitor_logs", "heartbeats", "events"} {
		tag, err := s.pool.Exec(ctx,
			`DELETE FROM `+table+` WHERE created_at < $1`, cutoff)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cleanup %s: %w", table, err))
			continue
		}
		removed += tag.RowsAffected()
	}
	return removed, errs
}

// ---- helpers ----

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTarget(r rowScanner) (*domain.Target, error) {
	var t domain.Target
	err := r.Scan(&t.ID, &t.Name, &t.Types, &t.Address, &t.Interval, &t.Timeout,
		&t.Method, &t.Headers, &t.Body, &t.ExpectedStatus, &t.Keyword, &t.Port,
		&t.NotifyChannels, &t.Tags, &t.Enabled, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanLog(r rowScanner) (*domain.CheckLog, error) {
	var l domain.CheckLog
	var checkType string
	var status int
	var httpStatus, certDays sql.NullInt32

	err := r.Scan(&l.ID, &l.TargetID, &checkType, &status, &l.ResponseTime,
		&httpStatus, &certDays, &l.Message, &l.CreatedAt)
	if err != nil {
		return nil, err
	}

	l.CheckType = domain.CheckType(checkType)
	l.Status = domain.Status(status)
	if httpStatus.Valid {
		l.HTTPStatus = int(httpStatus.Int32)
	}
	if certDays.Valid {
		v := int(certDays.Int32)
		l.CertDaysLeft = &v
	}
	return &l, nil
}

func collectLogs(rows pgx.Rows) ([]*domain.CheckLog, error) {
	var out []*domain.CheckLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
