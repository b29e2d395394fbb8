package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/multierr"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/store"
)

// Store is the default persistent backend: a single SQLite file next
// to the daemon. One writer connection keeps SQLITE_BUSY away; WAL
// keeps readers off the writer's back.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS monitors (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	types TEXT NOT NULL,
	address TEXT NOT NULL,
	interval_seconds INTEGER NOT NULL DEFAULT 60,
	timeout_seconds INTEGER NOT NULL DEFAULT 30,
	method TEXT NOT NULL DEFAULT 'GET',
	headers TEXT NOT NULL DEFAULT '{}',
	body TEXT NOT NULL DEFAULT '',
	expected_status INTEGER NOT NULL DEFAULT 200,
	keyword TEXT NOT NULL DEFAULT '',
	port INTEGER NOT NULL DEFAULT 0,
	notify_channels TEXT NOT NULL DEFAULT '[]',
	tags TEXT NOT NULL DEFAULT '[]',
	enabled INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS monitor_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	monitor_id TEXT NOT NULL,
	check_type TEXT NOT NULL,
	status INTEGER NOT NULL,
	response_time INTEGER NOT NULL DEFAULT 0,
	http_status INTEGER,
	cert_days_left INTEGER,
	message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_logs_monitor_created
	ON monitor_logs(monitor_id, created_at);
CREATE INDEX IF NOT EXISTS idx_logs_monitor_type_created
	ON monitor_logs(monitor_id, check_type, created_at);

CREATE TABLE IF NOT EXISTS heartbeats (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	monitor_id TEXT NOT NULL,
	status INTEGER NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_heartbeats_monitor_created
	ON heartbeats(monitor_id, created_at);

CREATE TABLE IF NOT EXISTS notify_channels (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	provider TEXT NOT NULL,
	config TEXT NOT NULL DEFAULT '{}',
	enabled INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	monitor_id TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at);
`

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

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

	types, err := encodeJSON(t.Types)
	if err != nil {
		return err
	}
	headers, err := encodeJSON(t.Headers)
	if err != nil {
		return err
	}
	channels, err := encodeJSON(t.NotifyChannels)
	if err != nil {
		return err
	}
	tags, err := encodeJSON(t.Tags)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO monitors
		   (id, name, types, address, interval_seconds, timeout_seconds,
		    method, headers, body, expected_status, keyword, port,
		    notify_channels, tags, enabled, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Name, types, t.Address, t.Interval, t.Timeout,
		t.Method, headers, t.Body, t.ExpectedStatus, t.Keyword, t.Port,
		channels, tags, boolToInt(t.Enabled), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert monitor: %w", err)
	}
	return nil
}

const targetColumns = `id, name, types, address, interval_seconds, timeout_seconds,
	method, headers, body, expected_status, keyword, port,
	notify_channels, tags, enabled, created_at, updated_at`

func (s *Store) Target(ctx context.Context, id string) (*domain.Target, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+targetColumns+` FROM monitors WHERE id = ?`, id)
	t, err := scanTarget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select monitor: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTarget(ctx context.Context, t *domain.Target) error {
	t.UpdatedAt = time.Now().UTC()

	types, err := encodeJSON(t.Types)
	if err != nil {
		return err
	}
	headers, err := encodeJSON(t.Headers)
	if err != nil {
		return err
	}
	channels, err := encodeJSON(t.NotifyChannels)
	if err != nil {
		return err
	}
	tags, err := encodeJSON(t.Tags)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE monitors SET
		   name = ?, types = ?, address = ?, interval_seconds = ?,
		   timeout_seconds = ?, method = ?, headers = ?, body = ?,
		   expected_status = ?, keyword = ?, port = ?, notify_channels = ?,
		   tags = ?, enabled = ?, updated_at = ?
		 WHERE id = ?`,
		t.Name, types, t.Address, t.Interval,
		t.Timeout, t.Method, headers, t.Body,
		t.ExpectedStatus, t.Keyword, t.Port, channels,
		tags, boolToInt(t.Enabled), t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("update monitor: %w", err)
	}
	return errIfNoRows(res)
}

func (s *Store) DeleteTarget(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM monitors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete monitor: %w", err)
	}
	return errIfNoRows(res)
}

func (s *Store) ListTargets(ctx context.Context) ([]*domain.Target, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+targetColumns+` FROM monitors ORDER BY created_at, id`)
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

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO monitor_logs
		   (monitor_id, check_type, status, response_time, http_status,
		    cert_days_left, message, created_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		l.TargetID, string(l.CheckType), int(l.Status), l.ResponseTime,
		nullableInt(l.HTTPStatus), l.CertDaysLeft, l.Message, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	l.ID, _ = res.LastInsertId()
	return nil
}

const logColumns = `id, monitor_id, check_type, status, response_time,
	http_status, cert_days_left, message, created_at`

func (s *Store) Logs(ctx context.Context, targetID string, limit int) ([]*domain.CheckLog, error) {
	q := `SELECT ` + logColumns + ` FROM monitor_logs
	      WHERE monitor_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{targetID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select logs: %w", err)
	}
	defer rows.Close()
	return collectLogs(rows)
}

func (s *Store) RecentLogs(ctx context.Context, targetID string, hours int, checkType domain.CheckType) ([]*domain.CheckLog, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	q := `SELECT ` + logColumns + ` FROM monitor_logs
	      WHERE monitor_id = ? AND created_at >= ?`
	args := []any{targetID, cutoff}
	if checkType != "" {
		q += ` AND check_type = ?`
		args = append(args, string(checkType))
	}
	q += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select recent logs: %w", err)
	}
	defer rows.Close()
	return collectLogs(rows)
}

func (s *Store) LatestLog(ctx context.Context, targetID string, checkType domain.CheckType) (*domain.CheckLog, error) {
	q := `SELECT ` + logColumns + ` FROM monitor_logs WHERE monitor_id = ?`
	args := []any{targetID}
	if checkType != "" {
		q += ` AND check_type = ?`
		args = append(args, string(checkType))
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT 1`

	l, err := scanLog(s.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select latest log: %w", err)
	}
	return l, nil
}

func (s *Store) Uptime(ctx context.Context, targetID string, days int, checkType domain.CheckType) (float64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	q := `SELECT COUNT(*), COALESCE(SUM(status), 0) FROM monitor_logs
	      WHERE monitor_id = ? AND created_at >= ?`
	args := []any{targetID, cutoff}
	if checkType != "" {
		q += ` AND check_type = ?`
		args = append(args, string(checkType))
	}

	var total, up int64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&total, &up); err != nil {
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
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(response_time), 0) FROM monitor_logs
		 WHERE monitor_id = ? AND status = 1 AND created_at >= ?`,
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

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO heartbeats (monitor_id, status, message, created_at)
		 VALUES (?,?,?,?)`,
		hb.TargetID, int(hb.Status), hb.Message, hb.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert heartbeat: %w", err)
	}
	hb.ID, _ = res.LastInsertId()
	return nil
}

func (s *Store) LastHeartbeat(ctx context.Context, targetID string) (*domain.Heartbeat, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, monitor_id, status, message, created_at FROM heartbeats
		 WHERE monitor_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		targetID,
	)

	var hb domain.Heartbeat
	var status int
	err := row.Scan(&hb.ID, &hb.TargetID, &status, &hb.Message, &hb.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
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

	config, err := encodeJSON(c.Config)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO notify_channels (id, name, provider, config, enabled, created_at)
		 VALUES (?,?,?,?,?,?)`,
		c.ID, c.Name, c.Provider, config, boolToInt(c.Enabled), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert channel: %w", err)
	}
	return nil
}

func (s *Store) ListChannels(ctx context.Context) ([]*domain.Channel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, provider, config, enabled, created_at
		 FROM notify_channels ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var out []*domain.Channel
	for rows.Next() {
		var c domain.Channel
		var config string
		var enabled int
		if err := rows.Scan(&c.ID, &c.Name, &c.Provider, &config, &enabled, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		if err := json.Unmarshal([]byte(config), &c.Config); err != nil {
			return nil, fmt.Errorf("decode channel config: %w", err)
		}
		c.Enabled = enabled == 1
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *Store) DeleteChannel(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notify_channels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return errIfNoRows(res)
}

// ---- EventStore ----

func (s *Store) AppendEvent(ctx context.Context, e *domain.Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (monitor_id, kind, message, created_at)
		 VALUES (?,?,?,?)`,
		e.TargetID, string(e.Kind), e.Message, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	e.ID, _ = res.LastInsertId()
	return nil
}

func (s *Store) RecentEvents(ctx context.Context, limit int) ([]*domain.Event, error) {
	q := `SELECT id, monitor_id, kind, message, created_at
	      FROM events ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
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
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE created_at < ?`, cutoff)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cleanup %s: %w", table, err))
			continue
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	return removed, errs
}

// ---- helpers ----

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTarget(r rowScanner) (*domain.Target, error) {
	var t domain.Target
	var types, headers, channels, tags string
	var enabled int

	err := r.Scan(&t.ID, &t.Name, &types, &t.Address, &t.Interval, &t.Timeout,
		&t.Method, &headers, &t.Body, &t.ExpectedStatus, &t.Keyword, &t.Port,
		&channels, &tags, &enabled, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(types), &t.Types); err != nil {
		return nil, fmt.Errorf("decode types: %w", err)
	}
	if err := json.Unmarshal([]byte(headers), &t.Headers); err != nil {
		return nil, fmt.Errorf("decode headers: %w", err)
	}
	if err := json.Unmarshal([]byte(channels), &t.NotifyChannels); err != nil {
		return nil, fmt.Errorf("decode notify channels: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	t.Enabled = enabled == 1
	return &t, nil
}

func scanLog(r rowScanner) (*domain.CheckLog, error) {
	var l domain.CheckLog
	var checkType string
	var status int
	var httpStatus, certDays sql.NullInt64

	err := r.Scan(&l.ID, &l.TargetID, &checkType, &status, &l.ResponseTime,
		&httpStatus, &certDays, &l.Message, &l.CreatedAt)
	if err != nil {
		return nil, err
	}

	l.CheckType = domain.CheckType(checkType)
	l.Status = domain.Status(status)
	if httpStatus.Valid {
		l.HTTPStatus = int(httpStatus.Int64)
	}
	if certDays.Valid {
		v := int(certDays.Int64)
		l.CertDaysLeft = &v
	}
	return &l, nil
}

func collectLogs(rows *sql.Rows) ([]*domain.CheckLog, error) {
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

// encodeJSON never stores SQL NULL for empty collections; readers get
// valid JSON back.
func encodeJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	if string(raw) == "null" {
		switch v.(type) {
		case map[string]string:
			return "{}", nil
		default:
			return "[]", nil
		}
	}
	return string(raw), nil
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func errIfNoRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
