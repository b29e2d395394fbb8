package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CheckType selects the probe used for one check of a target.
// A target may carry several types at once, e.g. http + ssl.
type CheckType string

const (
	CheckHTTP    CheckType = "http"
	CheckHTTPS   CheckType = "https"
	CheckKeyword CheckType = "keyword"
	CheckPort    CheckType = "port"
	CheckTCP     CheckType = "tcp"
	CheckPing    CheckType = "ping"
	CheckSSL     CheckType = "ssl"
	CheckDNS     CheckType = "dns"
	CheckPush    CheckType = "push"
	CheckMySQL   CheckType = "mysql"
	CheckRedis   CheckType = "redis"
)

// Label returns the human form used in events and notifications.
func (c CheckType) Label() string {
	switch c {
	case CheckHTTP:
		return "HTTP"
	case CheckHTTPS:
		return "HTTPS"
	case CheckKeyword:
		return "Keyword"
	case CheckPort:
		return "Port"
	case CheckTCP:
		return "TCP"
	case CheckPing:
		return "Ping"
	case CheckSSL:
		return "SSL"
	case CheckDNS:
		return "DNS"
	case CheckPush:
		return "Push"
	case CheckMySQL:
		return "MySQL"
	case CheckRedis:
		return "Redis"
	}
	return strings.ToUpper(string(c))
}

// Status is the outcome of a check: 0 down, 1 up. Nothing in between.
type Status int8

const (
	StatusDown Status = 0
	StatusUp   Status = 1
)

func (s Status) String() string {
	if s == StatusUp {
		return "up"
	}
	return "down"
}

const (
	DefaultInterval       = 60 // seconds
	DefaultTimeout        = 30 // seconds
	DefaultExpectedStatus = 200
)

// Target is a monitored endpoint plus everything needed to check it.
// Address is interpreted per check type: a URL for http/keyword/ssl,
// host[:port] for port/tcp/ping/dns/redis, a DSN-ish string for mysql.
type Target struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Types          []CheckType       `json:"types"`
	Address        string            `json:"target"`
	Interval       int               `json:"interval"` // seconds
	Timeout        int               `json:"timeout"`  // seconds
	Method         string            `json:"method,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	Body           string            `json:"body,omitempty"`
	ExpectedStatus int               `json:"expected_status,omitempty"`
	Keyword        string            `json:"keyword,omitempty"`
	Port           int               `json:"port,omitempty"`
	NotifyChannels []string          `json:"notify_channels,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	Enabled        bool              `json:"enabled"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

var ErrInvalidTarget = errors.New("invalid target")

// Validate reports the first problem that would make the target
// unusable. Unknown check types are not rejected here; the probe set
// falls back to an HTTP check for them.
func (t *Target) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTarget)
	}
	if len(t.Types) == 0 {
		return fmt.Errorf("%w: at least one check type is required", ErrInvalidTarget)
	}
	if strings.TrimSpace(t.Address) == "" {
		return fmt.Errorf("%w: target address is required", ErrInvalidTarget)
	}
	if t.Interval < 0 {
		return fmt.Errorf("%w: interval must not be negative", ErrInvalidTarget)
	}
	if t.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidTarget)
	}
	return nil
}

// Normalize fills the defaults a freshly submitted target may omit.
func (t *Target) Normalize() {
	if t.Interval <= 0 {
		t.Interval = DefaultInterval
	}
	if t.Timeout <= 0 {
		t.Timeout = DefaultTimeout
	}
	if t.ExpectedStatus <= 0 {
		t.ExpectedStatus = DefaultExpectedStatus
	}
	if t.Method == "" {
		t.Method = "GET"
	} else {
		t.Method = strings.ToUpper(t.Method)
	}
	seen := make(map[CheckType]struct{}, len(t.Types))
	types := t.Types[:0]
	for _, ct := range t.Types {
		ct = CheckType(strings.ToLower(strings.TrimSpace(string(ct))))
		if ct == "" {
			continue
		}
		if _, ok := seen[ct]; ok {
			continue
		}
		seen[ct] = struct{}{}
		types = append(types, ct)
	}
	t.Types = types
}

// ActiveTypes returns the types the scheduler drives on its own tick.
// Push is excluded: push targets report in, they are not probed.
func (t *Target) ActiveTypes() []CheckType {
	out := make([]CheckType, 0, len(t.Types))
	for _, ct := range t.Types {
		if ct == CheckPush {
			continue
		}
		out = append(out, ct)
	}
	return out
}

// HasActiveType reports whether anything is left to schedule.
func (t *Target) HasActiveType() bool {
	return len(t.ActiveTypes()) > 0
}

// HasType reports whether the target carries the given check type.
func (t *Target) HasType(ct CheckType) bool {
	for _, have := range t.Types {
		if have == ct {
			return true
		}
	}
	return false
}

func (t *Target) IntervalDuration() time.Duration {
	if t.Interval <= 0 {
		return DefaultInterval * time.Second
	}
	return time.Duration(t.Interval) * time.Second
}

func (t *Target) TimeoutDuration() time.Duration {
	if t.Timeout <= 0 {
		return DefaultTimeout * time.Second
	}
	return time.Duration(t.Timeout) * time.Second
}
