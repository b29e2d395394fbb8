package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// Checker performs a single check of one type against a target.
// Implementations must honor the ctx deadline and never panic; the Set
// still recovers if one does.
type Checker interface {
	Check(ctx context.Context, t *domain.Target) domain.CheckResult
}

// Prober is what the scheduler sees: one probe of one type. *Set and
// *Retry both satisfy it.
type Prober interface {
	Probe(ctx context.Context, t *domain.Target, ct domain.CheckType) domain.CheckResult
}

// HeartbeatSource feeds the push checker the last report for a target.
// The store satisfies it.
type HeartbeatSource interface {
	LastHeartbeat(ctx context.Context, targetID string) (*domain.Heartbeat, error)
}

// Set maps check types to their checkers. Unknown types fall back to
// the HTTP checker, so a target with a type this build doesn't know
// degrades to a reachability check instead of erroring out.
type Set struct {
	checkers map[domain.CheckType]Checker
	fallback Checker
}

func NewSet(beats HeartbeatSource) *Set {
	web := NewHTTPChecker()
	tcp := &PortChecker{}
	s := &Set{
		checkers: map[domain.CheckType]Checker{
			domain.CheckHTTP:    web,
			domain.CheckHTTPS:   web,
			domain.CheckKeyword: &KeywordChecker{HTTP: web},
			domain.CheckPort:    tcp,
			domain.CheckTCP:     tcp,
			domain.CheckPing:    &PingChecker{Port: tcp},
			domain.CheckSSL:     &SSLChecker{},
			domain.CheckDNS:     &DNSChecker{},
			domain.CheckPush:    &PushChecker{Beats: beats},
			domain.CheckMySQL:   &MySQLChecker{},
			domain.CheckRedis:   &RedisChecker{},
		},
		fallback: web,
	}
	return s
}

// Register adds or replaces the checker for a type. Not safe to call
// concurrently with Probe; register everything before starting.
func (s *Set) Register(ct domain.CheckType, c Checker) {
	s.checkers[ct] = c
}

// Probe runs one check bounded by the target's timeout. A panicking
// checker is converted to a down result so one bad probe can't take
// the scheduler down with it.
func (s *Set) Probe(ctx context.Context, t *domain.Target, ct domain.CheckType) (res domain.CheckResult) {
	checker, ok := s.checkers[ct]
	if !ok {
		checker = s.fallback
	}

	cctx, cancel := context.WithTimeout(ctx, t.TimeoutDuration())
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			res = domain.CheckResult{
				Status:    domain.StatusDown,
				Message:   fmt.Sprintf("check panicked: %v", r),
				CheckedAt: time.Now().UTC(),
			}
		}
	}()

	res = checker.Check(cctx, t)
	if res.CheckedAt.IsZero() {
		res.CheckedAt = time.Now().UTC()
	}
	return res
}

// truncate keeps provider and driver errors from flooding messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
