package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// PortChecker opens a TCP connection and closes it again. A port
// embedded in the address ("host:port") wins over the Port field.
type PortChecker struct{}

func (p *PortChecker) Check(ctx context.Context, t *domain.Target) domain.CheckResult {
	fallback := t.Port
	if fallback <= 0 {
		fallback = 80
	}
	host, port := splitAddress(t.Address, fallback)

	start := time.Now()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		if isTimeout(err) {
			return domain.CheckResult{
				Status:       domain.StatusDown,
				ResponseTime: t.TimeoutDuration().Milliseconds(),
				Message:      "connect timed out",
			}
		}
		return domain.CheckResult{
			Status:  domain.StatusDown,
			Message: fmt.Sprintf("port %d closed", port),
		}
	}
	_ = conn.Close()

	return domain.CheckResult{
		Status:       domain.StatusUp,
		ResponseTime: elapsed,
		Message:      fmt.Sprintf("port %d open", port),
	}
}

// PingChecker is TCP reachability on port 80. Raw ICMP needs elevated
// privileges, so "ping" rides the port checker instead. An embedded
// host:port in the address still wins.
type PingChecker struct {
	Port *PortChecker
}

func (p *PingChecker) Check(ctx context.Context, t *domain.Target) domain.CheckResult {
	cp := *t
	cp.Port = 80
	return p.Port.Check(ctx, &cp)
}

// splitAddress splits "host:port", keeping bracketed IPv6 literals
// whole and falling back to the given port when none is embedded.
func splitAddress(addr string, fallback int) (string, int) {
	addr = strings.TrimSpace(addr)
	if strings.Contains(addr, ":") && !strings.HasPrefix(addr, "[") {
		i := strings.LastIndex(addr, ":")
		if p, err := strconv.Atoi(addr[i+1:]); err == nil && p > 0 && p < 65536 {
			return addr[:i], p
		}
	}
	if strings.HasPrefix(addr, "[") {
		if host, portStr, err := net.SplitHostPort(addr); err == nil {
			if p, err := strconv.Atoi(portStr); err == nil {
				return host, p
			}
		}
		addr = strings.Trim(addr, "[]")
	}
	return addr, fallback
}
