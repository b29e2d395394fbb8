package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// SSLChecker handshakes with port 443 and judges the certificate by
// days until NotAfter. The verdict bands: expired or within 7 days is
// down, within 30 days is up but flagged, beyond that is healthy.
type SSLChecker struct {
	DialPort int         // 0 means 443
	Config   *tls.Config // nil means system roots and full verification
}

func (s *SSLChecker) Check(ctx context.Context, t *domain.Target) domain.CheckResult {
	host := sslHostname(t.Address)
	port := s.DialPort
	if port == 0 {
		port = 443
	}

	cfg := s.Config
	if cfg == nil {
		cfg = &tls.Config{}
	}

	start := time.Now()
	td := &tls.Dialer{NetDialer: &net.Dialer{}, Config: cfg}
	conn, err := td.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		if isTLSError(err) {
			return domain.CheckResult{Status: domain.StatusDown, Message: "SSL error: " + truncate(err.Error(), 100)}
		}
		return domain.CheckResult{Status: domain.StatusDown, Message: "SSL check failed: " + truncate(err.Error(), 100)}
	}
	state := conn.(*tls.Conn).ConnectionState()
	_ = conn.Close()

	if len(state.PeerCertificates) == 0 {
		return domain.CheckResult{Status: domain.StatusDown, Message: "SSL check failed: no peer certificate"}
	}
	leaf := state.PeerCertificates[0]
	days := int(time.Until(leaf.NotAfter).Hours() / 24)

	res := domain.CheckResult{
		ResponseTime: elapsed,
		CertDaysLeft: &days,
	}
	switch {
	case days <= 0:
		res.Status = domain.StatusDown
		res.Message = "certificate expired"
	case days <= 7:
		res.Status = domain.StatusDown
		res.Message = fmt.Sprintf("certificate expires in %d days", days)
	case days <= 30:
		res.Status = domain.StatusUp
		res.Message = fmt.Sprintf("certificate valid, %d days left (expiring soon)", days)
	default:
		res.Status = domain.StatusUp
		res.Message = fmt.Sprintf("certificate valid, %d days left", days)
	}
	return res
}

// sslHostname pulls a bare hostname out of whatever the user typed:
// a URL, host:port, or a plain host.
func sslHostname(addr string) string {
	addr = strings.TrimSpace(addr)
	if strings.Contains(addr, "://") {
		if u, err := url.Parse(addr); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}
	host, _ := splitAddress(addr, 0)
	return host
}
