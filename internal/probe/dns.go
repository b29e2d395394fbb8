package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// DNSChecker resolves the target's hostname. Up means at least one A
// or AAAA record came back; NXDOMAIN and resolver failures are down,
// with the distinction kept in the message.
type DNSChecker struct {
	Resolver *net.Resolver // nil means the OS resolver
}

func (d *DNSChecker) Check(ctx context.Context, t *domain.Target) domain.CheckResult {
	name := dnsName(t.Address)
	if name == "" {
		return domain.CheckResult{Status: domain.StatusDown, Message: "invalid domain name"}
	}

	r := d.Resolver
	if r == nil {
		r = &net.Resolver{}
	}

	start := time.Now()
	ips, err := r.LookupIP(ctx, "ip", name)
	elapsed := time.Since(start).Milliseconds()

	if err == nil && len(ips) > 0 {
		return domain.CheckResult{
			Status:       domain.StatusUp,
			ResponseTime: elapsed,
			Message:      fmt.Sprintf("resolved %d record(s), first %s", len(ips), ips[0]),
		}
	}

	res := domain.CheckResult{Status: domain.StatusDown, ResponseTime: elapsed}
	var de *net.DNSError
	switch {
	case err == nil:
		res.Message = "no A or AAAA records"
	case errors.As(err, &de) && de.IsNotFound:
		res.Message = "domain not found"
	case errors.As(err, &de) && (de.IsTemporary || de.Timeout()):
		res.Message = "DNS lookup timed out"
	default:
		res.Message = "DNS lookup failed: " + truncate(err.Error(), 100)
	}
	return res
}

// dnsName trims a lookup name the way operators paste them in.
func dnsName(addr string) string {
	return strings.TrimSuffix(sslHostname(addr), ".")
}
