package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

const defaultUserAgent = "SiteWatch/1.0"

// HTTPChecker drives http, https and the status half of keyword
// checks. Certificate verification stays on; a broken chain is a
// finding, not noise.
type HTTPChecker struct {
	Client *http.Client
}

func NewHTTPChecker() *HTTPChecker {
	// no client timeout; the per-check deadline arrives via ctx
	return &HTTPChecker{Client: &http.Client{}}
}

func (h *HTTPChecker) Check(ctx context.Context, t *domain.Target) domain.CheckResult {
	method := t.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if method == http.MethodPost && t.Body != "" {
		body = strings.NewReader(t.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.Address, body)
	if err != nil {
		return domain.CheckResult{Status: domain.StatusDown, Message: truncate(err.Error(), 200)}
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := h.Client.Do(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return webFailure(err, t)
	}
	defer resp.Body.Close()

	expected := t.ExpectedStatus
	if expected == 0 {
		expected = domain.DefaultExpectedStatus
	}
	res := domain.CheckResult{
		ResponseTime: elapsed,
		HTTPStatus:   resp.StatusCode,
	}
	if resp.StatusCode == expected || resp.StatusCode < 400 {
		res.Status = domain.StatusUp
		res.Message = "OK"
	} else {
		res.Status = domain.StatusDown
		res.Message = fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return res
}

// webFailure maps a transport error to the message vocabulary users
// see on dashboards. Order matters: a TLS handshake that times out
// reads as a timeout, not a certificate problem.
func webFailure(err error, t *domain.Target) domain.CheckResult {
	res := domain.CheckResult{Status: domain.StatusDown}
	switch {
	case isTimeout(err):
		res.ResponseTime = t.TimeoutDuration().Milliseconds()
		res.Message = "request timed out"
	case isTLSError(err):
		res.Message = "SSL error: " + truncate(err.Error(), 100)
	case isConnectionError(err):
		res.Message = "connection failed"
	default:
		res.Message = truncate(err.Error(), 200)
	}
	return res
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isTLSError(err error) bool {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var recErr tls.RecordHeaderError
	if errors.As(err, &recErr) {
		return true
	}
	var hostErr x509.HostnameError
	if errors.As(err, &hostErr) {
		return true
	}
	var authErr x509.UnknownAuthorityError
	if errors.As(err, &authErr) {
		return true
	}
	var invErr x509.CertificateInvalidError
	if errors.As(err, &invErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "tls:") || strings.Contains(msg, "x509:")
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
