package probe

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// tlsFixture serves a throwaway certificate expiring at notAfter and
// returns the listener port plus a pool that trusts the certificate.
func tlsFixture(t *testing.T, notAfter time.Time) (int, *x509.CertPool) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "probe test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	parsed, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	pool := x509.NewCertPool()
	pool.AddCert(parsed)

	lis, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: []tls.Certificate{{Certificate: [][]byte{der}, PrivateKey: key}},
	})
	if err != nil {
		t.Fatalf("tls listen: %v", err)
	}
	t.Cleanup(func() { _ = lis.Close() })
	go func() {
		for {
			conn, err := lis.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				_, _ = c.Read(make([]byte, 1)) // drives the handshake
			}(conn)
		}
	}()

	return lis.Addr().(*net.TCPAddr).Port, pool
}

func sslTarget(port int) (*domain.Target, *SSLChecker) {
	return &domain.Target{ID: "t1", Address: "127.0.0.1", Timeout: 3}, &SSLChecker{DialPort: port}
}

func TestSSLChecker_Bands(t *testing.T) {
	cases := []struct {
		name       string
		notAfter   time.Time
		wantStatus domain.Status
		wantDays   int
		wantPrefix string
	}{
		{"healthy", time.Now().Add(100*24*time.Hour + time.Hour), domain.StatusUp, 100, "certificate valid, 100 days left"},
		{"expiring soon", time.Now().Add(10*24*time.Hour + time.Hour), domain.StatusUp, 10, "certificate valid, 10 days left (expiring soon)"},
		{"nearly expired", time.Now().Add(3*24*time.Hour + time.Hour), domain.StatusDown, 3, "certificate expires in 3 days"},
		// still valid for the handshake, but inside the final day
		{"last day", time.Now().Add(time.Hour), domain.StatusDown, 0, "certificate expired"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			port, pool := tlsFixture(t, c.notAfter)
			tgt, chk := sslTarget(port)
			chk.Config = &tls.Config{RootCAs: pool}

			out := chk.Check(context.Background(), tgt)
			if out.Status != c.wantStatus {
				t.Fatalf("want status %v, got %+v", c.wantStatus, out)
			}
			if out.CertDaysLeft == nil || *out.CertDaysLeft != c.wantDays {
				t.Fatalf("want %d days left, got %+v", c.wantDays, out.CertDaysLeft)
			}
			if !strings.HasPrefix(out.Message, c.wantPrefix) {
				t.Fatalf("want message %q, got %q", c.wantPrefix, out.Message)
			}
		})
	}
}

func TestSSLChecker_UntrustedChainIsDown(t *testing.T) {
	port, _ := tlsFixture(t, time.Now().Add(90*24*time.Hour))
	tgt, chk := sslTarget(port)
	// no RootCAs configured: system verification rejects the chain

	out := chk.Check(context.Background(), tgt)
	if out.Status != domain.StatusDown {
		t.Fatalf("want down, got %+v", out)
	}
	if !strings.HasPrefix(out.Message, "SSL error: ") {
		t.Fatalf("want SSL error message, got %q", out.Message)
	}
}

func TestSSLChecker_NotSpeakingTLS(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer lis.Close()
	go func() {
		for {
			conn, err := lis.Accept()
			if err != nil {
				return
			}
			_, _ = conn.Write([]byte("220 smtp, not tls\r\n"))
			_ = conn.Close()
		}
	}()

	tgt, chk := sslTarget(lis.Addr().(*net.TCPAddr).Port)
	out := chk.Check(context.Background(), tgt)
	if out.Status != domain.StatusDown {
		t.Fatalf("want down, got %+v", out)
	}
	if !strings.HasPrefix(out.Message, "SSL") {
		t.Fatalf("want an SSL failure message, got %q", out.Message)
	}
}

func TestSSLHostname(t *testing.T) {
	cases := map[string]string{
		"https://example.com/path":  "example.com",
		"http://example.com:8443/x": "example.com",
		"example.com":               "example.com",
		"example.com:993":           "example.com",
	}
	for in, want := range cases {
		if got := sslHostname(in); got != want {
			t.Fatalf("sslHostname(%q): want %q, got %q", in, want, got)
		}
	}
}
