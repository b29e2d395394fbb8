package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// closedPort returns a loopback port that nothing listens on.
func closedPort(t *testing.T) int {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := lis.Addr().(*net.TCPAddr).Port
	_ = lis.Close()
	return port
}

func TestPortChecker_Open(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer lis.Close()
	port := lis.Addr().(*net.TCPAddr).Port

	tgt := &domain.Target{ID: "t1", Address: "127.0.0.1", Port: port, Timeout: 2}
	out := (&PortChecker{}).Check(context.Background(), tgt)
	if out.Status != domain.StatusUp {
		t.Fatalf("want up, got %+v", out)
	}
	if out.Message != fmt.Sprintf("port %d open", port) {
		t.Fatalf("want open message, got %q", out.Message)
	}
}

func TestPortChecker_Closed(t *testing.T) {
	port := closedPort(t)
	tgt := &domain.Target{ID: "t1", Address: "127.0.0.1", Port: port, Timeout: 2}
	out := (&PortChecker{}).Check(context.Background(), tgt)
	if out.Status != domain.StatusDown {
		t.Fatalf("want down, got %+v", out)
	}
	if out.Message != fmt.Sprintf("port %d closed", port) {
		t.Fatalf("want closed message, got %q", out.Message)
	}
	if out.ResponseTime != 0 {
		t.Fatalf("refused connection must report 0 ms, got %d", out.ResponseTime)
	}
}

func TestPortChecker_EmbeddedPortWins(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer lis.Close()
	port := lis.Addr().(*net.TCPAddr).Port

	tgt := &domain.Target{
		ID:      "t1",
		Address: net.JoinHostPort("127.0.0.1", strconv.Itoa(port)),
		Port:    closedPort(t), // would fail if it were used
		Timeout: 2,
	}
	out := (&PortChecker{}).Check(context.Background(), tgt)
	if out.Status != domain.StatusUp {
		t.Fatalf("embedded port must win, got %+v", out)
	}
}

func TestPingChecker_EmbeddedPortStillWins(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer lis.Close()
	port := lis.Addr().(*net.TCPAddr).Port

	chk := &PingChecker{Port: &PortChecker{}}
	tgt := &domain.Target{ID: "t1", Address: net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), Timeout: 2}
	out := chk.Check(context.Background(), tgt)
	if out.Status != domain.StatusUp {
		t.Fatalf("want up via embedded port, got %+v", out)
	}

	// the forced port 80 must not leak back into the caller's target
	if tgt.Port != 0 {
		t.Fatalf("ping mutated the target: port %d", tgt.Port)
	}
}

func TestSplitAddress(t *testing.T) {
	cases := []struct {
		in       string
		fallback int
		host     string
		port     int
	}{
		{"example.com", 443, "example.com", 443},
		{"example.com:8443", 443, "example.com", 8443},
		{" example.com:8443 ", 443, "example.com", 8443},
		{"10.0.0.7:22", 80, "10.0.0.7", 22},
		{"[::1]:6379", 80, "::1", 6379},
		{"[::1]", 9, "::1", 9},
		{"example.com:notaport", 7, "example.com:notaport", 7},
	}
	for _, c := range cases {
		host, port := splitAddress(c.in, c.fallback)
		if host != c.host || port != c.port {
			t.Fatalf("splitAddress(%q, %d): want (%q, %d), got (%q, %d)",
				c.in, c.fallback, c.host, c.port, host, port)
		}
	}
}
