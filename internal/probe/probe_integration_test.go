//go:build integration

package probe

// go test -tags=integration ./internal/probe -count=1

import (
	"context"
	"os"
	"testing"

	"github.com/hamed0406/sitewatch/internal/domain"
)

func TestMySQLChecker_Live(t *testing.T) {
	addr := os.Getenv("MYSQL_ADDR") // e.g. root:secret@127.0.0.1:3306
	if addr == "" {
		t.Skip("MYSQL_ADDR empty")
	}

	tgt := &domain.Target{ID: "it-mysql", Address: addr, Timeout: 5}
	out := (&MySQLChecker{}).Check(context.Background(), tgt)
	if out.Status != domain.StatusUp {
		t.Fatalf("want up, got %+v", out)
	}
	if out.Message != "MySQL connection OK" {
		t.Fatalf("want OK message, got %q", out.Message)
	}
	if out.ResponseTime < 0 {
		t.Fatalf("response time: %d", out.ResponseTime)
	}
}

func TestRedisChecker_Live(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR") // e.g. 127.0.0.1:6379
	if addr == "" {
		t.Skip("REDIS_ADDR empty")
	}

	tgt := &domain.Target{ID: "it-redis", Address: addr, Timeout: 5}
	out := (&RedisChecker{}).Check(context.Background(), tgt)
	if out.Status != domain.StatusUp {
		t.Fatalf("want up, got %+v", out)
	}
	if out.Message != "Redis connection OK" {
		t.Fatalf("want OK message, got %q", out.Message)
	}
}
