package probe

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/hamed0406/sitewatch/internal/domain"
)

func TestRedisChecker_ConnectionRefused(t *testing.T) {
	port := closedPort(t)
	cases := []string{
		fmt.Sprintf("127.0.0.1:%d", port),
		fmt.Sprintf("redis://127.0.0.1:%d", port),
	}
	for _, addr := range cases {
		tgt := &domain.Target{ID: "t1", Address: addr, Timeout: 2}
		out := (&RedisChecker{}).Check(context.Background(), tgt)
		if out.Status != domain.StatusDown {
			t.Fatalf("%s: want down, got %+v", addr, out)
		}
		if !strings.HasPrefix(out.Message, "Redis connection failed: ") {
			t.Fatalf("%s: want failure message, got %q", addr, out.Message)
		}
	}
}
