package probe

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// RedisChecker pings a redis server. The address is host[:port] with
// an optional redis:// prefix; the port defaults to 6379.
type RedisChecker struct{}

func (r *RedisChecker) Check(ctx context.Context, t *domain.Target) domain.CheckResult {
	addr := strings.TrimPrefix(strings.TrimSpace(t.Address), "redis://")
	host, port := splitAddress(addr, 6379)

	client := redis.NewClient(&redis.Options{
		Addr:        net.JoinHostPort(host, strconv.Itoa(port)),
		DialTimeout: t.TimeoutDuration(),
		ReadTimeout: t.TimeoutDuration(),
	})
	defer client.Close()

	start := time.Now()
	if err := client.Ping(ctx).Err(); err != nil {
		return domain.CheckResult{Status: domain.StatusDown, Message: "Redis connection failed: " + truncate(err.Error(), 100)}
	}
	return domain.CheckResult{
		Status:       domain.StatusUp,
		ResponseTime: time.Since(start).Milliseconds(),
		Message:      "Redis connection OK",
	}
}
