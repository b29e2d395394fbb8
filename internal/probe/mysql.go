package probe

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// MySQLChecker opens a connection and pings. The address uses the
// compact [user[:pass]@]host[:port][/db] form; missing pieces default
// to root, 3306 and no database.
type MySQLChecker struct{}

func (m *MySQLChecker) Check(ctx context.Context, t *domain.Target) domain.CheckResult {
	user, pass, host, port, dbName := parseMySQLAddress(t.Address)
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?timeout=%s",
		user, pass, net.JoinHostPort(host, strconv.Itoa(port)), dbName, t.TimeoutDuration())

	start := time.Now()
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return domain.CheckResult{Status: domain.StatusDown, Message: "MySQL connection failed: " + truncate(err.Error(), 100)}
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return domain.CheckResult{Status: domain.StatusDown, Message: "MySQL connection failed: " + truncate(err.Error(), 100)}
	}
	return domain.CheckResult{
		Status:       domain.StatusUp,
		ResponseTime: time.Since(start).Milliseconds(),
		Message:      "MySQL connection OK",
	}
}

func parseMySQLAddress(addr string) (user, pass, host string, port int, dbName string) {
	user = "root"
	rest := strings.TrimSpace(addr)

	if i := strings.LastIndex(rest, "@"); i >= 0 {
		cred := rest[:i]
		rest = rest[i+1:]
		if j := strings.Index(cred, ":"); j >= 0 {
			user, pass = cred[:j], cred[j+1:]
		} else if cred != "" {
			user = cred
		}
	}
	if j := strings.Index(rest, "/"); j >= 0 {
		dbName = rest[j+1:]
		rest = rest[:j]
	}
	host, port = splitAddress(rest, 3306)
	return user, pass, host, port, dbName
}
