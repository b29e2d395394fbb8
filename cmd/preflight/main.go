// cmd/preflight/main.go
package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	addr := strings.TrimSpace(os.Getenv("ADDR"))
	storeEnv := strings.TrimSpace(os.Getenv("STORE"))
	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	sqlitePath := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	seed := strings.TrimSpace(os.Getenv("SEED_FILE"))
	statsd := strings.TrimSpace(os.Getenv("STATSD_ADDR"))
	retention := strings.TrimSpace(os.Getenv("RETENTION_DAYS"))

	if addr == "" {
		warn("ADDR is empty; the daemon defaults to 127.0.0.1:8080.")
	} else if _, _, err := net.SplitHostPort(addr); err != nil {
		fail("ADDR is not host:port: " + addr)
	} else {
		ok("ADDR=" + addr)
	}

	switch storeEnv {
	case "", "memory", "sqlite", "postgres":
	default:
		fail("STORE must be memory, sqlite or postgres; got " + storeEnv)
	}
	if storeEnv == "postgres" && db == "" {
		fail("STORE=postgres but DATABASE_URL is empty.")
	}
	if storeEnv == "memory" {
		warn("STORE=memory: monitors and history vanish on restart.")
	}
	if db != "" {
		ok("DATABASE_URL present (postgres backend)")
	} else if storeEnv == "" || storeEnv == "sqlite" {
		path := sqlitePath
		if path == "" {
			path = "sitewatch.db"
		}
		ok("sqlite backend at " + path)
	}

	if seed != "" {
		if _, err := os.Stat(seed); err != nil {
			fail("SEED_FILE set but unreadable: " + err.Error())
		}
		ok("SEED_FILE=" + seed)
	}

	if statsd != "" {
		if _, _, err := net.SplitHostPort(statsd); err != nil {
			fail("STATSD_ADDR is not host:port: " + statsd)
		}
		ok("STATSD_ADDR=" + statsd)
	}

	if retention != "" {
		if n, err := strconv.Atoi(retention); err != nil || n < 1 {
			fail("RETENTION_DAYS must be a positive integer; got " + retention)
		}
		ok("RETENTION_DAYS=" + retention)
	}

	ok("preflight passed")
}
