package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/vrischmann/envconfig"
)

type Config struct {
	Addr   string `envconfig:"ADDR,default=127.0.0.1:8080"`
	LogDir string `envconfig:"LOG_DIR,default=logs"`

	// STORE forces a backend: "memory", "sqlite" or "postgres".
	// Left empty, DATABASE_URL selects postgres and sqlite is the
	// fallback.
	Store       string `envconfig:"STORE,optional"`
	DatabaseURL string `envconfig:"DATABASE_URL,optional"`
	SQLitePath  string `envconfig:"SQLITE_PATH,default=sitewatch.db"`

	// SEED_FILE imports monitors and channels into an empty store.
	SeedFile string `envconfig:"SEED_FILE,optional"`

	StatsdAddr string `envconfig:"STATSD_ADDR,optional"`
	Instance   string `envconfig:"INSTANCE,default=sitewatch"`

	// Per-IP API rate limit; 0 disables it.
	RateLimitPerMin int `envconfig:"RATE_LIMIT_PER_MIN,default=300"`
	RateLimitBurst  int `envconfig:"RATE_LIMIT_BURST,default=100"`

	// Retry tuning for manual checks
	RetryAttempts int           `envconfig:"RETRY_ATTEMPTS,default=2"`
	RetryBackoff  time.Duration `envconfig:"RETRY_BACKOFF,default=300ms"`

	RetentionDays int `envconfig:"RETENTION_DAYS,default=90"`
}

// Load reads .env if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Init(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if cfg.RetentionDays < 1 {
		cfg.RetentionDays = 1
	}
	return cfg, nil
}

// StoreBackend resolves which persistence backend to run on.
func (c Config) StoreBackend() string {
	if c.Store != "" {
		return c.Store
	}
	if c.DatabaseURL != "" {
		return "postgres"
	}
	return "sqlite"
}
