package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/httpapi"
	"github.com/hamed0406/sitewatch/internal/logging"
	"github.com/hamed0406/sitewatch/internal/metrics"
	"github.com/hamed0406/sitewatch/internal/notify"
	"github.com/hamed0406/sitewatch/internal/probe"
	"github.com/hamed0406/sitewatch/internal/scheduler"
	"github.com/hamed0406/sitewatch/internal/state"
	"github.com/hamed0406/sitewatch/internal/stats"
	"github.com/hamed0406/sitewatch/internal/store"
	"github.com/hamed0406/sitewatch/internal/store/memory"
	"github.com/hamed0406/sitewatch/internal/store/postgres"
	"github.com/hamed0406/sitewatch/internal/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("store_open_failed",
			zap.String("backend", cfg.StoreBackend()),
			zap.Error(err))
	}
	defer st.Close()

	if cfg.SeedFile != "" {
		if err := importSeed(ctx, cfg.SeedFile, st, logger); err != nil {
			logger.Fatal("seed_import_failed", zap.Error(err))
		}
	}

	var m metrics.Metrics = metrics.Nop{}
	if cfg.StatsdAddr != "" {
		sd := metrics.NewStatsd(cfg.StatsdAddr, cfg.Instance)
		defer sd.Close()
		m = sd
	}

	tracker := state.New()
	probes := probe.NewSet(st)
	dispatcher := notify.NewDispatcher(st, logger, m)

	sched := scheduler.New(st, probes, tracker, dispatcher, logger, m, scheduler.Config{
		RetentionDays: cfg.RetentionDays,
		RetryAttempts: cfg.RetryAttempts,
		RetryBackoff:  cfg.RetryBackoff,
	})
	if err := sched.Start(ctx); err != nil {
		logger.Fatal("scheduler_start_failed", zap.Error(err))
	}

	api := httpapi.NewServer(logger, st, sched, stats.New(st), dispatcher, tracker)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(cfg.RateLimitPerMin, cfg.RateLimitBurst),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api_listen",
			zap.String("addr", cfg.Addr),
			zap.String("store", cfg.StoreBackend()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown_signal")
	case err := <-errCh:
		logger.Error("api_serve_failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api_shutdown_failed", zap.Error(err))
	}
	sched.Stop()
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreBackend() {
	case "postgres":
		return postgres.New(ctx, cfg.DatabaseURL)
	case "sqlite":
		return sqlite.Open(cfg.SQLitePath)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend())
	}
}

// importSeed populates an empty store from a YAML file. A store that
// already has monitors or channels is left untouched, so the file can
// stay in place across restarts.
func importSeed(ctx context.Context, path string, st store.Store, logger *zap.Logger) error {
	targets, err := st.ListTargets(ctx)
	if err != nil {
		return fmt.Errorf("list targets: %w", err)
	}
	channels, err := st.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}
	if len(targets) > 0 || len(channels) > 0 {
		logger.Info("seed_skipped_store_not_empty", zap.String("file", path))
		return nil
	}

	seed, err := config.LoadSeed(path)
	if err != nil {
		return err
	}

	// channels first, so monitors can reference them by name
	byName := make(map[string]string, len(seed.Notify))
	for _, sc := range seed.Notify {
		ch := sc.ToChannel()
		if err := st.CreateChannel(ctx, ch); err != nil {
			return fmt.Errorf("seed channel %s: %w", ch.Name, err)
		}
		byName[ch.Name] = ch.ID
	}
	for _, sm := range seed.Monitors {
		t := sm.ToTarget()
		for i, ref := range t.NotifyChannels {
			if id, ok := byName[ref]; ok {
				t.NotifyChannels[i] = id
			}
		}
		if err := st.CreateTarget(ctx, t); err != nil {
			return fmt.Errorf("seed monitor %s: %w", t.Name, err)
		}
	}

	logger.Info("seed_imported",
		zap.String("file", path),
		zap.Int("monitors", len(seed.Monitors)),
		zap.Int("channels", len(seed.Notify)))
	return nil
}
