// cmd/exporter/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/bridge-vaults-exporter/internal/collector"
	"github.com/tamzrod/bridge-vaults-exporter/internal/config"
	"github.com/tamzrod/bridge-vaults-exporter/internal/httpapi"
	"github.com/tamzrod/bridge-vaults-exporter/internal/logger"
	"github.com/tamzrod/bridge-vaults-exporter/internal/scheduler"
	"github.com/tamzrod/bridge-vaults-exporter/internal/selfmetrics"
	"github.com/tamzrod/bridge-vaults-exporter/internal/snapshot"
	"github.com/tamzrod/bridge-vaults-exporter/internal/state"
)

func main() {
	s, err := parseSettings(os.Args[1:])
	if err != nil {
		log.Fatalf("flags: %v", err)
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, missing, err := config.Load(s.ConfigPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	s.apply(cfg)

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	lg, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Flush(lg)

	for _, name := range missing {
		lg.Warn("config references unset environment variable", zap.String("var", name))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Error("exporter stopped", zap.Error(err))
		logger.Flush(lg)
		os.Exit(1)
	}
	lg.Info("exporter stopped")
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger) error {
	metrics := selfmetrics.New()

	// --------------------
	// Warm start (optional)
	// --------------------

	var (
		initial   *snapshot.Snapshot
		persister collector.Persister
	)
	if cfg.State.Path != "" {
		db, err := state.NewSQLite(cfg.State.Path, lg)
		if err != nil {
			lg.Warn("state disabled", zap.String("path", cfg.State.Path), zap.Error(err))
		} else {
			defer db.Close()
			persister = db

			prev, err := db.Load(ctx)
			switch {
			case err != nil:
				lg.Warn("state load failed", zap.Error(err))
			case prev != nil:
				initial = prev
				lg.Info("serving persisted snapshot until first cycle",
					zap.Time("generated_at", prev.GeneratedAt),
					zap.Int("series", prev.Len()),
				)
			}
		}
	}

	store := snapshot.NewStore(initial)
	if initial != nil {
		metrics.Published(initial.Len(), initial.GeneratedAt)
	}

	// --------------------
	// Collector
	// --------------------

	readers, closeReaders, err := collector.BuildReaders(cfg)
	if err != nil {
		return err
	}
	defer closeReaders()

	col, err := collector.New(collector.Options{
		Plan:                  collector.BuildPlan(cfg),
		Readers:               readers,
		Retry:                 collector.RetryPolicy(cfg.Collector),
		CycleTimeout:          cfg.CycleTimeout(),
		PublishOnTotalFailure: cfg.Collector.OnTotalFailure == config.OnTotalFailurePublish,
		Store:                 store,
		Persister:             persister,
		Metrics:               metrics,
		Log:                   lg.Named("collector"),
	})
	if err != nil {
		return err
	}

	interval := time.Duration(cfg.Metrics.CollectionIntervalSec) * time.Second
	runner, err := scheduler.New(interval, func(ctx context.Context) {
		col.RunCycle(ctx)
	}, metrics, lg.Named("scheduler"))
	if err != nil {
		return err
	}

	// --------------------
	// Exposition
	// --------------------

	srv, err := httpapi.New(httpapi.Options{
		Addr:        cfg.Metrics.ListenAddress,
		MetricsPath: cfg.Metrics.MetricsPath,
		Store:       store,
		Gatherer:    metrics.Gatherer(),
		Log:         lg.Named("http"),
	})
	if err != nil {
		return err
	}

	lg.Info("exporter started",
		zap.Int("networks", len(cfg.Networks)),
		zap.Duration("interval", interval),
		zap.String("listen", cfg.Metrics.ListenAddress),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	g.Go(func() error {
		runner.Run(gctx)
		return nil
	})
	return g.Wait()
}
