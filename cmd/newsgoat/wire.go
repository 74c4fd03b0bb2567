package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/NewsGoat/internal/cache"
	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/engine"
	"github.com/IshaanNene/NewsGoat/internal/extract"
	"github.com/IshaanNene/NewsGoat/internal/fetcher"
	"github.com/IshaanNene/NewsGoat/internal/observability"
	"github.com/IshaanNene/NewsGoat/internal/storage"
)

// app holds the components shared by the extract and news commands.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	fetcher   fetcher.Fetcher
	extractor engine.Extractor
	cache     *cache.CachedExtractor
	metrics   *observability.Metrics
	store     *storage.MultiStorage
}

// newApp builds fetcher, extractor, optional cache and optional metrics from
// cfg. Storage backends are opened only when withStorage is set.
func newApp(cfg *config.Config, logger *slog.Logger, withStorage bool) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	a.fetcher = f
	a.extractor = extract.New(f, cfg.Extract, logger)

	if cfg.Cache.Enabled {
		a.cache = cache.NewCachedExtractor(a.extractor, cache.NewClient(cfg.Cache), cfg.Cache, logger)
		a.extractor = a.cache
		logger.Info("extraction cache enabled", "addr", cfg.Cache.Addr, "ttl", cfg.Cache.TTL)
	}

	if withStorage {
		store, err := storage.New(cfg, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create storage: %w", err)
		}
		a.store = store
	}

	if cfg.Metrics.Enabled {
		a.metrics = observability.NewMetrics(logger)
		if a.store != nil {
			a.store.SetRecorder(a.metrics)
		}
		if err := a.metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	return a, nil
}

// batch returns a worker pool over the app's extractor.
func (a *app) batch() *engine.Batch {
	var opts []engine.BatchOption
	if a.metrics != nil {
		opts = append(opts, engine.WithRecorder(a.metrics))
	}
	return engine.NewBatch(a.extractor, a.cfg.Extract, a.logger, opts...)
}

// Close releases every component; errors are logged.
func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error("storage close failed", "error", err)
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("cache close failed", "error", err)
		}
	}
	if a.fetcher != nil {
		if err := a.fetcher.Close(); err != nil {
			a.logger.Warn("fetcher close failed", "error", err)
		}
	}
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.metrics.Shutdown(ctx)
	}
}
