package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skywatch/skycore/internal/api"
	"github.com/skywatch/skycore/internal/auth"
	"github.com/skywatch/skycore/internal/config"
	"github.com/skywatch/skycore/internal/metrics"
	"github.com/skywatch/skycore/internal/stream"
	"github.com/skywatch/skycore/internal/tle"
)

func main() {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(os.Getenv("SKYCORE_CONFIG"), bootLogger)
	if err != nil {
		bootLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))

	store := tle.NewStore()
	cache := tle.NewCache(cfg.Catalog.CacheDir, cfg.Catalog.MaxCacheFiles)
	fetcher := tle.NewFetcher(cfg.Catalog.BaseURL)

	// Serve from the latest cached catalog, if any, until the first fetch lands.
	if data, ts, err := cache.LoadLatest(); err != nil {
		logger.Info("no catalog cache found, starting empty", "error", err)
	} else if records, err := tle.DecodeRecords(data); err != nil {
		logger.Warn("failed to decode cached catalog", "error", err)
	} else {
		store.Set(datasetFrom("cache", ts, records))
		metrics.SetCatalogRecords(len(records))
		logger.Info("loaded catalog from cache",
			"records", len(records),
			"cached_at", ts.UTC().Format(time.RFC3339),
		)
	}

	streamCfg := stream.Config{
		MaxConcurrentPerIP: cfg.Stream.MaxConcurrentPerIP,
		KeepaliveInterval:  cfg.Stream.KeepaliveInterval(),
		TrustProxy:         cfg.Stream.TrustProxy,
	}
	streamHandler := stream.NewHandler(store, streamCfg, logger)

	authCfg := auth.Config{Enabled: cfg.Auth.Enabled, Token: cfg.Auth.Token}
	srv := api.NewServer(cfg.HTTPAddr, logger, authCfg, store, streamHandler)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Catalog.FetchOnStart {
		go refreshLoop(ctx, cfg.Catalog, fetcher, store, cache, logger)
	}

	// Background goroutine to update the catalog age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if age := store.AgeSeconds(); age >= 0 {
					metrics.SetCatalogAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server",
			"addr", cfg.HTTPAddr,
			"auth_enabled", cfg.Auth.Enabled,
			"catalog_group", cfg.Catalog.Group,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// refreshLoop fetches the catalog group immediately and then on the
// configured interval. A failed fetch keeps the current dataset.
func refreshLoop(ctx context.Context, cfg config.CatalogConfig, fetcher *tle.Fetcher, store *tle.Store, cache *tle.Cache, logger *slog.Logger) {
	refresh := func() {
		store.Lock()
		defer store.Unlock()

		fetchCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		raw, err := fetcher.FetchRaw(fetchCtx, fetcher.GroupURL(cfg.Group))
		if err != nil {
			metrics.IncCatalogFetch("error")
			logger.Warn("catalog fetch failed", "group", cfg.Group, "error", err)
			return
		}
		records, err := tle.DecodeRecords(raw)
		if err != nil {
			metrics.IncCatalogFetch("error")
			logger.Warn("catalog decode failed", "group", cfg.Group, "error", err)
			return
		}

		now := time.Now().UTC()
		store.Set(datasetFrom(fetcher.GroupURL(cfg.Group), now, records))
		metrics.IncCatalogFetch("success")
		metrics.SetCatalogRecords(len(records))
		logger.Info("catalog refreshed", "group", cfg.Group, "records", len(records))

		if err := cache.Write(raw, now); err != nil {
			logger.Warn("catalog cache write failed", "error", err)
		}
	}

	refresh()

	ticker := time.NewTicker(cfg.RefreshInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			refresh()
		case <-ctx.Done():
			return
		}
	}
}

// datasetFrom assembles a Dataset, deriving the element epoch range from the
// records that carry parseable TLE lines.
func datasetFrom(source string, fetchedAt time.Time, records []tle.CatalogRecord) *tle.Dataset {
	ds := &tle.Dataset{
		Source:    source,
		FetchedAt: fetchedAt,
		Records:   records,
	}
	for _, rec := range records {
		el, err := tle.FromRecord(rec)
		if err != nil {
			continue
		}
		if ds.EpochRange.Min.IsZero() || el.Epoch.Before(ds.EpochRange.Min) {
			ds.EpochRange.Min = el.Epoch
		}
		if ds.EpochRange.Max.IsZero() || el.Epoch.After(ds.EpochRange.Max) {
			ds.EpochRange.Max = el.Epoch
		}
	}
	return ds
}
