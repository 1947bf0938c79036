package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"sales-drilldown/internal/config"
	"sales-drilldown/internal/dataset"
	"sales-drilldown/internal/middleware"
	"sales-drilldown/internal/observability"
	"sales-drilldown/internal/server"
	"sales-drilldown/internal/services"
	"sales-drilldown/internal/session"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"addr", cfg.Address(),
		"dataset_source", cfg.Dataset.Source,
		"tracing", cfg.Tracing.Enabled,
	)

	shutdownTracer := observability.InitTracer(context.Background(), cfg.Tracing, logger)

	start := time.Now()
	ds, err := loadDataset(cfg.Dataset)
	if err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}
	logger.Info("dataset loaded",
		"source", ds.Source(),
		"records", ds.Len(),
		"regions", len(ds.Regions()),
		"duration", time.Since(start),
	)

	handler, store, err := newHandler(cfg, ds, logger)
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook("sessions", func(ctx context.Context) error {
		logger.Info("dropping in-memory sessions", "count", store.Count())
		return nil
	})
	gracefulServer.RegisterShutdownHook("tracer", func(ctx context.Context) error {
		return shutdownTracer(ctx)
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}

// loadDataset builds the synthetic dataset or reads the configured CSV file.
func loadDataset(cfg config.DatasetConfig) (*dataset.Dataset, error) {
	if cfg.Source == config.DatasetCSV {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.LoadTimeout)
		defer cancel()
		return dataset.LoadCSVCached(ctx, cfg.CSVFile, cfg.CacheDir)
	}

	cat := dataset.DefaultCatalog()
	if cfg.CatalogFile != "" {
		var err error
		if cat, err = dataset.LoadCatalog(cfg.CatalogFile); err != nil {
			return nil, err
		}
	}
	return dataset.Generate(cat, cat.SeedOr(cfg.Seed)), nil
}

// newHandler wires sessions, the explorer service and the middleware chain
// around the route table.
func newHandler(cfg *config.Config, ds *dataset.Dataset, logger *slog.Logger) (http.Handler, *session.Store, error) {
	store := session.NewStore(cfg.Session.IdleTimeout, 0)

	sessions, err := session.NewManager(session.Config{
		CookieName:   cfg.Session.CookieName,
		HashKey:      []byte(cfg.Session.HashKey),
		BlockKey:     []byte(cfg.Session.BlockKey),
		CookieSecure: cfg.Session.CookieSecure,
		Lifetime:     cfg.Session.Lifetime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("session manager: %w", err)
	}
	if cfg.Session.HashKey == "" {
		logger.Warn("SESSION_HASH_KEY not set, sessions will not survive a restart")
	}

	explorer := services.NewExplorer(ds, store, logger)

	srv, err := server.NewServer(explorer, sessions, logger)
	if err != nil {
		return nil, nil, err
	}

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Tracing(nil),
		middleware.Logger(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.CSRF(cfg.Security, logger),
		middleware.RateLimit(rateLimiter, logger),
	)

	return middlewareChain(srv), store, nil
}
