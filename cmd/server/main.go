// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/api"
	"github.com/tomtom215/reelrank/internal/config"
	"github.com/tomtom215/reelrank/internal/eventprocessor"
	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/recommend"
	"github.com/tomtom215/reelrank/internal/supervisor"
	"github.com/tomtom215/reelrank/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logger := logging.Logger()

	logger.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("storage", cfg.Storage.Backend).
		Bool("nats", cfg.NATS.Enabled).
		Msg("Starting ReelRank")

	if path := config.FilePath(); path != "" {
		if err := config.WatchConfigFile(path, func() { reloadLogLevel(logger) }); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("Config file watch disabled")
		}
	}

	// SIGINT/SIGTERM cancel the root context and start graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, locker, err := initStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing storage")
		}
	}()

	queue, err := InitQueue(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize recompute queue")
	}
	defer queue.Shutdown(context.Background())

	engineOpts := []recommend.EngineOption{recommend.WithItemTimeout(cfg.Scoring.ItemTimeout)}
	if locker != nil {
		engineOpts = append(engineOpts, recommend.WithDistributedLocker(locker))
	}
	engine, err := recommend.NewEngine(store, cfg.Scoring.Weights, logger, engineOpts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create recompute engine")
	}
	ingestor := recommend.NewIngestor(store, queue.Queue(), logger)
	reader := recommend.NewReader(store, logger)

	logger.Info().
		Float64("view", cfg.Scoring.Weights.View).
		Float64("like", cfg.Scoring.Weights.Like).
		Float64("liked", cfg.Scoring.Weights.Liked).
		Float64("watch_penalty", cfg.Scoring.Weights.WatchPenalty).
		Float64("recency", cfg.Scoring.Weights.Recency).
		Int("recency_window_days", cfg.Scoring.Weights.RecencyWindowDays).
		Msg("Scoring weights loaded")

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	handler := eventprocessor.NewRecomputeHandler(engine, logger)
	tree.AddWorkerService(services.NewRecomputeWorkerService(queue.RouterFactory(handler), logger))

	apiHandler := api.NewHandler(ingestor, reader, map[string]api.Pinger{
		"storage": store,
		"queue":   queue,
	}, api.HandlerConfig{
		DefaultCount:   cfg.API.DefaultCount,
		MaxCount:       cfg.API.MaxCount,
		RequestTimeout: cfg.API.RequestTimeout,
		Version:        version,
	})

	mwCfg := api.DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.API.CORSOrigins
	mwCfg.RateLimitRequests = cfg.API.RateLimitRequests
	mwCfg.RateLimitWindow = cfg.API.RateLimitWindow

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(apiHandler, api.NewChiMiddleware(mwCfg)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout).WithLogger(logger))
	logger.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	logger.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logger.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logger.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logger.Info().Msg("Application stopped gracefully")
}

// reloadLogLevel applies a changed log level from the config file. Other
// settings require a restart.
func reloadLogLevel(logger zerolog.Logger) {
	cfg, err := config.Load()
	if err != nil {
		logger.Warn().Err(err).Msg("Ignoring invalid config file change")
		return
	}
	if cfg.Logging.Level == logging.GetLevel().String() {
		return
	}
	logging.SetLevel(cfg.Logging.Level)
	logger.Info().Str("level", cfg.Logging.Level).Msg("Log level reloaded")
}
