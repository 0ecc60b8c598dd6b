// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/config"
	"github.com/tomtom215/reelrank/internal/recommend"
	"github.com/tomtom215/reelrank/internal/storage"
)

// redisConfigFrom maps the loaded configuration to the storage package's.
func redisConfigFrom(cfg *config.Config) storage.RedisConfig {
	rc := cfg.Storage.Redis
	return storage.RedisConfig{
		URL:              rc.URL,
		Addr:             rc.Addr(),
		Password:         rc.Password,
		DB:               rc.Database,
		DialTimeout:      rc.DialTimeout,
		ReadTimeout:      rc.ReadTimeout,
		WriteTimeout:     rc.WriteTimeout,
		PoolSize:         rc.PoolSize,
		OperationTimeout: cfg.Storage.OperationTimeout,
		Breaker: storage.BreakerConfig{
			Name:             "redis",
			MaxRequests:      cfg.Storage.Breaker.MaxRequests,
			Interval:         cfg.Storage.Breaker.Interval,
			Timeout:          cfg.Storage.Breaker.Timeout,
			FailureThreshold: cfg.Storage.Breaker.FailureThreshold,
		},
	}
}

// initStorage opens the configured backend. The returned locker is nil
// unless distributed recompute locking is enabled.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func initStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.Backend, recommend.Locker, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		logger.Warn().Msg("Using in-memory storage: rankings are lost on restart")
		return storage.NewMemory(), nil, nil

	case config.BackendRedis:
		redisCfg := redisConfigFrom(cfg)
		store, err := storage.NewRedis(ctx, redisCfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info().
			Str("addr", redisCfg.Addr).
			Bool("url", redisCfg.URL != "").
			Int("db", redisCfg.DB).
			Msg("Redis storage connected")

		if !cfg.Scoring.DistributedLock {
			return store, nil, nil
		}
		logger.Info().
			Dur("ttl", cfg.Scoring.LockTTL).
			Dur("wait", cfg.Scoring.LockWait).
			Msg("Distributed recompute locking enabled")
		return store, storage.NewRedisLocker(store, cfg.Scoring.LockTTL, cfg.Scoring.LockWait), nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
