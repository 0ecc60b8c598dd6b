// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package config

import (
	"fmt"

	"github.com/tomtom215/reelrank/internal/logging"
)

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateAPI(); err != nil {
		return err
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	if err := c.validateNATS(); err != nil {
		return err
	}

	if err := c.validateScoring(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// validateAPI validates request limits
func (c *Config) validateAPI() error {
	if c.API.MaxCount < 1 {
		return fmt.Errorf("API_MAX_COUNT must be at least 1")
	}
	if c.API.DefaultCount < 1 || c.API.DefaultCount > c.API.MaxCount {
		return fmt.Errorf("API_DEFAULT_COUNT must be between 1 and API_MAX_COUNT (%d)", c.API.MaxCount)
	}
	if c.API.RateLimitRequests < 0 {
		return fmt.Errorf("API_RATE_LIMIT_REQUESTS must not be negative")
	}
	if c.API.RateLimitRequests > 0 && c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("API_RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

// validateStorage validates the storage backend selection and Redis settings
func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case BackendMemory:
		return nil
	case BackendRedis:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: redis, memory")
	}

	r := c.Storage.Redis
	if r.URL != "" {
		if err := validateRedisURL(r.URL); err != nil {
			return fmt.Errorf("REDIS_URL is invalid: %w", err)
		}
		return nil
	}
	if r.Host == "" {
		return fmt.Errorf("REDIS_HOST is required when STORAGE_BACKEND=redis")
	}
	if r.Port < 1 || r.Port > 65535 {
		return fmt.Errorf("REDIS_PORT must be between 1 and 65535")
	}
	if r.Database < 0 {
		return fmt.Errorf("REDIS_DATABASE must not be negative")
	}
	return nil
}

// validateNATS validates NATS configuration (only if enabled)
func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}

	if c.NATS.EmbeddedServer {
		if c.NATS.StoreDir == "" {
			return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
		}
		if c.NATS.Port < -1 || c.NATS.Port > 65535 {
			return fmt.Errorf("NATS_PORT must be between -1 and 65535")
		}
	} else if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}

	if c.NATS.SubscribersCount < 1 {
		return fmt.Errorf("NATS_SUBSCRIBERS must be at least 1")
	}
	if c.NATS.RouterRetryCount < 0 {
		return fmt.Errorf("NATS_ROUTER_RETRIES must not be negative")
	}
	if c.NATS.RouterPoisonQueueEnabled && c.NATS.RouterPoisonQueueTopic == "" {
		return fmt.Errorf("nats.router_poison_queue_topic is required when the poison queue is enabled")
	}
	return nil
}

// validateScoring validates scoring weights and lock settings
func (c *Config) validateScoring() error {
	if err := c.Scoring.Weights.Validate(); err != nil {
		return fmt.Errorf("scoring weights are invalid: %w", err)
	}
	if c.Scoring.ItemTimeout <= 0 {
		return fmt.Errorf("SCORE_ITEM_TIMEOUT must be positive")
	}
	if c.Scoring.DistributedLock {
		if c.Storage.Backend != BackendRedis {
			return fmt.Errorf("SCORE_DISTRIBUTED_LOCK requires STORAGE_BACKEND=redis")
		}
		if c.Scoring.LockTTL <= 0 || c.Scoring.LockWait <= 0 {
			return fmt.Errorf("SCORE_LOCK_TTL and SCORE_LOCK_WAIT must be positive")
		}
		if c.Scoring.LockTTL <= c.Scoring.ItemTimeout {
			return fmt.Errorf("SCORE_LOCK_TTL (%s) must exceed SCORE_ITEM_TIMEOUT (%s)",
				c.Scoring.LockTTL, c.Scoring.ItemTimeout)
		}
	}
	return nil
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
