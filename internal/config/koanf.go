// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/reelrank/internal/recommend"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reelrank/config.yaml",
	"/etc/reelrank/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		API: APIConfig{
			DefaultCount:      10,
			MaxCount:          100,
			RateLimitRequests: 600,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       []string{"*"},
			RequestTimeout:    30 * time.Second,
		},
		Storage: StorageConfig{
			Backend:          BackendRedis,
			OperationTimeout: 5 * time.Second,
			Redis: RedisConfig{
				Host:         "localhost",
				Port:         6379,
				Database:     0,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
				PoolSize:     20,
			},
			Breaker: BreakerConfig{
				MaxRequests:      3,
				Interval:         time.Minute,
				Timeout:          10 * time.Second,
				FailureThreshold: 5,
			},
		},
		NATS: NATSConfig{
			Enabled:                    true,
			URL:                        "nats://127.0.0.1:4222",
			EmbeddedServer:             true,
			Host:                       "127.0.0.1",
			Port:                       4222,
			StoreDir:                   "/data/nats/jetstream",
			MaxMemory:                  256 << 20, // 256MB
			MaxStore:                   1 << 30,   // 1GB
			StreamMaxAge:               24 * time.Hour,
			SubscribersCount:           4,
			DurableName:                "recompute-worker",
			QueueGroup:                 "recompute-workers",
			AckWaitTimeout:             30 * time.Second,
			MaxDeliver:                 10,
			RouterRetryCount:           5,
			RouterRetryInitialInterval: time.Second,
			RouterRetryMaxInterval:     time.Minute,
			RouterThrottlePerSecond:    0,
			RouterDeduplicationEnabled: false,
			RouterDeduplicationTTL:     5 * time.Minute,
			RouterPoisonQueueEnabled:   true,
			RouterPoisonQueueTopic:     "recompute.poison",
			RouterCloseTimeout:         30 * time.Second,
		},
		Scoring: ScoringConfig{
			Weights:         recommend.DefaultWeights(),
			ItemTimeout:     recommend.DefaultItemTimeout,
			DistributedLock: false,
			LockTTL:         time.Minute,
			LockWait:        30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5.0,
			FailureDecay:     30.0,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// FilePath returns the config file Load would read, or "" when none exists.
func FilePath() string {
	return findConfigFile()
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server mappings
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// API mappings
	"api_default_count":       "api.default_count",
	"api_max_count":           "api.max_count",
	"api_rate_limit_requests": "api.rate_limit_requests",
	"api_rate_limit_window":   "api.rate_limit_window",
	"api_request_timeout":     "api.request_timeout",
	"cors_origins":            "api.cors_origins",

	// Storage mappings
	"storage_backend":           "storage.backend",
	"storage_operation_timeout": "storage.operation_timeout",
	"redis_url":                 "storage.redis.url",
	"redis_host":                "storage.redis.host",
	"redis_port":                "storage.redis.port",
	"redis_password":            "storage.redis.password",
	"redis_database":            "storage.redis.database",
	"redis_dial_timeout":        "storage.redis.dial_timeout",
	"redis_read_timeout":        "storage.redis.read_timeout",
	"redis_write_timeout":       "storage.redis.write_timeout",
	"redis_pool_size":           "storage.redis.pool_size",
	"redis_breaker_threshold":   "storage.breaker.failure_threshold",
	"redis_breaker_timeout":     "storage.breaker.timeout",

	// NATS mappings
	"nats_enabled":           "nats.enabled",
	"nats_url":               "nats.url",
	"nats_embedded":          "nats.embedded_server",
	"nats_host":              "nats.host",
	"nats_port":              "nats.port",
	"nats_store_dir":         "nats.store_dir",
	"nats_max_memory":        "nats.max_memory",
	"nats_max_store":         "nats.max_store",
	"nats_stream_max_age":    "nats.stream_max_age",
	"nats_subscribers":       "nats.subscribers_count",
	"nats_durable_name":      "nats.durable_name",
	"nats_queue_group":       "nats.queue_group",
	"nats_ack_wait_timeout":  "nats.ack_wait_timeout",
	"nats_max_deliver":       "nats.max_deliver",
	"nats_router_retries":    "nats.router_retry_count",
	"nats_router_throttle":   "nats.router_throttle_per_second",
	"nats_router_dedup":      "nats.router_deduplication_enabled",
	"nats_router_dedup_ttl":  "nats.router_deduplication_ttl",
	"nats_router_poison":     "nats.router_poison_queue_enabled",
	"nats_router_close_wait": "nats.router_close_timeout",

	// Scoring mappings
	"score_view_weight":         "scoring.weights.view",
	"score_like_weight":         "scoring.weights.like",
	"score_liked_weight":        "scoring.weights.liked",
	"score_watch_penalty":       "scoring.weights.watch_penalty",
	"score_recency_weight":      "scoring.weights.recency",
	"score_recency_window_days": "scoring.weights.recency_window_days",
	"score_item_timeout":        "scoring.item_timeout",
	"score_distributed_lock":    "scoring.distributed_lock",
	"score_lock_ttl":            "scoring.lock_ttl",
	"score_lock_wait":           "scoring.lock_wait",

	// Logging mappings
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor mappings
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - REDIS_HOST -> storage.redis.host
//   - SCORE_LIKED_WEIGHT -> scoring.weights.liked
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// Unmapped keys are skipped so unrelated environment variables
	// do not pollute the config.
	return ""
}

// WatchConfigFile calls callback whenever the file at path changes.
// The caller is responsible for synchronizing access to a reloaded config.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
