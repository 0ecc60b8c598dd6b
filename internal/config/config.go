// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/reelrank/internal/recommend"
)

// Storage backends.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds all application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any mapped setting
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	API        APIConfig        `koanf:"api"`
	Storage    StorageConfig    `koanf:"storage"`
	NATS       NATSConfig       `koanf:"nats"`
	Scoring    ScoringConfig    `koanf:"scoring"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// APIConfig holds request limits for the HTTP API.
type APIConfig struct {
	// DefaultCount is used when a recommendations request omits count.
	DefaultCount int `koanf:"default_count"`

	// MaxCount caps the count query parameter.
	MaxCount int `koanf:"max_count"`

	// RateLimitRequests per RateLimitWindow per client IP. 0 disables rate limiting.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`

	CORSOrigins []string `koanf:"cors_origins"`

	// RequestTimeout bounds each request handler.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// StorageConfig selects and configures the key-value backend.
//
// Environment Variables:
//   - STORAGE_BACKEND: redis or memory (default: redis)
//   - REDIS_URL: redis:// URL, takes precedence over host/port/database
//   - REDIS_HOST, REDIS_PORT, REDIS_DATABASE, REDIS_PASSWORD
type StorageConfig struct {
	Backend          string        `koanf:"backend"`
	OperationTimeout time.Duration `koanf:"operation_timeout"`
	Redis            RedisConfig   `koanf:"redis"`
	Breaker          BreakerConfig `koanf:"breaker"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	URL          string        `koanf:"url"`
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	Password     string        `koanf:"password"`
	Database     int           `koanf:"database"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	PoolSize     int           `koanf:"pool_size"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// BreakerConfig configures the storage circuit breaker.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// NATSConfig holds the recompute queue settings.
//
// When Enabled is false the queue runs in-process on a Watermill gochannel
// and requests are lost on restart.
type NATSConfig struct {
	Enabled bool `koanf:"enabled"`

	// URL of an external NATS server. Ignored when EmbeddedServer is true.
	URL string `koanf:"url"`

	// EmbeddedServer starts a NATS server with JetStream inside the process.
	EmbeddedServer bool   `koanf:"embedded_server"`
	Host           string `koanf:"host"`
	Port           int    `koanf:"port"`

	// StoreDir is the JetStream storage directory.
	StoreDir string `koanf:"store_dir"`

	// MaxMemory and MaxStore cap JetStream resources in bytes.
	MaxMemory int64 `koanf:"max_memory"`
	MaxStore  int64 `koanf:"max_store"`

	// StreamMaxAge is how long recompute requests are retained.
	StreamMaxAge time.Duration `koanf:"stream_max_age"`

	SubscribersCount int           `koanf:"subscribers_count"`
	DurableName      string        `koanf:"durable_name"`
	QueueGroup       string        `koanf:"queue_group"`
	AckWaitTimeout   time.Duration `koanf:"ack_wait_timeout"`
	MaxDeliver       int           `koanf:"max_deliver"`

	// Router configuration (Watermill middleware stack).

	// RouterRetryCount is the number of in-process retries before a message is poisoned.
	RouterRetryCount           int           `koanf:"router_retry_count"`
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`
	RouterRetryMaxInterval     time.Duration `koanf:"router_retry_max_interval"`

	// RouterThrottlePerSecond limits messages processed per second (0 = unlimited).
	RouterThrottlePerSecond int `koanf:"router_throttle_per_second"`

	RouterDeduplicationEnabled bool          `koanf:"router_deduplication_enabled"`
	RouterDeduplicationTTL     time.Duration `koanf:"router_deduplication_ttl"`

	RouterPoisonQueueEnabled bool   `koanf:"router_poison_queue_enabled"`
	RouterPoisonQueueTopic   string `koanf:"router_poison_queue_topic"`

	RouterCloseTimeout time.Duration `koanf:"router_close_timeout"`
}

// ScoringConfig holds the scoring engine settings.
type ScoringConfig struct {
	Weights recommend.Weights `koanf:"weights"`

	// ItemTimeout bounds the storage reads for a single item during recompute.
	ItemTimeout time.Duration `koanf:"item_timeout"`

	// DistributedLock serializes recomputes of the same (user, category)
	// across processes through Redis. Requires the redis backend.
	DistributedLock bool          `koanf:"distributed_lock"`
	LockTTL         time.Duration `koanf:"lock_ttl"`
	LockWait        time.Duration `koanf:"lock_wait"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig holds suture restart policy settings.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Load loads configuration from defaults, an optional config file and
// environment variables, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
