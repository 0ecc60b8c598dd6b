// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/knadh/koanf/v2"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.API.DefaultCount != 10 || cfg.API.MaxCount != 100 {
		t.Errorf("API counts = %d/%d, want 10/100", cfg.API.DefaultCount, cfg.API.MaxCount)
	}
	if cfg.Storage.Backend != BackendRedis {
		t.Errorf("Storage.Backend = %q, want redis", cfg.Storage.Backend)
	}
	if cfg.Storage.Redis.Addr() != "localhost:6379" {
		t.Errorf("Redis.Addr() = %q, want localhost:6379", cfg.Storage.Redis.Addr())
	}
	if !cfg.NATS.Enabled || !cfg.NATS.EmbeddedServer {
		t.Error("NATS should be enabled with an embedded server by default")
	}
	if cfg.NATS.RouterDeduplicationEnabled {
		t.Error("router deduplication should be disabled by default")
	}
	if cfg.Scoring.Weights.Liked != 2.0 || cfg.Scoring.Weights.RecencyWindowDays != 30 {
		t.Errorf("Scoring.Weights = %+v, want production defaults", cfg.Scoring.Weights)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"REDIS_HOST", "storage.redis.host"},
		{"REDIS_PORT", "storage.redis.port"},
		{"REDIS_DATABASE", "storage.redis.database"},
		{"SCORE_LIKED_WEIGHT", "scoring.weights.liked"},
		{"nats_embedded", "nats.embedded_server"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DATABASE", "3")
	t.Setenv("SCORE_LIKED_WEIGHT", "3.5")
	t.Setenv("SCORE_ITEM_TIMEOUT", "2s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("NATS_ENABLED", "false")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Storage.Redis.Addr() != "cache.internal:6380" {
		t.Errorf("Redis.Addr() = %q, want cache.internal:6380", cfg.Storage.Redis.Addr())
	}
	if cfg.Storage.Redis.Database != 3 {
		t.Errorf("Redis.Database = %d, want 3", cfg.Storage.Redis.Database)
	}
	if cfg.Scoring.Weights.Liked != 3.5 {
		t.Errorf("Weights.Liked = %v, want 3.5", cfg.Scoring.Weights.Liked)
	}
	if cfg.Scoring.Weights.View != 0.004 {
		t.Errorf("Weights.View = %v, want default 0.004", cfg.Scoring.Weights.View)
	}
	if cfg.Scoring.ItemTimeout != 2*time.Second {
		t.Errorf("ItemTimeout = %v, want 2s", cfg.Scoring.ItemTimeout)
	}
	if got := strings.Join(cfg.API.CORSOrigins, "|"); got != "https://a.example|https://b.example" {
		t.Errorf("CORSOrigins = %q", got)
	}
	if cfg.NATS.Enabled {
		t.Error("NATS.Enabled should be false")
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7070
storage:
  backend: memory
scoring:
  weights:
    recency_window_days: 14
nats:
  enabled: false
logging:
  level: debug
  format: console
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070 from file", cfg.Server.Port)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Scoring.Weights.RecencyWindowDays != 14 {
		t.Errorf("RecencyWindowDays = %d, want 14", cfg.Scoring.Weights.RecencyWindowDays)
	}
	if cfg.Scoring.Weights.Recency != 0.02 {
		t.Errorf("Weights.Recency = %v, want default 0.02", cfg.Scoring.Weights.Recency)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, env should win over file", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %q, want console", cfg.Logging.Format)
	}
}

func TestLoadWithKoanf_InvalidConfig(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("SCORE_RECENCY_WINDOW_DAYS", "0")

	_, err := LoadWithKoanf()
	if err == nil {
		t.Fatal("expected validation error for a zero recency window")
	}
	if !strings.Contains(err.Error(), "scoring weights") {
		t.Errorf("error = %v, want scoring weights error", err)
	}
}

func TestProcessSliceFields(t *testing.T) {
	k := koanf.New(".")
	if err := k.Set("api.cors_origins", " https://x.example ,,https://y.example"); err != nil {
		t.Fatal(err)
	}

	if err := processSliceFields(k); err != nil {
		t.Fatalf("processSliceFields() error = %v", err)
	}

	got := k.Strings("api.cors_origins")
	if len(got) != 2 || got[0] != "https://x.example" || got[1] != "https://y.example" {
		t.Errorf("cors_origins = %v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "memory backend ignores redis settings",
			mutate: func(c *Config) { c.Storage.Backend = BackendMemory; c.Storage.Redis.Host = "" },
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "etcd" },
			wantErr: "STORAGE_BACKEND",
		},
		{
			name:    "redis without host",
			mutate:  func(c *Config) { c.Storage.Redis.Host = "" },
			wantErr: "REDIS_HOST",
		},
		{
			name:   "redis url replaces host",
			mutate: func(c *Config) { c.Storage.Redis.URL = "redis://cache:6379/2"; c.Storage.Redis.Host = "" },
		},
		{
			name:    "redis url with wrong scheme",
			mutate:  func(c *Config) { c.Storage.Redis.URL = "http://cache:6379" },
			wantErr: "REDIS_URL",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "default count above max",
			mutate:  func(c *Config) { c.API.DefaultCount = 500 },
			wantErr: "API_DEFAULT_COUNT",
		},
		{
			name:    "external nats with bad url",
			mutate:  func(c *Config) { c.NATS.EmbeddedServer = false; c.NATS.URL = "http://nats:4222" },
			wantErr: "NATS_URL",
		},
		{
			name:   "disabled nats skips validation",
			mutate: func(c *Config) { c.NATS.Enabled = false; c.NATS.SubscribersCount = 0 },
		},
		{
			name:    "negative weight",
			mutate:  func(c *Config) { c.Scoring.Weights.View = -1 },
			wantErr: "scoring weights",
		},
		{
			name: "distributed lock on memory backend",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendMemory
				c.Scoring.DistributedLock = true
			},
			wantErr: "SCORE_DISTRIBUTED_LOCK",
		},
		{
			name: "lock ttl not above item timeout",
			mutate: func(c *Config) {
				c.Scoring.DistributedLock = true
				c.Scoring.LockTTL = 5 * time.Second
				c.Scoring.ItemTimeout = 5 * time.Second
			},
			wantErr: "SCORE_LOCK_TTL",
		},
		{
			name:   "distributed lock with valid ttl",
			mutate: func(c *Config) { c.Scoring.DistributedLock = true },
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "LOG_LEVEL",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
