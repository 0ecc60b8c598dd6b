// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package config loads and validates ReelRank configuration.

# Configuration Sources

Koanf v2 layers three sources, later ones winning:
  - Built-in defaults (defaultConfig)
  - An optional YAML file: $CONFIG_PATH, ./config.yaml or /etc/reelrank/config.yaml
  - Environment variables listed in envMappings

Environment variables not in the mapping table are ignored.

# Common Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT (default: 0.0.0.0:8080)

Storage:
  - STORAGE_BACKEND: redis or memory (default: redis)
  - REDIS_HOST, REDIS_PORT, REDIS_DATABASE, REDIS_PASSWORD
  - REDIS_URL: takes precedence over the individual settings

Queue:
  - NATS_ENABLED: false runs the recompute queue in-process
  - NATS_EMBEDDED: start an embedded NATS server (default: true)
  - NATS_URL: external server when NATS_EMBEDDED=false

Scoring:
  - SCORE_VIEW_WEIGHT, SCORE_LIKE_WEIGHT, SCORE_LIKED_WEIGHT
  - SCORE_WATCH_PENALTY, SCORE_RECENCY_WEIGHT, SCORE_RECENCY_WINDOW_DAYS
  - SCORE_DISTRIBUTED_LOCK: serialize recomputes across processes via Redis

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Example

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	addr := cfg.Server.Addr()
*/
package config
