// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package main is the entry point for the ReelRank server.

ReelRank keeps a per-user ranking of content items. Clients register items,
report reactions (watched, like, unlike) and read the user's top items. Every
reaction queues a recompute of that user's ranking for the item's category;
recomputes run asynchronously on a worker pool fed by NATS JetStream.

# Application Architecture

	RootSupervisor ("reelrank")
	├── WorkerSupervisor ("worker-layer")
	│   └── recompute-worker (Watermill router, rebuilt on restart)
	└── APISupervisor ("api-layer")
	    └── http-server (Chi router)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, optional YAML file and environment variables
 2. Logging: zerolog with JSON/console output modes
 3. Storage: Redis (go-redis with a circuit breaker) or the in-memory backend
 4. Queue: embedded or external NATS JetStream, or an in-process gochannel
 5. Ranking core: ingestor, recompute engine, ranking reader
 6. Supervisor Tree: Suture v4 process supervision
 7. HTTP Server: Chi router with request id, CORS, rate limiting and metrics

# Configuration

Common environment variables:

	HTTP_PORT=8080
	STORAGE_BACKEND=redis            # or memory
	REDIS_URL=redis://localhost:6379/0
	NATS_ENABLED=true
	NATS_EMBEDDED=true
	NATS_URL=nats://nats:4222        # when NATS_EMBEDDED=false
	SCORE_LIKED_WEIGHT=2.0
	LOG_LEVEL=info
	LOG_FORMAT=json

A YAML file is read from CONFIG_PATH, ./config.yaml or /etc/reelrank/config.yaml.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains in-flight
requests, the recompute router finishes its current messages, then the
publisher, NATS connection, embedded server and storage are closed in that
order.
*/
package main
