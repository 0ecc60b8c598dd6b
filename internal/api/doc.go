// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package api exposes the ranking service over HTTP using the Chi router.

Routes:

	POST /api/v1/items                              register an item (201)
	POST /api/v1/events                             record watched/liked, queue a recompute (202)
	GET  /api/v1/users/{userID}/recommendations     read ranked item ids (?count=N)
	POST /api/v1/users/{userID}/recompute           queue a recompute for a category (202)
	GET  /health/live                               liveness
	GET  /health/ready                              readiness, pings storage and queue
	GET  /metrics                                   Prometheus exposition

Every JSON response uses the models.APIResponse envelope. Errors carry a
stable code:

	VALIDATION_ERROR     400  malformed ids, unknown like state, bad count
	BAD_REQUEST          400  body is not JSON, has unknown fields or is too large
	TOO_MANY_REQUESTS    429  per-IP rate limit
	STORAGE_UNAVAILABLE  503  storage breaker open or Redis unreachable
	QUEUE_UNAVAILABLE    503  recompute queue publish failed
	TIMEOUT              504  request deadline exceeded
	NOT_READY            503  readiness probe failed

Middleware order: request id, real IP, panic recovery, CORS, Prometheus
metrics, then per-IP rate limiting on /api/v1.
*/
package api
