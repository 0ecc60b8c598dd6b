// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package eventprocessor carries recompute requests from the event ingestor
// to the recompute workers using Watermill.
//
// Two transports are supported:
//
//   - NATS JetStream (embedded or external server): durable, at-least-once,
//     shared by every worker through a queue group.
//   - In-process Go channels: single-process deployments and tests.
//
// # Data Flow
//
//	Ingestor ──Enqueue──▶ RecomputeQueue ──▶ Publisher ──▶ recompute.requests
//	                                                          │
//	                       Router (poison, retry, recoverer) ◀┘
//	                          │
//	                          ▼
//	                  RecomputeHandler ──▶ recommend.Engine.Recompute
//
// # Delivery Semantics
//
// The handler acks requests it processed, including partial recomputes and
// requests that can never succeed (malformed payloads, invalid ids). It
// returns an error for retryable failures so the router retries with
// backoff; once retries are exhausted the message goes to the poison topic.
// Cancellation during shutdown is never poisoned: the message is nacked and
// redelivered to another worker.
//
// The message UUID is the request's EventID and is sent as Nats-Msg-Id, so
// JetStream drops re-publishes of the same request inside the stream's
// duplicate window.
package eventprocessor
