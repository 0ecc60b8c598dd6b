// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package metrics exposes Prometheus instrumentation for ReelRank.
//
// Metrics are registered on the default registry via promauto and served at
// /metrics by the API router:
//
//	curl http://localhost:8080/metrics
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingest Metrics
	EventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelrank_events_recorded_total",
			Help: "Total number of reaction events recorded by the ingestor",
		},
		[]string{"reaction"}, // "watched", "like", "unlike", "none"
	)

	ItemsRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelrank_items_registered_total",
			Help: "Total number of item registrations",
		},
	)

	// Recompute Metrics
	RecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelrank_recompute_duration_seconds",
			Help:    "Duration of a full per-category recompute",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecomputesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelrank_recomputes_total",
			Help: "Total number of recomputes by outcome",
		},
		[]string{"outcome"}, // "success", "partial", "failed", "abandoned"
	)

	RecomputeItemsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelrank_recompute_items_scored_total",
			Help: "Total number of items scored during recomputes",
		},
	)

	RecomputeItemsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelrank_recompute_items_skipped_total",
			Help: "Total number of items skipped because their data could not be loaded",
		},
	)

	RecomputeQueueLag = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelrank_recompute_queue_lag_seconds",
			Help:    "Time between a recompute being requested and a worker starting it",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)

	// Read Metrics
	RecommendationReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelrank_recommendation_reads_total",
			Help: "Total number of ranking reads by result",
		},
		[]string{"result"}, // "hit", "empty", "error"
	)

	// Storage Metrics
	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelrank_storage_operation_duration_seconds",
			Help:    "Duration of storage backend operations",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"operation"},
	)

	StorageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelrank_storage_errors_total",
			Help: "Total number of storage backend errors",
		},
		[]string{"operation", "kind"}, // kind: "unavailable", "reply"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelrank_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Queue Metrics
	QueuePublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelrank_queue_published_total",
			Help: "Total number of recompute requests published",
		},
		[]string{"result"}, // "ok", "error"
	)

	QueueConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelrank_queue_consumed_total",
			Help: "Total number of recompute messages handled by result",
		},
		[]string{"result"}, // "ack", "retry", "malformed"
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelrank_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelrank_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelrank_api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)
)

// RecordEvent records one ingested reaction event.
func RecordEvent(reaction string) {
	EventsRecorded.WithLabelValues(reaction).Inc()
}

// RecordItemRegistered records one item registration.
func RecordItemRegistered() {
	ItemsRegistered.Inc()
}

// RecordRecompute records the outcome of a recompute.
func RecordRecompute(outcome string, duration time.Duration, scored, skipped int) {
	RecomputesTotal.WithLabelValues(outcome).Inc()
	RecomputeDuration.Observe(duration.Seconds())
	RecomputeItemsScored.Add(float64(scored))
	RecomputeItemsSkipped.Add(float64(skipped))
}

// RecordQueueLag records how long a recompute request waited before being handled.
// Non-positive lags (clock skew between producers and workers) are dropped.
func RecordQueueLag(lag time.Duration) {
	if lag <= 0 {
		return
	}
	RecomputeQueueLag.Observe(lag.Seconds())
}

// RecordRecommendationRead records a ranking read.
func RecordRecommendationRead(result string) {
	RecommendationReads.WithLabelValues(result).Inc()
}

// RecordStorageOperation records a storage call. kind is empty on success.
func RecordStorageOperation(operation string, duration time.Duration, kind string) {
	StorageOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if kind != "" {
		StorageErrors.WithLabelValues(operation, kind).Inc()
	}
}

// SetCircuitBreakerState publishes the breaker state for name.
func SetCircuitBreakerState(name string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

// RecordQueuePublish records a recompute publish attempt.
func RecordQueuePublish(err error) {
	if err != nil {
		QueuePublished.WithLabelValues("error").Inc()
		return
	}
	QueuePublished.WithLabelValues("ok").Inc()
}

// RecordQueueConsume records how a recompute message was handled.
func RecordQueueConsume(result string) {
	QueueConsumed.WithLabelValues(result).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
