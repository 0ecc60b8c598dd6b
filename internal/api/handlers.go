// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"context"
	"time"

	"github.com/tomtom215/reelrank/internal/recommend"
)

// Ingestion is the write side used by the handlers. *recommend.Ingestor
// implements it.
type Ingestion interface {
	RegisterItem(ctx context.Context, item recommend.Item) (recommend.Item, error)
	RecordEvent(ctx context.Context, ev recommend.Event) (recommend.RecomputeRequest, error)
	RequestRecompute(ctx context.Context, userID, categoryID string) (recommend.RecomputeRequest, error)
}

// RankingReader is the read side. *recommend.Reader implements it.
type RankingReader interface {
	GetRecommendations(ctx context.Context, userID string, count int) (recommend.Recommendations, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandlerConfig holds request limits.
type HandlerConfig struct {
	DefaultCount   int
	MaxCount       int
	RequestTimeout time.Duration
	Version        string
}

// DefaultHandlerConfig returns the defaults used when fields are zero.
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		DefaultCount:   10,
		MaxCount:       100,
		RequestTimeout: 30 * time.Second,
	}
}

// Handler contains the dependencies of the HTTP handlers.
//
// Handler methods are split across files:
//   - handlers_recommend.go: items, events, recommendations, recompute
//   - handlers_health.go: liveness and readiness
type Handler struct {
	ingest    Ingestion
	reader    RankingReader
	checks    map[string]Pinger
	config    HandlerConfig
	startTime time.Time
}

// NewHandler creates a Handler. checks are pinged by the readiness probe,
// keyed by component name.
func NewHandler(ingest Ingestion, reader RankingReader, checks map[string]Pinger, cfg HandlerConfig) *Handler {
	defaults := DefaultHandlerConfig()
	if cfg.DefaultCount <= 0 {
		cfg.DefaultCount = defaults.DefaultCount
	}
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = defaults.MaxCount
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaults.RequestTimeout
	}
	if checks == nil {
		checks = map[string]Pinger{}
	}
	return &Handler{
		ingest:    ingest,
		reader:    reader,
		checks:    checks,
		config:    cfg,
		startTime: time.Now(),
	}
}

func (h *Handler) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, h.config.RequestTimeout)
}
