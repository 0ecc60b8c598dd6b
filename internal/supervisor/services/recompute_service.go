// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrRouterStopped is returned when a router exits while its context is live.
var ErrRouterStopped = errors.New("recompute router stopped unexpectedly")

// RouterRunner matches *eventprocessor.Router.
type RouterRunner interface {
	Run(ctx context.Context) error
	Close() error
}

// RouterFactory builds a fresh router with its handlers registered. A
// Watermill router cannot be run again after it stops, so every restart
// asks for a new one.
type RouterFactory func() (RouterRunner, error)

// RecomputeWorkerService consumes recompute requests under suture.
type RecomputeWorkerService struct {
	factory RouterFactory
	logger  zerolog.Logger
}

// NewRecomputeWorkerService creates the worker service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRecomputeWorkerService(factory RouterFactory, logger zerolog.Logger) *RecomputeWorkerService {
	return &RecomputeWorkerService{
		factory: factory,
		logger:  logger.With().Str("service", "recompute-worker").Logger(),
	}
}

// Serve implements suture.Service. Any return while ctx is still live is
// reported as an error so suture restarts the worker.
func (s *RecomputeWorkerService) Serve(ctx context.Context) error {
	router, err := s.factory()
	if err != nil {
		return fmt.Errorf("build recompute router: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Run(ctx)
	}()
	s.logger.Info().Msg("Recompute worker started")

	select {
	case err := <-errCh:
		_ = router.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return fmt.Errorf("recompute router failed: %w", err)
		}
		return ErrRouterStopped

	case <-ctx.Done():
		if err := router.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Recompute router close reported an error")
		}
		<-errCh
		s.logger.Info().Msg("Recompute worker stopped")
		return ctx.Err()
	}
}

// String implements fmt.Stringer for suture log messages.
func (s *RecomputeWorkerService) String() string {
	return "recompute-worker"
}
