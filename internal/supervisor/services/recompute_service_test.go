// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// stubRouter blocks in Run until ctx ends or Close is called, unless runErr
// or exitEarly is set.
type stubRouter struct {
	runErr    error
	exitEarly bool
	closed    chan struct{}
	closes    atomic.Int32
}

func newStubRouter() *stubRouter {
	return &stubRouter{closed: make(chan struct{})}
}

func (r *stubRouter) Run(ctx context.Context) error {
	if r.runErr != nil {
		return r.runErr
	}
	if r.exitEarly {
		return nil
	}
	select {
	case <-ctx.Done():
	case <-r.closed:
	}
	return nil
}

func (r *stubRouter) Close() error {
	if r.closes.Add(1) == 1 {
		close(r.closed)
	}
	return nil
}

func TestRecomputeWorkerService_Interface(t *testing.T) {
	var _ suture.Service = (*RecomputeWorkerService)(nil)
}

func TestRecomputeWorkerService_Serve(t *testing.T) {
	t.Run("closes router on cancellation", func(t *testing.T) {
		router := newStubRouter()
		svc := NewRecomputeWorkerService(func() (RouterRunner, error) { return router, nil }, zerolog.Nop())

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Serve did not return")
		}
		if router.closes.Load() < 1 {
			t.Error("router was not closed")
		}
	})

	t.Run("factory error", func(t *testing.T) {
		factoryErr := errors.New("nats: no servers available")
		svc := NewRecomputeWorkerService(func() (RouterRunner, error) { return nil, factoryErr }, zerolog.Nop())

		if err := svc.Serve(context.Background()); !errors.Is(err, factoryErr) {
			t.Errorf("expected factory error, got %v", err)
		}
	})

	t.Run("router run error", func(t *testing.T) {
		runErr := errors.New("subscribe failed")
		router := newStubRouter()
		router.runErr = runErr
		svc := NewRecomputeWorkerService(func() (RouterRunner, error) { return router, nil }, zerolog.Nop())

		if err := svc.Serve(context.Background()); !errors.Is(err, runErr) {
			t.Errorf("expected run error, got %v", err)
		}
	})

	t.Run("unexpected exit", func(t *testing.T) {
		router := newStubRouter()
		router.exitEarly = true
		svc := NewRecomputeWorkerService(func() (RouterRunner, error) { return router, nil }, zerolog.Nop())

		if err := svc.Serve(context.Background()); !errors.Is(err, ErrRouterStopped) {
			t.Errorf("expected ErrRouterStopped, got %v", err)
		}
	})
}

func TestRecomputeWorkerService_RestartBuildsNewRouter(t *testing.T) {
	var builds atomic.Int32
	factory := func() (RouterRunner, error) {
		router := newStubRouter()
		if builds.Add(1) == 1 {
			router.runErr = errors.New("first router fails")
		}
		return router, nil
	}

	sup := suture.New("test-sup", suture.Spec{
		FailureThreshold: 5,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(NewRecomputeWorkerService(factory, zerolog.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	deadline := time.Now().Add(time.Second)
	for builds.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected a second router after failure, got %d builds", builds.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-errCh
}
