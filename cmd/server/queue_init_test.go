// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package main

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/config"
	"github.com/tomtom215/reelrank/internal/eventprocessor"
	"github.com/tomtom215/reelrank/internal/recommend"
	"github.com/tomtom215/reelrank/internal/storage"
)

func testQueueConfig() *config.Config {
	return &config.Config{
		NATS: config.NATSConfig{
			Enabled:                    false,
			RouterRetryCount:           1,
			RouterRetryInitialInterval: 10 * time.Millisecond,
			RouterRetryMaxInterval:     10 * time.Millisecond,
			RouterCloseTimeout:         time.Second,
			RouterPoisonQueueEnabled:   true,
			RouterPoisonQueueTopic:     eventprocessor.PoisonTopic,
		},
	}
}

func TestRouterConfigFrom(t *testing.T) {
	cfg := testQueueConfig()
	cfg.NATS.RouterThrottlePerSecond = 50
	cfg.NATS.RouterDeduplicationEnabled = true

	got := routerConfigFrom(cfg)
	if got.RetryMaxRetries != 1 || got.ThrottlePerSecond != 50 || !got.DeduplicationEnabled {
		t.Errorf("routerConfigFrom() = %+v", got)
	}
	if got.PoisonQueueTopic != eventprocessor.PoisonTopic {
		t.Errorf("PoisonQueueTopic = %q", got.PoisonQueueTopic)
	}

	cfg.NATS.RouterPoisonQueueEnabled = false
	if got := routerConfigFrom(cfg); got.PoisonQueueTopic != "" {
		t.Errorf("PoisonQueueTopic = %q, want empty when disabled", got.PoisonQueueTopic)
	}
}

func TestInitStorage(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: config.BackendMemory}}
	store, locker, err := initStorage(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("initStorage(memory) error = %v", err)
	}
	defer store.Close()
	if locker != nil {
		t.Error("memory backend should not return a distributed locker")
	}
	if _, ok := store.(*storage.Memory); !ok {
		t.Errorf("store = %T, want *storage.Memory", store)
	}

	cfg.Storage.Backend = "etcd"
	if _, _, err := initStorage(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Error("initStorage should reject an unknown backend")
	}
}

// waitForRanking polls until the user's ranking holds want entries.
func waitForRanking(t *testing.T, store storage.Backend, userID string, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		entries, err := store.SortedSetRevRange(context.Background(), recommend.RankingKey(userID), 0, -1)
		if err == nil && len(entries) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("ranking for %s did not reach %d entries", userID, want)
}

func startRouter(t *testing.T, ctx context.Context, qc *QueueComponents, handler *eventprocessor.RecomputeHandler) *eventprocessor.Router {
	t.Helper()
	runner, err := qc.RouterFactory(handler)()
	if err != nil {
		t.Fatalf("RouterFactory: %v", err)
	}
	router, ok := runner.(*eventprocessor.Router)
	if !ok {
		t.Fatalf("runner = %T", runner)
	}
	go func() { _ = router.Run(ctx) }()
	select {
	case <-router.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
	return router
}

// TestMemoryQueuePipeline runs ingestion through the in-process queue to
// the recompute engine, then restarts the worker on the same transport.
func TestMemoryQueuePipeline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	qc, err := InitQueue(ctx, testQueueConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("InitQueue: %v", err)
	}
	defer qc.Shutdown(context.Background())
	if err := qc.Ping(ctx); err != nil {
		t.Errorf("Ping() = %v", err)
	}

	store := storage.NewMemory()
	engine, err := recommend.NewEngine(store, recommend.DefaultWeights(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	ingestor := recommend.NewIngestor(store, qc.Queue(), zerolog.Nop())
	handler := eventprocessor.NewRecomputeHandler(engine, zerolog.Nop())

	first := startRouter(t, ctx, qc, handler)

	for _, id := range []string{"a", "b"} {
		if _, err := ingestor.RegisterItem(ctx, recommend.Item{CategoryID: "films", ItemID: id}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := ingestor.RecordEvent(ctx, recommend.Event{UserID: "u1", CategoryID: "films", ItemID: "a", Watched: true}); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	waitForRanking(t, store, "u1", 2)

	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A restarted worker must still receive requests from the shared transport.
	startRouter(t, ctx, qc, handler)
	if _, err := ingestor.RegisterItem(ctx, recommend.Item{CategoryID: "films", ItemID: "c"}); err != nil {
		t.Fatal(err)
	}
	if _, err := ingestor.RequestRecompute(ctx, "u1", "films"); err != nil {
		t.Fatalf("RequestRecompute: %v", err)
	}
	waitForRanking(t, store, "u1", 3)
}

// TestEmbeddedNATSQueue exercises the JetStream path end to end.
func TestEmbeddedNATSQueue(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testQueueConfig()
	cfg.NATS.Enabled = true
	cfg.NATS.EmbeddedServer = true
	cfg.NATS.Host = "127.0.0.1"
	cfg.NATS.Port = -1
	cfg.NATS.StoreDir = t.TempDir()
	cfg.NATS.MaxMemory = 64 << 20
	cfg.NATS.MaxStore = 64 << 20
	cfg.NATS.StreamMaxAge = time.Hour
	cfg.NATS.SubscribersCount = 1
	cfg.NATS.DurableName = "test-worker"
	cfg.NATS.QueueGroup = "test-workers"
	cfg.NATS.AckWaitTimeout = 5 * time.Second
	cfg.NATS.MaxDeliver = 3

	qc, err := InitQueue(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("InitQueue: %v", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		qc.Shutdown(shutdownCtx)
	}()
	if err := qc.Ping(ctx); err != nil {
		t.Fatalf("Ping() = %v", err)
	}

	store := storage.NewMemory()
	engine, err := recommend.NewEngine(store, recommend.DefaultWeights(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	ingestor := recommend.NewIngestor(store, qc.Queue(), zerolog.Nop())

	if _, err := ingestor.RegisterItem(ctx, recommend.Item{CategoryID: "films", ItemID: "a"}); err != nil {
		t.Fatal(err)
	}
	// Published before the worker starts: JetStream keeps it.
	if _, err := ingestor.RecordEvent(ctx, recommend.Event{UserID: "u2", CategoryID: "films", ItemID: "a", Liked: recommend.LikeLiked}); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	router := startRouter(t, ctx, qc, eventprocessor.NewRecomputeHandler(engine, zerolog.Nop()))
	defer router.Close()

	waitForRanking(t, store, "u2", 1)
}
