// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

//go:build integration

package testinfra

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/recommend"
	"github.com/tomtom215/reelrank/internal/storage"
)

// recordingQueue keeps enqueued requests so the test can run them itself.
type recordingQueue struct {
	mu   sync.Mutex
	reqs []recommend.RecomputeRequest
}

func (q *recordingQueue) Enqueue(_ context.Context, req recommend.RecomputeRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reqs = append(q.reqs, req)
	return nil
}

func startRedis(t *testing.T) (*RedisContainer, *storage.Redis) {
	t.Helper()
	SkipIfNoDocker(t)

	ctx := context.Background()
	redisC, err := NewRedisContainer(ctx)
	if err != nil {
		t.Fatalf("NewRedisContainer: %v", err)
	}
	t.Cleanup(func() { CleanupContainer(t, context.Background(), redisC) })

	cfg := storage.DefaultRedisConfig()
	cfg.URL = redisC.URL
	store, err := storage.NewRedis(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return redisC, store
}

// TestRedisRankingPipeline runs ingestion, recompute and reads against a
// real Redis.
func TestRedisRankingPipeline(t *testing.T) {
	_, store := startRedis(t)
	ctx := context.Background()

	queue := &recordingQueue{}
	ingestor := recommend.NewIngestor(store, queue, zerolog.Nop())
	engine, err := recommend.NewEngine(store, recommend.DefaultWeights(), zerolog.Nop(),
		recommend.WithDistributedLocker(storage.NewRedisLocker(store, 10*time.Second, 5*time.Second)))
	if err != nil {
		t.Fatal(err)
	}
	reader := recommend.NewReader(store, zerolog.Nop())

	for _, id := range []string{"a", "b", "c"} {
		if _, err := ingestor.RegisterItem(ctx, recommend.Item{CategoryID: "shows", ItemID: id}); err != nil {
			t.Fatalf("RegisterItem(%s): %v", id, err)
		}
	}
	if _, err := ingestor.RecordEvent(ctx, recommend.Event{UserID: "u1", CategoryID: "shows", ItemID: "b", Liked: recommend.LikeLiked}); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if _, err := ingestor.RecordEvent(ctx, recommend.Event{UserID: "u1", CategoryID: "shows", ItemID: "c", Watched: true}); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	queue.mu.Lock()
	reqs := append([]recommend.RecomputeRequest(nil), queue.reqs...)
	queue.mu.Unlock()
	if len(reqs) != 2 {
		t.Fatalf("queued %d requests, want 2", len(reqs))
	}
	for _, req := range reqs {
		if _, err := engine.Recompute(ctx, req); err != nil {
			t.Fatalf("Recompute: %v", err)
		}
	}

	recs, err := reader.GetRecommendations(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}
	if len(recs.RecommendVideos) != 3 {
		t.Fatalf("recommend_videos = %v, want 3 entries", recs.RecommendVideos)
	}
	if recs.RecommendVideos[0] != "shows:b" {
		t.Errorf("top = %q, want the liked shows:b", recs.RecommendVideos[0])
	}
	if recs.RecommendVideos[2] != "shows:c" {
		t.Errorf("last = %q, want the watched shows:c", recs.RecommendVideos[2])
	}
	if recs.LastUpdatedAt == nil {
		t.Error("last_updated_at should be set")
	}
}

// TestRedisLockOutlivesTTL holds a recompute lock longer than its TTL and
// checks that a second replica still cannot take it.
func TestRedisLockOutlivesTTL(t *testing.T) {
	_, store := startRedis(t)
	ctx := context.Background()
	key := recommend.RecomputeLockKey("u1", "shows")

	owner := storage.NewRedisLocker(store, 400*time.Millisecond, 100*time.Millisecond)
	other := storage.NewRedisLocker(store, 400*time.Millisecond, 100*time.Millisecond)

	release, err := owner.Lock(ctx, key)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	for i := 0; i < 4; i++ {
		time.Sleep(300 * time.Millisecond)
		if _, err := other.Lock(ctx, key); !errors.Is(err, storage.ErrLockNotAcquired) {
			t.Fatalf("after %v: second Lock = %v, want ErrLockNotAcquired", time.Duration(i+1)*300*time.Millisecond, err)
		}
	}

	release()
	again, err := other.Lock(ctx, key)
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	again()
}

// TestRedisStoppedIsUnavailable checks that a stopped server surfaces as
// storage.ErrUnavailable.
func TestRedisStoppedIsUnavailable(t *testing.T) {
	redisC, store := startRedis(t)
	ctx := context.Background()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping before stop: %v", err)
	}

	timeout := 5 * time.Second
	if err := redisC.Stop(ctx, &timeout); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	_, err := store.HashGetAll(ctx, recommend.ItemKey("shows", "a"))
	if !errors.Is(err, storage.ErrUnavailable) {
		t.Errorf("HashGetAll after stop = %v, want ErrUnavailable", err)
	}
}
