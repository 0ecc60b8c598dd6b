// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/storage"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// recordingQueue is a RecomputeQueue that keeps what it was given.
type recordingQueue struct {
	mu   sync.Mutex
	reqs []RecomputeRequest
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, req RecomputeRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.reqs = append(q.reqs, req)
	return nil
}

func (q *recordingQueue) requests() []RecomputeRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]RecomputeRequest, len(q.reqs))
	copy(out, q.reqs)
	return out
}

// faultyBackend wraps a Memory backend and injects failures per key.
type faultyBackend struct {
	*storage.Memory

	mu           sync.Mutex
	failHashKeys map[string]error
	failZAdd     error
	onSetMembers func()
	onHashGetAll func(key string)
}

func newFaultyBackend() *faultyBackend {
	return &faultyBackend{
		Memory:       storage.NewMemory(),
		failHashKeys: make(map[string]error),
	}
}

func (f *faultyBackend) failHash(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failHashKeys[key] = err
}

func (f *faultyBackend) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	f.mu.Lock()
	err := f.failHashKeys[key]
	hook := f.onHashGetAll
	f.mu.Unlock()
	if hook != nil {
		hook(key)
	}
	if err != nil {
		return nil, err
	}
	return f.Memory.HashGetAll(ctx, key)
}

func (f *faultyBackend) SetMembers(ctx context.Context, key string) ([]string, error) {
	if f.onSetMembers != nil {
		f.onSetMembers()
	}
	return f.Memory.SetMembers(ctx, key)
}

func (f *faultyBackend) SortedSetAdd(ctx context.Context, key string, members ...storage.ScoredMember) error {
	if f.failZAdd != nil {
		return f.failZAdd
	}
	return f.Memory.SortedSetAdd(ctx, key, members...)
}

var errInjectedUnavailable = fmt.Errorf("%w: injected", storage.ErrUnavailable)

var errInjectedReply = errors.New("injected WRONGTYPE reply")

// seedItem registers an item with the given counters directly in the store.
func seedItem(t *testing.T, store storage.Backend, categoryID, itemID string, createdAt time.Time, views, likes int64) {
	t.Helper()
	ctx := context.Background()
	if err := store.HashSet(ctx, ItemKey(categoryID, itemID), map[string]string{
		FieldCreatedAt: formatTime(createdAt),
		FieldViewCount: fmt.Sprint(views),
		FieldLikeCount: fmt.Sprint(likes),
	}); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	if err := store.SetAdd(ctx, CategoryIndexKey(categoryID), itemID); err != nil {
		t.Fatalf("index item: %v", err)
	}
}

func seedReaction(t *testing.T, store storage.Backend, userID, itemID string, watched bool, liked LikeState) {
	t.Helper()
	fields := map[string]string{}
	if watched {
		fields[FieldWatched] = "1"
	}
	switch liked {
	case LikeLiked:
		fields[FieldLiked] = "1"
	case LikeUnliked:
		fields[FieldLiked] = "0"
	}
	if len(fields) == 0 {
		return
	}
	if err := store.HashSet(context.Background(), ReactionKey(userID, itemID), fields); err != nil {
		t.Fatalf("seed reaction: %v", err)
	}
}

func newTestEngine(t *testing.T, store storage.Backend, opts ...EngineOption) *Engine {
	t.Helper()
	opts = append([]EngineOption{WithClock(fixedClock)}, opts...)
	e, err := NewEngine(store, DefaultWeights(), zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func rankingOf(t *testing.T, store storage.Backend, userID string) map[string]float64 {
	t.Helper()
	entries, err := store.SortedSetRevRange(context.Background(), RankingKey(userID), 0, -1)
	if err != nil {
		t.Fatalf("read ranking: %v", err)
	}
	out := make(map[string]float64, len(entries))
	for _, e := range entries {
		out[e.Member] = e.Score
	}
	return out
}
