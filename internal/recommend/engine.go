// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/metrics"
	"github.com/tomtom215/reelrank/internal/storage"
)

// Recompute outcomes used for metrics and logs.
const (
	OutcomeSuccess   = "success"
	OutcomePartial   = "partial"
	OutcomeFailed    = "failed"
	OutcomeAbandoned = "abandoned"
	OutcomeInvalid   = "invalid"
)

// DefaultItemTimeout bounds the storage calls made for a single item.
const DefaultItemTimeout = 5 * time.Second

// Engine recomputes per-user rankings.
type Engine struct {
	store       storage.Backend
	weights     Weights
	locks       *KeyMutex
	distributed Locker
	itemTimeout time.Duration
	now         func() time.Time
	logger      zerolog.Logger

	// Stats
	recomputes    atomic.Int64
	partials      atomic.Int64
	failures      atomic.Int64
	itemsScored   atomic.Int64
	itemsSkipped  atomic.Int64
	lastRecompute atomic.Int64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the clock used for item ages and last_updated_at.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithDistributedLocker adds a lock shared across processes, taken after
// the in-process lock for the same (user, category).
func WithDistributedLocker(l Locker) EngineOption {
	return func(e *Engine) { e.distributed = l }
}

// WithItemTimeout bounds the storage calls for one item.
func WithItemTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.itemTimeout = d
		}
	}
}

// NewEngine creates an Engine. The weights are validated once here.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEngine(store storage.Backend, weights Weights, logger zerolog.Logger, opts ...EngineOption) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}
	e := &Engine{
		store:       store,
		weights:     weights,
		locks:       NewKeyMutex(),
		itemTimeout: DefaultItemTimeout,
		now:         time.Now,
		logger:      logger.With().Str("component", "recompute_engine").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Weights returns the engine's scoring coefficients.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Recompute rebuilds the user's scores for every item indexed under the
// request's category and writes them to the user's ranking in one batch,
// then stamps last_updated_at. Items of other categories are untouched.
//
// Items whose data cannot be loaded or decoded are skipped; the scored
// items are still written, last_updated_at is stamped and a
// *PartialRecomputeError is returned with the result, even when every item
// was skipped. Only failing to list the category, to write the ranking or
// to take the lock fails the recompute as a whole. Cancelling ctx between items abandons the recompute without stamping
// last_updated_at.
func (e *Engine) Recompute(ctx context.Context, req RecomputeRequest) (RecomputeResult, error) {
	start := time.Now()
	res := RecomputeResult{UserID: req.UserID, CategoryID: req.CategoryID}

	if err := validateIDs("user_id", req.UserID, "category_id", req.CategoryID); err != nil {
		e.finish(&res, OutcomeInvalid, start)
		return res, err
	}

	logger := e.logger.With().
		Str("event_id", req.EventID).
		Str("user_id", req.UserID).
		Str("category_id", req.CategoryID).
		Logger()

	lockKey := RecomputeLockKey(req.UserID, req.CategoryID)
	unlock, err := e.locks.Lock(ctx, lockKey)
	if err != nil {
		e.finish(&res, OutcomeAbandoned, start)
		return res, fmt.Errorf("wait for recompute lock: %w", err)
	}
	defer unlock()

	if e.distributed != nil {
		release, err := e.distributed.Lock(ctx, lockKey)
		if err != nil {
			e.finish(&res, outcomeFor(err), start)
			return res, fmt.Errorf("acquire recompute lock: %w", err)
		}
		defer release()
	}

	itemIDs, err := e.store.SetMembers(ctx, CategoryIndexKey(req.CategoryID))
	if err != nil {
		e.finish(&res, outcomeFor(err), start)
		return res, fmt.Errorf("list items of category %s: %w", req.CategoryID, err)
	}
	sort.Strings(itemIDs)

	now := e.now()
	members := make([]storage.ScoredMember, 0, len(itemIDs))
	var failures []ItemFailure

	for _, itemID := range itemIDs {
		if err := ctx.Err(); err != nil {
			e.finish(&res, OutcomeAbandoned, start)
			logger.Info().
				Int("processed", res.Scored+res.Skipped).
				Int("total", len(itemIDs)).
				Msg("Recompute abandoned")
			return res, fmt.Errorf("recompute abandoned after %d of %d items: %w",
				res.Scored+res.Skipped, len(itemIDs), err)
		}

		b, err := e.scoreItem(ctx, req.UserID, req.CategoryID, itemID, now)
		if err != nil {
			res.Skipped++
			failures = append(failures, ItemFailure{ItemID: itemID, Err: err})
			logger.Warn().Err(err).Str("item_id", itemID).Msg("Skipping item")
			continue
		}
		members = append(members, storage.ScoredMember{
			Member: Member(req.CategoryID, itemID),
			Score:  b.Total,
		})
		res.Scored++
	}

	writeCtx, cancel := e.detached(ctx)
	defer cancel()

	if err := e.store.SortedSetAdd(writeCtx, RankingKey(req.UserID), members...); err != nil {
		e.finish(&res, outcomeFor(err), start)
		return res, fmt.Errorf("write ranking: %w", err)
	}

	updatedAt := e.now().UTC()
	if err := e.store.HashSet(writeCtx, UserMetaKey(req.UserID), map[string]string{
		FieldLastUpdatedAt: formatTime(updatedAt),
	}); err != nil {
		e.finish(&res, outcomeFor(err), start)
		return res, fmt.Errorf("write last_updated_at: %w", err)
	}
	res.UpdatedAt = updatedAt

	if res.Skipped > 0 {
		e.finish(&res, OutcomePartial, start)
		logger.Warn().
			Int("scored", res.Scored).
			Int("skipped", res.Skipped).
			Dur("duration", res.Duration).
			Msg("Recompute completed with skipped items")
		return res, &PartialRecomputeError{
			UserID:     req.UserID,
			CategoryID: req.CategoryID,
			Skipped:    res.Skipped,
			Total:      len(itemIDs),
			Failures:   failures,
		}
	}

	e.finish(&res, OutcomeSuccess, start)
	logger.Debug().
		Int("scored", res.Scored).
		Dur("duration", res.Duration).
		Msg("Recompute completed")
	return res, nil
}

// ScoreItem computes the current score of one item for one user.
func (e *Engine) ScoreItem(ctx context.Context, userID, categoryID, itemID string) (Breakdown, error) {
	if err := validateIDs("user_id", userID, "category_id", categoryID, "item_id", itemID); err != nil {
		return Breakdown{}, err
	}
	return e.scoreItem(ctx, userID, categoryID, itemID, e.now())
}

func (e *Engine) scoreItem(ctx context.Context, userID, categoryID, itemID string, now time.Time) (Breakdown, error) {
	itemCtx, cancel := e.detached(ctx)
	defer cancel()

	itemFields, err := e.store.HashGetAll(itemCtx, ItemKey(categoryID, itemID))
	if err != nil {
		return Breakdown{}, fmt.Errorf("load item: %w", err)
	}
	item, err := decodeItem(categoryID, itemID, itemFields)
	if err != nil {
		return Breakdown{}, fmt.Errorf("decode item: %w", err)
	}

	reactionFields, err := e.store.HashGetAll(itemCtx, ReactionKey(userID, itemID))
	if err != nil {
		return Breakdown{}, fmt.Errorf("load reaction: %w", err)
	}
	reaction, err := decodeReaction(reactionFields)
	if err != nil {
		return Breakdown{}, fmt.Errorf("decode reaction: %w", err)
	}

	// Items without a creation time get no recency bonus.
	days := e.weights.RecencyWindowDays
	if !item.CreatedAt.IsZero() {
		days = DaysSince(item.CreatedAt, now)
	}

	return e.weights.Score(ScoreInput{
		ViewCount:       item.ViewCount,
		LikeCount:       item.LikeCount,
		Watched:         reaction.Watched,
		Liked:           reaction.Liked,
		DaysSinceUpload: days,
	}), nil
}

// detached returns a context that survives cancellation of ctx but is
// bounded by the item timeout, so a started item completes.
func (e *Engine) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), e.itemTimeout)
}

func (e *Engine) finish(res *RecomputeResult, outcome string, start time.Time) {
	res.Duration = time.Since(start)
	metrics.RecordRecompute(outcome, res.Duration, res.Scored, res.Skipped)

	e.recomputes.Add(1)
	e.itemsScored.Add(int64(res.Scored))
	e.itemsSkipped.Add(int64(res.Skipped))
	switch outcome {
	case OutcomeSuccess:
		e.lastRecompute.Store(time.Now().UnixNano())
	case OutcomePartial:
		e.partials.Add(1)
		e.lastRecompute.Store(time.Now().UnixNano())
	default:
		e.failures.Add(1)
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeAbandoned
	case errors.Is(err, ErrInvalidArgument):
		return OutcomeInvalid
	default:
		return OutcomeFailed
	}
}

// EngineStats is a snapshot of the engine's counters.
type EngineStats struct {
	Recomputes    int64     `json:"recomputes"`
	Partials      int64     `json:"partials"`
	Failures      int64     `json:"failures"`
	ItemsScored   int64     `json:"items_scored"`
	ItemsSkipped  int64     `json:"items_skipped"`
	LastRecompute time.Time `json:"last_recompute,omitempty"`
}

// Stats returns the engine's counters since start.
func (e *Engine) Stats() EngineStats {
	s := EngineStats{
		Recomputes:   e.recomputes.Load(),
		Partials:     e.partials.Load(),
		Failures:     e.failures.Load(),
		ItemsScored:  e.itemsScored.Load(),
		ItemsSkipped: e.itemsSkipped.Load(),
	}
	if ns := e.lastRecompute.Load(); ns > 0 {
		s.LastRecompute = time.Unix(0, ns)
	}
	return s
}
