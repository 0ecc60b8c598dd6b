// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/metrics"
	"github.com/tomtom215/reelrank/internal/storage"
)

// RecomputeQueue accepts recompute requests for asynchronous processing.
type RecomputeQueue interface {
	Enqueue(ctx context.Context, req RecomputeRequest) error
}

// Ingestor records reactions and item registrations.
type Ingestor struct {
	store  storage.Backend
	queue  RecomputeQueue
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithIngestorClock overrides the clock used for RequestedAt and default
// item creation times.
func WithIngestorClock(now func() time.Time) IngestorOption {
	return func(i *Ingestor) { i.now = now }
}

// NewIngestor creates an Ingestor.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewIngestor(store storage.Backend, queue RecomputeQueue, logger zerolog.Logger, opts ...IngestorOption) *Ingestor {
	i := &Ingestor{
		store:  store,
		queue:  queue,
		logger: logger.With().Str("component", "ingestor").Logger(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// RecordEvent persists the user's reaction, bumps the item's counters and
// enqueues a recompute of the user's ranking for the event's category.
//
// Each write is independent: when a later step fails the earlier ones stay
// applied. A failed enqueue returns ErrQueueUnavailable; the reaction is
// already persisted and is picked up by the next recompute of the category.
func (i *Ingestor) RecordEvent(ctx context.Context, ev Event) (RecomputeRequest, error) {
	if err := validateIDs("user_id", ev.UserID, "category_id", ev.CategoryID, "item_id", ev.ItemID); err != nil {
		return RecomputeRequest{}, err
	}
	if ev.Liked < LikeNone || ev.Liked > LikeUnliked {
		return RecomputeRequest{}, invalidArgf("liked has unknown state %d", ev.Liked)
	}

	reactionKey := ReactionKey(ev.UserID, ev.ItemID)
	itemKey := ItemKey(ev.CategoryID, ev.ItemID)

	if ev.Watched {
		if err := i.store.HashSet(ctx, reactionKey, map[string]string{FieldWatched: "1"}); err != nil {
			return RecomputeRequest{}, fmt.Errorf("record watched: %w", err)
		}
		if _, err := i.store.HashIncrBy(ctx, itemKey, FieldViewCount, 1); err != nil {
			return RecomputeRequest{}, fmt.Errorf("increment view count: %w", err)
		}
		metrics.RecordEvent("watched")
	}

	switch ev.Liked {
	case LikeLiked:
		if err := i.store.HashSet(ctx, reactionKey, map[string]string{FieldLiked: "1"}); err != nil {
			return RecomputeRequest{}, fmt.Errorf("record like: %w", err)
		}
		if _, err := i.store.HashIncrBy(ctx, itemKey, FieldLikeCount, 1); err != nil {
			return RecomputeRequest{}, fmt.Errorf("increment like count: %w", err)
		}
		metrics.RecordEvent("like")
	case LikeUnliked:
		if err := i.store.HashSet(ctx, reactionKey, map[string]string{FieldLiked: "0"}); err != nil {
			return RecomputeRequest{}, fmt.Errorf("record unlike: %w", err)
		}
		metrics.RecordEvent("unlike")
	}

	if !ev.Watched && ev.Liked == LikeNone {
		metrics.RecordEvent("none")
	}

	i.logger.Debug().
		Str("user_id", ev.UserID).
		Str("category_id", ev.CategoryID).
		Str("item_id", ev.ItemID).
		Bool("watched", ev.Watched).
		Str("liked", ev.Liked.String()).
		Msg("Reaction recorded")

	return i.RequestRecompute(ctx, ev.UserID, ev.CategoryID)
}

// RequestRecompute enqueues a recompute of one user's ranking for one
// category without recording a reaction.
func (i *Ingestor) RequestRecompute(ctx context.Context, userID, categoryID string) (RecomputeRequest, error) {
	if err := validateIDs("user_id", userID, "category_id", categoryID); err != nil {
		return RecomputeRequest{}, err
	}

	previous, err := loadLastUpdatedAt(ctx, i.store, userID, i.logger)
	if err != nil {
		return RecomputeRequest{}, fmt.Errorf("read last_updated_at: %w", err)
	}

	req := RecomputeRequest{
		EventID:           i.newID(),
		UserID:            userID,
		CategoryID:        categoryID,
		RequestedAt:       i.now().UTC(),
		PreviousUpdatedAt: previous,
	}

	if err := i.queue.Enqueue(ctx, req); err != nil {
		i.logger.Error().Err(err).
			Str("event_id", req.EventID).
			Str("user_id", userID).
			Str("category_id", categoryID).
			Msg("Failed to enqueue recompute request")
		return req, fmt.Errorf("%w: %w", ErrQueueUnavailable, err)
	}
	return req, nil
}

// RegisterItem adds an item to its category index and sets its creation
// time. Registering an existing item only updates created_at; counters are
// never reset. A zero CreatedAt means now.
func (i *Ingestor) RegisterItem(ctx context.Context, item Item) (Item, error) {
	if err := validateIDs("category_id", item.CategoryID, "item_id", item.ItemID); err != nil {
		return item, err
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = i.now()
	}
	item.CreatedAt = item.CreatedAt.UTC()

	if err := i.store.HashSet(ctx, ItemKey(item.CategoryID, item.ItemID), map[string]string{
		FieldCreatedAt: formatTime(item.CreatedAt),
	}); err != nil {
		return item, fmt.Errorf("write item %s: %w", item.ItemID, err)
	}
	if err := i.store.SetAdd(ctx, CategoryIndexKey(item.CategoryID), item.ItemID); err != nil {
		return item, fmt.Errorf("index item %s: %w", item.ItemID, err)
	}

	metrics.RecordItemRegistered()
	i.logger.Info().
		Str("category_id", item.CategoryID).
		Str("item_id", item.ItemID).
		Time("created_at", item.CreatedAt).
		Msg("Item registered")
	return item, nil
}

// loadLastUpdatedAt returns the user's last recompute time, or nil when the
// user has never been recomputed. An unparseable value is logged and read
// as nil.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func loadLastUpdatedAt(ctx context.Context, store storage.Backend, userID string, logger zerolog.Logger) (*time.Time, error) {
	raw, ok, err := store.HashGet(ctx, UserMetaKey(userID), FieldLastUpdatedAt)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}
	t, err := parseTime(raw)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Ignoring unparseable last_updated_at")
		return nil, nil
	}
	return &t, nil
}
