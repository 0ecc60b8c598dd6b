// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/metrics"
	"github.com/tomtom215/reelrank/internal/storage"
)

// Reader serves materialized rankings. It never triggers a recompute.
type Reader struct {
	store  storage.Backend
	logger zerolog.Logger
}

// NewReader creates a Reader.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewReader(store storage.Backend, logger zerolog.Logger) *Reader {
	return &Reader{
		store:  store,
		logger: logger.With().Str("component", "ranking_reader").Logger(),
	}
}

// GetRecommendations returns up to count "category:item" members of the
// user's ranking, highest score first, across all categories. Equal scores
// are ordered by the store's tie rule (member descending). A user with no ranking gets an
// empty list and a nil LastUpdatedAt.
func (r *Reader) GetRecommendations(ctx context.Context, userID string, count int) (Recommendations, error) {
	if count <= 0 {
		metrics.RecordRecommendationRead("invalid")
		return Recommendations{}, invalidArgf("count must be a positive integer, got %d", count)
	}
	if err := ValidateID("user_id", userID); err != nil {
		metrics.RecordRecommendationRead("invalid")
		return Recommendations{}, err
	}

	entries, err := r.store.SortedSetRevRange(ctx, RankingKey(userID), 0, int64(count-1))
	if err != nil {
		metrics.RecordRecommendationRead("error")
		return Recommendations{}, fmt.Errorf("read ranking for %s: %w", userID, err)
	}

	updatedAt, err := loadLastUpdatedAt(ctx, r.store, userID, r.logger)
	if err != nil {
		metrics.RecordRecommendationRead("error")
		return Recommendations{}, fmt.Errorf("read last_updated_at for %s: %w", userID, err)
	}

	rec := Recommendations{
		UserID:          userID,
		RecommendVideos: make([]string, 0, len(entries)),
		LastUpdatedAt:   updatedAt,
		Items:           make([]RankedItem, 0, len(entries)),
	}
	for _, entry := range entries {
		categoryID, itemID, err := SplitMember(entry.Member)
		if err != nil {
			r.logger.Warn().Err(err).Str("user_id", userID).Msg("Skipping malformed ranking member")
			continue
		}
		rec.RecommendVideos = append(rec.RecommendVideos, entry.Member)
		rec.Items = append(rec.Items, RankedItem{CategoryID: categoryID, ItemID: itemID, Score: entry.Score})
	}

	if len(rec.RecommendVideos) == 0 {
		metrics.RecordRecommendationRead("empty")
	} else {
		metrics.RecordRecommendationRead("ok")
	}
	return rec, nil
}
