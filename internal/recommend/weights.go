// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Weights are the scoring coefficients. A Weights value is immutable once
// handed to an Engine.
type Weights struct {
	// View is the popularity contribution of one view.
	View float64 `json:"view" koanf:"view"`

	// Like is the popularity contribution of one like.
	Like float64 `json:"like" koanf:"like"`

	// Liked is added when the user liked the item.
	Liked float64 `json:"liked" koanf:"liked"`

	// WatchPenalty is subtracted when the user already watched the item.
	WatchPenalty float64 `json:"watch_penalty" koanf:"watch_penalty"`

	// Recency is the bonus per day the item is younger than the window.
	Recency float64 `json:"recency" koanf:"recency"`

	// RecencyWindowDays is the age in days at which the recency bonus reaches zero.
	RecencyWindowDays int `json:"recency_window_days" koanf:"recency_window_days"`
}

// DefaultWeights returns the production coefficients.
func DefaultWeights() Weights {
	return Weights{
		View:              0.004,
		Like:              0.04,
		Liked:             2.0,
		WatchPenalty:      1.0,
		Recency:           0.02,
		RecencyWindowDays: 30,
	}
}

// Validate checks that all coefficients are finite and non-negative and
// the recency window is positive.
func (w Weights) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"view", w.View},
		{"like", w.Like},
		{"liked", w.Liked},
		{"watch_penalty", w.WatchPenalty},
		{"recency", w.Recency},
	}
	var errs []error
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			errs = append(errs, fmt.Errorf("weight %s must be a finite non-negative number, got %v", f.name, f.value))
		}
	}
	if w.RecencyWindowDays <= 0 {
		errs = append(errs, fmt.Errorf("recency_window_days must be positive, got %d", w.RecencyWindowDays))
	}
	return errors.Join(errs...)
}

// ScoreInput is everything the score of one (user, item) pair depends on.
type ScoreInput struct {
	ViewCount int64
	LikeCount int64
	Watched   bool
	Liked     LikeState

	// DaysSinceUpload is the floored item age. Negative values are treated as 0.
	DaysSinceUpload int
}

// Breakdown is a score split into its components.
type Breakdown struct {
	Popularity float64
	Personal   float64
	Recency    float64
	Total      float64
}

// Score computes the score of one (user, item) pair.
func (w Weights) Score(in ScoreInput) Breakdown {
	b := Breakdown{
		Popularity: float64(in.ViewCount)*w.View + float64(in.LikeCount)*w.Like,
		Recency:    w.RecencyBonus(in.DaysSinceUpload),
	}
	if in.Liked == LikeLiked {
		b.Personal += w.Liked
	}
	if in.Watched {
		b.Personal -= w.WatchPenalty
	}
	b.Total = b.Popularity + b.Personal + b.Recency
	return b
}

// RecencyBonus returns max(0, Recency*(window-days)) with days clamped at 0.
func (w Weights) RecencyBonus(days int) float64 {
	if days < 0 {
		days = 0
	}
	remaining := w.RecencyWindowDays - days
	if remaining <= 0 {
		return 0
	}
	return w.Recency * float64(remaining)
}

// DaysSince returns the whole days elapsed from createdAt to now, floored
// and clamped at zero for timestamps in the future.
func DaysSince(createdAt, now time.Time) int {
	d := now.Sub(createdAt)
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
