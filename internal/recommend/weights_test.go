// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"math"
	"testing"
	"time"
)

func TestWeights_Score(t *testing.T) {
	w := DefaultWeights()

	tests := []struct {
		name string
		in   ScoreInput
		want Breakdown
	}{
		{
			name: "fresh popular item liked and watched",
			in:   ScoreInput{ViewCount: 100, LikeCount: 10, Watched: true, Liked: LikeLiked, DaysSinceUpload: 0},
			want: Breakdown{Popularity: 0.8, Personal: 1.0, Recency: 0.6, Total: 2.4},
		},
		{
			name: "fresh popular item without reaction",
			in:   ScoreInput{ViewCount: 100, LikeCount: 10, DaysSinceUpload: 0},
			want: Breakdown{Popularity: 0.8, Personal: 0, Recency: 0.6, Total: 1.4},
		},
		{
			name: "old item with nothing",
			in:   ScoreInput{DaysSinceUpload: 45},
			want: Breakdown{},
		},
		{
			name: "unliked counts as not liked",
			in:   ScoreInput{Liked: LikeUnliked, DaysSinceUpload: 30},
			want: Breakdown{},
		},
		{
			name: "watched only goes negative",
			in:   ScoreInput{Watched: true, DaysSinceUpload: 29},
			want: Breakdown{Personal: -1.0, Recency: 0.02, Total: -0.98},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := w.Score(tt.in)
			if !approxEqual(got.Popularity, tt.want.Popularity) ||
				!approxEqual(got.Personal, tt.want.Personal) ||
				!approxEqual(got.Recency, tt.want.Recency) ||
				!approxEqual(got.Total, tt.want.Total) {
				t.Errorf("Score(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWeights_RecencyBonusBounds(t *testing.T) {
	w := DefaultWeights()
	maxBonus := w.RecencyBonus(0)

	for days := -10; days <= 60; days++ {
		b := w.RecencyBonus(days)
		if b < 0 || b > maxBonus+1e-12 {
			t.Fatalf("RecencyBonus(%d) = %v, want within [0, %v]", days, b, maxBonus)
		}
	}
	if got := w.RecencyBonus(-5); !approxEqual(got, maxBonus) {
		t.Errorf("future item bonus = %v, want clamped to %v", got, maxBonus)
	}
	if got := w.RecencyBonus(30); got != 0 {
		t.Errorf("bonus at window edge = %v, want 0", got)
	}
}

func TestDaysSince(t *testing.T) {
	now := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		created time.Time
		want    int
	}{
		{"same instant", now, 0},
		{"23 hours ago floors to zero", now.Add(-23 * time.Hour), 0},
		{"exactly one day", now.Add(-24 * time.Hour), 1},
		{"45 days", now.AddDate(0, 0, -45), 45},
		{"in the future clamps to zero", now.Add(72 * time.Hour), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysSince(tt.created, now); got != tt.want {
				t.Errorf("DaysSince = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWeights_Validate(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}

	bad := DefaultWeights()
	bad.Like = -1
	bad.Recency = math.NaN()
	bad.RecencyWindowDays = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}
