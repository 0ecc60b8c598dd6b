// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"fmt"
	"strings"
	"time"
)

// LikeState is the tri-state like flag of a reaction.
type LikeState int8

const (
	// LikeNone means the user has not reacted with like or unlike.
	LikeNone LikeState = iota
	// LikeLiked means the user liked the item.
	LikeLiked
	// LikeUnliked means the user explicitly withdrew or refused a like.
	LikeUnliked
)

// String returns the wire name of the state.
func (s LikeState) String() string {
	switch s {
	case LikeLiked:
		return "like"
	case LikeUnliked:
		return "unlike"
	default:
		return "none"
	}
}

// ParseLikeState parses "like", "unlike", "none" or the empty string.
func ParseLikeState(s string) (LikeState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return LikeNone, nil
	case "like", "liked":
		return LikeLiked, nil
	case "unlike", "unliked":
		return LikeUnliked, nil
	default:
		return LikeNone, invalidArgf("liked must be one of like, unlike, none (got %q)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s LikeState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *LikeState) UnmarshalText(b []byte) error {
	parsed, err := ParseLikeState(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Item is a content unit within a category.
type Item struct {
	// CategoryID is the category the item belongs to.
	CategoryID string `json:"category_id"`

	// ItemID identifies the item within its category.
	ItemID string `json:"item_id"`

	// CreatedAt is the upload time used for the recency bonus.
	// Zero when the item was never registered.
	CreatedAt time.Time `json:"created_at"`

	// ViewCount counts watched events.
	ViewCount int64 `json:"view_count"`

	// LikeCount counts like events. Unlikes do not decrement it.
	LikeCount int64 `json:"like_count"`
}

// Reaction is a user's recorded interaction with one item.
type Reaction struct {
	// Watched is monotonic: once true it stays true.
	Watched bool `json:"watched"`

	// Liked is the tri-state like flag.
	Liked LikeState `json:"liked"`
}

// Event is one reaction reported by a client.
type Event struct {
	UserID     string    `json:"user_id"`
	CategoryID string    `json:"category_id"`
	ItemID     string    `json:"item_id"`
	Watched    bool      `json:"watched"`
	Liked      LikeState `json:"liked"`
}

// RecomputeRequest asks a worker to rebuild one user's scores for one category.
// Requests are delivered at least once; handling them is idempotent.
type RecomputeRequest struct {
	// EventID uniquely identifies the request. It is used as the message ID.
	EventID string `json:"event_id"`

	UserID     string `json:"user_id"`
	CategoryID string `json:"category_id"`

	// RequestedAt is when the request was enqueued.
	RequestedAt time.Time `json:"requested_at"`

	// PreviousUpdatedAt is the ranking's last_updated_at seen at enqueue time.
	PreviousUpdatedAt *time.Time `json:"previous_updated_at,omitempty"`
}

// Key returns the serialization key "user:category" of the request.
func (r RecomputeRequest) Key() string {
	return r.UserID + ":" + r.CategoryID
}

// RecomputeResult summarizes one recompute.
type RecomputeResult struct {
	UserID     string
	CategoryID string

	// Scored is the number of items written to the ranking.
	Scored int

	// Skipped is the number of items whose data could not be loaded.
	Skipped int

	// UpdatedAt is the last_updated_at written, zero if none was written.
	UpdatedAt time.Time

	Duration time.Duration
}

// RankedItem is one entry of a ranking.
type RankedItem struct {
	CategoryID string  `json:"category_id"`
	ItemID     string  `json:"item_id"`
	Score      float64 `json:"score"`
}

// Member returns the composite "category:item" ranking member.
func (r RankedItem) Member() string {
	return Member(r.CategoryID, r.ItemID)
}

// Recommendations is the Ranking Reader's result.
//
// The JSON form is {"user_id", "recommend_videos", "last_updated_at"}.
// recommend_videos holds composite "category:item" identifiers and
// last_updated_at is null when the user has never been recomputed.
type Recommendations struct {
	UserID          string     `json:"user_id"`
	RecommendVideos []string   `json:"recommend_videos"`
	LastUpdatedAt   *time.Time `json:"last_updated_at"`

	// Items carries the same entries with scores for in-process callers.
	Items []RankedItem `json:"-"`
}

// Member builds the composite ranking member for an item.
func Member(categoryID, itemID string) string {
	return categoryID + ":" + itemID
}

// SplitMember splits a composite ranking member. Identifiers never contain
// ':' so the first separator is unambiguous.
func SplitMember(member string) (categoryID, itemID string, err error) {
	i := strings.IndexByte(member, ':')
	if i <= 0 || i == len(member)-1 {
		return "", "", fmt.Errorf("malformed ranking member %q", member)
	}
	return member[:i], member[i+1:], nil
}
