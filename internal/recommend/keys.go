// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"fmt"
	"strconv"
	"time"
	"unicode"
)

// MaxIDLength bounds user, category and item identifiers.
const MaxIDLength = 128

// Hash fields.
const (
	FieldCreatedAt     = "created_at"
	FieldViewCount     = "view_count"
	FieldLikeCount     = "like_count"
	FieldWatched       = "watched"
	FieldLiked         = "liked"
	FieldLastUpdatedAt = "last_updated_at"
)

// ItemKey is the hash holding an item's metadata and counters.
func ItemKey(categoryID, itemID string) string {
	return "item:" + categoryID + ":" + itemID
}

// CategoryIndexKey is the set of item ids in a category.
func CategoryIndexKey(categoryID string) string {
	return "category:" + categoryID + ":items"
}

// ReactionKey is the hash holding a user's reaction to an item.
func ReactionKey(userID, itemID string) string {
	return "reaction:" + userID + ":" + itemID
}

// RankingKey is the sorted set of a user's scores across categories.
func RankingKey(userID string) string {
	return "scores:" + userID
}

// UserMetaKey is the hash holding a user's recompute metadata.
func UserMetaKey(userID string) string {
	return "user_meta:" + userID
}

// RecomputeLockKey serializes recomputes of one (user, category).
func RecomputeLockKey(userID, categoryID string) string {
	return "lock:recompute:" + userID + ":" + categoryID
}

// ValidateID checks that an identifier can be embedded in a key: non-empty,
// at most MaxIDLength bytes, no ':' and no whitespace or control characters.
func ValidateID(field, id string) error {
	if id == "" {
		return invalidArgf("%s is required", field)
	}
	if len(id) > MaxIDLength {
		return invalidArgf("%s exceeds %d bytes", field, MaxIDLength)
	}
	for _, r := range id {
		if r == ':' {
			return invalidArgf("%s must not contain ':'", field)
		}
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == unicode.ReplacementChar {
			return invalidArgf("%s contains an invalid character %q", field, r)
		}
	}
	return nil
}

func validateIDs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := ValidateID(pairs[i], pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// Timestamps are written as RFC 3339 in UTC. Older data may carry naive
// local timestamps without a zone; those are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// decodeItem builds an Item from its stored hash. Missing counters read as
// zero and a missing created_at leaves CreatedAt zero.
func decodeItem(categoryID, itemID string, fields map[string]string) (Item, error) {
	item := Item{CategoryID: categoryID, ItemID: itemID}

	var err error
	if item.ViewCount, err = decodeCounter(fields, FieldViewCount); err != nil {
		return item, err
	}
	if item.LikeCount, err = decodeCounter(fields, FieldLikeCount); err != nil {
		return item, err
	}
	if raw, ok := fields[FieldCreatedAt]; ok && raw != "" {
		if item.CreatedAt, err = parseTime(raw); err != nil {
			return item, fmt.Errorf("%s: %w", FieldCreatedAt, err)
		}
	}
	return item, nil
}

func decodeCounter(fields map[string]string, field string) (int64, error) {
	raw, ok := fields[field]
	if !ok || raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: not an integer: %q", field, raw)
	}
	return n, nil
}

// decodeReaction builds a Reaction from its stored hash. An absent hash is
// the zero Reaction.
func decodeReaction(fields map[string]string) (Reaction, error) {
	var r Reaction
	if raw, ok := fields[FieldWatched]; ok && raw != "" {
		watched, err := strconv.ParseBool(raw)
		if err != nil {
			return r, fmt.Errorf("%s: not a boolean: %q", FieldWatched, raw)
		}
		r.Watched = watched
	}
	switch raw := fields[FieldLiked]; raw {
	case "":
		r.Liked = LikeNone
	case "1", "true":
		r.Liked = LikeLiked
	case "0", "-1", "false":
		r.Liked = LikeUnliked
	default:
		return r, fmt.Errorf("%s: unexpected value %q", FieldLiked, raw)
	}
	return r, nil
}
