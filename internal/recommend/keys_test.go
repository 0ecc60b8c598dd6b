// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"plain", "user-42", false},
		{"unicode letters", "vidéo_1", false},
		{"max length", strings.Repeat("a", MaxIDLength), false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", MaxIDLength+1), true},
		{"colon", "music:1", true},
		{"space", "my item", true},
		{"newline", "a\nb", true},
		{"invalid utf8", "a\xffb", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID("item_id", tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("error %v does not wrap ErrInvalidArgument", err)
			}
		})
	}
}

func TestKeys(t *testing.T) {
	if got := ItemKey("music", "v1"); got != "item:music:v1" {
		t.Errorf("ItemKey = %q", got)
	}
	if got := CategoryIndexKey("music"); got != "category:music:items" {
		t.Errorf("CategoryIndexKey = %q", got)
	}
	if got := ReactionKey("u1", "v1"); got != "reaction:u1:v1" {
		t.Errorf("ReactionKey = %q", got)
	}
	if got := RankingKey("u1"); got != "scores:u1" {
		t.Errorf("RankingKey = %q", got)
	}
	if got := UserMetaKey("u1"); got != "user_meta:u1" {
		t.Errorf("UserMetaKey = %q", got)
	}
}

func TestSplitMember(t *testing.T) {
	cat, item, err := SplitMember(Member("music", "v1"))
	if err != nil || cat != "music" || item != "v1" {
		t.Errorf("SplitMember = (%q, %q, %v)", cat, item, err)
	}
	for _, bad := range []string{"", "nocolon", ":v1", "music:"} {
		if _, _, err := SplitMember(bad); err == nil {
			t.Errorf("SplitMember(%q) expected error", bad)
		}
	}
}

func TestParseTime_AcceptsLegacyNaiveTimestamps(t *testing.T) {
	got, err := parseTime("2024-05-01T10:20:30.123456")
	if err != nil {
		t.Fatalf("parseTime: %v", err)
	}
	want := time.Date(2024, 5, 1, 10, 20, 30, 123456000, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parseTime = %v, want %v", got, want)
	}

	rt, err := parseTime(formatTime(want))
	if err != nil || !rt.Equal(want) {
		t.Errorf("formatTime round trip = %v, %v", rt, err)
	}

	if _, err := parseTime("yesterday"); err == nil {
		t.Error("expected error for garbage timestamp")
	}
}

func TestDecodeReaction(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]string
		want    Reaction
		wantErr bool
	}{
		{"absent", nil, Reaction{}, false},
		{"watched and liked", map[string]string{"watched": "1", "liked": "1"}, Reaction{Watched: true, Liked: LikeLiked}, false},
		{"unliked", map[string]string{"liked": "0"}, Reaction{Liked: LikeUnliked}, false},
		{"bad watched", map[string]string{"watched": "maybe"}, Reaction{}, true},
		{"bad liked", map[string]string{"liked": "7"}, Reaction{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeReaction(tt.fields)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("decodeReaction = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseLikeState(t *testing.T) {
	for in, want := range map[string]LikeState{"": LikeNone, "none": LikeNone, "LIKE": LikeLiked, "unlike": LikeUnliked} {
		got, err := ParseLikeState(in)
		if err != nil || got != want {
			t.Errorf("ParseLikeState(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLikeState("love"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
