// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// RegisterItemRequest is the body of POST /api/v1/items.
type RegisterItemRequest struct {
	CategoryID string     `json:"category_id" validate:"required,entityid"`
	ItemID     string     `json:"item_id" validate:"required,entityid"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// RecordEventRequest is the body of POST /api/v1/events.
// Liked is one of "", "none", "like" or "unlike".
type RecordEventRequest struct {
	UserID     string `json:"user_id" validate:"required,entityid"`
	CategoryID string `json:"category_id" validate:"required,entityid"`
	ItemID     string `json:"item_id" validate:"required,entityid"`
	Watched    bool   `json:"watched"`
	Liked      string `json:"liked,omitempty" validate:"omitempty,likestate"`
}

// RecomputeBody is the body of POST /api/v1/users/{userID}/recompute.
type RecomputeBody struct {
	CategoryID string `json:"category_id" validate:"required,entityid"`
}

// RecommendationsQuery holds the validated path and query of
// GET /api/v1/users/{userID}/recommendations.
type RecommendationsQuery struct {
	UserID string `json:"user_id" validate:"required,entityid"`
	Count  int    `json:"count" validate:"min=1"`
}

var errEmptyBody = errors.New("request body is empty")

// decodeJSONBody decodes a bounded JSON body into dst. Unknown fields are
// rejected so a misspelled field is not silently ignored.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
		}
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	return nil
}
