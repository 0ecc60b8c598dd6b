// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package eventprocessor

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelrank/internal/recommend"
)

// Serializer handles RecomputeRequest encoding for queue messages.
type Serializer struct{}

// NewSerializer creates a new serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Marshal validates and encodes a request.
func (s *Serializer) Marshal(req recommend.RecomputeRequest) ([]byte, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal recompute request: %w", err)
	}
	return data, nil
}

// Unmarshal decodes and validates a request. Every failure wraps
// ErrMalformedMessage.
func (s *Serializer) Unmarshal(data []byte) (recommend.RecomputeRequest, error) {
	var req recommend.RecomputeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if err := validateRequest(req); err != nil {
		return req, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	return req, nil
}

func validateRequest(req recommend.RecomputeRequest) error {
	if err := recommend.ValidateID("user_id", req.UserID); err != nil {
		return err
	}
	return recommend.ValidateID("category_id", req.CategoryID)
}
