// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/reelrank/internal/models"
	"github.com/tomtom215/reelrank/internal/recommend"
	"github.com/tomtom215/reelrank/internal/validation"
)

// RegisterItem handles POST /api/v1/items.
// Responds 201 with the stored item, including its current counters.
func (h *Handler) RegisterItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req RegisterItemRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, &models.APIError{Code: ErrCodeBadRequest, Message: err.Error()}, nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	item := recommend.Item{CategoryID: req.CategoryID, ItemID: req.ItemID}
	if req.CreatedAt != nil {
		item.CreatedAt = *req.CreatedAt
	}

	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	stored, err := h.ingest.RegisterItem(ctx, item)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondData(w, r, http.StatusCreated, stored, start)
}

// RecordEvent handles POST /api/v1/events.
// Responds 202 with the queued recompute request.
func (h *Handler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req RecordEventRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, &models.APIError{Code: ErrCodeBadRequest, Message: err.Error()}, nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	liked, err := recommend.ParseLikeState(req.Liked)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	queued, err := h.ingest.RecordEvent(ctx, recommend.Event{
		UserID:     req.UserID,
		CategoryID: req.CategoryID,
		ItemID:     req.ItemID,
		Watched:    req.Watched,
		Liked:      liked,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondData(w, r, http.StatusAccepted, queued, start)
}

// GetRecommendations handles GET /api/v1/users/{userID}/recommendations?count=N.
// count defaults to the configured default and is capped at the configured maximum.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	query := RecommendationsQuery{
		UserID: chi.URLParam(r, "userID"),
		Count:  h.config.DefaultCount,
	}
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, &models.APIError{
				Code:    ErrCodeValidation,
				Message: "count must be an integer",
				Details: map[string]interface{}{"field": "count"},
			}, nil)
			return
		}
		query.Count = n
	}
	if verr := validation.ValidateStruct(&query); verr != nil {
		respondValidation(w, r, verr)
		return
	}
	if query.Count > h.config.MaxCount {
		query.Count = h.config.MaxCount
	}

	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	recs, err := h.reader.GetRecommendations(ctx, query.UserID, query.Count)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondData(w, r, http.StatusOK, recs, start)
}

// RequestRecompute handles POST /api/v1/users/{userID}/recompute.
// Responds 202 with the queued request.
func (h *Handler) RequestRecompute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body RecomputeBody
	if err := decodeJSONBody(w, r, &body); err != nil {
		respondError(w, r, http.StatusBadRequest, &models.APIError{Code: ErrCodeBadRequest, Message: err.Error()}, nil)
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	queued, err := h.ingest.RequestRecompute(ctx, chi.URLParam(r, "userID"), body.CategoryID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondData(w, r, http.StatusAccepted, queued, start)
}
