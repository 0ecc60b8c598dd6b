// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/models"
	"github.com/tomtom215/reelrank/internal/recommend"
	"github.com/tomtom215/reelrank/internal/validation"
)

// Response status values.
const (
	statusSuccess  = "success"
	statusAccepted = "accepted"
	statusError    = "error"
)

// Error codes for API responses
const (
	ErrCodeValidation         = validation.CodeValidationError
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	ErrCodeQueueUnavailable   = "QUEUE_UNAVAILABLE"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeNotReady           = "NOT_READY"
)

// sanitizeLogValue escapes control characters so client input cannot forge log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON writes response with status.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, response *models.APIResponse) {
	response.Metadata.RequestID = logging.RequestIDFromContext(r.Context())

	data, err := json.Marshal(response)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write JSON response")
	}
}

func respondData(w http.ResponseWriter, r *http.Request, status int, data interface{}, start time.Time) {
	responseStatus := statusSuccess
	if status == http.StatusAccepted {
		responseStatus = statusAccepted
	}
	respondJSON(w, r, status, &models.APIResponse{
		Status: responseStatus,
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// respondError writes an error envelope. err, when set, is logged but not
// returned to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, apiErr *models.APIError, err error) {
	if err != nil {
		event := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
		}
		event.Str("code", apiErr.Code).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}

	respondJSON(w, r, status, &models.APIResponse{
		Status: statusError,
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
		Error: apiErr,
	})
}

// respondValidation writes a 400 for a failed struct validation.
func respondValidation(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondError(w, r, http.StatusBadRequest, &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}, nil)
}

// respondDomainError maps recommend errors to HTTP statuses.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classifyError(err)
	var logged error
	if status != http.StatusBadRequest {
		logged = err
	}
	respondError(w, r, status, &models.APIError{Code: code, Message: message}, logged)
}

func classifyError(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, recommend.ErrInvalidArgument):
		return http.StatusBadRequest, ErrCodeValidation, strings.TrimPrefix(err.Error(), recommend.ErrInvalidArgument.Error()+": ")
	case errors.Is(err, recommend.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, ErrCodeStorageUnavailable, "Storage is temporarily unavailable"
	case errors.Is(err, recommend.ErrQueueUnavailable):
		return http.StatusServiceUnavailable, ErrCodeQueueUnavailable, "Recompute queue is temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeTimeout, "Request timed out"
	default:
		return http.StatusInternalServerError, ErrCodeInternal, "Internal server error"
	}
}
