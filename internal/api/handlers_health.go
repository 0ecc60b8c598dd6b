// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/tomtom215/reelrank/internal/models"
)

// readinessTimeout bounds each dependency ping.
const readinessTimeout = 2 * time.Second

// HealthLive handles GET /health/live.
// Returns 200 while the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, models.HealthStatus{
		Status:  "alive",
		Version: h.config.Version,
		Uptime:  time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// HealthReady handles GET /health/ready.
// Returns 200 when every registered dependency answers a ping, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := models.HealthStatus{
		Status:     "ready",
		Version:    h.config.Version,
		Uptime:     time.Since(h.startTime).Seconds(),
		Components: make(map[string]string, len(names)),
	}
	var failed []string
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		err := h.checks[name].Ping(ctx)
		cancel()
		if err != nil {
			status.Components[name] = "unavailable"
			failed = append(failed, name)
			continue
		}
		status.Components[name] = "ok"
	}

	if len(failed) > 0 {
		status.Status = "not_ready"
		respondError(w, r, http.StatusServiceUnavailable, &models.APIError{
			Code:    ErrCodeNotReady,
			Message: fmt.Sprintf("dependencies unavailable: %v", failed),
			Details: map[string]interface{}{"health": status},
		}, nil)
		return
	}

	respondData(w, r, http.StatusOK, status, start)
}
