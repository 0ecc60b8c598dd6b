// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordEvent(t *testing.T) {
	before := testutil.ToFloat64(EventsRecorded.WithLabelValues("like"))

	RecordEvent("like")
	RecordEvent("like")

	after := testutil.ToFloat64(EventsRecorded.WithLabelValues("like"))
	if after-before != 2 {
		t.Errorf("expected like counter to grow by 2, got %v", after-before)
	}
}

func TestRecordRecompute(t *testing.T) {
	beforePartial := testutil.ToFloat64(RecomputesTotal.WithLabelValues("partial"))
	beforeScored := testutil.ToFloat64(RecomputeItemsScored)
	beforeSkipped := testutil.ToFloat64(RecomputeItemsSkipped)

	RecordRecompute("partial", 15*time.Millisecond, 7, 2)

	if got := testutil.ToFloat64(RecomputesTotal.WithLabelValues("partial")) - beforePartial; got != 1 {
		t.Errorf("partial recomputes grew by %v, want 1", got)
	}
	if got := testutil.ToFloat64(RecomputeItemsScored) - beforeScored; got != 7 {
		t.Errorf("scored items grew by %v, want 7", got)
	}
	if got := testutil.ToFloat64(RecomputeItemsSkipped) - beforeSkipped; got != 2 {
		t.Errorf("skipped items grew by %v, want 2", got)
	}
}

func TestRecordStorageOperation(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		kind      string
		wantDelta float64
	}{
		{name: "success does not count an error", operation: "hgetall", kind: "", wantDelta: 0},
		{name: "unavailable counts an error", operation: "zadd", kind: "unavailable", wantDelta: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(StorageErrors.WithLabelValues(tt.operation, "unavailable"))
			RecordStorageOperation(tt.operation, time.Millisecond, tt.kind)
			after := testutil.ToFloat64(StorageErrors.WithLabelValues(tt.operation, "unavailable"))
			if after-before != tt.wantDelta {
				t.Errorf("error counter delta = %v, want %v", after-before, tt.wantDelta)
			}
		})
	}
}

func TestRecordQueuePublish(t *testing.T) {
	beforeOK := testutil.ToFloat64(QueuePublished.WithLabelValues("ok"))
	beforeErr := testutil.ToFloat64(QueuePublished.WithLabelValues("error"))

	RecordQueuePublish(nil)
	RecordQueuePublish(errors.New("nats: timeout"))

	if got := testutil.ToFloat64(QueuePublished.WithLabelValues("ok")) - beforeOK; got != 1 {
		t.Errorf("ok publishes grew by %v, want 1", got)
	}
	if got := testutil.ToFloat64(QueuePublished.WithLabelValues("error")) - beforeErr; got != 1 {
		t.Errorf("failed publishes grew by %v, want 1", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active requests = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active requests = %v, want %v", got, before)
	}
}

func TestRecordQueueLag_IgnoresNonPositive(t *testing.T) {
	// Histogram sample counts are not exposed through ToFloat64; this only
	// guards against panics on skewed clocks.
	RecordQueueLag(-time.Second)
	RecordQueueLag(0)
	RecordQueueLag(250 * time.Millisecond)
}
