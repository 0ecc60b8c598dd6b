// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package eventprocessor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/tomtom215/reelrank/internal/logging"
)

var _ server.Logger = (*natsLogger)(nil)

func TestNATSLogger_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		log   func(l *natsLogger)
		level string
	}{
		{"warn", func(l *natsLogger) { l.Warnf("slow consumer %s", "c1") }, "warn"},
		{"error", func(l *natsLogger) { l.Errorf("write failed") }, "error"},
		{"fatal does not exit", func(l *natsLogger) { l.Fatalf("store dir %s unusable", "/x") }, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tt.log(newNATSLogger(logging.NewTestLogger(&buf)))

			out := buf.String()
			if !strings.Contains(out, `"level":"`+tt.level+`"`) {
				t.Errorf("want level %s, got %s", tt.level, out)
			}
			if !strings.Contains(out, `"component":"nats"`) {
				t.Errorf("missing component field: %s", out)
			}
		})
	}
}
