// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package eventprocessor

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
)

func TestSubscriberConfig_WatermillConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		streamName    string
		wantProvision bool
		wantSubOpts   int
	}{
		{name: "binds to the recompute stream", streamName: StreamName, wantProvision: false, wantSubOpts: 5},
		{name: "provisions without a stream", streamName: "", wantProvision: true, wantSubOpts: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultSubscriberConfig("nats://127.0.0.1:4222")
			cfg.StreamName = tt.streamName

			got := cfg.watermillConfig(watermill.NopLogger{})

			if got.JetStream.AutoProvision != tt.wantProvision {
				t.Errorf("AutoProvision = %v, want %v", got.JetStream.AutoProvision, tt.wantProvision)
			}
			if n := len(got.JetStream.SubscribeOptions); n != tt.wantSubOpts {
				t.Errorf("SubscribeOptions = %d, want %d", n, tt.wantSubOpts)
			}
			if got.JetStream.DurablePrefix != "recompute-worker" || got.QueueGroupPrefix != "recompute-workers" {
				t.Errorf("durable %q, queue group %q", got.JetStream.DurablePrefix, got.QueueGroupPrefix)
			}
			if got.SubscribersCount != 4 || got.AckWaitTimeout != cfg.AckWaitTimeout {
				t.Errorf("subscribers %d, ack wait %v", got.SubscribersCount, got.AckWaitTimeout)
			}
			if got.URL != "nats://127.0.0.1:4222" || got.Unmarshaler == nil {
				t.Errorf("URL %q, unmarshaler %v", got.URL, got.Unmarshaler)
			}
		})
	}
}
