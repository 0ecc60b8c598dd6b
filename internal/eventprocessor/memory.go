// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package eventprocessor

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// NewMemoryTransport returns an in-process pub/sub usable as both publisher
// and subscriber. Messages are lost on restart; nacked messages are
// redelivered immediately.
func NewMemoryTransport(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 1024,
	}, logger)
}

// KeepOpen wraps a subscriber whose lifetime is owned by the caller. The
// Watermill router closes its subscribers when it stops; for a shared
// in-process transport that would also cut off the publisher, so Close is
// a no-op here.
func KeepOpen(sub message.Subscriber) message.Subscriber {
	return keepOpenSubscriber{sub}
}

type keepOpenSubscriber struct {
	message.Subscriber
}

func (keepOpenSubscriber) Close() error { return nil }
