// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/recommend"
)

// Message metadata keys.
const (
	MetadataUserID        = "user_id"
	MetadataCategoryID    = "category_id"
	MetadataCorrelationID = "correlation_id"
)

// RecomputeQueue publishes recompute requests. It implements
// recommend.RecomputeQueue.
type RecomputeQueue struct {
	publisher  message.Publisher
	topic      string
	serializer *Serializer
}

// NewRecomputeQueue creates a queue publishing to topic. An empty topic
// means RecomputeTopic.
func NewRecomputeQueue(publisher message.Publisher, topic string) *RecomputeQueue {
	if topic == "" {
		topic = RecomputeTopic
	}
	return &RecomputeQueue{
		publisher:  publisher,
		topic:      topic,
		serializer: NewSerializer(),
	}
}

// Enqueue publishes req with its EventID as the message UUID. The
// correlation id in ctx, if any, is carried as message metadata.
func (q *RecomputeQueue) Enqueue(ctx context.Context, req recommend.RecomputeRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := q.serializer.Marshal(req)
	if err != nil {
		return err
	}

	id := req.EventID
	if id == "" {
		id = watermill.NewUUID()
	}
	msg := message.NewMessage(id, data)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetadataUserID, req.UserID)
	msg.Metadata.Set(MetadataCategoryID, req.CategoryID)
	if correlationID := logging.CorrelationIDFromContext(ctx); correlationID != "" {
		msg.Metadata.Set(MetadataCorrelationID, correlationID)
	}

	if err := q.publisher.Publish(q.topic, msg); err != nil {
		return fmt.Errorf("enqueue recompute %s: %w", id, err)
	}
	return nil
}
