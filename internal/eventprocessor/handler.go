// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package eventprocessor

import (
	"context"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/metrics"
	"github.com/tomtom215/reelrank/internal/recommend"
)

// RecomputeHandlerName is the router handler name for recompute requests.
const RecomputeHandlerName = "recompute"

// Recomputer rebuilds one user's ranking for one category.
type Recomputer interface {
	Recompute(ctx context.Context, req recommend.RecomputeRequest) (recommend.RecomputeResult, error)
}

// RecomputeHandler consumes recompute requests.
type RecomputeHandler struct {
	engine     Recomputer
	serializer *Serializer
	logger     zerolog.Logger
	now        func() time.Time
}

// NewRecomputeHandler creates a handler that runs requests through engine.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRecomputeHandler(engine Recomputer, logger zerolog.Logger) *RecomputeHandler {
	return &RecomputeHandler{
		engine:     engine,
		serializer: NewSerializer(),
		logger:     logger.With().Str("component", "recompute_handler").Logger(),
		now:        time.Now,
	}
}

// Handle implements message.NoPublishHandlerFunc. A nil return acks the
// message; an error leaves it to the retry and poison queue middleware.
func (h *RecomputeHandler) Handle(msg *message.Message) error {
	req, err := h.serializer.Unmarshal(msg.Payload)
	if err != nil {
		metrics.RecordQueueConsume("malformed")
		h.logger.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed recompute request")
		return nil
	}

	if !req.RequestedAt.IsZero() {
		metrics.RecordQueueLag(h.now().Sub(req.RequestedAt))
	}

	ctx := logging.ContextWithEventID(msg.Context(), req.EventID)
	if correlationID := msg.Metadata.Get(MetadataCorrelationID); correlationID != "" {
		ctx = logging.ContextWithCorrelationID(ctx, correlationID)
	}
	ctx = logging.ContextWithLogger(ctx, h.logger.With().
		Str("user_id", req.UserID).
		Str("category_id", req.CategoryID).
		Logger())
	logger := logging.Ctx(ctx)

	res, err := h.engine.Recompute(ctx, req)

	var partial *recommend.PartialRecomputeError
	switch {
	case err == nil:
		metrics.RecordQueueConsume("ok")
		logger.Debug().Int("scored", res.Scored).Dur("duration", res.Duration).Msg("Recompute request processed")
		return nil

	case errors.As(err, &partial) && partial.Unavailable():
		metrics.RecordQueueConsume("retry")
		logger.Warn().Err(err).Int("skipped", res.Skipped).Msg("Recompute skipped every item, leaving for redelivery")
		return err

	case partial != nil:
		metrics.RecordQueueConsume("partial")
		logger.Warn().Err(err).Int("scored", res.Scored).Int("skipped", res.Skipped).Msg("Recompute request processed partially")
		return nil

	case errors.Is(err, recommend.ErrInvalidArgument):
		metrics.RecordQueueConsume("invalid")
		logger.Error().Err(err).Msg("Dropping invalid recompute request")
		return nil

	case errors.Is(err, context.Canceled):
		metrics.RecordQueueConsume("canceled")
		logger.Info().Msg("Recompute request interrupted, leaving for redelivery")
		return err

	default:
		metrics.RecordQueueConsume("retry")
		logger.Warn().Err(err).Msg("Recompute request failed")
		return err
	}
}

// NewRecomputeRouter builds a router with the recompute handler subscribed
// to RecomputeTopic.
func NewRecomputeRouter(
	cfg RouterConfig,
	subscriber message.Subscriber,
	poisonPublisher message.Publisher,
	handler *RecomputeHandler,
	logger zerolog.Logger, //nolint:gocritic // zerolog.Logger is designed to be passed by value
) (*Router, error) {
	router, err := NewRouter(&cfg, poisonPublisher, logging.NewWatermillAdapter(logger, false))
	if err != nil {
		return nil, err
	}
	router.AddConsumerHandler(RecomputeHandlerName, RecomputeTopic, subscriber, handler.Handle)
	return router, nil
}
