// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
)

// Subscriber consumes recompute requests from the RECOMPUTE stream through a
// durable consumer. Every worker replica joins the same queue group, so each
// request is recomputed by exactly one replica. It implements
// message.Subscriber.
type Subscriber struct {
	subscriber message.Subscriber
	config     SubscriberConfig
}

// NewSubscriber creates the durable recompute consumer.
func NewSubscriber(cfg *SubscriberConfig, logger watermill.LoggerAdapter) (*Subscriber, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	sub, err := wmNats.NewSubscriber(cfg.watermillConfig(logger), logger)
	if err != nil {
		return nil, fmt.Errorf("create recompute subscriber: %w", err)
	}

	return &Subscriber{
		subscriber: sub,
		config:     *cfg,
	}, nil
}

// watermillConfig maps cfg onto the watermill-nats subscriber settings.
func (cfg *SubscriberConfig) watermillConfig(logger watermill.LoggerAdapter) wmNats.SubscriberConfig {
	natsOpts := []natsgo.Option{
		natsgo.Name("reelrank-recompute-worker"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("Recompute worker disconnected from NATS", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("Recompute worker reconnected to NATS", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	// A redelivered request is recomputed again from current counters, so
	// MaxDeliver only bounds how long a poison request keeps cycling.
	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(cfg.MaxDeliver),
		natsgo.MaxAckPending(cfg.MaxAckPending),
		natsgo.AckWait(cfg.AckWaitTimeout),
		natsgo.DeliverAll(),
	}

	// The stream covers recompute.> and is not named after the topic, so
	// the consumer binds to it instead of provisioning one per topic.
	autoProvision := cfg.StreamName == ""
	if !autoProvision {
		subOpts = append(subOpts, natsgo.BindStream(cfg.StreamName))
	}

	return wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    autoProvision,
			AckAsync:         false,
			SubscribeOptions: subOpts,
			DurablePrefix:    cfg.DurableName,
		},
	}
}

// Subscribe returns the recompute requests published to topic.
func (s *Subscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return s.subscriber.Subscribe(ctx, topic)
}

// Close stops every consumer goroutine of the subscriber.
func (s *Subscriber) Close() error {
	return s.subscriber.Close()
}
