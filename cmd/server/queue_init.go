// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/config"
	"github.com/tomtom215/reelrank/internal/eventprocessor"
	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/supervisor/services"
)

// QueueComponents holds the recompute queue for lifecycle management.
// Exactly one of the NATS fields or memory is set.
type QueueComponents struct {
	server    *eventprocessor.EmbeddedServer
	natsConn  *natsgo.Conn
	stream    *eventprocessor.StreamInitializer
	publisher *eventprocessor.Publisher
	memory    *gochannel.GoChannel

	queue     *eventprocessor.RecomputeQueue
	routerCfg eventprocessor.RouterConfig
	subCfg    eventprocessor.SubscriberConfig
	wmLogger  watermill.LoggerAdapter
	logger    zerolog.Logger
}

// routerConfigFrom maps the NATS router settings onto the Watermill router.
func routerConfigFrom(cfg *config.Config) eventprocessor.RouterConfig {
	routerCfg := eventprocessor.DefaultRouterConfig()
	routerCfg.RetryMaxRetries = cfg.NATS.RouterRetryCount
	routerCfg.RetryInitialInterval = cfg.NATS.RouterRetryInitialInterval
	routerCfg.RetryMaxInterval = cfg.NATS.RouterRetryMaxInterval
	routerCfg.ThrottlePerSecond = int64(cfg.NATS.RouterThrottlePerSecond)
	routerCfg.DeduplicationEnabled = cfg.NATS.RouterDeduplicationEnabled
	routerCfg.DeduplicationTTL = cfg.NATS.RouterDeduplicationTTL
	routerCfg.CloseTimeout = cfg.NATS.RouterCloseTimeout
	routerCfg.PoisonQueueTopic = ""
	if cfg.NATS.RouterPoisonQueueEnabled {
		routerCfg.PoisonQueueTopic = cfg.NATS.RouterPoisonQueueTopic
	}
	return routerCfg
}

// InitQueue sets up the recompute queue.
//
// With NATS enabled it starts the embedded server (or targets an external
// one), ensures the RECOMPUTE stream and creates a JetStream publisher.
// Otherwise requests travel over an in-process gochannel.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func InitQueue(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*QueueComponents, error) {
	c := &QueueComponents{
		routerCfg: routerConfigFrom(cfg),
		wmLogger:  logging.NewWatermillAdapter(logger, false),
		logger:    logger,
	}

	if !cfg.NATS.Enabled {
		c.memory = eventprocessor.NewMemoryTransport(c.wmLogger)
		c.initPublisher(eventprocessor.WrapPublisher(c.memory, c.wmLogger))
		logger.Warn().Msg("NATS disabled: recompute requests use an in-process queue and are lost on restart")
		return c, nil
	}

	natsURL := cfg.NATS.URL
	if cfg.NATS.EmbeddedServer {
		server, err := eventprocessor.NewEmbeddedServer(&eventprocessor.ServerConfig{
			Host:              cfg.NATS.Host,
			Port:              cfg.NATS.Port,
			StoreDir:          cfg.NATS.StoreDir,
			JetStreamMaxMem:   cfg.NATS.MaxMemory,
			JetStreamMaxStore: cfg.NATS.MaxStore,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		c.server = server
		natsURL = server.ClientURL()
		logger.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	} else {
		logger.Info().Str("url", natsURL).Msg("Using external NATS server")
	}

	nc, err := natsgo.Connect(natsURL,
		natsgo.Name("reelrank-admin"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		c.Shutdown(ctx)
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	c.natsConn = nc

	js, err := jetstream.New(nc)
	if err != nil {
		c.Shutdown(ctx)
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := eventprocessor.DefaultStreamConfig()
	streamCfg.MaxAge = cfg.NATS.StreamMaxAge
	stream, err := eventprocessor.NewStreamInitializer(js, &streamCfg)
	if err != nil {
		c.Shutdown(ctx)
		return nil, fmt.Errorf("create stream initializer: %w", err)
	}
	c.stream = stream

	info, err := stream.EnsureStream(ctx)
	if err != nil {
		c.Shutdown(ctx)
		return nil, fmt.Errorf("ensure stream exists: %w", err)
	}
	cached := info.CachedInfo()
	logger.Info().
		Str("name", cached.Config.Name).
		Strs("subjects", cached.Config.Subjects).
		Dur("max_age", cached.Config.MaxAge).
		Msg("JetStream stream ready")

	publisher, err := eventprocessor.NewPublisher(eventprocessor.DefaultPublisherConfig(natsURL), c.wmLogger)
	if err != nil {
		c.Shutdown(ctx)
		return nil, err
	}
	c.initPublisher(publisher)

	c.subCfg = eventprocessor.DefaultSubscriberConfig(natsURL)
	c.subCfg.DurableName = cfg.NATS.DurableName
	c.subCfg.QueueGroup = cfg.NATS.QueueGroup
	c.subCfg.SubscribersCount = cfg.NATS.SubscribersCount
	c.subCfg.AckWaitTimeout = cfg.NATS.AckWaitTimeout
	c.subCfg.MaxDeliver = cfg.NATS.MaxDeliver
	c.subCfg.StreamName = streamCfg.Name

	logger.Info().
		Int("subscribers", c.subCfg.SubscribersCount).
		Int("retries", c.routerCfg.RetryMaxRetries).
		Bool("dedup", c.routerCfg.DeduplicationEnabled).
		Str("poison_topic", c.routerCfg.PoisonQueueTopic).
		Msg("Recompute queue ready")

	return c, nil
}

func (c *QueueComponents) initPublisher(publisher *eventprocessor.Publisher) {
	publisher.SetCircuitBreaker(eventprocessor.NewCircuitBreaker(
		eventprocessor.DefaultCircuitBreakerConfig("recompute-publisher"), c.logger))
	c.publisher = publisher
	c.queue = eventprocessor.NewRecomputeQueue(publisher, eventprocessor.RecomputeTopic)
}

// Queue returns the queue the ingestor enqueues to.
func (c *QueueComponents) Queue() *eventprocessor.RecomputeQueue {
	return c.queue
}

// RouterFactory returns a factory for the recompute worker. Each call
// builds a new router with its own subscriber.
func (c *QueueComponents) RouterFactory(handler *eventprocessor.RecomputeHandler) services.RouterFactory {
	return func() (services.RouterRunner, error) {
		var (
			sub       message.Subscriber
			poisonPub message.Publisher
		)

		if c.memory != nil {
			sub = eventprocessor.KeepOpen(c.memory)
			poisonPub = c.memory
		} else {
			subCfg := c.subCfg
			natsSub, err := eventprocessor.NewSubscriber(&subCfg, c.wmLogger)
			if err != nil {
				return nil, err
			}
			sub = natsSub
			poisonPub = c.publisher.WatermillPublisher()
		}

		router, err := eventprocessor.NewRecomputeRouter(c.routerCfg, sub, poisonPub, handler, c.logger)
		if err != nil {
			_ = sub.Close()
			return nil, err
		}
		return router, nil
	}
}

// Ping reports whether the queue can accept requests.
func (c *QueueComponents) Ping(ctx context.Context) error {
	if c.memory != nil {
		return nil
	}
	if c.natsConn == nil || !c.natsConn.IsConnected() {
		return errors.New("NATS connection is not established")
	}
	if !c.stream.IsHealthy(ctx) {
		return errors.New("JetStream stream is unavailable")
	}
	return nil
}

// Shutdown closes the publisher, the NATS connection and the embedded
// server. It is safe to call on partially initialized components.
func (c *QueueComponents) Shutdown(ctx context.Context) {
	if c == nil {
		return
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("Error closing recompute publisher")
		}
	}
	if c.memory != nil {
		if err := c.memory.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("Error closing in-process queue")
		}
	}
	if c.natsConn != nil {
		c.natsConn.Close()
	}
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("Error shutting down embedded NATS server")
		}
	}
}
