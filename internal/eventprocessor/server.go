// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/rs/zerolog"
)

// EmbeddedServer runs the recompute queue's NATS server inside the process,
// so a single replica needs no external broker. Pending recompute requests
// persist in StoreDir across restarts.
type EmbeddedServer struct {
	server    *server.Server
	config    ServerConfig
	clientURL string
}

// NewEmbeddedServer starts a JetStream-enabled server and waits until it
// accepts connections. A Port of -1 picks a random free port. Server logs
// go to logger under component=nats.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEmbeddedServer(cfg *ServerConfig, logger zerolog.Logger) (*EmbeddedServer, error) {
	defaults := DefaultServerConfig()
	if cfg.MaxPayload <= 0 {
		cfg.MaxPayload = defaults.MaxPayload
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = defaults.ReadyTimeout
	}

	opts := &server.Options{
		ServerName:         "reelrank-recompute",
		Host:               cfg.Host,
		Port:               cfg.Port,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.JetStreamMaxMem,
		JetStreamMaxStore:  cfg.JetStreamMaxStore,
		MaxPayload:         cfg.MaxPayload,
		NoSigs:             true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	ns.SetLogger(newNATSLogger(logger), false, false)

	go ns.Start()

	if !ns.ReadyForConnections(cfg.ReadyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within %s", cfg.ReadyTimeout)
	}
	if !ns.JetStreamEnabled() {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server started without JetStream; check %s is writable", cfg.StoreDir)
	}

	return &EmbeddedServer{
		server:    ns,
		config:    *cfg,
		clientURL: ns.ClientURL(),
	}, nil
}

// ClientURL returns the connection URL for clients.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the server and waits for it to exit or ctx to end.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.WaitForShutdown()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// IsRunning reports whether the server is accepting connections.
func (s *EmbeddedServer) IsRunning() bool {
	return s.server.Running()
}

// JetStreamEnabled reports whether JetStream is running.
func (s *EmbeddedServer) JetStreamEnabled() bool {
	return s.server.JetStreamEnabled()
}

// natsLogger implements server.Logger on zerolog. Notices are logged at
// debug: the server is chatty at startup and its state is already reported
// by InitQueue.
type natsLogger struct {
	logger zerolog.Logger
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newNATSLogger(logger zerolog.Logger) *natsLogger {
	return &natsLogger{logger: logger.With().Str("component", "nats").Logger()}
}

func (l *natsLogger) Noticef(format string, v ...any) { l.logger.Debug().Msgf(format, v...) }
func (l *natsLogger) Warnf(format string, v ...any)   { l.logger.Warn().Msgf(format, v...) }
func (l *natsLogger) Errorf(format string, v ...any)  { l.logger.Error().Msgf(format, v...) }
func (l *natsLogger) Debugf(format string, v ...any)  { l.logger.Debug().Msgf(format, v...) }
func (l *natsLogger) Tracef(format string, v ...any)  { l.logger.Trace().Msgf(format, v...) }

// Fatalf logs at error level instead of exiting the process; the queue
// readiness check reports the broken connection.
func (l *natsLogger) Fatalf(format string, v ...any) { l.logger.Error().Msgf(format, v...) }
