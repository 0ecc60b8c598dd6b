// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelrank/internal/metrics"
)

const (
	kindUnavailable = "unavailable"
	kindReply       = "reply"
	kindCanceled    = "canceled"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	// URL is a redis:// connection URL. When set it takes precedence over Addr/Password/DB.
	URL string

	Addr     string
	Password string
	DB       int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int

	// OperationTimeout bounds every backend call on top of the socket timeouts.
	OperationTimeout time.Duration

	Breaker BreakerConfig
}

// DefaultRedisConfig returns defaults for a local Redis.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:             "localhost:6379",
		DialTimeout:      5 * time.Second,
		ReadTimeout:      3 * time.Second,
		WriteTimeout:     3 * time.Second,
		PoolSize:         20,
		OperationTimeout: 5 * time.Second,
		Breaker:          DefaultBreakerConfig(),
	}
}

// Options converts the config to go-redis client options.
func (c RedisConfig) Options() (*redis.Options, error) {
	var opts *redis.Options
	if c.URL != "" {
		parsed, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     c.Addr,
			Password: c.Password,
			DB:       c.DB,
		}
	}

	if c.DialTimeout > 0 {
		opts.DialTimeout = c.DialTimeout
	}
	if c.ReadTimeout > 0 {
		opts.ReadTimeout = c.ReadTimeout
	}
	if c.WriteTimeout > 0 {
		opts.WriteTimeout = c.WriteTimeout
	}
	if c.PoolSize > 0 {
		opts.PoolSize = c.PoolSize
	}

	// Maintenance notifications need RESP3 push support that managed
	// deployments often lack; the handshake noise is not useful here.
	opts.MaintNotificationsConfig = &maintnotifications.Config{
		Mode: maintnotifications.ModeDisabled,
	}
	return opts, nil
}

// Redis is a Backend on top of go-redis with a circuit breaker.
type Redis struct {
	client    *redis.Client
	breaker   *gobreaker.CircuitBreaker[any]
	opTimeout time.Duration
	logger    zerolog.Logger
}

// NewRedis connects to Redis and verifies the connection with PING.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRedis(ctx context.Context, cfg RedisConfig, logger zerolog.Logger) (*Redis, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	r := NewRedisFromClient(client, cfg, logger)

	if err := r.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}

	r.logger.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("Connected to Redis")
	return r, nil
}

// NewRedisFromClient wraps an existing client without pinging it.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRedisFromClient(client *redis.Client, cfg RedisConfig, logger zerolog.Logger) *Redis {
	logger = logger.With().Str("component", "storage").Str("backend", "redis").Logger()
	return &Redis{
		client:    client,
		breaker:   newBreaker(cfg.Breaker, logger),
		opTimeout: cfg.OperationTimeout,
		logger:    logger,
	}
}

// Client returns the underlying go-redis client.
func (r *Redis) Client() *redis.Client {
	return r.client
}

// HashGet implements Backend.
func (r *Redis) HashGet(ctx context.Context, key, field string) (string, bool, error) {
	v, err := execute(ctx, r, "hget", func(ctx context.Context) (*string, error) {
		s, err := r.client.HGet(ctx, key, field).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &s, nil
	})
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

// HashGetAll implements Backend.
func (r *Redis) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	return execute(ctx, r, "hgetall", func(ctx context.Context) (map[string]string, error) {
		return r.client.HGetAll(ctx, key).Result()
	})
}

// HashSet implements Backend.
func (r *Redis) HashSet(ctx context.Context, key string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(values)*2)
	for f, v := range values {
		args = append(args, f, v)
	}
	_, err := execute(ctx, r, "hset", func(ctx context.Context) (int64, error) {
		return r.client.HSet(ctx, key, args...).Result()
	})
	return err
}

// HashIncrBy implements Backend.
func (r *Redis) HashIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	return execute(ctx, r, "hincrby", func(ctx context.Context) (int64, error) {
		return r.client.HIncrBy(ctx, key, field, delta).Result()
	})
}

// SortedSetAdd implements Backend.
func (r *Redis) SortedSetAdd(ctx context.Context, key string, members ...ScoredMember) error {
	if len(members) == 0 {
		return nil
	}
	zs := make([]redis.Z, len(members))
	for i, m := range members {
		zs[i] = redis.Z{Score: m.Score, Member: m.Member}
	}
	_, err := execute(ctx, r, "zadd", func(ctx context.Context) (int64, error) {
		return r.client.ZAdd(ctx, key, zs...).Result()
	})
	return err
}

// SortedSetRevRange implements Backend.
func (r *Redis) SortedSetRevRange(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error) {
	zs, err := execute(ctx, r, "zrevrange", func(ctx context.Context) ([]redis.Z, error) {
		return r.client.ZRevRangeWithScores(ctx, key, start, stop).Result()
	})
	if err != nil {
		return nil, err
	}
	out := make([]ScoredMember, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			member = fmt.Sprint(z.Member)
		}
		out = append(out, ScoredMember{Member: member, Score: z.Score})
	}
	return out, nil
}

// SetAdd implements Backend.
func (r *Redis) SetAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	_, err := execute(ctx, r, "sadd", func(ctx context.Context) (int64, error) {
		return r.client.SAdd(ctx, key, args...).Result()
	})
	return err
}

// SetMembers implements Backend.
func (r *Redis) SetMembers(ctx context.Context, key string) ([]string, error) {
	return execute(ctx, r, "smembers", func(ctx context.Context) ([]string, error) {
		return r.client.SMembers(ctx, key).Result()
	})
}

// Ping implements Backend.
func (r *Redis) Ping(ctx context.Context) error {
	_, err := execute(ctx, r, "ping", func(ctx context.Context) (string, error) {
		return r.client.Ping(ctx).Result()
	})
	return err
}

// Close implements Backend.
func (r *Redis) Close() error {
	return r.client.Close()
}

// execute runs fn through the breaker with the per-operation timeout and
// maps unavailability to ErrUnavailable.
func execute[T any](ctx context.Context, r *Redis, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if r.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := r.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	kind := classify(err)
	if kind == kindCanceled {
		metrics.RecordStorageOperation(op, time.Since(start), "")
	} else {
		metrics.RecordStorageOperation(op, time.Since(start), kind)
	}

	switch kind {
	case "":
		v, _ := res.(T)
		return v, nil
	case kindUnavailable:
		return zero, fmt.Errorf("%w: redis %s: %w", ErrUnavailable, op, err)
	default:
		return zero, fmt.Errorf("redis %s: %w", op, err)
	}
}

// classify sorts errors into success (""), server replies, caller
// cancellation and unavailability. Timeouts count as unavailability.
func classify(err error) string {
	if err == nil || errors.Is(err, redis.Nil) {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return kindCanceled
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return kindUnavailable
	}
	var reply redis.Error
	if errors.As(err, &reply) {
		return kindReply
	}
	if errors.Is(err, ErrNotInteger) {
		return kindReply
	}
	return kindUnavailable
}
