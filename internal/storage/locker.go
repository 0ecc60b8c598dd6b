// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the lock TTL only if the caller still owns it.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker is a SET NX PX lock shared by every process using the same Redis.
// While a lock is held its TTL is renewed every ttl/3, so the TTL only bounds
// how long a crashed owner can block a key. Lock traffic goes through the
// backend's circuit breaker and storage metrics.
type RedisLocker struct {
	store *Redis
	ttl   time.Duration
	wait  time.Duration
	poll  time.Duration
}

// NewRedisLocker creates a locker. ttl is the lock lifetime between renewals,
// wait is how long Lock keeps retrying before giving up.
func NewRedisLocker(store *Redis, ttl, wait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if wait <= 0 {
		wait = 10 * time.Second
	}
	return &RedisLocker{
		store: store,
		ttl:   ttl,
		wait:  wait,
		poll:  50 * time.Millisecond,
	}
}

// Lock acquires key and returns its release function. It fails with
// ErrLockNotAcquired when the wait period elapses, or ErrUnavailable when
// Redis cannot be reached.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	deadline := time.NewTimer(l.wait)
	defer deadline.Stop()

	for {
		ok, err := execute(ctx, l.store, "lock_acquire", func(ctx context.Context) (bool, error) {
			return l.store.client.SetNX(ctx, key, token, l.ttl).Result()
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return l.hold(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("%w: %s held for %s", ErrLockNotAcquired, key, l.wait)
		case <-time.After(l.poll):
		}
	}
}

// hold renews the lock until the returned release function is called.
func (l *RedisLocker) hold(key, token string) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(key, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			l.release(key, token)
		})
	}
}

func (l *RedisLocker) keepAlive(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := l.ttl / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		owned, err := l.renew(ctx, key, token)
		cancel()

		switch {
		case err != nil:
			// Retried on the next tick; the key survives until its TTL runs out.
			l.store.logger.Warn().Err(err).Str("key", key).Msg("Failed to renew lock")
		case !owned:
			l.store.logger.Error().Str("key", key).Msg("Lock expired before release")
			return
		}
	}
}

func (l *RedisLocker) renew(ctx context.Context, key, token string) (bool, error) {
	n, err := execute(ctx, l.store, "lock_renew", func(ctx context.Context) (int64, error) {
		return renewScript.Run(ctx, l.store.client, []string{key}, token, l.ttl.Milliseconds()).Int64()
	})
	return n == 1, err
}

func (l *RedisLocker) release(key, token string) {
	// The caller's context may already be cancelled during shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := execute(ctx, l.store, "lock_release", func(ctx context.Context) (int64, error) {
		return releaseScript.Run(ctx, l.store.client, []string{key}, token).Int64()
	})
	if err != nil {
		l.store.logger.Warn().Err(err).Str("key", key).Msg("Failed to release lock")
	}
}
