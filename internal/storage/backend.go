// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package storage defines the key-value backend the ranking core runs on and
// ships two implementations: Redis (production) and an in-process memory
// store (tests and single-node development).
//
// The interface exposes exactly the primitives the core needs: hashes,
// atomic hash increments, sorted sets and plain sets (used as the explicit
// category index). There is deliberately no key-pattern scan.
//
// Every backend failure that means "the store could not be reached or did
// not answer in time" wraps ErrUnavailable so that callers can tell a
// retryable outage from a bad reply with errors.Is.
package storage

import (
	"context"
	"errors"
)

// ErrUnavailable reports that the backend was unreachable, timed out, or
// that its circuit breaker is open. It is retryable.
var ErrUnavailable = errors.New("storage unavailable")

// ErrLockNotAcquired reports that a distributed lock stayed held by another
// owner for the whole wait period.
var ErrLockNotAcquired = errors.New("lock not acquired")

// ScoredMember is one sorted-set entry.
type ScoredMember struct {
	Member string
	Score  float64
}

// Backend is the storage capability the ranking core depends on.
// Each operation is atomic in isolation; there are no multi-key transactions.
type Backend interface {
	// HashGet returns the field value and whether it was present.
	HashGet(ctx context.Context, key, field string) (string, bool, error)

	// HashGetAll returns all fields of a hash. A missing key yields an empty map.
	HashGetAll(ctx context.Context, key string) (map[string]string, error)

	// HashSet writes the given fields, leaving other fields untouched.
	HashSet(ctx context.Context, key string, values map[string]string) error

	// HashIncrBy atomically adds delta to an integer field and returns the new value.
	HashIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)

	// SortedSetAdd writes members, replacing the score of existing members.
	SortedSetAdd(ctx context.Context, key string, members ...ScoredMember) error

	// SortedSetRevRange returns members ranked start..stop (inclusive, Redis
	// index semantics, negative indexes count from the end) by descending
	// score. Equal scores are ordered by descending member.
	SortedSetRevRange(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error)

	// SetAdd adds members to a set.
	SetAdd(ctx context.Context, key string, members ...string) error

	// SetMembers returns all members of a set. A missing key yields nil.
	SetMembers(ctx context.Context, key string) ([]string, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
