// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// ErrNotInteger mirrors the Redis reply for HINCRBY on a non-integer field.
var ErrNotInteger = errors.New("hash value is not an integer")

// Memory is an in-process Backend. It follows Redis semantics for the
// operations it supports, including sorted-set tie ordering.
type Memory struct {
	mu     sync.RWMutex
	hashes map[string]map[string]string
	zsets  map[string]map[string]float64
	sets   map[string]map[string]struct{}
	closed bool
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		hashes: make(map[string]map[string]string),
		zsets:  make(map[string]map[string]float64),
		sets:   make(map[string]map[string]struct{}),
	}
}

func (m *Memory) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.closed {
		return fmt.Errorf("%w: memory backend closed", ErrUnavailable)
	}
	return nil
}

// HashGet implements Backend.
func (m *Memory) HashGet(ctx context.Context, key, field string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx); err != nil {
		return "", false, err
	}
	v, ok := m.hashes[key][field]
	return v, ok, nil
}

// HashGetAll implements Backend.
func (m *Memory) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(m.hashes[key]))
	for f, v := range m.hashes[key] {
		out[f] = v
	}
	return out, nil
}

// HashSet implements Backend.
func (m *Memory) HashSet(ctx context.Context, key string, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string, len(values))
		m.hashes[key] = h
	}
	for f, v := range values {
		h[f] = v
	}
	return nil
}

// HashIncrBy implements Backend.
func (m *Memory) HashIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return 0, err
	}
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	var current int64
	if raw, ok := h[field]; ok {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		current = n
	}
	current += delta
	h[field] = strconv.FormatInt(current, 10)
	return current, nil
}

// SortedSetAdd implements Backend.
func (m *Memory) SortedSetAdd(ctx context.Context, key string, members ...ScoredMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}
	z, ok := m.zsets[key]
	if !ok {
		z = make(map[string]float64, len(members))
		m.zsets[key] = z
	}
	for _, sm := range members {
		z[sm.Member] = sm.Score
	}
	return nil
}

// SortedSetRevRange implements Backend.
func (m *Memory) SortedSetRevRange(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}

	z := m.zsets[key]
	all := make([]ScoredMember, 0, len(z))
	for member, score := range z {
		all = append(all, ScoredMember{Member: member, Score: score})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].Member > all[j].Member
	})

	n := int64(len(all))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop || start >= n {
		return []ScoredMember{}, nil
	}
	return all[start : stop+1], nil
}

// SetAdd implements Backend.
func (m *Memory) SetAdd(ctx context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	s, ok := m.sets[key]
	if !ok {
		s = make(map[string]struct{}, len(members))
		m.sets[key] = s
	}
	for _, member := range members {
		s[member] = struct{}{}
	}
	return nil
}

// SetMembers implements Backend.
func (m *Memory) SetMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	s := m.sets[key]
	if len(s) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(s))
	for member := range s {
		out = append(out, member)
	}
	return out, nil
}

// Ping implements Backend.
func (m *Memory) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.check(ctx)
}

// Close implements Backend. Operations after Close fail with ErrUnavailable.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
