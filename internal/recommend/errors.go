// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"errors"
	"fmt"

	"github.com/tomtom215/reelrank/internal/storage"
)

var (
	// ErrInvalidArgument reports a caller error: malformed ids or a
	// non-positive count. Retrying the same input never succeeds.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStorageUnavailable reports that the key-value store could not be
	// reached. It is retryable.
	ErrStorageUnavailable = storage.ErrUnavailable

	// ErrQueueUnavailable reports that a recompute request could not be
	// enqueued. Reaction state may already be persisted.
	ErrQueueUnavailable = errors.New("recompute queue unavailable")

	// ErrLockTimeout reports that another worker held the (user, category)
	// recompute lock for longer than the configured wait.
	ErrLockTimeout = storage.ErrLockNotAcquired
)

func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// ItemFailure records why one item was left out of a recompute.
type ItemFailure struct {
	ItemID string
	Err    error
}

// PartialRecomputeError is returned alongside a written ranking when some
// items could not be scored. The ranking and last_updated_at are updated
// for the items that succeeded.
type PartialRecomputeError struct {
	UserID     string
	CategoryID string
	Skipped    int
	Total      int
	Failures   []ItemFailure
}

func (e *PartialRecomputeError) Error() string {
	return fmt.Sprintf("recompute %s/%s: skipped %d of %d items", e.UserID, e.CategoryID, e.Skipped, e.Total)
}

// Unwrap exposes the individual item failures to errors.Is.
func (e *PartialRecomputeError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Unavailable reports whether every item was skipped because storage could
// not be reached. The recompute still completed, but running it again
// once storage recovers would score items this run could not.
func (e *PartialRecomputeError) Unavailable() bool {
	if e.Total == 0 || e.Skipped < e.Total || len(e.Failures) == 0 {
		return false
	}
	for _, f := range e.Failures {
		if !errors.Is(f.Err, ErrStorageUnavailable) {
			return false
		}
	}
	return true
}

// IsPartial reports whether err is a PartialRecomputeError.
func IsPartial(err error) bool {
	var partial *PartialRecomputeError
	return errors.As(err, &partial)
}

// IsRetryable reports whether a failed operation may succeed when retried
// unchanged. Partial recomputes are not retryable: the ranking was written.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrInvalidArgument) || IsPartial(err) {
		return false
	}
	return errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrQueueUnavailable) ||
		errors.Is(err, ErrLockTimeout)
}
