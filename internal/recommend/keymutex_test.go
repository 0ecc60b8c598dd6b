// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestKeyMutex_ExclusivePerKey(t *testing.T) {
	km := NewKeyMutex()
	ctx := context.Background()

	unlock, err := km.Lock(ctx, "a")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	// A different key is independent.
	unlockB, err := km.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("Lock b: %v", err)
	}
	unlockB()

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	if _, err := km.Lock(waitCtx, "a"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Lock on held key: err = %v, want deadline exceeded", err)
	}

	acquired := make(chan func())
	go func() {
		u, err := km.Lock(ctx, "a")
		if err != nil {
			t.Errorf("waiting Lock: %v", err)
			close(acquired)
			return
		}
		acquired <- u
	}()

	select {
	case <-acquired:
		t.Fatal("lock acquired while held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	unlock() // second call is a no-op

	select {
	case u := <-acquired:
		if u != nil {
			u()
		}
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the released lock")
	}

	if n := km.Len(); n != 0 {
		t.Errorf("Len after release = %d, want 0", n)
	}
}
