// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to run a real Redis for the storage
// and ranking integration tests. Everything here is behind the integration
// build tag:
//
//	go test -tags integration ./internal/testinfra/...
//
// # Redis Container
//
//	func TestSomething(t *testing.T) {
//	    SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    redisC, err := NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer CleanupContainer(t, ctx, redisC)
//	    // connect with redisC.Addr or redisC.URL
//	}
//
// Tests are skipped gracefully if Docker is unavailable. The first run may
// need to pull the image.
package testinfra
