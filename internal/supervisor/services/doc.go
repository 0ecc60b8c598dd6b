// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package services provides suture.Service wrappers for ReelRank components.

HTTP Server (HTTPServerService):
  - Wraps *http.Server; ListenAndServe runs in a goroutine
  - Shutdown uses a fresh context bounded by the shutdown timeout

Recompute Worker (RecomputeWorkerService):
  - Builds a Watermill router through a factory on every (re)start
  - Closes the router on cancellation so in-flight requests finish or nack

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination
*/
package services
