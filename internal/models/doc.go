// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package models defines the HTTP response envelope shared by the API
// handlers. Domain types live in the recommend package.
package models
