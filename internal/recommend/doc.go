// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package recommend implements the per-user, per-category ranking core.

# Components

  - Ingestor: records reactions (watched, like, unlike), bumps the item's
    popularity counters and enqueues a recompute request. It also registers
    items into the category index.
  - Engine: recomputes one user's scores for every item of one category and
    materializes them into the user's ranking.
  - Reader: returns the top-N of a user's ranking plus its last recompute
    time. It never triggers a recompute.

# Scoring

For an item and a user:

	popularity = view_count*W_view + like_count*W_like
	personal   = (W_liked if liked) - (W_watch_penalty if watched)
	recency    = max(0, W_recency * (window - days_since_upload))
	score      = popularity + personal + recency

days_since_upload is floored and clamped at zero, so an item stamped in the
future (clock skew) gets at most the full recency bonus. Weights come from
an immutable Weights value injected into the Engine.

# Storage Layout

	item:{category}:{item}        hash   created_at, view_count, like_count
	category:{category}:items     set    item ids (category index)
	reaction:{user}:{item}        hash   watched=1, liked=1|0
	scores:{user}                 zset   "{category}:{item}" -> score
	user_meta:{user}              hash   last_updated_at

# Consistency

Counters are independent atomic increments. A recompute is a full,
idempotent rewrite of one category's members in the ranking; recomputes of
the same (user, category) are serialized by a per-key lock. Readers see the
latest materialized ranking, which may lag recent events.

Unlike never decrements like_count: like_count counts gross likes.
*/
package recommend
