// ReelRank - Per-User Content Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package supervisor provides process supervision for ReelRank using suture v4.

# Overview

	RootSupervisor ("reelrank")
	├── WorkerSupervisor ("worker-layer")
	│   └── RecomputeWorkerService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services restart with suture's backoff. Each layer counts failures
independently, so a worker that cannot reach the queue backs off without
affecting the HTTP API.

# Logging

Supervisor events go through sutureslog into the slog bridge of the
logging package, so restarts appear in the same zerolog stream as the
rest of the service.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeCfg)
	if err != nil {
	    return err
	}
	tree.AddWorkerService(services.NewRecomputeWorkerService(newRouter, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, 15*time.Second))
	return tree.Serve(ctx)
*/
package supervisor
