// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

/*
Package supervisor runs the watch daemon's long-lived services under a
suture v4 supervisor tree.

The tree has two layers below the root:

	raceroom
	├── room-layer   room watcher, event relay
	└── api-layer    ops HTTP server

A service that returns an error or panics is restarted by its layer with
suture's failure backoff. A crash in the api layer leaves joined rooms alone,
and a room watcher restart does not take the ops server down.

Supervisor lifecycle events are logged through sutureslog, with the slog
logger backed by the zerolog global logger:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddRoomService(services.NewRoomWatcherService(client, cfg.Watch.Rooms))
	tree.AddAPIService(services.NewOpsServerService(&cfg.Server, router.Setup()))
	err = tree.Serve(ctx)
*/
package supervisor
