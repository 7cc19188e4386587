// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

// Package services adapts the daemon's components to suture.Service.
//
//   - RoomWatcherService joins the configured race rooms and logs their events.
//   - RelayService forwards client events to the event relay.
//   - HTTPServerService runs the ops HTTP server with graceful shutdown.
//
// Each Serve blocks until its context is cancelled and implements
// fmt.Stringer so suture can name it in log lines.
package services
