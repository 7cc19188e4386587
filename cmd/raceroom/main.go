// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

// Command raceroom is a command line client and watch daemon for racetime
// race rooms.
//
//	raceroom races                           list the category's current races
//	raceroom race /ootr/lucky-link-1234      show one race
//	raceroom create --goal "Beat the game"   open a race
//	raceroom cancel /ootr/lucky-link-1234    cancel a race
//	raceroom say /ootr/lucky-link-1234 "gl"  post a chat message
//	raceroom watch [room...]                 join rooms and log their events
//	raceroom version
//
// Configuration comes from config.yaml, $CONFIG_PATH or --config, overridden
// by environment variables (RACETIME_CLIENT_ID, RACETIME_CLIENT_SECRET, ...).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/raceroom/internal/logging"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
