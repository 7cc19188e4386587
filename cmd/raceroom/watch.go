// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package main

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/spf13/cobra"

	"github.com/tomtom215/raceroom/internal/api"
	"github.com/tomtom215/raceroom/internal/config"
	"github.com/tomtom215/raceroom/internal/logging"
	"github.com/tomtom215/raceroom/internal/racetime"
	"github.com/tomtom215/raceroom/internal/relay"
	"github.com/tomtom215/raceroom/internal/supervisor"
	"github.com/tomtom215/raceroom/internal/supervisor/services"
)

var errNoRooms = errors.New("no rooms to watch: pass race URLs or set WATCH_ROOMS")

func newWatchCmd(a *app) *cobra.Command {
	var withServer, withRelay bool

	cmd := &cobra.Command{
		Use:   "watch [room...]",
		Short: "Join race rooms and log their events until interrupted",
		Long:  "watch joins every room given on the command line or in watch.rooms, logs each room event, optionally relays events to the configured publisher and serves health, metrics and session listings on the ops server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("server") {
				cfg.Server.Enabled = withServer
			}
			if cmd.Flags().Changed("relay") {
				cfg.Relay.Enabled = withRelay
			}

			rooms := append(append([]string{}, args...), cfg.Watch.Rooms...)
			if len(rooms) == 0 {
				return errNoRooms
			}

			client, err := a.racetimeClient(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			return runWatch(cmd.Context(), cfg, client, rooms)
		},
	}
	cmd.Flags().BoolVar(&withServer, "server", false, "serve the ops HTTP endpoints (overrides server.enabled)")
	cmd.Flags().BoolVar(&withRelay, "relay", false, "relay room events (overrides relay.enabled)")
	return cmd
}

// runWatch assembles the supervisor tree and blocks until ctx is cancelled.
func runWatch(ctx context.Context, cfg *config.Config, client *racetime.Client, rooms []string) error {
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	// === ROOM LAYER ===
	watcher := services.NewRoomWatcherService(client, rooms)
	tree.AddRoomService(watcher)
	logging.Info().Strs("rooms", rooms).Msg("Room watcher service added")

	if cfg.Relay.Enabled {
		r, err := relay.New(cfg.Relay, watermill.NewSlogLogger(logging.NewSlogLogger()))
		if err != nil {
			return err
		}
		defer func() {
			if err := r.Close(); err != nil {
				logging.Warn().Err(err).Msg("Failed to close event relay")
			}
		}()
		tree.AddRoomService(services.NewRelayService(client, r.Handle))
		logging.Info().Str("driver", cfg.Relay.Driver).Msg("Event relay service added")
	}

	// === API LAYER ===
	if cfg.Server.Enabled {
		router := api.NewRouter(&cfg.Server, client, nil)
		tree.AddAPIService(services.NewOpsServerService(&cfg.Server, router.Setup()))
		logging.Info().Str("addr", cfg.Server.Addr()).Msg("Ops server service added")
	}

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Watch stopped")
	return nil
}
