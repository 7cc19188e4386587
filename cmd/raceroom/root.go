// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/raceroom/internal/config"
	"github.com/tomtom215/raceroom/internal/logging"
	"github.com/tomtom215/raceroom/internal/racetime"
)

// app carries what the subcommands share. Config and client are created
// lazily so "version" and "--help" work without credentials.
type app struct {
	configPath string
	logLevel   string
	category   string

	cfg    *config.Config
	client *racetime.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "raceroom",
		Short:        "Race room client for racetime",
		Long:         "raceroom lists, creates and cancels races, talks in race rooms and runs a watch daemon that joins rooms, logs their events and relays them to a message broker.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: config.yaml or $CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.category, "category", "", "category slug override")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRacesCmd(a),
		newRaceCmd(a),
		newCreateCmd(a),
		newCancelCmd(a),
		newSayCmd(a),
		newWatchCmd(a),
	)

	return rootCmd
}

// load reads the configuration and initializes logging.
func (a *app) load(cmd *cobra.Command) (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	cfg, err := config.LoadWithKoanf(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.category != "" {
		cfg.Racetime.Category = a.category
	}
	if a.logLevel != "" {
		if !logging.ValidLevel(a.logLevel) {
			return nil, fmt.Errorf("unknown log level %q", a.logLevel)
		}
		cfg.Logging.Level = a.logLevel
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    cmd.ErrOrStderr(),
	})
	logging.Debug().Str("config", cfg.String()).Msg("Configuration loaded")

	a.cfg = cfg
	return cfg, nil
}

// racetimeClient returns the shared client. The caller closes it with
// a.close.
func (a *app) racetimeClient(cmd *cobra.Command) (*racetime.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	cfg, err := a.load(cmd)
	if err != nil {
		return nil, err
	}
	client, err := racetime.NewClient(&cfg.Racetime)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
		a.client = nil
	}
}

var errNoCategory = errors.New("no category configured: set RACETIME_CATEGORY or --category")

func (a *app) requireCategory(cmd *cobra.Command) error {
	cfg, err := a.load(cmd)
	if err != nil {
		return err
	}
	if cfg.Racetime.Category == "" {
		return errNoCategory
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
