// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/raceroom/internal/models"
	"github.com/tomtom215/raceroom/internal/racetime"
)

func newRacesCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "races",
		Short: "List the current races of the category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireCategory(cmd); err != nil {
				return err
			}
			client, err := a.racetimeClient(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			races, err := client.ListCurrentRaces(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), races)
			}

			out := cmd.OutOrStdout()
			if len(races) == 0 {
				_, err := fmt.Fprintln(out, "no current races")
				return err
			}
			for _, race := range races {
				if _, err := fmt.Fprintf(out, "%-40s %-12s %3d entrants  %s\n",
					race.URL, race.Status.Value, race.EntrantsCount, race.Goal.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newRaceCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "race <race-url>",
		Short: "Show one race",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.racetimeClient(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			race, err := client.FetchRaceDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if race == nil {
				return fmt.Errorf("%s: %w", args[0], racetime.ErrRaceNotFound)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), race)
			}
			return printRace(cmd.OutOrStdout(), race)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printRace(w io.Writer, race *models.RaceDetails) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", race.Name)
	fmt.Fprintf(&b, "  status:   %s\n", race.Status.Value)
	fmt.Fprintf(&b, "  goal:     %s\n", race.Goal.Name)
	if race.Info != "" {
		fmt.Fprintf(&b, "  info:     %s\n", race.Info)
	}
	fmt.Fprintf(&b, "  url:      %s\n", race.URL)
	if race.WebsocketBotURL != "" {
		fmt.Fprintf(&b, "  room:     %s\n", race.WebsocketBotURL)
	}
	fmt.Fprintf(&b, "  entrants: %d\n", race.EntrantsCount)
	for _, e := range race.Entrants {
		fmt.Fprintf(&b, "    %-24s %s\n", e.User.Name, e.Status.Value)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// exitOnMissing maps client sentinels to short messages for the terminal.
func exitOnMissing(err error, raceURL string) error {
	switch {
	case errors.Is(err, racetime.ErrRaceNotFound):
		return fmt.Errorf("race %s not found", raceURL)
	case errors.Is(err, racetime.ErrNoSocketURL):
		return fmt.Errorf("race %s has no bot room; check the bot's category permissions", raceURL)
	default:
		return err
	}
}
