// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/raceroom/internal/models"
)

func newCreateCmd(a *app) *cobra.Command {
	params := models.DefaultRaceParams()
	var join, asJSON bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new race in the category",
		Long:  "create submits the race creation form for the configured category. With --join the bot also joins the new race room and stays until interrupted.",
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

			race, err := client.CreateRace(cmd.Context(), params, join)
			if err != nil {
				return err
			}
			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), race); err != nil {
					return err
				}
			} else if _, err := fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", race.URL); err != nil {
				return err
			}

			if join {
				<-cmd.Context().Done()
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&params.Goal, "goal", params.Goal, "category goal")
	f.StringVar(&params.CustomGoal, "custom-goal", params.CustomGoal, "custom goal text instead of a category goal")
	f.StringVar(&params.InfoUser, "info", params.InfoUser, "race info shown to users")
	f.StringVar(&params.InfoBot, "info-bot", params.InfoBot, "race info set by the bot")
	f.BoolVar(&params.Invitational, "invitational", params.Invitational, "invite-only race")
	f.BoolVar(&params.Unlisted, "unlisted", params.Unlisted, "hide the race from the category listing")
	f.BoolVar(&params.TeamRace, "team-race", params.TeamRace, "team race")
	f.BoolVar(&params.StreamingRequired, "streaming-required", params.StreamingRequired, "entrants must stream")
	f.BoolVar(&params.AutoStart, "auto-start", params.AutoStart, "start when every entrant is ready")
	f.IntVar(&params.StartDelay, "start-delay", params.StartDelay, "countdown in seconds (10-60)")
	f.IntVar(&params.TimeLimit, "time-limit", params.TimeLimit, "time limit in hours (1-72)")
	f.IntVar(&params.ChatMessageDelay, "chat-delay", params.ChatMessageDelay, "chat message delay in seconds (0-90)")
	f.BoolVar(&join, "join", false, "join the new race room and stay until interrupted")
	f.BoolVar(&asJSON, "json", false, "print the created race as JSON")
	return cmd
}
