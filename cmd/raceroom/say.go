// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newSayCmd(a *app) *cobra.Command {
	var pinned bool

	cmd := &cobra.Command{
		Use:   "say <race-url> <message...>",
		Short: "Post a chat message in a race room",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.racetimeClient(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			text := strings.Join(args[1:], " ")
			if err := client.SendMessage(cmd.Context(), args[0], text, pinned); err != nil {
				return exitOnMissing(err, args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&pinned, "pin", false, "pin the message")
	return cmd
}
