// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCancelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <race-url>",
		Short: "Cancel a race",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.racetimeClient(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			cancelled, err := client.CancelRace(cmd.Context(), args[0])
			if err != nil {
				return exitOnMissing(err, args[0])
			}
			if !cancelled {
				return fmt.Errorf("race %s was not cancelled", args[0])
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "cancelled %s\n", args[0])
			return err
		},
	}
}
