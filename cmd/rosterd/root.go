// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the rosterd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rosterd",
		Short: "rosterd - membership directory with identity credentials",
		Long: `rosterd serves a membership directory over HTTP: accounts with
role-based access control, signed session tokens, and a time-boxed
password-reset flow delivered by email.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())

	return cmd
}
