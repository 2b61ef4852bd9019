// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/taskmgmt/taskmgmt/internal/config"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
	envFile    string
}

func (o *rootOptions) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFile: o.configFile, EnvFile: o.envFile}
}

// NewRootCmd creates the root command for the taskmgmt CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "taskmgmt",
		Short: "Task management API server",
		Long: `taskmgmt serves a JSON API for users and their tasks, with bearer
token authentication and account lockout after repeated failed logins.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file path")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "dotenv file loaded before reading the environment")

	cmd.AddCommand(newServeCmd(opts, nil))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newHashPasswordCmd())

	return cmd
}
