// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/taskmgmt/taskmgmt/internal/auth"
	"github.com/taskmgmt/taskmgmt/internal/config"
	"github.com/taskmgmt/taskmgmt/internal/logging"
	"github.com/taskmgmt/taskmgmt/internal/seed"
	"github.com/taskmgmt/taskmgmt/internal/task"
)

type seedOptions struct {
	root   *rootOptions
	dryRun bool
	opener func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error)
	hasher auth.PasswordHasher
	logger *slog.Logger
}

func newSeedCmd(root *rootOptions) *cobra.Command {
	return newSeedCmdWith(&seedOptions{root: root})
}

func newSeedCmdWith(opts *seedOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed FILE",
		Short: "Load users and tasks from a YAML seed file",
		Long: `Validate FILE against the seed schema and create its users and tasks.
Users whose email is already registered are skipped with their tasks.
Nothing is written when the file is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, opts, args[0])
		},
	}
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "validate the file without writing")
	config.RegisterFlags(cmd.Flags())
	cmd.AddCommand(newSeedSchemaCmd())
	return cmd
}

func runSeed(cmd *cobra.Command, opts *seedOptions, path string) error {
	plan, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	if opts.dryRun {
		cmd.Printf("%s is valid: %d users, %d tasks\n", path, plan.Users(), plan.Tasks())
		return nil
	}

	cfg, err := config.Read(cmd.Flags(), opts.root.loadOptions())
	if err != nil {
		return err
	}
	if cfg.Store.Driver != config.DriverPostgres {
		return oops.Code("CONFIG_INVALID").
			With("key", "store.driver").
			Errorf("seeding needs the %s store", config.DriverPostgres)
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	logger := opts.logger
	if logger == nil {
		logger = logging.SetDefault(serviceName, version, cfg.Log.Format)
	}
	opener := opts.opener
	if opener == nil {
		opener = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
			return openBackend(ctx, cfg, logger, nil)
		}
	}
	hasher := opts.hasher
	if hasher == nil {
		hasher = auth.NewArgon2idHasher()
	}

	ctx := cmd.Context()
	be, err := opener(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.Close()

	registrar, err := auth.NewRegistrar(be.accounts, hasher, logger)
	if err != nil {
		return err
	}

	res, err := seed.Apply(ctx, plan, registrar, task.NewService(be.tasks, be.accounts), logger)
	if err != nil {
		return err
	}
	cmd.Printf("Seeded %d users (%d skipped) and %d tasks\n", res.UsersCreated, res.UsersSkipped, res.TasksCreated)
	return nil
}
