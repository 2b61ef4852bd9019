// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package main

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/taskmgmt/taskmgmt/internal/seed"
)

type seedSchemaOptions struct {
	output string
	check  bool
}

func newSeedSchemaCmd() *cobra.Command {
	opts := &seedSchemaOptions{}
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print or write the seed file JSON Schema",
		Long: `Print the JSON Schema seed files are validated against.
With --output the schema is written to a file. With --check the file is
compared against the current schema and the command fails when it is stale.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeedSchema(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the schema to this file")
	cmd.Flags().BoolVar(&opts.check, "check", false, "fail if --output differs from the current schema")
	return cmd
}

func runSeedSchema(cmd *cobra.Command, opts *seedSchemaOptions) error {
	schema, err := seed.GenerateSchema()
	if err != nil {
		return err
	}
	schema = append(schema, '\n')

	if opts.output == "" {
		if opts.check {
			return oops.Code("INVALID_FLAG").Errorf("--check needs --output")
		}
		_, err := cmd.OutOrStdout().Write(schema)
		return err //nolint:wrapcheck // stdout write
	}

	if opts.check {
		current, err := os.ReadFile(opts.output)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return oops.Code("SEED_READ_FAILED").With("path", opts.output).Wrap(err)
		}
		if !bytes.Equal(current, schema) {
			return oops.Code("SEED_SCHEMA_STALE").
				With("path", opts.output).
				Errorf("%s is out of date, run: taskmgmt seed schema --output %s", opts.output, opts.output)
		}
		cmd.Printf("%s is up to date\n", opts.output)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.output), 0o750); err != nil {
		return oops.Code("SEED_SCHEMA_FAILED").With("operation", "create directory").Wrap(err)
	}
	if err := os.WriteFile(opts.output, schema, 0o600); err != nil {
		return oops.Code("SEED_SCHEMA_FAILED").With("operation", "write schema").Wrap(err)
	}
	cmd.Printf("Generated %s\n", opts.output)
	return nil
}
