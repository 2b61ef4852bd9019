// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package main

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/taskmgmt/taskmgmt/internal/auth"
)

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [PASSWORD]",
		Short: "Print the argon2id hash of a password",
		Long: `Hash PASSWORD, or the first line of standard input when no argument is
given, in the format stored in the accounts table.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = line
			}

			hash, err := auth.NewArgon2idHasher().Hash(password)
			if err != nil {
				return err
			}
			cmd.Println(hash)
			return nil
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", oops.Code("READ_FAILED").With("operation", "read password").Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
