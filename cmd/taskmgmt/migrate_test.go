// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmgmt/taskmgmt/internal/store"
	"github.com/taskmgmt/taskmgmt/pkg/errutil"
)

type fakeMigrator struct {
	calls   []string
	steps   int
	forced  int
	version uint
	dirty   bool
	err     error
	closed  bool
}

func (m *fakeMigrator) Up() error {
	m.calls = append(m.calls, "up")
	return m.err
}

func (m *fakeMigrator) Down() error {
	m.calls = append(m.calls, "down")
	return m.err
}

func (m *fakeMigrator) Steps(n int) error {
	m.calls = append(m.calls, "steps")
	m.steps = n
	return m.err
}

func (m *fakeMigrator) Version() (uint, bool, error) { return m.version, m.dirty, m.err }

func (m *fakeMigrator) Force(v int) error {
	m.calls = append(m.calls, "force")
	m.forced = v
	return m.err
}

func (m *fakeMigrator) Status() (*store.MigrationStatus, error) {
	return &store.MigrationStatus{
		Current: m.version,
		Applied: []store.Migration{{Version: 1, Name: "create_accounts"}},
		Pending: []store.Migration{{Version: 2, Name: "create_tasks"}},
	}, m.err
}

func (m *fakeMigrator) Close() error {
	m.closed = true
	return nil
}

func runMigrate(t *testing.T, m *fakeMigrator, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")

	var gotURL string
	cmd := newMigrateCmdWith(&migrateOptions{
		root: &rootOptions{},
		factory: func(url string) (Migrator, error) {
			gotURL = url
			return m, nil
		},
	})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		assert.Equal(t, "postgres://u:p@localhost/tasks", gotURL)
	}
	return buf.String(), err
}

func TestMigrateCommand(t *testing.T) {
	const db = "--database-url=postgres://u:p@localhost/tasks"

	tests := []struct {
		name      string
		args      []string
		wantCalls []string
		wantOut   string
	}{
		{"bare migrate applies", []string{db}, []string{"up"}, "Migrations completed successfully"},
		{"up", []string{"up", db}, []string{"up"}, "Migrations completed successfully"},
		{"down", []string{"down", db}, []string{"down"}, "All migrations rolled back"},
		{"steps", []string{"steps", db, "--", "-1"}, []string{"steps"}, "Applied -1 migration step(s)"},
		{"force", []string{"force", "2", db}, []string{"force"}, "Forced schema version to 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMigrator{}
			out, err := runMigrate(t, m, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, m.calls)
			assert.Contains(t, out, tt.wantOut)
			assert.True(t, m.closed)
		})
	}
}

func TestMigrateCommand_StatusAndVersion(t *testing.T) {
	const db = "--database-url=postgres://u:p@localhost/tasks"

	out, err := runMigrate(t, &fakeMigrator{version: 1}, "status", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 1")
	assert.Contains(t, out, "[applied] 000001 create_accounts")
	assert.Contains(t, out, "[pending] 000002 create_tasks")

	out, err = runMigrate(t, &fakeMigrator{version: 2, dirty: true}, "version", db)
	require.NoError(t, err)
	assert.Equal(t, "2 (dirty)\n", out)
}

func TestMigrateCommand_Errors(t *testing.T) {
	t.Run("no database url", func(t *testing.T) {
		_, err := runMigrate(t, &fakeMigrator{}, "up")
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	})

	t.Run("migration failure is returned", func(t *testing.T) {
		m := &fakeMigrator{err: oops.Code("MIGRATION_UP_FAILED").Wrap(errors.New("boom"))}
		_, err := runMigrate(t, m, "up", "--database-url=postgres://u:p@localhost/tasks")
		errutil.AssertErrorCode(t, err, "MIGRATION_UP_FAILED")
		assert.True(t, m.closed)
	})

	t.Run("bad version", func(t *testing.T) {
		_, err := runMigrate(t, &fakeMigrator{}, "force", "two", "--database-url=postgres://u:p@localhost/tasks")
		errutil.AssertErrorCode(t, err, "INVALID_VERSION")
	})
}

func TestParseVersionArg(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"3", 3, false},
		{"0", 0, false},
		{"-1", -1, false},
		{"abc", 0, true},
		{"1.5", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseVersionArg(tt.input)
			if tt.wantErr {
				errutil.AssertErrorCode(t, err, "INVALID_VERSION")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
