// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

// Package storetest starts a migrated PostgreSQL container for integration tests.
package storetest

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/taskmgmt/taskmgmt/internal/store"
)

// Database is a running, fully migrated PostgreSQL instance.
type Database struct {
	URL  string
	Pool *pgxpool.Pool

	container *postgres.PostgresContainer
}

// Start runs postgres:16-alpine, applies every migration and opens a pool.
func Start(ctx context.Context) (*Database, error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("taskmgmt_test"),
		postgres.WithUsername("taskmgmt"),
		postgres.WithPassword("taskmgmt"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, oops.Code("STORETEST_START_FAILED").Wrap(err)
	}

	db := &Database{container: container}

	db.URL, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		db.Close(ctx)
		return nil, oops.Code("STORETEST_START_FAILED").With("operation", "connection string").Wrap(err)
	}

	migrator, err := store.NewMigrator(db.URL)
	if err != nil {
		db.Close(ctx)
		return nil, oops.Code("STORETEST_START_FAILED").With("operation", "create migrator").Wrap(err)
	}
	err = migrator.Up()
	_ = migrator.Close()
	if err != nil {
		db.Close(ctx)
		return nil, oops.Code("STORETEST_START_FAILED").With("operation", "migrate").Wrap(err)
	}

	db.Pool, err = store.Open(ctx, db.URL, store.OpenOptions{})
	if err != nil {
		db.Close(ctx)
		return nil, oops.Code("STORETEST_START_FAILED").With("operation", "open pool").Wrap(err)
	}
	return db, nil
}

// Truncate empties every table and resets identity sequences.
func (d *Database) Truncate(ctx context.Context) error {
	if _, err := d.Pool.Exec(ctx, `TRUNCATE tasks, accounts RESTART IDENTITY CASCADE`); err != nil {
		return oops.Code("STORETEST_TRUNCATE_FAILED").Wrap(err)
	}
	return nil
}

// Close releases the pool and terminates the container.
func (d *Database) Close(ctx context.Context) {
	if d.Pool != nil {
		d.Pool.Close()
	}
	if d.container != nil {
		_ = d.container.Terminate(ctx)
	}
}
