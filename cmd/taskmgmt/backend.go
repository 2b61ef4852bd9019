// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/taskmgmt/taskmgmt/internal/auth"
	authpg "github.com/taskmgmt/taskmgmt/internal/auth/postgres"
	"github.com/taskmgmt/taskmgmt/internal/config"
	"github.com/taskmgmt/taskmgmt/internal/memstore"
	"github.com/taskmgmt/taskmgmt/internal/store"
	"github.com/taskmgmt/taskmgmt/internal/task"
	taskpg "github.com/taskmgmt/taskmgmt/internal/task/postgres"
)

// backend is the persistence the services run on.
type backend struct {
	accounts auth.AccountRepository
	tasks    task.Repository
	ready    func() bool
	close    func()
}

// Close releases the backend. Safe on a nil close func.
func (b *backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// AutoMigrator applies pending migrations.
type AutoMigrator interface {
	Up() error
	Close() error
}

func newMigrator(databaseURL string) (AutoMigrator, error) {
	return store.NewMigrator(databaseURL)
}

// openBackend connects the configured store driver. With the postgres driver
// pending migrations are applied first when auto-migrate is on.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger, migratorFactory func(string) (AutoMigrator, error)) (*backend, error) {
	if cfg.Store.Driver == config.DriverMemory {
		logger.Warn("using in-memory store, data is lost on exit")
		s := memstore.New()
		return &backend{
			accounts: s.Accounts(),
			tasks:    s.Tasks(),
			ready:    func() bool { return true },
		}, nil
	}

	if cfg.Database.AutoMigrate {
		if err := autoMigrate(cfg.Database.URL, migratorFactory, logger); err != nil {
			return nil, err
		}
	}

	pool, err := store.Open(ctx, cfg.Database.URL, store.OpenOptions{
		MaxConns: cfg.Database.MaxConns,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database", "max_conns", pool.Config().MaxConns)

	return &backend{
		accounts: authpg.NewAccountRepository(pool),
		tasks:    taskpg.NewTaskRepository(pool),
		ready: func() bool {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return pool.Ping(ctx) == nil
		},
		close: pool.Close,
	}, nil
}

func autoMigrate(databaseURL string, factory func(string) (AutoMigrator, error), logger *slog.Logger) error {
	if factory == nil {
		factory = newMigrator
	}
	migrator, err := factory(databaseURL)
	if err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	logger.Info("applying database migrations")
	if err := migrator.Up(); err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").With("operation", "migrate up").Wrap(err)
	}
	return nil
}
