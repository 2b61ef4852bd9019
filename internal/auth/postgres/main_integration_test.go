// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

//go:build integration

package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmgmt/taskmgmt/internal/store/storetest"
)

// testPool is the shared database pool for integration tests.
var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	db, err := storetest.Start(ctx)
	if err != nil {
		panic("failed to start postgres: " + err.Error())
	}
	testPool = db.Pool

	code := m.Run()

	db.Close(ctx)
	os.Exit(code)
}
