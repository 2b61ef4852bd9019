// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmgmt/taskmgmt/internal/auth"
	"github.com/taskmgmt/taskmgmt/internal/memstore"
	"github.com/taskmgmt/taskmgmt/internal/task"
)

func newAccount(t *testing.T, email string) *auth.Account {
	t.Helper()
	account, err := auth.NewAccount(email, "user", "$argon2id$hash")
	require.NoError(t, err)
	return account
}

func TestAccountRepository_CreateAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	repo := memstore.New().Accounts()

	first := newAccount(t, "a@x.com")
	second := newAccount(t, "b@x.com")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func TestAccountRepository_CreateRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := memstore.New().Accounts()

	require.NoError(t, repo.Create(ctx, newAccount(t, "a@x.com")))
	err := repo.Create(ctx, newAccount(t, "A@X.com"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrDuplicateEmail))
}

func TestAccountRepository_GetByEmailIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := memstore.New().Accounts()
	require.NoError(t, repo.Create(ctx, newAccount(t, "a@x.com")))

	got, err := repo.GetByEmail(ctx, "A@x.COM")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)

	_, err = repo.GetByEmail(ctx, "missing@x.com")
	assert.True(t, errors.Is(err, auth.ErrNotFound))
}

func TestAccountRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := memstore.New().Accounts()
	account := newAccount(t, "a@x.com")
	require.NoError(t, repo.Create(ctx, account))

	got, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	got.FailedAttempts = 2
	until := time.Now().Add(time.Minute)
	got.LockedUntil = &until

	again, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Zero(t, again.FailedAttempts)
	assert.Nil(t, again.LockedUntil)
}

func TestAccountRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := memstore.New().Accounts()
	account := newAccount(t, "a@x.com")
	require.NoError(t, repo.Create(ctx, account))

	account.Username = "renamed"
	require.NoError(t, repo.UpdateProfile(ctx, account))
	got, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Username)

	require.NoError(t, repo.Delete(ctx, account.ID))
	assert.True(t, errors.Is(repo.Delete(ctx, account.ID), auth.ErrNotFound))
	assert.True(t, errors.Is(repo.UpdateProfile(ctx, account), auth.ErrNotFound))
	assert.True(t, errors.Is(repo.UpdateSecurityState(ctx, account), auth.ErrNotFound))
}

func TestAccountRepository_WritesAreDisjoint(t *testing.T) {
	ctx := context.Background()
	repo := memstore.New().Accounts()
	account := newAccount(t, "a@x.com")
	require.NoError(t, repo.Create(ctx, account))

	stale, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)

	until := time.Now().Add(15 * time.Minute)
	locked := *account
	locked.Username = "ignored"
	locked.FailedAttempts = 3
	locked.LockedUntil = &until
	require.NoError(t, repo.UpdateSecurityState(ctx, &locked))

	stale.Username = "renamed"
	require.NoError(t, repo.UpdateProfile(ctx, stale))

	got, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Username)
	assert.Equal(t, 3, got.FailedAttempts)
	require.NotNil(t, got.LockedUntil)
	assert.True(t, got.LockedUntil.Equal(until))
}

func TestAccountRepository_UpgradePasswordHash(t *testing.T) {
	ctx := context.Background()
	repo := memstore.New().Accounts()
	account := newAccount(t, "a@x.com")
	require.NoError(t, repo.Create(ctx, account))

	require.NoError(t, repo.UpgradePasswordHash(ctx, account.ID, "stale", "ignored", time.Now()))
	got, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.PasswordHash, got.PasswordHash)

	require.NoError(t, repo.UpgradePasswordHash(ctx, account.ID, account.PasswordHash, "upgraded", time.Now()))
	got, err = repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "upgraded", got.PasswordHash)

	require.NoError(t, repo.UpgradePasswordHash(ctx, 999, "a", "b", time.Now()))
}

func TestAccountRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := memstore.New().Accounts()
	for _, email := range []string{"c@x.com", "a@x.com", "b@x.com"} {
		require.NoError(t, repo.Create(ctx, newAccount(t, email)))
	}

	accounts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "c@x.com", accounts[0].Email)
	assert.Equal(t, int64(3), accounts[2].ID)
}

func TestTaskRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	owner := newAccount(t, "a@x.com")
	require.NoError(t, store.Accounts().Create(ctx, owner))

	tasks := store.Tasks()
	item := &task.Task{UserID: owner.ID, Title: "write tests", Status: task.StatusTodo}
	require.NoError(t, tasks.Create(ctx, item))
	assert.Equal(t, int64(1), item.ID)

	item.Status = task.StatusDone
	require.NoError(t, tasks.Update(ctx, item))

	got, err := tasks.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, got.Status)

	list, err := tasks.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, tasks.Delete(ctx, item.ID))
	_, err = tasks.Get(ctx, item.ID)
	assert.True(t, errors.Is(err, task.ErrNotFound))
}

func TestTaskRepository_CreateRequiresOwner(t *testing.T) {
	err := memstore.New().Tasks().Create(context.Background(), &task.Task{UserID: 42, Title: "orphan"})
	require.Error(t, err)
}

func TestDeleteAccountCascadesToTasks(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	owner := newAccount(t, "a@x.com")
	other := newAccount(t, "b@x.com")
	require.NoError(t, store.Accounts().Create(ctx, owner))
	require.NoError(t, store.Accounts().Create(ctx, other))
	require.NoError(t, store.Tasks().Create(ctx, &task.Task{UserID: owner.ID, Title: "mine"}))
	require.NoError(t, store.Tasks().Create(ctx, &task.Task{UserID: other.ID, Title: "theirs"}))

	require.NoError(t, store.Accounts().Delete(ctx, owner.ID))

	mine, err := store.Tasks().ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
	theirs, err := store.Tasks().ListByUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}
