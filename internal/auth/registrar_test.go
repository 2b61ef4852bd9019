// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmgmt/taskmgmt/internal/auth"
	"github.com/taskmgmt/taskmgmt/internal/memstore"
	"github.com/taskmgmt/taskmgmt/pkg/errutil"
)

func TestNewRegistrar_NilDependencies(t *testing.T) {
	_, err := auth.NewRegistrar(nil, &plainHasher{}, nil)
	errutil.AssertErrorCode(t, err, "AUTH_SERVICE_INVALID")

	_, err = auth.NewRegistrar(memstore.New().Accounts(), nil, nil)
	errutil.AssertErrorCode(t, err, "AUTH_SERVICE_INVALID")
}

func TestRegistrar_RegisterWithoutTokenSigner(t *testing.T) {
	ctx := context.Background()
	accounts := memstore.New().Accounts()
	registrar, err := auth.NewRegistrar(accounts, &plainHasher{}, nil)
	require.NoError(t, err)

	account, err := registrar.Register(ctx, "New@X.com", "newbie", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", account.Email)
	assert.Zero(t, account.FailedAttempts)
	assert.Nil(t, account.LockedUntil)

	stored, err := accounts.GetByEmail(ctx, "new@x.com")
	require.NoError(t, err)
	assert.Equal(t, "plain$pw1", stored.PasswordHash)

	_, err = registrar.Register(ctx, "new@x.com", "again", "pw2")
	errutil.AssertErrorCode(t, err, "AUTH_EMAIL_TAKEN")
}
