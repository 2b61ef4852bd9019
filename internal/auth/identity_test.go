// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskmgmt/taskmgmt/internal/auth"
)

func TestIdentityContext(t *testing.T) {
	_, ok := auth.IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := auth.WithIdentity(context.Background(), "a@x.com")
	email, ok := auth.IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "a@x.com", email)

	_, ok = auth.IdentityFromContext(auth.WithIdentity(context.Background(), ""))
	assert.False(t, ok)
}
