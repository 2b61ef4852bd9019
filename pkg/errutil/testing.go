// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package errutil

import (
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// T is the subset of testing.TB the assertions need. Both *testing.T and
// ginkgo's GinkgoT() satisfy it.
type T interface {
	require.TestingT
	Helper()
}

// AssertErrorCode asserts that err carries code.
func AssertErrorCode(t T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, Code(err), "error: %v", err)
}

// AssertErrorContext asserts that err carries key with value in its oops context.
func AssertErrorContext(t T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	require.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// AssertNoErrorContext asserts that key is absent from err's oops context.
// Lockout rejections use it to check that no attempt count leaks.
func AssertNoErrorContext(t T, err error, key string) {
	t.Helper()
	if oopsErr, ok := oops.AsOops(err); ok {
		assert.NotContains(t, oopsErr.Context(), key)
	}
}
