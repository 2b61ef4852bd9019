// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package auth

import (
	"context"
	"time"
)

// CheckResult is the outcome of a secondary credential check.
type CheckResult struct {
	Authenticated bool
	Reason        string
}

// CredentialChecker re-authenticates credentials after the lockout decision
// has accepted them. It reports the outcome as a value rather than an error.
type CredentialChecker interface {
	Check(ctx context.Context, email, password string) CheckResult
}

// StoreCredentialChecker re-reads the account from the repository and verifies
// the password against the stored hash. It catches changes made to the
// account between the lockout decision and token issuance.
type StoreCredentialChecker struct {
	accounts AccountRepository
	hasher   PasswordHasher
	now      func() time.Time
}

// NewStoreCredentialChecker creates a StoreCredentialChecker.
func NewStoreCredentialChecker(accounts AccountRepository, hasher PasswordHasher) *StoreCredentialChecker {
	return &StoreCredentialChecker{accounts: accounts, hasher: hasher, now: time.Now}
}

// Check authenticates email and password against the current stored state.
func (c *StoreCredentialChecker) Check(ctx context.Context, email, password string) CheckResult {
	account, err := c.accounts.GetByEmail(ctx, email)
	if err != nil {
		return CheckResult{Reason: "account lookup failed"}
	}
	if account.IsLocked(c.now()) {
		return CheckResult{Reason: "account is locked"}
	}
	ok, err := c.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return CheckResult{Reason: "stored hash is unreadable"}
	}
	if !ok {
		return CheckResult{Reason: "password mismatch"}
	}
	return CheckResult{Authenticated: true}
}

// Compile-time interface check.
var _ CredentialChecker = (*StoreCredentialChecker)(nil)
