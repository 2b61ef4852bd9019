// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

// Package auth provides account authentication for TaskMgmt.
//
// # Domain Types
//
// Accounts should be created with NewAccount, which validates the email,
// username and password hash. Direct struct initialization bypasses
// validation and may create invalid state.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - registration and the login decision (lockout, password, token)
//   - AccountService - listing, profile updates and deletion of accounts
//
// Tokens are stateless: TokenIssuer signs and validates them and nothing is
// persisted per session. The caller identity of a request travels in its
// context.Context (see WithIdentity and IdentityFromContext).
package auth
