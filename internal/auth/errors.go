// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned by repositories when an email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")
