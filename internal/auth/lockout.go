// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package auth

import (
	"math"
	"time"

	"github.com/samber/oops"
)

// Lockout defaults.
const (
	// DefaultLockoutDuration is the time an account stays locked after too many failures.
	DefaultLockoutDuration = 15 * time.Minute

	// DefaultMaxFailedAttempts is the number of consecutive failures that locks an account.
	DefaultMaxFailedAttempts = 3
)

// LockoutPolicy configures account lockout.
type LockoutPolicy struct {
	MaxFailedAttempts int
	LockoutDuration   time.Duration
}

// DefaultLockoutPolicy returns the policy of three failures and a fifteen minute lock.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxFailedAttempts: DefaultMaxFailedAttempts,
		LockoutDuration:   DefaultLockoutDuration,
	}
}

// Validate checks that both limits are positive.
func (p LockoutPolicy) Validate() error {
	if p.MaxFailedAttempts <= 0 {
		return oops.Code("AUTH_INVALID_POLICY").
			With("max_failed_attempts", p.MaxFailedAttempts).
			Errorf("max failed attempts must be positive")
	}
	if p.LockoutDuration <= 0 {
		return oops.Code("AUTH_INVALID_POLICY").
			With("lockout_duration", p.LockoutDuration.String()).
			Errorf("lockout duration must be positive")
	}
	return nil
}

// AttemptsRemaining returns how many more failures the account can absorb
// before it is locked.
func (p LockoutPolicy) AttemptsRemaining(failedAttempts int) int {
	remaining := p.MaxFailedAttempts - failedAttempts
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MinutesRemaining returns ceil(lockedUntil - now) in whole minutes.
// Returns 0 when the lock has already expired.
func MinutesRemaining(lockedUntil, now time.Time) int {
	left := lockedUntil.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Minutes()))
}
