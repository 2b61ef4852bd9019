// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package auth

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 1
	MaxUsernameLength = 50
)

// MaxEmailLength follows the RFC 5321 path limit.
const MaxEmailLength = 254

// usernameRegex matches printable usernames without leading or trailing spaces.
var usernameRegex = regexp.MustCompile(`^\S(.*\S)?$`)

// Account represents a registered user.
type Account struct {
	ID             int64
	Email          string
	Username       string
	PasswordHash   string
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAccount creates a validated Account with a clean security state.
// The ID is assigned by the repository on Create.
func NewAccount(email, username, passwordHash string) (*Account, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, oops.Code("AUTH_INVALID_PASSWORD_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &Account{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsLocked reports whether the lockout is still active at now.
func (a *Account) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// LockExpired reports whether the account carries a lockout that has run out.
// Expired lockouts are cleared lazily by the next login attempt.
func (a *Account) LockExpired(now time.Time) bool {
	return a.LockedUntil != nil && !a.LockedUntil.After(now)
}

// RecordFailure increments the failure counter and locks the account once
// the policy threshold is reached. It reports whether this call locked it.
func (a *Account) RecordFailure(policy LockoutPolicy, now time.Time) bool {
	a.FailedAttempts++
	a.UpdatedAt = now
	if a.FailedAttempts < policy.MaxFailedAttempts {
		return false
	}
	until := now.Add(policy.LockoutDuration)
	a.LockedUntil = &until
	return true
}

// ResetSecurityState clears the failure counter and any lockout.
func (a *Account) ResetSecurityState(now time.Time) {
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.UpdatedAt = now
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare address such as a@x.com.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("max", MaxEmailLength).
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email %q is not a valid address", email)
	}
	return nil
}

// ValidateUsername validates a display name.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Errorf("username cannot start or end with whitespace")
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account and assigns its ID.
	// Returns ErrDuplicateEmail if the email is already registered.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id int64) (*Account, error)

	// GetByEmail retrieves an account by email (case-insensitive).
	// Returns ErrNotFound if no account has the given email.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// List returns all accounts ordered by ID.
	List(ctx context.Context) ([]*Account, error)

	// UpdateProfile writes the username, password hash and updated_at.
	// The security state is left untouched.
	UpdateProfile(ctx context.Context, account *Account) error

	// UpdateSecurityState writes failed_attempts, locked_until and updated_at.
	// Only the login flow calls it, under the per-email lock.
	UpdateSecurityState(ctx context.Context, account *Account) error

	// UpgradePasswordHash replaces oldHash with newHash. It is a no-op when
	// the stored hash no longer equals oldHash.
	UpgradePasswordHash(ctx context.Context, id int64, oldHash, newHash string, updatedAt time.Time) error

	// Delete removes an account.
	Delete(ctx context.Context, id int64) error
}
