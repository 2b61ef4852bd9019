// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Registrar creates accounts. It needs no token signer, so tools that only
// provision accounts can use it directly.
type Registrar struct {
	accounts AccountRepository
	hasher   PasswordHasher
	now      func() time.Time
	logger   *slog.Logger
}

// NewRegistrar creates a Registrar. A nil logger means slog.Default().
func NewRegistrar(accounts AccountRepository, hasher PasswordHasher, logger *slog.Logger) (*Registrar, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registrar{accounts: accounts, hasher: hasher, now: time.Now, logger: logger}, nil
}

// Register creates an account with a clean security state.
// Returns AUTH_EMAIL_TAKEN if the email is already registered.
func (r *Registrar) Register(ctx context.Context, email, username, password string) (*Account, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}

	_, err := r.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		r.logger.InfoContext(ctx, "registration rejected, email already registered")
		return nil, emailTaken(email)
	case !errors.Is(err, ErrNotFound):
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}

	hash, err := r.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account, err := NewAccount(email, username, hash)
	if err != nil {
		return nil, err
	}
	now := r.now()
	account.CreatedAt = now
	account.UpdatedAt = now

	if err := r.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, emailTaken(email)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create account").
			Wrap(err)
	}

	r.logger.InfoContext(ctx, "account registered", "account_id", account.ID)
	return account, nil
}

func emailTaken(email string) error {
	return oops.Code("AUTH_EMAIL_TAKEN").
		With("email", email).
		Errorf("Email already registered.")
}
