// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// AccountService serves the user resource endpoints.
type AccountService struct {
	accounts AccountRepository
	hasher   PasswordHasher
	now      func() time.Time
}

// NewAccountService creates a new AccountService.
func NewAccountService(accounts AccountRepository, hasher PasswordHasher) *AccountService {
	return &AccountService{accounts: accounts, hasher: hasher, now: time.Now}
}

// List returns every account.
func (s *AccountService) List(ctx context.Context) ([]*Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").Wrap(err)
	}
	return accounts, nil
}

// Get returns the account with id.
func (s *AccountService) Get(ctx context.Context, id int64) (*Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, "id", id)
	}
	return account, nil
}

// GetByEmail returns the account registered under email.
func (s *AccountService) GetByEmail(ctx context.Context, email string) (*Account, error) {
	account, err := s.accounts.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, s.lookupError(err, "email", email)
	}
	return account, nil
}

// UpdateProfile changes the username and, when password is non-empty, the
// password of account id. Only the owner (actorEmail) may update an account.
func (s *AccountService) UpdateProfile(ctx context.Context, actorEmail string, id int64, username, password string) (*Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, "id", id)
	}

	if NormalizeEmail(actorEmail) != account.Email {
		return nil, oops.Code("AUTH_FORBIDDEN").
			With("account_id", id).
			Errorf("You can only update your own profile.")
	}

	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	account.Username = username

	if password != "" {
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return nil, oops.Code("ACCOUNT_UPDATE_FAILED").
				With("operation", "hash password").
				With("account_id", id).
				Wrap(err)
		}
		account.PasswordHash = hash
	}
	account.UpdatedAt = s.now()

	// Only profile columns are written, so a lockout recorded since the read survives.
	if err := s.accounts.UpdateProfile(ctx, account); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, s.lookupError(err, "id", id)
		}
		return nil, oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update account").
			With("account_id", id).
			Wrap(err)
	}
	return account, nil
}

// Delete removes account id together with its tasks.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return s.lookupError(err, "id", id)
		}
		return oops.Code("ACCOUNT_DELETE_FAILED").With("account_id", id).Wrap(err)
	}
	return nil
}

func (s *AccountService) lookupError(err error, key string, value any) error {
	if errors.Is(err, ErrNotFound) {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With(key, value).
			Errorf("User not found.")
	}
	return oops.Code("ACCOUNT_LOOKUP_FAILED").With(key, value).Wrap(err)
}
