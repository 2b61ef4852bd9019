// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

// Package postgres implements auth.AccountRepository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/taskmgmt/taskmgmt/internal/auth"
	"github.com/taskmgmt/taskmgmt/internal/store"
)

const accountColumns = `id, email, username, password_hash, failed_attempts, locked_until, created_at, updated_at`

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db store.DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db store.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts account and sets its ID from the database.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO accounts (email, username, password_hash, failed_attempts, locked_until, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		account.Email,
		account.Username,
		account.PasswordHash,
		account.FailedAttempts,
		account.LockedUntil,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return oops.Code("ACCOUNT_DUPLICATE_EMAIL").
				With("email", account.Email).
				Wrap(auth.ErrDuplicateEmail)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("email", account.Email).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get account by id").
			With("id", id).
			Wrap(err)
	}
	return account, nil
}

// GetByEmail retrieves an account by email (case-insensitive).
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("email", email).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get account by email").
			With("email", email).
			Wrap(err)
	}
	return account, nil
}

// List returns all accounts ordered by ID.
func (r *AccountRepository) List(ctx context.Context) ([]*auth.Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").With("operation", "list accounts").Wrap(err)
	}
	defer rows.Close()

	accounts := make([]*auth.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, oops.Code("ACCOUNT_LIST_FAILED").With("operation", "scan account row").Wrap(err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").With("operation", "iterate accounts").Wrap(err)
	}
	return accounts, nil
}

// UpdateProfile writes username and password hash. The email and the
// security state are not written.
func (r *AccountRepository) UpdateProfile(ctx context.Context, account *auth.Account) error {
	result, err := r.db.Exec(ctx, `
		UPDATE accounts SET
			username = $2,
			password_hash = $3,
			updated_at = $4
		WHERE id = $1
	`,
		account.ID,
		account.Username,
		account.PasswordHash,
		account.UpdatedAt,
	)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update profile").
			With("id", account.ID).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", account.ID).Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdateSecurityState writes the failed attempt counter and the lock.
func (r *AccountRepository) UpdateSecurityState(ctx context.Context, account *auth.Account) error {
	result, err := r.db.Exec(ctx, `
		UPDATE accounts SET
			failed_attempts = $2,
			locked_until = $3,
			updated_at = $4
		WHERE id = $1
	`,
		account.ID,
		account.FailedAttempts,
		account.LockedUntil,
		account.UpdatedAt,
	)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update security state").
			With("id", account.ID).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", account.ID).Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpgradePasswordHash swaps oldHash for newHash. A hash changed in the
// meantime is left alone.
func (r *AccountRepository) UpgradePasswordHash(ctx context.Context, id int64, oldHash, newHash string, updatedAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE accounts SET password_hash = $3, updated_at = $4
		WHERE id = $1 AND password_hash = $2
	`, id, oldHash, newHash, updatedAt)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "upgrade password hash").
			With("id", id).
			Wrap(err)
	}
	return nil
}

// Delete removes an account. Its tasks go with it through ON DELETE CASCADE.
func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("operation", "delete account").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanAccount scans one row. pgx.ErrNoRows is returned unchanged.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		account     auth.Account
		lockedUntil *time.Time
	)
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Username,
		&account.PasswordHash,
		&account.FailedAttempts,
		&lockedUntil,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers add context
	}
	account.LockedUntil = lockedUntil
	return &account, nil
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
