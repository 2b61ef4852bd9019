// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

// Package memstore is an in-memory account and task store for development and tests.
// Values are copied on the way in and out, so callers never share state with the store.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/taskmgmt/taskmgmt/internal/auth"
	"github.com/taskmgmt/taskmgmt/internal/task"
)

// Store holds accounts and tasks behind a single lock.
type Store struct {
	mu            sync.RWMutex
	accounts      map[int64]*auth.Account
	tasks         map[int64]*task.Task
	nextAccountID int64
	nextTaskID    int64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[int64]*auth.Account),
		tasks:    make(map[int64]*task.Task),
	}
}

// Accounts returns the account repository view of the store.
func (s *Store) Accounts() *AccountRepository {
	return &AccountRepository{s: s}
}

// Tasks returns the task repository view of the store.
func (s *Store) Tasks() *TaskRepository {
	return &TaskRepository{s: s}
}

// AccountRepository implements auth.AccountRepository in memory.
type AccountRepository struct {
	s *Store
}

// Create stores account and assigns its ID.
func (r *AccountRepository) Create(_ context.Context, account *auth.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := strings.ToLower(account.Email)
	for _, existing := range r.s.accounts {
		if strings.ToLower(existing.Email) == email {
			return oops.Code("ACCOUNT_DUPLICATE_EMAIL").With("email", account.Email).Wrap(auth.ErrDuplicateEmail)
		}
	}

	r.s.nextAccountID++
	account.ID = r.s.nextAccountID
	r.s.accounts[account.ID] = copyAccount(account)
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(_ context.Context, id int64) (*auth.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	account, ok := r.s.accounts[id]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	return copyAccount(account), nil
}

// GetByEmail retrieves an account by email, case-insensitively.
func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*auth.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, account := range r.s.accounts {
		if strings.ToLower(account.Email) == email {
			return copyAccount(account), nil
		}
	}
	return nil, oops.Code("ACCOUNT_NOT_FOUND").With("email", email).Wrap(auth.ErrNotFound)
}

// List returns all accounts ordered by ID.
func (r *AccountRepository) List(_ context.Context) ([]*auth.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	accounts := make([]*auth.Account, 0, len(r.s.accounts))
	for _, account := range r.s.accounts {
		accounts = append(accounts, copyAccount(account))
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

// UpdateProfile writes username and password hash, keeping the stored security state.
func (r *AccountRepository) UpdateProfile(_ context.Context, account *auth.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.accounts[account.ID]
	if !ok {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", account.ID).Wrap(auth.ErrNotFound)
	}
	stored.Username = account.Username
	stored.PasswordHash = account.PasswordHash
	stored.UpdatedAt = account.UpdatedAt
	return nil
}

// UpdateSecurityState writes the failed attempt counter and the lock.
func (r *AccountRepository) UpdateSecurityState(_ context.Context, account *auth.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.accounts[account.ID]
	if !ok {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", account.ID).Wrap(auth.ErrNotFound)
	}
	stored.FailedAttempts = account.FailedAttempts
	stored.LockedUntil = copyTime(account.LockedUntil)
	stored.UpdatedAt = account.UpdatedAt
	return nil
}

// UpgradePasswordHash swaps oldHash for newHash if it is still the stored hash.
func (r *AccountRepository) UpgradePasswordHash(_ context.Context, id int64, oldHash, newHash string, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if stored, ok := r.s.accounts[id]; ok && stored.PasswordHash == oldHash {
		stored.PasswordHash = newHash
		stored.UpdatedAt = updatedAt
	}
	return nil
}

// Delete removes an account and every task it owns.
func (r *AccountRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[id]; !ok {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	delete(r.s.accounts, id)
	for taskID, t := range r.s.tasks {
		if t.UserID == id {
			delete(r.s.tasks, taskID)
		}
	}
	return nil
}

// TaskRepository implements task.Repository in memory.
type TaskRepository struct {
	s *Store
}

// Create stores t and assigns its ID. The owner must exist.
func (r *TaskRepository) Create(_ context.Context, t *task.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[t.UserID]; !ok {
		return oops.Code("TASK_INVALID_OWNER").With("user_id", t.UserID).Errorf("owner %d does not exist", t.UserID)
	}

	r.s.nextTaskID++
	t.ID = r.s.nextTaskID
	r.s.tasks[t.ID] = copyTask(t)
	return nil
}

// Get retrieves a task by ID.
func (r *TaskRepository) Get(_ context.Context, id int64) (*task.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, oops.Code("TASK_NOT_FOUND").With("task_id", id).Wrap(task.ErrNotFound)
	}
	return copyTask(t), nil
}

// ListByUser returns the tasks of userID ordered by ID.
func (r *TaskRepository) ListByUser(_ context.Context, userID int64) ([]*task.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tasks := make([]*task.Task, 0)
	for _, t := range r.s.tasks {
		if t.UserID == userID {
			tasks = append(tasks, copyTask(t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// Update replaces the stored task.
func (r *TaskRepository) Update(_ context.Context, t *task.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[t.ID]; !ok {
		return oops.Code("TASK_NOT_FOUND").With("task_id", t.ID).Wrap(task.ErrNotFound)
	}
	r.s.tasks[t.ID] = copyTask(t)
	return nil
}

// Delete removes a task.
func (r *TaskRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return oops.Code("TASK_NOT_FOUND").With("task_id", id).Wrap(task.ErrNotFound)
	}
	delete(r.s.tasks, id)
	return nil
}

func copyAccount(a *auth.Account) *auth.Account {
	c := *a
	c.LockedUntil = copyTime(a.LockedUntil)
	return &c
}

func copyTask(t *task.Task) *task.Task {
	c := *t
	c.DueDate = copyTime(t.DueDate)
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Compile-time interface checks.
var (
	_ auth.AccountRepository = (*AccountRepository)(nil)
	_ task.Repository        = (*TaskRepository)(nil)
)
