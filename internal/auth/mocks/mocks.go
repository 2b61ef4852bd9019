// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/taskmgmt/taskmgmt/internal/auth"
)

// MockAccountRepository is a mock of auth.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

// NewMockAccountRepository creates a MockAccountRepository whose expectations
// are asserted when the test finishes.
func NewMockAccountRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockAccountRepository {
	m := &MockAccountRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAccountRepository) Create(ctx context.Context, account *auth.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*auth.Account, error) {
	args := m.Called(ctx, id)
	return accountArg(args, 0), args.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	args := m.Called(ctx, email)
	return accountArg(args, 0), args.Error(1)
}

func (m *MockAccountRepository) List(ctx context.Context) ([]*auth.Account, error) {
	args := m.Called(ctx)
	var accounts []*auth.Account
	if v := args.Get(0); v != nil {
		accounts = v.([]*auth.Account)
	}
	return accounts, args.Error(1)
}

func (m *MockAccountRepository) UpdateProfile(ctx context.Context, account *auth.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateSecurityState(ctx context.Context, account *auth.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpgradePasswordHash(ctx context.Context, id int64, oldHash, newHash string, updatedAt time.Time) error {
	args := m.Called(ctx, id, oldHash, newHash, updatedAt)
	return args.Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func accountArg(args mock.Arguments, i int) *auth.Account {
	if v := args.Get(i); v != nil {
		return v.(*auth.Account)
	}
	return nil
}

// MockPasswordHasher is a mock of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

func (m *MockPasswordHasher) NeedsUpgrade(hash string) bool {
	args := m.Called(hash)
	return args.Bool(0)
}

// MockTokenSigner is a mock of auth.TokenSigner.
type MockTokenSigner struct {
	mock.Mock
}

// NewMockTokenSigner creates a MockTokenSigner.
func NewMockTokenSigner(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockTokenSigner {
	m := &MockTokenSigner{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTokenSigner) Issue(subject string) (string, error) {
	args := m.Called(subject)
	return args.String(0), args.Error(1)
}

// MockTokenValidator is a mock of auth.TokenValidator.
type MockTokenValidator struct {
	mock.Mock
}

// NewMockTokenValidator creates a MockTokenValidator.
func NewMockTokenValidator(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockTokenValidator {
	m := &MockTokenValidator{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTokenValidator) Validate(raw string) (string, error) {
	args := m.Called(raw)
	return args.String(0), args.Error(1)
}

// MockCredentialChecker is a mock of auth.CredentialChecker.
type MockCredentialChecker struct {
	mock.Mock
}

// NewMockCredentialChecker creates a MockCredentialChecker.
func NewMockCredentialChecker(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockCredentialChecker {
	m := &MockCredentialChecker{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCredentialChecker) Check(ctx context.Context, email, password string) auth.CheckResult {
	args := m.Called(ctx, email, password)
	return args.Get(0).(auth.CheckResult)
}

// Compile-time interface checks.
var (
	_ auth.AccountRepository = (*MockAccountRepository)(nil)
	_ auth.PasswordHasher    = (*MockPasswordHasher)(nil)
	_ auth.TokenSigner       = (*MockTokenSigner)(nil)
	_ auth.TokenValidator    = (*MockTokenValidator)(nil)
	_ auth.CredentialChecker = (*MockCredentialChecker)(nil)
)
