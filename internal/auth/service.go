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

// LoginOutcome labels the result of a login attempt for metrics.
type LoginOutcome string

// Login outcomes.
const (
	LoginSucceeded          LoginOutcome = "success"
	LoginUnknownAccount     LoginOutcome = "unknown_account"
	LoginLocked             LoginOutcome = "locked"
	LoginLockedOut          LoginOutcome = "locked_out"
	LoginInvalidPassword    LoginOutcome = "invalid_password"
	LoginInvalidCredentials LoginOutcome = "invalid_credentials"
	LoginFailed             LoginOutcome = "error"
)

// LoginObserver is notified of every login outcome.
type LoginObserver interface {
	ObserveLogin(outcome string)
}

// TokenSigner issues bearer tokens for an account email.
type TokenSigner interface {
	Issue(subject string) (string, error)
}

type noopObserver struct{}

func (noopObserver) ObserveLogin(string) {}

// Service registers accounts and decides logins.
//
// Login runs the lockout check, the lazy lock expiry, the password check and
// the counter update for one email under a per-email mutex, so concurrent
// attempts on the same account are counted one by one.
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher
	tokens   TokenSigner
	checker  CredentialChecker
	policy   LockoutPolicy
	now      func() time.Time
	logger   *slog.Logger
	observer LoginObserver
	locks    keyedMutex

	registrar *Registrar
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLockoutPolicy overrides DefaultLockoutPolicy.
func WithLockoutPolicy(policy LockoutPolicy) ServiceOption {
	return func(s *Service) { s.policy = policy }
}

// WithClock sets the time source used for lockout decisions.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithCredentialChecker replaces the default StoreCredentialChecker.
func WithCredentialChecker(checker CredentialChecker) ServiceOption {
	return func(s *Service) { s.checker = checker }
}

// WithLoginObserver registers an observer for login outcomes.
func WithLoginObserver(observer LoginObserver) ServiceOption {
	return func(s *Service) { s.observer = observer }
}

// NewService creates a Service.
func NewService(accounts AccountRepository, hasher PasswordHasher, tokens TokenSigner, opts ...ServiceOption) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token signer is required")
	}

	s := &Service{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		policy:   DefaultLockoutPolicy(),
		now:      time.Now,
		logger:   slog.Default(),
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("logger cannot be nil")
	}
	if s.observer == nil {
		s.observer = noopObserver{}
	}
	if err := s.policy.Validate(); err != nil {
		return nil, err
	}
	if s.checker == nil {
		checker := NewStoreCredentialChecker(accounts, hasher)
		checker.now = s.now
		s.checker = checker
	}
	s.registrar = &Registrar{accounts: accounts, hasher: hasher, now: s.now, logger: s.logger}
	return s, nil
}

// Policy returns the lockout policy in effect.
func (s *Service) Policy() LockoutPolicy {
	return s.policy
}

// Login authenticates email and password and returns a signed bearer token.
//
// Rejections carry these codes:
//   - AUTH_UNKNOWN_ACCOUNT: no account has the email
//   - AUTH_ACCOUNT_LOCKED: the account is locked, or this failure locked it
//   - AUTH_INVALID_PASSWORD: wrong password, attempts_remaining in context
//   - AUTH_INVALID_CREDENTIALS: the secondary credential check failed
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)

	account, err := s.decide(ctx, email, password)
	if err != nil {
		return "", err
	}

	if result := s.checker.Check(ctx, email, password); !result.Authenticated {
		s.logger.WarnContext(ctx, "secondary credential check rejected login",
			"account_id", account.ID,
			"reason", result.Reason)
		s.observe(LoginInvalidCredentials)
		return "", oops.Code("AUTH_INVALID_CREDENTIALS").
			With("reason", result.Reason).
			Errorf("Invalid credentials")
	}

	token, err := s.tokens.Issue(account.Email)
	if err != nil {
		s.observe(LoginFailed)
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			With("account_id", account.ID).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "account logged in", "account_id", account.ID)
	s.observe(LoginSucceeded)
	return token, nil
}

// decide applies the lockout policy and the password check, persisting every
// change to the security state before it returns.
func (s *Service) decide(ctx context.Context, email, password string) (*Account, error) {
	unlock := s.locks.Lock(email)
	defer unlock()

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.InfoContext(ctx, "login attempt for unknown account")
			s.observe(LoginUnknownAccount)
			return nil, oops.Code("AUTH_UNKNOWN_ACCOUNT").Errorf("No account found with that email.")
		}
		s.observe(LoginFailed)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}

	now := s.now()

	if account.IsLocked(now) {
		minutes := MinutesRemaining(*account.LockedUntil, now)
		s.observe(LoginLocked)
		return nil, oops.Code("AUTH_ACCOUNT_LOCKED").
			With("account_id", account.ID).
			With("minutes_remaining", minutes).
			Errorf("Account is locked. Please try again in %d minutes.", minutes)
	}

	if account.LockExpired(now) {
		account.ResetSecurityState(now)
		if err := s.persist(ctx, account, "clear expired lockout"); err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "expired lockout cleared", "account_id", account.ID)
	}

	valid, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		s.observe(LoginFailed)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("account_id", account.ID).
			Wrap(err)
	}

	if !valid {
		return nil, s.rejectPassword(ctx, account, now)
	}

	account.ResetSecurityState(now)
	if err := s.persist(ctx, account, "reset failed attempts"); err != nil {
		return nil, err
	}
	if s.hasher.NeedsUpgrade(account.PasswordHash) {
		s.upgradeHash(ctx, account, password, now)
	}
	return account, nil
}

// upgradeHash re-hashes a legacy hash. Failures are logged and the login proceeds.
func (s *Service) upgradeHash(ctx context.Context, account *Account, password string, now time.Time) {
	upgraded, err := s.hasher.Hash(password)
	if err == nil {
		err = s.accounts.UpgradePasswordHash(ctx, account.ID, account.PasswordHash, upgraded, now)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "password hash upgrade failed", "account_id", account.ID, "error", err)
		return
	}
	account.PasswordHash = upgraded
}

// rejectPassword counts a failed attempt, locking the account at the threshold.
func (s *Service) rejectPassword(ctx context.Context, account *Account, now time.Time) error {
	locked := account.RecordFailure(s.policy, now)
	if err := s.persist(ctx, account, "record failed attempt"); err != nil {
		return err
	}

	if locked {
		s.logger.WarnContext(ctx, "account locked after repeated failed logins",
			"account_id", account.ID,
			"email", account.Email,
			"failed_attempts", account.FailedAttempts,
			"locked_until", account.LockedUntil.UTC().Format(time.RFC3339))
		s.observe(LoginLockedOut)
		return oops.Code("AUTH_ACCOUNT_LOCKED").
			With("account_id", account.ID).
			With("minutes_remaining", MinutesRemaining(*account.LockedUntil, now)).
			Errorf("Account is locked due to multiple failed attempts. Please try again later.")
	}

	remaining := s.policy.AttemptsRemaining(account.FailedAttempts)
	s.logger.InfoContext(ctx, "invalid password",
		"account_id", account.ID,
		"failed_attempts", account.FailedAttempts,
		"attempts_remaining", remaining)
	s.observe(LoginInvalidPassword)
	return oops.Code("AUTH_INVALID_PASSWORD").
		With("account_id", account.ID).
		With("attempts_remaining", remaining).
		Errorf("Invalid password, you have %d attempts remaining. After %d failed attempts the account is locked for %d minutes.",
			remaining, s.policy.MaxFailedAttempts, int(s.policy.LockoutDuration.Minutes()))
}

// persist writes the security state only. Profile fields are never written here.
func (s *Service) persist(ctx context.Context, account *Account, operation string) error {
	if err := s.accounts.UpdateSecurityState(ctx, account); err != nil {
		s.observe(LoginFailed)
		return oops.Code("AUTH_LOGIN_FAILED").
			With("operation", operation).
			With("account_id", account.ID).
			Wrap(err)
	}
	return nil
}

func (s *Service) observe(outcome LoginOutcome) {
	s.observer.ObserveLogin(string(outcome))
}

// Register creates an account with a clean security state.
// Returns AUTH_EMAIL_TAKEN if the email is already registered.
func (s *Service) Register(ctx context.Context, email, username, password string) (*Account, error) {
	return s.registrar.Register(ctx, email, username, password)
}

