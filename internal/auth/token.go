// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token configuration.
const (
	// DefaultTokenTTL is the lifetime of an issued bearer token.
	DefaultTokenTTL = 10 * time.Hour

	// MinSecretLength is the minimum HS256 secret size in bytes.
	MinSecretLength = 32

	// DefaultIssuer is the iss claim written into tokens.
	DefaultIssuer = "taskmgmt"
)

// TokenValidator resolves the subject of a bearer token.
type TokenValidator interface {
	// Validate returns the subject email of a valid token.
	Validate(raw string) (string, error)
}

// TokenIssuer creates and validates HS256 bearer tokens whose subject is the account email.
// A TokenIssuer holds no mutable state and is safe for concurrent use.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// TokenOption configures a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithTokenTTL overrides DefaultTokenTTL.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(t *TokenIssuer) { t.ttl = ttl }
}

// WithIssuer overrides DefaultIssuer.
func WithIssuer(issuer string) TokenOption {
	return func(t *TokenIssuer) { t.issuer = issuer }
}

// WithTokenClock sets the clock used for iat/exp and for expiry checks.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) { t.now = now }
}

// NewTokenIssuer creates a TokenIssuer signing with secret.
func NewTokenIssuer(secret []byte, opts ...TokenOption) (*TokenIssuer, error) {
	if len(secret) < MinSecretLength {
		return nil, oops.Code("AUTH_INVALID_SECRET").
			With("min", MinSecretLength).
			Errorf("token secret must be at least %d bytes", MinSecretLength)
	}

	t := &TokenIssuer{
		secret: append([]byte(nil), secret...),
		ttl:    DefaultTokenTTL,
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.ttl <= 0 {
		return nil, oops.Code("AUTH_INVALID_TTL").Errorf("token ttl must be positive")
	}
	return t, nil
}

// Issue signs a token for subject.
func (t *TokenIssuer) Issue(subject string) (string, error) {
	if subject == "" {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").Errorf("token subject cannot be empty")
	}

	now := t.now()
	claims := jwt.RegisteredClaims{
		ID:        ulid.Make().String(),
		Issuer:    t.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").Wrap(err)
	}
	return signed, nil
}

// Validate verifies signature, algorithm, issuer and expiry and returns the subject.
// Any failure yields AUTH_TOKEN_INVALID (or AUTH_TOKEN_EXPIRED), never another identity.
func (t *TokenIssuer) Validate(raw string) (string, error) {
	if raw == "" {
		return "", oops.Code("AUTH_TOKEN_INVALID").Errorf("token is empty")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, oops.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", oops.Code("AUTH_TOKEN_EXPIRED").Errorf("token has expired")
		}
		return "", oops.Code("AUTH_TOKEN_INVALID").With("reason", err.Error()).Errorf("token is invalid")
	}
	if !token.Valid || claims.Subject == "" {
		return "", oops.Code("AUTH_TOKEN_INVALID").Errorf("token is invalid")
	}
	return claims.Subject, nil
}

// Compile-time interface check.
var _ TokenValidator = (*TokenIssuer)(nil)
