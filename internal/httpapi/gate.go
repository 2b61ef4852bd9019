// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package httpapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/taskmgmt/taskmgmt/internal/auth"
	"github.com/taskmgmt/taskmgmt/internal/logging"
	"github.com/taskmgmt/taskmgmt/pkg/errutil"
)

// DefaultAllowList is the set of paths reachable without a token.
// Entries containing '*' are glob patterns with '/' as separator; a pattern
// ending in "/**" also matches its bare prefix.
var DefaultAllowList = []string{
	"/",
	"/api/users/register",
	"/api/users/login",
	"/api/users/test",
	"/api/public/**",
}

const bearerScheme = "bearer"

// GateObserver is notified of every request the gate rejects.
type GateObserver interface {
	ObserveGateRejection(reason string)
}

// Gate rejects requests without a valid bearer token unless their path is allow-listed.
// It holds no per-request state.
type Gate struct {
	tokens   auth.TokenValidator
	exact    map[string]struct{}
	patterns []glob.Glob
	observer GateObserver
	logger   *slog.Logger
}

// NewGate compiles allowList. A nil allowList uses DefaultAllowList.
func NewGate(tokens auth.TokenValidator, allowList []string, observer GateObserver, logger *slog.Logger) (*Gate, error) {
	if tokens == nil {
		return nil, oops.Code("GATE_INVALID").Errorf("token validator is required")
	}
	if allowList == nil {
		allowList = DefaultAllowList
	}
	if logger == nil {
		logger = slog.Default()
	}

	g := &Gate{
		tokens:   tokens,
		exact:    make(map[string]struct{}),
		observer: observer,
		logger:   logger,
	}
	for _, entry := range allowList {
		if !strings.Contains(entry, "*") {
			g.exact[entry] = struct{}{}
			continue
		}
		compiled, err := glob.Compile(entry, '/')
		if err != nil {
			return nil, oops.Code("GATE_INVALID").With("pattern", entry).Wrap(err)
		}
		g.patterns = append(g.patterns, compiled)
		if prefix, ok := strings.CutSuffix(entry, "/**"); ok && !strings.Contains(prefix, "*") {
			g.exact[prefix] = struct{}{}
		}
	}
	return g, nil
}

// Allowed reports whether path bypasses token validation.
func (g *Gate) Allowed(path string) bool {
	if _, ok := g.exact[path]; ok {
		return true
	}
	for _, p := range g.patterns {
		if p.Match(path) {
			return true
		}
	}
	return false
}

// Authenticate resolves the subject of an Authorization header value.
func (g *Gate) Authenticate(header string) (string, error) {
	token, ok := bearerToken(header)
	if !ok {
		return "", oops.Code("AUTH_TOKEN_MISSING").Errorf("Missing or malformed bearer token.")
	}
	subject, err := g.tokens.Validate(token)
	if err != nil {
		return "", err //nolint:wrapcheck // already coded by the validator
	}
	return subject, nil
}

// Middleware returns the gin handler enforcing the gate. It must run before
// any route handler.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.Allowed(c.Request.URL.Path) {
			c.Next()
			return
		}

		subject, err := g.Authenticate(c.GetHeader("Authorization"))
		if err != nil {
			reason := strings.ToLower(strings.TrimPrefix(errutil.Code(err), "AUTH_"))
			if g.observer != nil {
				g.observer.ObserveGateRejection(reason)
			}
			g.logger.DebugContext(c.Request.Context(), "request rejected by gate",
				"path", c.Request.URL.Path,
				"reason", reason)
			c.Header("WWW-Authenticate", `Bearer realm="taskmgmt"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Code:    errutil.Code(err),
				Message: "Unauthorized",
			})
			return
		}

		ctx := auth.WithIdentity(c.Request.Context(), subject)
		ctx = logging.WithAttrs(ctx, slog.String("user", subject))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// bearerToken extracts the token from "Bearer <token>". The scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
