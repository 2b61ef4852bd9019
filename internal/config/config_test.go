// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmgmt/taskmgmt/internal/config"
	"github.com/taskmgmt/taskmgmt/pkg/errutil"
)

const secret = "0123456789abcdef0123456789abcdef"

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	fs := newFlags(t, "--store", "memory", "--jwt-secret", secret)

	cfg, err := config.Load(fs, config.LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, config.DefaultHTTPAddr, cfg.HTTP.Addr)
	assert.Equal(t, config.DefaultMetricsAddr, cfg.Metrics.Addr)
	assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 10*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "taskmgmt", cfg.Auth.Issuer)
	assert.Equal(t, 3, cfg.Auth.MaxFailedAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutDuration)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "release", cfg.Gin.Mode)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "taskmgmt.yaml", `
http:
  addr: ":9090"
store:
  driver: memory
auth:
  jwt_secret: "`+secret+`"
  max_failed_attempts: 5
  lockout_duration: 30m
log:
  format: text
`)

	t.Run("file overrides defaults", func(t *testing.T) {
		cfg, err := config.Load(newFlags(t), config.LoadOptions{ConfigFile: path})
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.HTTP.Addr)
		assert.Equal(t, 5, cfg.Auth.MaxFailedAttempts)
		assert.Equal(t, 30*time.Minute, cfg.Auth.LockoutDuration)
		assert.Equal(t, "text", cfg.Log.Format)
		assert.Equal(t, config.DefaultMetricsAddr, cfg.Metrics.Addr)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("TASKMGMT_AUTH_MAX_FAILED_ATTEMPTS", "7")
		t.Setenv("TASKMGMT_HTTP_ADDR", ":7070")

		cfg, err := config.Load(newFlags(t), config.LoadOptions{ConfigFile: path})
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.Auth.MaxFailedAttempts)
		assert.Equal(t, ":7070", cfg.HTTP.Addr)
	})

	t.Run("explicit flags override environment", func(t *testing.T) {
		t.Setenv("TASKMGMT_HTTP_ADDR", ":7070")

		cfg, err := config.Load(newFlags(t, "--http-addr", ":6060"), config.LoadOptions{ConfigFile: path})
		require.NoError(t, err)
		assert.Equal(t, ":6060", cfg.HTTP.Addr)
	})
}

func TestLoad_DatabaseURL(t *testing.T) {
	t.Run("DATABASE_URL is honoured", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://app@localhost/tasks")

		cfg, err := config.Load(newFlags(t, "--jwt-secret", secret), config.LoadOptions{})
		require.NoError(t, err)
		assert.Equal(t, "postgres://app@localhost/tasks", cfg.Database.URL)
	})

	t.Run("prefixed variable wins", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://app@localhost/tasks")
		t.Setenv("TASKMGMT_DATABASE_URL", "postgres://app@db/other")

		cfg, err := config.Load(newFlags(t, "--jwt-secret", secret), config.LoadOptions{})
		require.NoError(t, err)
		assert.Equal(t, "postgres://app@db/other", cfg.Database.URL)
	})
}

func TestLoad_EnvFile(t *testing.T) {
	path := writeFile(t, "test.env", "TASKMGMT_AUTH_JWT_SECRET="+secret+"\nTASKMGMT_STORE_DRIVER=memory\nTASKMGMT_CORS_ALLOWED_ORIGINS=http://a.test, http://b.test\n")
	t.Cleanup(func() {
		_ = os.Unsetenv("TASKMGMT_AUTH_JWT_SECRET")
		_ = os.Unsetenv("TASKMGMT_STORE_DRIVER")
		_ = os.Unsetenv("TASKMGMT_CORS_ALLOWED_ORIGINS")
	})

	cfg, err := config.Load(newFlags(t), config.LoadOptions{EnvFile: path})
	require.NoError(t, err)
	assert.Equal(t, secret, cfg.Auth.JWTSecret)
	assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing explicit env file", func(t *testing.T) {
		_, err := config.Load(newFlags(t), config.LoadOptions{EnvFile: filepath.Join(t.TempDir(), "nope.env")})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
	})

	t.Run("missing default env file is ignored", func(t *testing.T) {
		t.Chdir(t.TempDir())
		_, err := config.Load(newFlags(t, "--store", "memory", "--jwt-secret", secret),
			config.LoadOptions{EnvFile: config.DefaultEnvFile})
		require.NoError(t, err)
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := config.Load(newFlags(t), config.LoadOptions{ConfigFile: "/nonexistent/taskmgmt.yaml"})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "http: [unclosed")
		_, err := config.Load(newFlags(t), config.LoadOptions{ConfigFile: path})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			HTTP:     config.HTTPConfig{Addr: ":8080"},
			Database: config.DatabaseConfig{URL: "postgres://localhost/tasks"},
			Store:    config.StoreConfig{Driver: config.DriverPostgres},
			Auth: config.AuthConfig{
				JWTSecret:         secret,
				TokenTTL:          time.Hour,
				MaxFailedAttempts: 3,
				LockoutDuration:   15 * time.Minute,
			},
			Log: config.LogConfig{Format: "json"},
			Gin: config.GinConfig{Mode: "release"},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *config.Config)
		key    string
	}{
		{"postgres without url", func(c *config.Config) { c.Database.URL = "" }, "database.url"},
		{"unknown driver", func(c *config.Config) { c.Store.Driver = "sqlite" }, "store.driver"},
		{"missing secret", func(c *config.Config) { c.Auth.JWTSecret = "" }, "auth.jwt_secret"},
		{"short secret", func(c *config.Config) { c.Auth.JWTSecret = "short" }, "auth.jwt_secret"},
		{"zero ttl", func(c *config.Config) { c.Auth.TokenTTL = 0 }, "auth.token_ttl"},
		{"zero attempts", func(c *config.Config) { c.Auth.MaxFailedAttempts = 0 }, "auth.max_failed_attempts"},
		{"negative lockout", func(c *config.Config) { c.Auth.LockoutDuration = -time.Minute }, "auth.lockout_duration"},
		{"empty http addr", func(c *config.Config) { c.HTTP.Addr = "" }, "http.addr"},
		{"bad log format", func(c *config.Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad gin mode", func(c *config.Config) { c.Gin.Mode = "prod" }, "gin.mode"},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			errutil.AssertErrorContext(t, err, "key", tt.key)
		})
	}

	t.Run("memory store needs no url", func(t *testing.T) {
		cfg := valid()
		cfg.Store.Driver = config.DriverMemory
		cfg.Database.URL = ""
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfig_Redacted(t *testing.T) {
	cfg := config.Config{
		Database: config.DatabaseConfig{URL: "postgres://app:hunter2@db:5432/tasks"},
		Auth:     config.AuthConfig{JWTSecret: secret},
	}

	r := cfg.Redacted()
	assert.Equal(t, "[redacted]", r.Auth.JWTSecret)
	assert.Equal(t, "postgres://app:[redacted]@db:5432/tasks", r.Database.URL)
	assert.Equal(t, secret, cfg.Auth.JWTSecret, "original untouched")
}

func TestRead_SkipsValidation(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	fs := newFlags(t)

	cfg, err := config.Read(fs, config.LoadOptions{})
	require.NoError(t, err, "a missing jwt secret is fine for maintenance commands")
	assert.Empty(t, cfg.Auth.JWTSecret)

	err = cfg.RequireDatabase()
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	errutil.AssertErrorContext(t, err, "key", "database.url")

	fs = newFlags(t, "--database-url", "postgres://u:p@localhost/db")
	cfg, err = config.Read(fs, config.LoadOptions{})
	require.NoError(t, err)
	assert.NoError(t, cfg.RequireDatabase())
}
