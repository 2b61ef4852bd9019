// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

// Package config loads server configuration from flags, a YAML file and the environment.
//
// Precedence, lowest first: flag defaults, the YAML file, DATABASE_URL,
// TASKMGMT_* environment variables (optionally seeded from a .env file), and
// flags set explicitly on the command line.
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TASKMGMT_"

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Defaults.
const (
	DefaultHTTPAddr          = ":8080"
	DefaultMetricsAddr       = "127.0.0.1:9100"
	DefaultDriver            = DriverPostgres
	DefaultTokenTTL          = 10 * time.Hour
	DefaultIssuer            = "taskmgmt"
	DefaultMaxFailedAttempts = 3
	DefaultLockoutDuration   = 15 * time.Minute
	DefaultLogFormat         = "json"
	DefaultGinMode           = "release"
	DefaultEnvFile           = ".env"

	minSecretLength = 32
)

// Config is the full server configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Store    StoreConfig    `koanf:"store"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
	Gin      GinConfig      `koanf:"gin"`
	CORS     CORSConfig     `koanf:"cors"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// MetricsConfig configures the metrics and health listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL      string `koanf:"url"`
	MaxConns int32  `koanf:"max_conns"`
	// AutoMigrate applies pending migrations when serve starts.
	AutoMigrate bool `koanf:"auto_migrate"`
}

// StoreConfig selects the persistence driver.
type StoreConfig struct {
	Driver string `koanf:"driver"`
}

// AuthConfig configures tokens and the lockout policy.
type AuthConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	TokenTTL          time.Duration `koanf:"token_ttl"`
	Issuer            string        `koanf:"issuer"`
	MaxFailedAttempts int           `koanf:"max_failed_attempts"`
	LockoutDuration   time.Duration `koanf:"lockout_duration"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Format string `koanf:"format"`
}

// GinConfig configures the router.
type GinConfig struct {
	Mode string `koanf:"mode"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"http-addr":            "http.addr",
	"metrics-addr":         "metrics.addr",
	"database-url":         "database.url",
	"database-max-conns":   "database.max_conns",
	"auto-migrate":         "database.auto_migrate",
	"store":                "store.driver",
	"jwt-secret":           "auth.jwt_secret",
	"token-ttl":            "auth.token_ttl",
	"token-issuer":         "auth.issuer",
	"max-failed-attempts":  "auth.max_failed_attempts",
	"lockout-duration":     "auth.lockout_duration",
	"log-format":           "log.format",
	"gin-mode":             "gin.mode",
	"cors-allowed-origins": "cors.allowed_origins",
}

// RegisterFlags adds every configuration flag, with its default, to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", DefaultHTTPAddr, "API listen address")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.Int32("database-max-conns", 0, "maximum pool connections (0 = pgx default)")
	fs.Bool("auto-migrate", true, "apply pending migrations on startup")
	fs.String("store", DefaultDriver, "store driver (postgres or memory)")
	fs.String("jwt-secret", "", "HS256 signing secret, at least 32 bytes")
	fs.Duration("token-ttl", DefaultTokenTTL, "bearer token lifetime")
	fs.String("token-issuer", DefaultIssuer, "token iss claim")
	fs.Int("max-failed-attempts", DefaultMaxFailedAttempts, "failed logins before lockout")
	fs.Duration("lockout-duration", DefaultLockoutDuration, "account lockout duration")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("gin-mode", DefaultGinMode, "gin mode (debug, release or test)")
	fs.StringSlice("cors-allowed-origins", nil, "origins allowed for CORS requests")
}

// LoadOptions names the optional files read by Load.
type LoadOptions struct {
	// ConfigFile is a YAML file. Empty skips it.
	ConfigFile string
	// EnvFile is loaded into the process environment with godotenv.
	// A missing DefaultEnvFile is ignored; any other missing file is an error.
	EnvFile string
}

// Load builds a validated Config. fs must have been prepared with RegisterFlags.
func Load(fs *pflag.FlagSet, opts LoadOptions) (*Config, error) {
	cfg, err := Read(fs, opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read merges every source like Load but skips Validate. Maintenance commands
// use it and check only the keys they need.
func Read(fs *pflag.FlagSet, opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if opts.ConfigFile != "" {
		if err := k.Load(file.Provider(opts.ConfigFile), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("file", opts.ConfigFile).
				Wrap(err)
		}
	}

	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider("DATABASE_URL", ".", func(key string) string {
		if key != "DATABASE_URL" {
			return ""
		}
		return "database.url"
	}), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "DATABASE_URL").Wrap(err)
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "environment").Wrap(err)
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "unmarshal").Wrap(err)
	}
	return cfg, nil
}

// envValue maps TASKMGMT_AUTH_JWT_SECRET to auth.jwt_secret. Only the first
// underscore after the prefix separates the section from the key.
func envValue(key, value string) (string, interface{}) {
	name := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, rest, ok := strings.Cut(name, "_")
	if !ok || rest == "" {
		return "", nil
	}
	if section == "cors" && rest == "allowed_origins" {
		return section + "." + rest, splitList(value)
	}
	return section + "." + rest, value
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if path == DefaultEnvFile && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return oops.Code("CONFIG_LOAD_FAILED").With("env_file", path).Wrap(err)
	}
	return nil
}

// Validate checks that the configuration can start a server.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return oops.Code("CONFIG_INVALID").
				With("key", "database.url").
				Errorf("database url is required for the %s store (set DATABASE_URL)", DriverPostgres)
		}
	case DriverMemory:
	default:
		return oops.Code("CONFIG_INVALID").
			With("key", "store.driver").
			Errorf("store driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Store.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return oops.Code("CONFIG_INVALID").With("key", "auth.jwt_secret").Errorf("jwt secret is required")
	}
	if len(c.Auth.JWTSecret) < minSecretLength {
		return oops.Code("CONFIG_INVALID").
			With("key", "auth.jwt_secret").
			Errorf("jwt secret must be at least %d bytes", minSecretLength)
	}
	if c.Auth.TokenTTL <= 0 {
		return oops.Code("CONFIG_INVALID").With("key", "auth.token_ttl").Errorf("token ttl must be positive")
	}
	if c.Auth.MaxFailedAttempts <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("key", "auth.max_failed_attempts").
			Errorf("max failed attempts must be positive")
	}
	if c.Auth.LockoutDuration <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("key", "auth.lockout_duration").
			Errorf("lockout duration must be positive")
	}
	if c.HTTP.Addr == "" {
		return oops.Code("CONFIG_INVALID").With("key", "http.addr").Errorf("http addr is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("key", "log.format").
			Errorf("log format must be 'json' or 'text', got %q", c.Log.Format)
	}
	switch c.Gin.Mode {
	case "debug", "release", "test":
	default:
		return oops.Code("CONFIG_INVALID").
			With("key", "gin.mode").
			Errorf("gin mode must be debug, release or test, got %q", c.Gin.Mode)
	}
	return nil
}

// RequireDatabase checks that a database url is configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			With("key", "database.url").
			Errorf("database url is required (set DATABASE_URL or --database-url)")
	}
	return nil
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.Auth.JWTSecret != "" {
		c.Auth.JWTSecret = "[redacted]"
	}
	if c.Database.URL != "" {
		c.Database.URL = redactURL(c.Database.URL)
	}
	return c
}

func redactURL(raw string) string {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return "[redacted]"
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return raw
	}
	user, _, _ := strings.Cut(creds, ":")
	return scheme + "://" + user + ":[redacted]@" + host
}
