// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/taskmgmt/taskmgmt/internal/auth"
	"github.com/taskmgmt/taskmgmt/internal/config"
	"github.com/taskmgmt/taskmgmt/internal/httpapi"
	"github.com/taskmgmt/taskmgmt/internal/logging"
	"github.com/taskmgmt/taskmgmt/internal/observability"
	"github.com/taskmgmt/taskmgmt/internal/task"
)

const (
	serviceName     = "taskmgmt"
	shutdownTimeout = 5 * time.Second
)

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// HTTPServer wraps the methods used from httpapi.Server.
type HTTPServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// ServeDeps contains injectable dependencies for the serve command.
// Nil fields use their default implementations.
type ServeDeps struct {
	// BackendOpener connects the store. Default: openBackend.
	BackendOpener func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error)

	// ObservabilityServerFactory creates the metrics server. Default: observability.NewServer.
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker) ObservabilityServer

	// HTTPServerFactory creates the API server. Default: httpapi.NewServer.
	HTTPServerFactory func(addr string, handler *gin.Engine, logger *slog.Logger) HTTPServer

	// Logger overrides the logger built from the config.
	Logger *slog.Logger

	// Started is called once both servers accept connections.
	Started func(api HTTPServer)
}

func (d *ServeDeps) defaults() {
	if d.BackendOpener == nil {
		d.BackendOpener = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
			return openBackend(ctx, cfg, logger, nil)
		}
	}
	if d.ObservabilityServerFactory == nil {
		d.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, ready)
		}
	}
	if d.HTTPServerFactory == nil {
		d.HTTPServerFactory = func(addr string, handler *gin.Engine, logger *slog.Logger) HTTPServer {
			return httpapi.NewServer(addr, handler, logger)
		}
	}
}

func newServeCmd(root *rootOptions, deps *ServeDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API and, unless --metrics-addr is empty, the metrics and
health server. Runs until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags(), root.loadOptions())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, deps)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// runServe wires the services and blocks until a signal arrives, ctx ends or
// a server fails.
func runServe(ctx context.Context, cfg *config.Config, deps *ServeDeps) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if deps == nil {
		deps = &ServeDeps{}
	}
	deps.defaults()

	logger := deps.Logger
	if logger == nil {
		logger = logging.SetDefault(serviceName, version, cfg.Log.Format)
	}
	gin.SetMode(cfg.Gin.Mode)

	logger.Info("starting taskmgmt",
		"version", version,
		"store", cfg.Store.Driver,
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"database_url", cfg.Redacted().Database.URL)

	be, err := deps.BackendOpener(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ready atomic.Bool
	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, func() bool {
			return ready.Load() && be.ready()
		})
		metrics = obsServer.Metrics()
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return err
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability", logger)
	}

	stop := func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if obsServer != nil {
			if err := obsServer.Stop(shutdownCtx); err != nil {
				logger.Warn("error stopping observability server", "error", err)
			}
		}
	}

	router, err := newRouter(cfg, be, metrics, logger)
	if err != nil {
		stop()
		return err
	}

	apiServer := deps.HTTPServerFactory(cfg.HTTP.Addr, router, logger)
	apiErrCh, err := apiServer.Start()
	if err != nil {
		stop()
		return err
	}
	go monitorServerErrors(ctx, cancel, apiErrCh, "http", logger)
	ready.Store(true)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("taskmgmt ready", "http_addr", apiServer.Addr())
	if deps.Started != nil {
		deps.Started(apiServer)
	}

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	ready.Store(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", "error", err)
	}
	stop()

	logger.Info("shutdown complete")
	return nil
}

func newRouter(cfg *config.Config, be *backend, metrics *observability.Metrics, logger *slog.Logger) (*gin.Engine, error) {
	tokens, err := auth.NewTokenIssuer([]byte(cfg.Auth.JWTSecret),
		auth.WithTokenTTL(cfg.Auth.TokenTTL),
		auth.WithIssuer(cfg.Auth.Issuer))
	if err != nil {
		return nil, oops.With("operation", "create token issuer").Wrap(err)
	}

	hasher := auth.NewArgon2idHasher()
	opts := []auth.ServiceOption{
		auth.WithLockoutPolicy(auth.LockoutPolicy{
			MaxFailedAttempts: cfg.Auth.MaxFailedAttempts,
			LockoutDuration:   cfg.Auth.LockoutDuration,
		}),
		auth.WithLogger(logger),
	}
	if metrics != nil {
		opts = append(opts, auth.WithLoginObserver(metrics))
	}
	authSvc, err := auth.NewService(be.accounts, hasher, tokens, opts...)
	if err != nil {
		return nil, err
	}

	return httpapi.NewRouter(httpapi.Deps{
		Auth:        authSvc,
		Accounts:    auth.NewAccountService(be.accounts, hasher),
		Tasks:       task.NewService(be.tasks, be.accounts),
		Tokens:      tokens,
		Metrics:     metrics,
		Logger:      logger,
		CORSOrigins: cfg.CORS.AllowedOrigins,
	})
}

// monitorServerErrors cancels ctx when errCh reports a serve failure. It
// returns once errCh closes or ctx ends.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown", "server", serverName, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
