// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

// Package httpapi is the HTTP surface of the service: a gin router whose
// middleware pipeline runs the token gate before every handler.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/taskmgmt/taskmgmt/internal/auth"
	"github.com/taskmgmt/taskmgmt/internal/observability"
	"github.com/taskmgmt/taskmgmt/internal/task"
)

// Deps are the services the router dispatches to.
type Deps struct {
	Auth     *auth.Service
	Accounts *auth.AccountService
	Tasks    *task.Service
	Tokens   auth.TokenValidator

	// Metrics is optional.
	Metrics *observability.Metrics
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// AllowList defaults to DefaultAllowList.
	AllowList []string
	// CORSOrigins enables CORS for the listed origins when non-empty.
	CORSOrigins []string
}

type handlers struct {
	auth     *auth.Service
	accounts *auth.AccountService
	tasks    *task.Service
	logger   *slog.Logger
}

// NewRouter builds the engine. Middleware order is fixed: request id,
// access log, panic recovery, CORS, token gate, then the route handler.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.Auth == nil || deps.Accounts == nil || deps.Tasks == nil {
		return nil, oops.Code("HTTPAPI_INVALID").Errorf("auth, account and task services are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		gateObserver    GateObserver
		requestObserver RequestObserver
	)
	if deps.Metrics != nil {
		gateObserver = deps.Metrics
		requestObserver = deps.Metrics
	}

	gate, err := NewGate(deps.Tokens, deps.AllowList, gateObserver, logger)
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(requestID(), accessLog(logger, requestObserver), recovery(logger))
	if len(deps.CORSOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:  deps.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader},
			ExposeHeaders: []string{RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}
	engine.Use(gate.Middleware())

	h := &handlers{
		auth:     deps.Auth,
		accounts: deps.Accounts,
		tasks:    deps.Tasks,
		logger:   logger,
	}

	engine.GET("/", h.root)
	engine.GET("/api/public/info", h.publicInfo)

	users := engine.Group("/api/users")
	users.POST("/register", h.register)
	users.POST("/login", h.login)
	users.GET("/test", h.test)
	users.GET("", h.listUsers)
	users.GET("/me", h.me)
	users.PUT("/:id", h.updateUser)
	users.DELETE("/:id", h.deleteUser)

	tasks := engine.Group("/api/tasks")
	tasks.POST("", h.createTask)
	tasks.GET("/user/:userId", h.listTasksByUser)
	tasks.GET("/:id", h.getTask)
	tasks.PUT("/:id", h.updateTask)
	tasks.DELETE("/:id", h.deleteTask)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Code: "NOT_FOUND", Message: "Not found."})
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorResponse{Code: "METHOD_NOT_ALLOWED", Message: "Method not allowed."})
	})
	return engine, nil
}
