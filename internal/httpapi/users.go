// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/taskmgmt/taskmgmt/internal/auth"
)

func (h *handlers) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, badRequest("invalid request body"))
		return
	}

	account, err := h.auth.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, registerResponse{
		ID:      account.ID,
		Message: fmt.Sprintf("User registered successfully with ID: %d", account.ID),
	})
}

// login answers with the bare token string on success.
func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, badRequest("email and password are required"))
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.String(http.StatusOK, token)
}

func (h *handlers) test(c *gin.Context) {
	c.String(http.StatusOK, "Test endpoint is working!")
}

func (h *handlers) listUsers(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(accounts, newUserResponse))
}

func (h *handlers) me(c *gin.Context) {
	email, err := identity(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	account, err := h.accounts.GetByEmail(c.Request.Context(), email)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(account))
}

func (h *handlers) updateUser(c *gin.Context) {
	email, err := identity(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, badRequest("invalid request body"))
		return
	}

	account, err := h.accounts.UpdateProfile(c.Request.Context(), email, id, req.Username, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(account))
}

// deleteUser lets any authenticated caller remove an account.
func (h *handlers) deleteUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if err := h.accounts.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// identity returns the email the gate attached to the request.
func identity(c *gin.Context) (string, error) {
	email, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		return "", oops.Code("AUTH_TOKEN_MISSING").Errorf("Unauthorized")
	}
	return email, nil
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, oops.Code("REQUEST_INVALID").
			With("field", name).
			Errorf("%s must be a positive integer", name)
	}
	return id, nil
}
