// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlers) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": "taskmgmt", "status": "ok"})
}

// publicInfo publishes the lockout policy so clients can explain rejections.
func (h *handlers) publicInfo(c *gin.Context) {
	policy := h.auth.Policy()
	c.JSON(http.StatusOK, gin.H{
		"maxFailedAttempts":      policy.MaxFailedAttempts,
		"lockoutDurationMinutes": int(policy.LockoutDuration.Minutes()),
	})
}
