// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/taskmgmt/taskmgmt/pkg/errutil"
)

// statusByCode maps error codes to HTTP statuses. Unlisted codes are 500.
var statusByCode = map[string]int{
	// validation and conflicts
	"REQUEST_INVALID":       http.StatusBadRequest,
	"AUTH_INVALID_EMAIL":    http.StatusBadRequest,
	"AUTH_INVALID_USERNAME": http.StatusBadRequest,
	"AUTH_EMPTY_PASSWORD":   http.StatusBadRequest,
	"AUTH_EMAIL_TAKEN":      http.StatusBadRequest,
	"TASK_INVALID":          http.StatusBadRequest,
	"TASK_INVALID_OWNER":    http.StatusBadRequest,

	// authentication
	"AUTH_UNKNOWN_ACCOUNT":     http.StatusUnauthorized,
	"AUTH_INVALID_CREDENTIALS": http.StatusUnauthorized,
	"AUTH_TOKEN_MISSING":       http.StatusUnauthorized,
	"AUTH_TOKEN_INVALID":       http.StatusUnauthorized,
	"AUTH_TOKEN_EXPIRED":       http.StatusUnauthorized,

	// authorization and lockout
	"AUTH_ACCOUNT_LOCKED":   http.StatusForbidden,
	"AUTH_INVALID_PASSWORD": http.StatusForbidden,
	"AUTH_FORBIDDEN":        http.StatusForbidden,
	"TASK_FORBIDDEN":        http.StatusForbidden,

	"ACCOUNT_NOT_FOUND": http.StatusNotFound,
	"TASK_NOT_FOUND":    http.StatusNotFound,
}

// contextDetails are error context keys echoed to clients.
var contextDetails = map[string]string{
	"attempts_remaining": "attemptsRemaining",
	"minutes_remaining":  "minutesRemaining",
	"field":              "field",
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	if status, ok := statusByCode[errutil.Code(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError aborts the request with the JSON rendering of err. Server errors
// are logged and answered with a generic message.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		errutil.LogErrorContext(c.Request.Context(), logger, "request failed", err)
		c.AbortWithStatusJSON(status, errorResponse{
			Code:    "INTERNAL",
			Message: "Internal server error.",
		})
		return
	}

	body := errorResponse{Code: errutil.Code(err), Message: err.Error()}
	if oopsErr, ok := oops.AsOops(err); ok {
		for key, value := range oopsErr.Context() {
			if name, ok := contextDetails[key]; ok {
				if body.Details == nil {
					body.Details = map[string]any{}
				}
				body.Details[name] = value
			}
		}
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(format string, args ...any) error {
	return oops.Code("REQUEST_INVALID").Errorf(format, args...)
}
