// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package httpapi

import (
	"strings"
	"time"

	"github.com/taskmgmt/taskmgmt/internal/auth"
	"github.com/taskmgmt/taskmgmt/internal/task"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newUserResponse(a *auth.Account) userResponse {
	return userResponse{
		ID:        a.ID,
		Email:     a.Email,
		Username:  a.Username,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type taskRequest struct {
	UserID      int64   `json:"userId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	DueDate     *string `json:"dueDate"`
}

// input converts the request, accepting RFC 3339 timestamps or plain dates for dueDate.
func (r taskRequest) input() (task.Input, error) {
	in := task.Input{
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
	}
	if r.DueDate == nil || strings.TrimSpace(*r.DueDate) == "" {
		return in, nil
	}

	raw := strings.TrimSpace(*r.DueDate)
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if due, err := time.Parse(layout, raw); err == nil {
			due = due.UTC()
			in.DueDate = &due
			return in, nil
		}
	}
	return in, badRequest("dueDate must be an RFC 3339 timestamp or a YYYY-MM-DD date")
}

type taskResponse struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func newTaskResponse(t *task.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func mapSlice[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
