// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

// Package task implements the task resource: a titled work item owned by one account.
package task

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/oops"
)

// MaxTitleLength is the longest accepted title, in characters.
const MaxTitleLength = 200

// ErrNotFound is returned when a requested task does not exist.
var ErrNotFound = errors.New("task not found")

// Status is the workflow state of a task.
type Status string

// Task statuses.
const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// ParseStatus converts s to a Status. An empty string yields StatusTodo.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case "", StatusTodo:
		return StatusTodo, nil
	case StatusInProgress:
		return StatusInProgress, nil
	case StatusDone:
		return StatusDone, nil
	default:
		return "", oops.Code("TASK_INVALID").
			With("status", s).
			Errorf("status must be one of TODO, IN_PROGRESS, DONE")
	}
}

// Task is a unit of work owned by an account.
type Task struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Status      Status
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the fields a client controls.
func (t *Task) Validate() error {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return oops.Code("TASK_INVALID").With("field", "title").Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return oops.Code("TASK_INVALID").
			With("field", "title").
			With("max", MaxTitleLength).
			Errorf("title must be at most %d characters", MaxTitleLength)
	}
	if t.UserID <= 0 {
		return oops.Code("TASK_INVALID").With("field", "userId").Errorf("task owner is required")
	}
	if _, err := ParseStatus(string(t.Status)); err != nil {
		return err
	}
	return nil
}

// Repository manages task persistence.
type Repository interface {
	// Create stores a new task and assigns its ID.
	Create(ctx context.Context, t *Task) error

	// Get retrieves a task by ID. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id int64) (*Task, error)

	// ListByUser returns the tasks owned by userID ordered by ID.
	ListByUser(ctx context.Context, userID int64) ([]*Task, error)

	// Update writes every mutable field of an existing task.
	Update(ctx context.Context, t *Task) error

	// Delete removes a task.
	Delete(ctx context.Context, id int64) error
}
