// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/taskmgmt/taskmgmt/internal/auth"
)

// AccountReader resolves task owners.
type AccountReader interface {
	GetByID(ctx context.Context, id int64) (*auth.Account, error)
	GetByEmail(ctx context.Context, email string) (*auth.Account, error)
}

// Input carries the client-controlled fields of a task.
type Input struct {
	UserID      int64
	Title       string
	Description string
	Status      string
	DueDate     *time.Time
}

// Service implements task operations on behalf of an authenticated caller.
type Service struct {
	tasks    Repository
	accounts AccountReader
	now      func() time.Time
}

// NewService creates a new Service.
func NewService(tasks Repository, accounts AccountReader) *Service {
	return &Service{tasks: tasks, accounts: accounts, now: time.Now}
}

// Create stores a task. When in.UserID is zero the task belongs to the caller.
func (s *Service) Create(ctx context.Context, actorEmail string, in Input) (*Task, error) {
	actor, err := s.actor(ctx, actorEmail)
	if err != nil {
		return nil, err
	}

	ownerID := in.UserID
	if ownerID == 0 {
		ownerID = actor.ID
	} else if ownerID != actor.ID {
		if _, err := s.accounts.GetByID(ctx, ownerID); err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				return nil, oops.Code("TASK_INVALID_OWNER").
					With("user_id", ownerID).
					Errorf("user %d does not exist", ownerID)
			}
			return nil, oops.Code("TASK_CREATE_FAILED").With("operation", "get owner").Wrap(err)
		}
	}

	status, err := ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}

	now := s.now()
	t := &Task{
		UserID:      ownerID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      status,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, oops.Code("TASK_CREATE_FAILED").With("user_id", ownerID).Wrap(err)
	}
	return t, nil
}

// Get returns task id.
func (s *Service) Get(ctx context.Context, id int64) (*Task, error) {
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, lookupError(err, id)
	}
	return t, nil
}

// ListByUser returns the tasks of userID.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*Task, error) {
	if userID <= 0 {
		return nil, oops.Code("TASK_INVALID").With("user_id", userID).Errorf("user id must be positive")
	}
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, oops.Code("TASK_LIST_FAILED").With("user_id", userID).Wrap(err)
	}
	return tasks, nil
}

// Update replaces the title, description, status and due date of a task the caller owns.
func (s *Service) Update(ctx context.Context, actorEmail string, id int64, in Input) (*Task, error) {
	t, err := s.owned(ctx, actorEmail, id)
	if err != nil {
		return nil, err
	}

	status, err := ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}
	t.Title = strings.TrimSpace(in.Title)
	t.Description = in.Description
	t.Status = status
	t.DueDate = in.DueDate
	t.UpdatedAt = s.now()
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, t); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, lookupError(err, id)
		}
		return nil, oops.Code("TASK_UPDATE_FAILED").With("task_id", id).Wrap(err)
	}
	return t, nil
}

// Delete removes a task the caller owns.
func (s *Service) Delete(ctx context.Context, actorEmail string, id int64) error {
	if _, err := s.owned(ctx, actorEmail, id); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return lookupError(err, id)
		}
		return oops.Code("TASK_DELETE_FAILED").With("task_id", id).Wrap(err)
	}
	return nil
}

func (s *Service) owned(ctx context.Context, actorEmail string, id int64) (*Task, error) {
	actor, err := s.actor(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, lookupError(err, id)
	}
	if t.UserID != actor.ID {
		return nil, oops.Code("TASK_FORBIDDEN").
			With("task_id", id).
			Errorf("You can only modify your own tasks.")
	}
	return t, nil
}

func (s *Service) actor(ctx context.Context, email string) (*auth.Account, error) {
	actor, err := s.accounts.GetByEmail(ctx, auth.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, oops.Code("TASK_INVALID_OWNER").Errorf("caller account no longer exists")
		}
		return nil, oops.Code("TASK_OWNER_LOOKUP_FAILED").Wrap(err)
	}
	return actor, nil
}

func lookupError(err error, id int64) error {
	if errors.Is(err, ErrNotFound) {
		return oops.Code("TASK_NOT_FOUND").With("task_id", id).Errorf("Task not found.")
	}
	return oops.Code("TASK_LOOKUP_FAILED").With("task_id", id).Wrap(err)
}
