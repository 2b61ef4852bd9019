// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

// Package postgres implements task.Repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/taskmgmt/taskmgmt/internal/store"
	"github.com/taskmgmt/taskmgmt/internal/task"
)

const taskColumns = `id, user_id, title, description, status, due_date, created_at, updated_at`

// TaskRepository implements task.Repository using PostgreSQL.
type TaskRepository struct {
	db store.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db store.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts t and sets its ID.
func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO tasks (user_id, title, description, status, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		t.UserID,
		t.Title,
		t.Description,
		string(t.Status),
		t.DueDate,
		t.CreatedAt,
		t.UpdatedAt,
	).Scan(&t.ID)
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return oops.Code("TASK_INVALID_OWNER").
				With("user_id", t.UserID).
				Errorf("owner %d does not exist", t.UserID)
		}
		return oops.Code("TASK_CREATE_FAILED").
			With("operation", "insert task").
			With("user_id", t.UserID).
			Wrap(err)
	}
	return nil
}

// Get retrieves a task by ID.
func (r *TaskRepository) Get(ctx context.Context, id int64) (*task.Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TASK_NOT_FOUND").With("task_id", id).Wrap(task.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TASK_GET_FAILED").With("task_id", id).Wrap(err)
	}
	return t, nil
}

// ListByUser returns the tasks of userID ordered by ID.
func (r *TaskRepository) ListByUser(ctx context.Context, userID int64) ([]*task.Task, error) {
	rows, err := r.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, oops.Code("TASK_LIST_FAILED").With("user_id", userID).Wrap(err)
	}
	defer rows.Close()

	tasks := make([]*task.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, oops.Code("TASK_LIST_FAILED").With("operation", "scan task row").Wrap(err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("TASK_LIST_FAILED").With("operation", "iterate tasks").Wrap(err)
	}
	return tasks, nil
}

// Update writes every mutable field. Ownership never changes.
func (r *TaskRepository) Update(ctx context.Context, t *task.Task) error {
	result, err := r.db.Exec(ctx, `
		UPDATE tasks SET
			title = $2,
			description = $3,
			status = $4,
			due_date = $5,
			updated_at = $6
		WHERE id = $1
	`,
		t.ID,
		t.Title,
		t.Description,
		string(t.Status),
		t.DueDate,
		t.UpdatedAt,
	)
	if err != nil {
		return oops.Code("TASK_UPDATE_FAILED").With("task_id", t.ID).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TASK_NOT_FOUND").With("task_id", t.ID).Wrap(task.ErrNotFound)
	}
	return nil
}

// Delete removes a task.
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return oops.Code("TASK_DELETE_FAILED").With("task_id", id).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TASK_NOT_FOUND").With("task_id", id).Wrap(task.ErrNotFound)
	}
	return nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	var (
		t      task.Task
		status string
	)
	if err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&status,
		&t.DueDate,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck // callers add context
	}
	t.Status = task.Status(status)
	return &t, nil
}

var _ task.Repository = (*TaskRepository)(nil)
