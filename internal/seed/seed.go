// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

// Package seed loads fixture users and tasks from a YAML file.
//
// A seed file is checked against the generated JSON Schema and then parsed in
// full before the first account is written, so a bad file changes nothing.
package seed

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/taskmgmt/taskmgmt/internal/auth"
	"github.com/taskmgmt/taskmgmt/internal/task"
	"github.com/taskmgmt/taskmgmt/pkg/errutil"
)

// File is the top level of a seed file.
type File struct {
	Users []User `json:"users" yaml:"users" jsonschema:"minItems=1"`
}

// User is an account to register, with the tasks it owns.
type User struct {
	Email    string `json:"email" yaml:"email" jsonschema:"minLength=3"`
	Username string `json:"username" yaml:"username" jsonschema:"minLength=1"`
	Password string `json:"password" yaml:"password" jsonschema:"minLength=1"`
	Tasks    []Task `json:"tasks,omitempty" yaml:"tasks,omitempty"`
}

// Task is a task created for its enclosing user.
type Task struct {
	Title       string `json:"title" yaml:"title" jsonschema:"minLength=1,maxLength=200"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Status      string `json:"status,omitempty" yaml:"status,omitempty" jsonschema:"enum=TODO,enum=IN_PROGRESS,enum=DONE"`
	DueDate     string `json:"dueDate,omitempty" yaml:"dueDate,omitempty" jsonschema:"description=RFC 3339 timestamp or YYYY-MM-DD"`
}

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, email, username, password string) (*auth.Account, error)
}

var _ Registrar = (*auth.Registrar)(nil)

// TaskCreator creates tasks on behalf of an account.
type TaskCreator interface {
	Create(ctx context.Context, actorEmail string, in task.Input) (*task.Task, error)
}

// Result counts what Apply did.
type Result struct {
	UsersCreated int
	UsersSkipped int
	TasksCreated int
}

// Plan is a validated seed file ready to apply.
type Plan struct {
	users []plannedUser
}

type plannedUser struct {
	User
	tasks []task.Input
}

// LoadFile reads and parses the seed file at path.
func LoadFile(path string) (*Plan, error) {
	//nolint:gosec // path comes from the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Code("SEED_READ_FAILED").With("path", path).Wrap(err)
	}
	return Parse(data)
}

// Parse validates data against the schema and converts every entry.
// Duplicate emails, unknown statuses and unparseable due dates are rejected.
func Parse(data []byte) (*Plan, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, oops.Code("SEED_INVALID").With("operation", "decode").Wrap(err)
	}

	plan := &Plan{users: make([]plannedUser, 0, len(file.Users))}
	seen := make(map[string]int, len(file.Users))
	for i, u := range file.Users {
		email := auth.NormalizeEmail(u.Email)
		if err := auth.ValidateEmail(email); err != nil {
			return nil, oops.Code("SEED_INVALID").With("user", i).Wrap(err)
		}
		if first, dup := seen[email]; dup {
			return nil, oops.Code("SEED_INVALID").
				With("user", i).
				With("email", email).
				Errorf("email %s already listed at user %d", email, first)
		}
		seen[email] = i
		u.Email = email

		planned := plannedUser{User: u, tasks: make([]task.Input, 0, len(u.Tasks))}
		for j, t := range u.Tasks {
			in, err := t.input()
			if err != nil {
				return nil, oops.Code("SEED_INVALID").With("user", i).With("task", j).Wrap(err)
			}
			planned.tasks = append(planned.tasks, in)
		}
		plan.users = append(plan.users, planned)
	}
	return plan, nil
}

func (t Task) input() (task.Input, error) {
	in := task.Input{Title: t.Title, Description: t.Description, Status: t.Status}
	if _, err := task.ParseStatus(t.Status); err != nil {
		return in, err
	}
	raw := strings.TrimSpace(t.DueDate)
	if raw == "" {
		return in, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if due, err := time.Parse(layout, raw); err == nil {
			in.DueDate = &due
			return in, nil
		}
	}
	return in, oops.Code("TASK_INVALID").
		With("field", "dueDate").
		Errorf("dueDate %q must be an RFC 3339 timestamp or a YYYY-MM-DD date", raw)
}

// Users returns the number of users in the plan.
func (p *Plan) Users() int { return len(p.users) }

// Tasks returns the number of tasks in the plan.
func (p *Plan) Tasks() int {
	n := 0
	for _, u := range p.users {
		n += len(u.tasks)
	}
	return n
}

// Apply registers each user and creates its tasks. Users whose email is
// already registered are skipped together with their tasks, so applying the
// same file twice is harmless.
func Apply(ctx context.Context, plan *Plan, users Registrar, tasks TaskCreator, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var res Result
	for _, u := range plan.users {
		if _, err := users.Register(ctx, u.Email, u.Username, u.Password); err != nil {
			if errutil.Code(err) == "AUTH_EMAIL_TAKEN" {
				logger.InfoContext(ctx, "seed user already exists", "email", u.Email)
				res.UsersSkipped++
				continue
			}
			return res, oops.Code("SEED_APPLY_FAILED").With("email", u.Email).Wrap(err)
		}
		res.UsersCreated++

		for _, in := range u.tasks {
			if _, err := tasks.Create(ctx, u.Email, in); err != nil {
				return res, oops.Code("SEED_APPLY_FAILED").
					With("email", u.Email).
					With("title", in.Title).
					Wrap(err)
			}
			res.TasksCreated++
		}
	}

	logger.InfoContext(ctx, "seed applied",
		"users_created", res.UsersCreated,
		"users_skipped", res.UsersSkipped,
		"tasks_created", res.TasksCreated)
	return res, nil
}
