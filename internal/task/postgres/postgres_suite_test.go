// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/taskmgmt/taskmgmt/internal/auth"
	authpg "github.com/taskmgmt/taskmgmt/internal/auth/postgres"
	"github.com/taskmgmt/taskmgmt/internal/store/storetest"
	"github.com/taskmgmt/taskmgmt/internal/task"
	"github.com/taskmgmt/taskmgmt/internal/task/postgres"
	"github.com/taskmgmt/taskmgmt/pkg/errutil"
)

func TestTaskPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Task Postgres Suite")
}

var db *storetest.Database

var _ = BeforeSuite(func() {
	var err error
	db, err = storetest.Start(context.Background())
	Expect(err).NotTo(HaveOccurred())
})

var _ = AfterSuite(func() {
	if db != nil {
		db.Close(context.Background())
	}
})

var _ = Describe("TaskRepository", func() {
	var (
		ctx   context.Context
		repo  *postgres.TaskRepository
		owner *auth.Account
	)

	BeforeEach(func() {
		ctx = context.Background()
		Expect(db.Truncate(ctx)).To(Succeed())
		repo = postgres.NewTaskRepository(db.Pool)

		now := time.Now().UTC().Truncate(time.Microsecond)
		owner = &auth.Account{
			Email:        "owner@example.com",
			Username:     "owner",
			PasswordHash: "hash",
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		Expect(authpg.NewAccountRepository(db.Pool).Create(ctx, owner)).To(Succeed())
	})

	newTask := func(title string) *task.Task {
		now := time.Now().UTC().Truncate(time.Microsecond)
		return &task.Task{
			UserID:    owner.ID,
			Title:     title,
			Status:    task.StatusTodo,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	It("round-trips a task with a due date", func() {
		due := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Microsecond)
		tk := newTask("Plan sprint")
		tk.Description = "backlog grooming"
		tk.DueDate = &due
		Expect(repo.Create(ctx, tk)).To(Succeed())
		Expect(tk.ID).To(BeNumerically(">", 0))

		got, err := repo.Get(ctx, tk.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Title).To(Equal("Plan sprint"))
		Expect(got.Description).To(Equal("backlog grooming"))
		Expect(got.DueDate).NotTo(BeNil())
		Expect(got.DueDate.Equal(due)).To(BeTrue())
	})

	It("rejects a task whose owner does not exist", func() {
		tk := newTask("Orphan")
		tk.UserID = owner.ID + 1000
		err := repo.Create(ctx, tk)
		Expect(err).To(HaveOccurred())
		Expect(errutil.Code(err)).To(Equal("TASK_INVALID_OWNER"))
	})

	It("lists only the owner's tasks in id order", func() {
		first, second := newTask("one"), newTask("two")
		Expect(repo.Create(ctx, first)).To(Succeed())
		Expect(repo.Create(ctx, second)).To(Succeed())

		tasks, err := repo.ListByUser(ctx, owner.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(tasks).To(HaveLen(2))
		Expect(tasks[0].ID).To(Equal(first.ID))
		Expect(tasks[1].ID).To(Equal(second.ID))

		empty, err := repo.ListByUser(ctx, owner.ID+1)
		Expect(err).NotTo(HaveOccurred())
		Expect(empty).To(BeEmpty())
	})

	It("updates status and clears the due date", func() {
		due := time.Now().UTC().Truncate(time.Microsecond)
		tk := newTask("Review")
		tk.DueDate = &due
		Expect(repo.Create(ctx, tk)).To(Succeed())

		tk.Status = task.StatusDone
		tk.DueDate = nil
		Expect(repo.Update(ctx, tk)).To(Succeed())

		got, err := repo.Get(ctx, tk.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Status).To(Equal(task.StatusDone))
		Expect(got.DueDate).To(BeNil())
	})

	It("cascades account deletion to tasks", func() {
		tk := newTask("Doomed")
		Expect(repo.Create(ctx, tk)).To(Succeed())

		Expect(authpg.NewAccountRepository(db.Pool).Delete(ctx, owner.ID)).To(Succeed())

		_, err := repo.Get(ctx, tk.ID)
		Expect(err).To(MatchError(task.ErrNotFound))
	})
})
