// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskmgmt/taskmgmt/internal/task"
)

func (h *handlers) createTask(c *gin.Context) {
	in, ok := h.bindTask(c)
	if !ok {
		return
	}
	email, err := identity(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	t, err := h.tasks.Create(c.Request.Context(), email, in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(t))
}

func (h *handlers) listTasksByUser(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	tasks, err := h.tasks.ListByUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(tasks, newTaskResponse))
}

func (h *handlers) getTask(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	t, err := h.tasks.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(t))
}

func (h *handlers) updateTask(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	in, ok := h.bindTask(c)
	if !ok {
		return
	}
	email, err := identity(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	t, err := h.tasks.Update(c.Request.Context(), email, id, in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(t))
}

func (h *handlers) deleteTask(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	email, err := identity(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), email, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) bindTask(c *gin.Context) (in task.Input, ok bool) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, badRequest("invalid request body"))
		return in, false
	}
	in, err := req.input()
	if err != nil {
		writeError(c, h.logger, err)
		return in, false
	}
	return in, true
}
