// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

//go:build integration

package api_test

import (
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

var _ = Describe("Resources", func() {
	var token string

	BeforeEach(func() {
		register("alice@example.com", "alice", "pw-alice")
		resp := login("alice@example.com", "pw-alice")
		Expect(resp.status).To(Equal(http.StatusOK))
		token = string(resp.body)
	})

	It("rejects requests without a token", func() {
		Expect(call(http.MethodGet, "/api/users", "", nil).status).To(Equal(http.StatusUnauthorized))
		Expect(call(http.MethodGet, "/api/tasks/1", "", nil).status).To(Equal(http.StatusUnauthorized))
	})

	It("serves the user list without password hashes", func() {
		resp := call(http.MethodGet, "/api/users", token, nil)
		Expect(resp.status).To(Equal(http.StatusOK))
		Expect(string(resp.body)).To(ContainSubstring(`"email":"alice@example.com"`))
		Expect(string(resp.body)).NotTo(ContainSubstring("argon2id"))
	})

	It("creates, updates and deletes a task", func() {
		resp := call(http.MethodPost, "/api/tasks", token, map[string]any{"title": "Ship it", "dueDate": "2026-05-01"})
		Expect(resp.status).To(Equal(http.StatusOK), string(resp.body))
		id := int64(resp.json()["id"].(float64))

		path := fmt.Sprintf("/api/tasks/%d", id)
		resp = call(http.MethodPut, path, token, map[string]any{"title": "Ship it", "status": "DONE"})
		Expect(resp.status).To(Equal(http.StatusOK))
		Expect(resp.json()["status"]).To(Equal("DONE"))

		Expect(call(http.MethodDelete, path, token, nil).status).To(Equal(http.StatusNoContent))
		Expect(call(http.MethodGet, path, token, nil).status).To(Equal(http.StatusNotFound))
	})

	It("deletes a user together with their tasks", func() {
		me := call(http.MethodGet, "/api/users/me", token, nil).json()
		userID := int64(me["id"].(float64))

		resp := call(http.MethodPost, "/api/tasks", token, map[string]any{"title": "Orphan"})
		Expect(resp.status).To(Equal(http.StatusOK))
		taskID := int64(resp.json()["id"].(float64))

		Expect(call(http.MethodDelete, fmt.Sprintf("/api/users/%d", userID), token, nil).status).To(Equal(http.StatusNoContent))
		Expect(call(http.MethodGet, fmt.Sprintf("/api/tasks/%d", taskID), token, nil).status).To(Equal(http.StatusNotFound))
	})
})
