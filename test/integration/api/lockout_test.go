// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

//go:build integration

package api_test

import (
	"context"
	"net/http"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/taskmgmt/taskmgmt/pkg/errutil"
)

var _ = Describe("Login lockout", func() {
	BeforeEach(func() {
		register("alice@example.com", "alice", "correct horse")
	})

	It("locks the account on the third consecutive failure", func() {
		for _, remaining := range []float64{2, 1} {
			resp := login("alice@example.com", "wrong")
			Expect(resp.status).To(Equal(http.StatusForbidden))
			Expect(resp.json()["details"]).To(HaveKeyWithValue("attemptsRemaining", remaining))
		}

		resp := login("alice@example.com", "wrong")
		Expect(resp.status).To(Equal(http.StatusForbidden))
		Expect(resp.json()["code"]).To(Equal("AUTH_ACCOUNT_LOCKED"))

		resp = login("alice@example.com", "correct horse")
		Expect(resp.status).To(Equal(http.StatusForbidden), "the right password does not bypass the lock")

		account, err := env.accounts.GetByEmail(context.Background(), "alice@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(account.FailedAttempts).To(Equal(3))
		Expect(account.LockedUntil).NotTo(BeNil())
	})

	It("resets the counter after a successful login", func() {
		Expect(login("alice@example.com", "wrong").status).To(Equal(http.StatusForbidden))

		resp := login("alice@example.com", "correct horse")
		Expect(resp.status).To(Equal(http.StatusOK))

		account, err := env.accounts.GetByEmail(context.Background(), "alice@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(account.FailedAttempts).To(Equal(0))
		Expect(account.LockedUntil).To(BeNil())
	})

	It("counts concurrent failures one by one", func() {
		const attempts = 8
		codes := make([]string, attempts)

		var wg sync.WaitGroup
		for i := range attempts {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := env.auth.Login(context.Background(), "alice@example.com", "wrong")
				Expect(err).To(HaveOccurred())
				codes[i] = errutil.Code(err)
			}()
		}
		wg.Wait()

		counts := map[string]int{}
		for _, code := range codes {
			counts[code]++
		}
		Expect(counts).To(Equal(map[string]int{
			"AUTH_INVALID_PASSWORD": 2,
			"AUTH_ACCOUNT_LOCKED":   attempts - 2,
		}))

		account, err := env.accounts.GetByEmail(context.Background(), "alice@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(account.FailedAttempts).To(Equal(3))
	})
})
