// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmgmt/taskmgmt/pkg/errutil"
)

func probeServer(t *testing.T, ready bool) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz/liveness", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("GET /healthz/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func runStatusCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newStatusCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestStatus_Ready(t *testing.T) {
	out, err := runStatusCmd(t, "--addr", probeServer(t, true))
	require.NoError(t, err)
	assert.Contains(t, out, "PROBE")
	assert.Regexp(t, `liveness\s+ok\s+HTTP 200`, out)
	assert.Regexp(t, `readiness\s+ok\s+HTTP 200`, out)
}

func TestStatus_NotReady(t *testing.T) {
	out, err := runStatusCmd(t, "--addr", probeServer(t, false))
	errutil.AssertErrorCode(t, err, "SERVER_NOT_READY")
	errutil.AssertErrorContext(t, err, "probe", "readiness")
	assert.Regexp(t, `readiness\s+failing\s+HTTP 503`, out)
}

func TestStatus_JSONOutput(t *testing.T) {
	out, err := runStatusCmd(t, "--json", "--addr", "http://"+probeServer(t, true)+"/")
	require.NoError(t, err)

	var probes []ProbeStatus
	require.NoError(t, json.Unmarshal([]byte(out), &probes))
	require.Len(t, probes, 2)
	assert.Equal(t, ProbeStatus{Probe: "liveness", OK: true, Status: 200}, probes[0])
	assert.Equal(t, ProbeStatus{Probe: "readiness", OK: true, Status: 200}, probes[1])
}

func TestStatus_Unreachable(t *testing.T) {
	out, err := runStatusCmd(t, "--addr", "127.0.0.1:1", "--timeout", "500ms")
	errutil.AssertErrorCode(t, err, "SERVER_NOT_READY")
	assert.Contains(t, out, "failed to connect")
}

func TestFormatProbeTable(t *testing.T) {
	out := formatProbeTable([]ProbeStatus{
		{Probe: "liveness", OK: true, Status: 200},
		{Probe: "readiness", Error: "failed to connect: refused"},
	})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Regexp(t, `^PROBE\s+STATUS\s+DETAIL$`, lines[0])
	assert.Regexp(t, `^readiness\s+failing\s+failed to connect: refused$`, lines[2])
}
