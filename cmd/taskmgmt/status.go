// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskMgmt Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/taskmgmt/taskmgmt/internal/config"
)

// ProbeStatus is the result of one health probe.
type ProbeStatus struct {
	Probe  string `json:"probe"`
	OK     bool   `json:"ok"`
	Status int    `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

type statusOptions struct {
	addr       string
	jsonOutput bool
	timeout    time.Duration
}

func newStatusCmd() *cobra.Command {
	opts := &statusOptions{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the health of a running server",
		Long: `Query the liveness and readiness probes of a running server on its
metrics address. Exits non-zero unless the server is ready.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", config.DefaultMetricsAddr, "metrics/health address of the server")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Second, "per-probe timeout")

	return cmd
}

func runStatus(cmd *cobra.Command, opts *statusOptions) error {
	client := &http.Client{Timeout: opts.timeout}
	probes := []ProbeStatus{
		queryProbe(cmd.Context(), client, opts.addr, "liveness"),
		queryProbe(cmd.Context(), client, opts.addr, "readiness"),
	}

	if opts.jsonOutput {
		data, err := json.MarshalIndent(probes, "", "  ")
		if err != nil {
			return oops.Code("STATUS_FAILED").With("operation", "marshal status").Wrap(err)
		}
		cmd.Println(string(data))
	} else {
		cmd.Print(formatProbeTable(probes))
	}

	for _, p := range probes {
		if !p.OK {
			return oops.Code("SERVER_NOT_READY").With("addr", opts.addr).With("probe", p.Probe).Errorf("server is not ready")
		}
	}
	return nil
}

func queryProbe(ctx context.Context, client *http.Client, addr, probe string) ProbeStatus {
	status := ProbeStatus{Probe: probe}

	url := addr
	if !strings.Contains(url, "://") {
		url = "http://" + url
	}
	url = strings.TrimSuffix(url, "/") + "/healthz/" + probe

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	resp, err := client.Do(req)
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	status.Status = resp.StatusCode
	status.OK = resp.StatusCode == http.StatusOK
	return status
}

func formatProbeTable(probes []ProbeStatus) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "PROBE\tSTATUS\tDETAIL")
	for _, p := range probes {
		state := "ok"
		if !p.OK {
			state = "failing"
		}
		detail := "-"
		switch {
		case p.Error != "":
			detail = p.Error
		case p.Status != 0:
			detail = fmt.Sprintf("HTTP %d", p.Status)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.Probe, state, detail)
	}

	_ = w.Flush()
	return buf.String()
}
