/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"

	"github.com/nalyx27/reviewpanel/agents/model"
	"github.com/nalyx27/reviewpanel/agents/model/modeltest"
	"github.com/nalyx27/reviewpanel/remote"
)

// checked serves every model.
type checked struct {
	model.Client
}

func (checked) Check(...string) error { return nil }

const stagedDiff = "diff --git a/app.py b/app.py\n--- a/app.py\n+++ b/app.py\n@@ -1 +1,2 @@\n x = 1\n+print(x)\n"

type harness struct {
	app    *app
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T, client model.Client, env map[string]string) *harness {
	t.Helper()
	h := &harness{}
	h.app = newApp(&h.stdout, &h.stderr)
	h.app.lookuper = envconfig.MapLookuper(env)
	h.app.dotenv = ""
	h.app.dir = t.TempDir()
	h.app.git = func(context.Context, string, ...string) ([]byte, error) { return []byte(stagedDiff), nil }
	h.app.newModel = func(context.Context, config) (modelClient, error) { return checked{client}, nil }
	return h
}

func (h *harness) run(args ...string) int {
	return h.app.run(context.Background(), args)
}

func TestLoadConfig(t *testing.T) {
	h := newHarness(t, nil, map[string]string{"OPENROUTER_API_KEY": "sk-or", "REVIEW_ROUNDS": "7"})
	cfg, err := h.app.loadConfig(context.Background())
	require.NoError(t, err)
	if cfg.Model != "google/gemini-2.0-flash-001" || cfg.Rounds != 7 || cfg.Temperature != 0.1 {
		t.Errorf("loadConfig: got = %+v", cfg)
	}
	if cfg.router().OpenRouterAPIKey != "sk-or" {
		t.Errorf("router config: got = %+v", cfg.router())
	}

	h = newHarness(t, nil, map[string]string{"REVIEW_ROUNDS": "0"})
	if _, err := h.app.loadConfig(context.Background()); err == nil {
		t.Error("loadConfig(REVIEW_ROUNDS=0): got = nil, wanted error")
	}
}

func TestLoadConfigDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("REVIEWPANEL_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("REVIEWPANEL_TEST_DOTENV", "")
	os.Unsetenv("REVIEWPANEL_TEST_DOTENV")

	h := newHarness(t, nil, nil)
	h.app.dotenv = path
	_, err := h.app.loadConfig(context.Background())
	require.NoError(t, err)
	if got := os.Getenv("REVIEWPANEL_TEST_DOTENV"); got != "from-file" {
		t.Errorf("dotenv variable: got = %q, wanted from-file", got)
	}

	h.app.dotenv = filepath.Join(dir, "missing.env")
	if _, err := h.app.loadConfig(context.Background()); err != nil {
		t.Errorf("loadConfig with no .env: %v", err)
	}
}

func TestReviewFile(t *testing.T) {
	findings := `[{"file": "app.py", "line_number": 2, "severity": "warn", "category": "style", "description": "Debug print"}]`
	client := modeltest.New(modeltest.Text(findings), modeltest.Text(findings), modeltest.Text("## Final Report\n\nRemove the print."))
	h := newHarness(t, client, nil)

	path := filepath.Join(h.app.dir, "app.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\nprint(x)\n"), 0o600))

	metrics := filepath.Join(t.TempDir(), "review.prom")
	if code := h.run("review", "--file", path, "--rounds", "2", "--metrics-file", metrics); code != 0 {
		t.Fatalf("exit code: got = %d, stderr:\n%s", code, h.stderr.String())
	}
	if got := h.stdout.String(); got != "## Final Report\n\nRemove the print.\n" {
		t.Errorf("stdout: got = %q", got)
	}

	reqs := client.Requests()
	require.Len(t, reqs, 3)
	for _, req := range reqs[:2] {
		if got := len(req.Tools); got != 4 {
			t.Errorf("reviewer tools: got = %d, wanted 4", got)
		}
	}
	if len(reqs[2].Tools) != 0 {
		t.Errorf("synthesizer tools: got = %d, wanted none", len(reqs[2].Tools))
	}

	b, err := os.ReadFile(metrics)
	require.NoError(t, err)
	if !strings.Contains(string(b), `reviewpanel_findings{reviewer="Security Auditor",severity="warn"} 1`) {
		t.Errorf("metrics file:\n%s", b)
	}
}

func TestReviewNoStagedChanges(t *testing.T) {
	h := newHarness(t, modeltest.New(), nil)
	h.app.git = func(context.Context, string, ...string) ([]byte, error) { return nil, nil }

	if code := h.run("review"); code != 0 {
		t.Fatalf("exit code: got = %d, stderr:\n%s", code, h.stderr.String())
	}
	if got := h.stdout.String(); got != "No staged changes to review.\n" {
		t.Errorf("stdout: got = %q", got)
	}
}

func TestReviewAllReviewersFail(t *testing.T) {
	boom := modeltest.Fail(errors.New("503"))
	h := newHarness(t, modeltest.New(boom, boom), nil)

	if code := h.run("review", "--format", "json"); code != 1 {
		t.Fatalf("exit code: got = %d, wanted 1", code)
	}
	if !strings.Contains(h.stdout.String(), `"synthesis_error": "every reviewer failed"`) {
		t.Errorf("stdout: got = %s", h.stdout.String())
	}
	if !strings.Contains(h.stderr.String(), "Error: all 2 reviewers failed") {
		t.Errorf("stderr: got = %s", h.stderr.String())
	}
}

func TestReviewErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{{
		name:    "missing file",
		args:    []string{"review", "--file", "/does/not/exist.py"},
		wantErr: "not found",
	}, {
		name:    "bad format",
		args:    []string{"review", "--format", "html"},
		wantErr: `unknown format "html"`,
	}, {
		name:    "missing panel",
		args:    []string{"review", "--panel", "/does/not/exist.yaml"},
		wantErr: "opening panel",
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, modeltest.New(), nil)
			if code := h.run(tt.args...); code != 1 {
				t.Fatalf("exit code: got = %d, wanted 1", code)
			}
			if !strings.Contains(h.stderr.String(), tt.wantErr) {
				t.Errorf("stderr: got = %q, wanted %q", h.stderr.String(), tt.wantErr)
			}
		})
	}
}

func TestReviewMissingCredentials(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.app.newModel = newApp(nil, nil).newModel

	if code := h.run("review"); code != 1 {
		t.Fatalf("exit code: got = %d, wanted 1", code)
	}
	if !strings.HasPrefix(h.stderr.String(), "Error: ") {
		t.Errorf("stderr: got = %q", h.stderr.String())
	}
}

func TestCommitMessage(t *testing.T) {
	for _, tt := range []struct {
		args []string
		temp float64
	}{
		{args: []string{"commit-message"}, temp: 0.1},
		{args: []string{"commit-message", "--creative"}, temp: 1.2},
	} {
		client := modeltest.New(modeltest.Text("feat: print x\n"))
		h := newHarness(t, client, nil)
		if code := h.run(tt.args...); code != 0 {
			t.Fatalf("%v exit code: got = %d, stderr:\n%s", tt.args, code, h.stderr.String())
		}
		if got := h.stdout.String(); got != "feat: print x\n" {
			t.Errorf("%v stdout: got = %q", tt.args, got)
		}
		if got := client.Requests()[0].Temperature; got != tt.temp {
			t.Errorf("%v temperature: got = %v, wanted %v", tt.args, got, tt.temp)
		}
	}
}

func TestCommitMessageNoStagedChanges(t *testing.T) {
	h := newHarness(t, modeltest.New(), nil)
	h.app.git = func(context.Context, string, ...string) ([]byte, error) { return []byte("\n"), nil }
	if code := h.run("commit-message"); code != 1 {
		t.Fatalf("exit code: got = %d, wanted 1", code)
	}
	if !strings.Contains(h.stderr.String(), "no staged changes found") {
		t.Errorf("stderr: got = %q", h.stderr.String())
	}
}

func TestExplain(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/o/r/pulls/3", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Accept"), "diff") {
			fmt.Fprint(w, stagedDiff)
			return
		}
		fmt.Fprint(w, `{"number": 3, "title": "Print x", "body": "Debugging.", "head": {"sha": "deadbeef"}}`)
	})
	mux.HandleFunc("GET /repos/o/r/issues/3/comments", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"user": {"login": "alice"}, "body": "Please drop the print.", "updated_at": "2025-03-01T10:00:00Z"}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := modeltest.New(modeltest.Text("## Summary\nPrints x.\n"))
	h := newHarness(t, client, nil)
	h.app.newRemote = func(ctx context.Context, token string) (*remote.Client, error) {
		return remote.New(ctx, token, remote.WithBaseURL(srv.URL))
	}

	if code := h.run("explain", "https://github.com/o/r/pull/3"); code != 0 {
		t.Fatalf("exit code: got = %d, stderr:\n%s", code, h.stderr.String())
	}
	if got := h.stdout.String(); got != "## Summary\nPrints x.\n" {
		t.Errorf("stdout: got = %q", got)
	}
	user := client.Requests()[0].Messages[1].Content
	for _, want := range []string{"Head commit: deadbeef", `username="alice"`, "+print(x)"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt is missing %q:\n%s", want, user)
		}
	}
}

func TestExplainBadURL(t *testing.T) {
	h := newHarness(t, modeltest.New(), nil)
	if code := h.run("explain", "https://gitlab.com/o/r/pull/3"); code != 1 {
		t.Fatalf("exit code: got = %d, wanted 1", code)
	}
	if code := h.run("explain"); code != 1 {
		t.Fatalf("exit code without a URL: got = %d, wanted 1", code)
	}
}
