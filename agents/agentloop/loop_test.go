/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentloop_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/nalyx27/reviewpanel/agents/agentloop"
	"github.com/nalyx27/reviewpanel/agents/agenttrace"
	"github.com/nalyx27/reviewpanel/agents/conversation"
	"github.com/nalyx27/reviewpanel/agents/finding"
	"github.com/nalyx27/reviewpanel/agents/model"
	"github.com/nalyx27/reviewpanel/agents/model/modeltest"
	"github.com/nalyx27/reviewpanel/agents/toolcall"
)

func testRegistry(t *testing.T, extra ...toolcall.Tool) *toolcall.Registry {
	t.Helper()
	tools := append([]toolcall.Tool{{
		Def: toolcall.Definition{
			Name:        "echo",
			Description: "Echo text back",
			Parameters:  []toolcall.Parameter{{Name: "text", Type: "string", Required: true}},
		},
		Handler: func(_ context.Context, call toolcall.ToolCall) (string, error) {
			text, err := toolcall.Param[string](call, "text")
			if err != nil {
				return "", err
			}
			return "echo: " + text, nil
		},
	}, {
		Def: toolcall.Definition{Name: "broken", Description: "Always fails"},
		Handler: func(context.Context, toolcall.ToolCall) (string, error) {
			return "", errors.New("disk on fire")
		},
	}}, extra...)
	reg, err := toolcall.NewRegistry(tools...)
	require.NoError(t, err)
	return reg
}

func toolMessages(msgs []conversation.Message) []conversation.Message {
	var out []conversation.Message
	for _, m := range msgs {
		if m.Role == conversation.RoleTool {
			out = append(out, m)
		}
	}
	return out
}

func TestRunDirectAnswer(t *testing.T) {
	client := modeltest.New(modeltest.Text(`Found one.
[{"file": "db.py", "line_number": 3, "severity": "critical", "category": "security", "description": "SQL injection"}]`))

	loop, err := agentloop.New(client, agentloop.WithName("Security Auditor"), agentloop.WithModel("test-model"))
	require.NoError(t, err)

	res, err := loop.Run(context.Background(), "You are a reviewer.", "Review this.", testRegistry(t))
	require.NoError(t, err)

	want := []finding.Finding{{
		File: "db.py", LineNumber: finding.Line(3), Severity: finding.SeverityCritical,
		Category: "security", Description: "SQL injection",
	}}
	if diff := cmp.Diff(want, res.Findings); diff != "" {
		t.Errorf("Findings (-want, +got): %s", diff)
	}
	if res.Exhausted || res.Rounds != 1 || res.ToolCalls != 0 {
		t.Errorf("got Exhausted=%v Rounds=%d ToolCalls=%d, wanted false 1 0", res.Exhausted, res.Rounds, res.ToolCalls)
	}

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	if req.Model != "test-model" || req.Temperature != agentloop.DefaultTemperature {
		t.Errorf("request model/temperature: got = %q/%v", req.Model, req.Temperature)
	}
	wantMsgs := []conversation.Message{
		conversation.System("You are a reviewer."),
		conversation.User("Review this."),
	}
	if diff := cmp.Diff(wantMsgs, req.Messages); diff != "" {
		t.Errorf("Messages (-want, +got): %s", diff)
	}
	if got := len(req.Tools); got != 2 {
		t.Errorf("Tools: got = %d, wanted 2", got)
	}
}

func TestRunToolRounds(t *testing.T) {
	// Two tool rounds with 2 and 1 calls, then an answer: 3 model calls, 3 dispatches.
	client := modeltest.New(
		modeltest.Calls(
			modeltest.Call("c1", "echo", `{"text": "a"}`),
			modeltest.Call("c2", "echo", `{"text": "b"}`),
		),
		modeltest.Calls(modeltest.Call("c3", "echo", `{"text": "c"}`)),
		modeltest.Text("[]"),
	)
	loop, err := agentloop.New(client)
	require.NoError(t, err)

	res, err := loop.Run(context.Background(), "sys", "user", testRegistry(t))
	require.NoError(t, err)

	if res.Rounds != 3 || res.ToolCalls != 3 {
		t.Errorf("got Rounds=%d ToolCalls=%d, wanted 3 3", res.Rounds, res.ToolCalls)
	}
	if res.Findings == nil || len(res.Findings) != 0 {
		t.Errorf("Findings: got = %#v, wanted empty non-nil", res.Findings)
	}

	reqs := client.Requests()
	require.Len(t, reqs, 3)

	// Each tool result immediately follows the assistant turn, in issuance order.
	last := reqs[2].Messages
	want := []conversation.Message{
		conversation.System("sys"),
		conversation.User("user"),
		conversation.Assistant("", modeltest.Call("c1", "echo", `{"text": "a"}`), modeltest.Call("c2", "echo", `{"text": "b"}`)),
		{Role: conversation.RoleTool, Content: "echo: a", ToolCallID: "c1", Name: "echo"},
		{Role: conversation.RoleTool, Content: "echo: b", ToolCallID: "c2", Name: "echo"},
		conversation.Assistant("", modeltest.Call("c3", "echo", `{"text": "c"}`)),
		{Role: conversation.RoleTool, Content: "echo: c", ToolCallID: "c3", Name: "echo"},
	}
	if diff := cmp.Diff(want, last); diff != "" {
		t.Errorf("final transcript (-want, +got): %s", diff)
	}
}

// alwaysCalls is a model that never stops asking for tools.
func alwaysCalls(calls *atomic.Int32) model.Client {
	return model.ClientFunc(func(context.Context, model.Request) (model.Response, error) {
		n := calls.Add(1)
		return model.Response{ToolCalls: []conversation.ToolCall{
			modeltest.Call(fmt.Sprintf("call-%d", n), "echo", `{"text": "again"}`),
		}}, nil
	})
}

func TestRunExhaustsBudget(t *testing.T) {
	for _, budget := range []int{1, 3, 5} {
		t.Run(fmt.Sprint(budget), func(t *testing.T) {
			var calls atomic.Int32
			var traced *agenttrace.Trace[agentloop.Result]
			ctx := agenttrace.WithTracer(context.Background(), agenttrace.ByCode(func(tr *agenttrace.Trace[agentloop.Result]) {
				traced = tr
			}))

			loop, err := agentloop.New(alwaysCalls(&calls), agentloop.WithRoundBudget(budget))
			require.NoError(t, err)

			res, err := loop.Run(ctx, "sys", "user", testRegistry(t))
			require.NoError(t, err)

			if got := int(calls.Load()); got != budget {
				t.Errorf("model calls: got = %d, wanted %d", got, budget)
			}
			if !res.Exhausted || res.Rounds != budget || res.ToolCalls != budget {
				t.Errorf("got %+v, wanted exhausted after %d rounds", res, budget)
			}
			if res.Findings == nil || len(res.Findings) != 0 {
				t.Errorf("Findings: got = %#v, wanted empty non-nil", res.Findings)
			}
			require.NotNil(t, traced)
			if !traced.Exhausted || len(traced.ToolCalls) != budget {
				t.Errorf("trace: got Exhausted=%v ToolCalls=%d", traced.Exhausted, len(traced.ToolCalls))
			}
		})
	}
}

func TestRunToolFailuresBecomeText(t *testing.T) {
	client := modeltest.New(
		modeltest.Calls(
			modeltest.Call("c1", "nope", `{}`),
			modeltest.Call("c2", "echo", `{"text": `),
			modeltest.Call("c3", "echo", `{"text": 7}`),
			modeltest.Call("c4", "broken", ``),
		),
		modeltest.Text("[]"),
	)
	loop, err := agentloop.New(client)
	require.NoError(t, err)

	res, err := loop.Run(context.Background(), "sys", "user", testRegistry(t))
	require.NoError(t, err)
	if res.Rounds != 2 {
		t.Errorf("Rounds: got = %d, wanted 2", res.Rounds)
	}

	reqs := client.Requests()
	require.Len(t, reqs, 2)
	got := toolMessages(reqs[1].Messages)
	require.Len(t, got, 4)

	wantPrefixes := []string{
		"Error: Tool nope not found.",
		"Error: Invalid JSON arguments for echo:",
		"Error: Invalid arguments for echo: text expected string",
		"Error: Tool broken failed: disk on fire",
	}
	for i, want := range wantPrefixes {
		if !strings.HasPrefix(got[i].Content, want) {
			t.Errorf("tool message %d: got = %q, wanted prefix %q", i, got[i].Content, want)
		}
		if got[i].ToolCallID != fmt.Sprintf("c%d", i+1) {
			t.Errorf("tool message %d: got id %q", i, got[i].ToolCallID)
		}
	}
}

func TestRunModelFailure(t *testing.T) {
	boom := errors.New("connection refused")
	client := modeltest.New(
		modeltest.Calls(modeltest.Call("c1", "echo", `{"text": "a"}`)),
		modeltest.Fail(boom),
	)
	loop, err := agentloop.New(client, agentloop.WithName("Maintainability Critic"))
	require.NoError(t, err)

	_, err = loop.Run(context.Background(), "sys", "user", testRegistry(t))

	var failure *agentloop.AgentFailure
	require.ErrorAs(t, err, &failure)
	require.ErrorIs(t, err, boom)
	if failure.Agent != "Maintainability Critic" || failure.Round != 2 {
		t.Errorf("got Agent=%q Round=%d", failure.Agent, failure.Round)
	}
	// system, user, assistant, tool
	if got := len(failure.Transcript); got != 4 {
		t.Errorf("Transcript: got %d messages, wanted 4", got)
	}
}

func TestRunProtocolViolation(t *testing.T) {
	client := modeltest.New(
		modeltest.Calls(
			modeltest.Call("dup", "echo", `{"text": "a"}`),
			modeltest.Call("dup", "echo", `{"text": "b"}`),
		),
	)
	loop, err := agentloop.New(client)
	require.NoError(t, err)

	_, err = loop.Run(context.Background(), "sys", "user", testRegistry(t))

	var perr *conversation.ProtocolError
	require.ErrorAs(t, err, &perr)
	var failure *agentloop.AgentFailure
	require.ErrorAs(t, err, &failure)
	if failure.Round != 1 {
		t.Errorf("Round: got = %d, wanted 1", failure.Round)
	}
}

func TestRunParallelToolsKeepOrder(t *testing.T) {
	secondDone := make(chan struct{})
	var order []string
	var orderCh = make(chan string, 2)

	reg := testRegistry(t,
		toolcall.Tool{
			Def: toolcall.Definition{Name: "slow"},
			Handler: func(ctx context.Context, _ toolcall.ToolCall) (string, error) {
				select {
				case <-secondDone:
				case <-ctx.Done():
					return "", ctx.Err()
				}
				orderCh <- "slow"
				return "slow result", nil
			},
		},
		toolcall.Tool{
			Def: toolcall.Definition{Name: "fast"},
			Handler: func(context.Context, toolcall.ToolCall) (string, error) {
				orderCh <- "fast"
				close(secondDone)
				return "fast result", nil
			},
		},
	)

	client := modeltest.New(
		modeltest.Calls(modeltest.Call("c1", "slow", `{}`), modeltest.Call("c2", "fast", `{}`)),
		modeltest.Text("[]"),
	)
	loop, err := agentloop.New(client, agentloop.WithParallelTools(true))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = loop.Run(ctx, "sys", "user", reg)
	require.NoError(t, err)

	close(orderCh)
	for s := range orderCh {
		order = append(order, s)
	}
	if diff := cmp.Diff([]string{"fast", "slow"}, order); diff != "" {
		t.Errorf("completion order (-want, +got): %s", diff)
	}

	got := toolMessages(client.Requests()[1].Messages)
	require.Len(t, got, 2)
	if got[0].Content != "slow result" || got[1].Content != "fast result" {
		t.Errorf("tool results out of issuance order: %q, %q", got[0].Content, got[1].Content)
	}
}

func TestRunToolTimeout(t *testing.T) {
	reg := testRegistry(t, toolcall.Tool{
		Def: toolcall.Definition{Name: "hang"},
		Handler: func(ctx context.Context, _ toolcall.ToolCall) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	})
	client := modeltest.New(
		modeltest.Calls(modeltest.Call("c1", "hang", `{}`)),
		modeltest.Text("[]"),
	)
	loop, err := agentloop.New(client, agentloop.WithToolTimeout(10*time.Millisecond))
	require.NoError(t, err)

	res, err := loop.Run(context.Background(), "sys", "user", reg)
	require.NoError(t, err)
	if res.Exhausted {
		t.Error("a tool timeout must not end the run")
	}

	got := toolMessages(client.Requests()[1].Messages)
	require.Len(t, got, 1)
	if want := "Error: Tool hang timed out after 10ms."; got[0].Content != want {
		t.Errorf("got = %q, wanted %q", got[0].Content, want)
	}
}

func TestRunWithoutTools(t *testing.T) {
	client := modeltest.New(modeltest.Text("feat: add login"))
	loop, err := agentloop.New(client)
	require.NoError(t, err)

	res, err := loop.Run(context.Background(), "sys", "diff", nil)
	require.NoError(t, err)
	if res.Text != "feat: add login" {
		t.Errorf("Text: got = %q", res.Text)
	}
	if got := client.Requests()[0].Tools; len(got) != 0 {
		t.Errorf("Tools: got = %v, wanted none", got)
	}
}

func TestNewOptions(t *testing.T) {
	client := modeltest.New()
	tests := []struct {
		name string
		opt  agentloop.Option
	}{
		{"empty name", agentloop.WithName(" ")},
		{"empty model", agentloop.WithModel("")},
		{"negative temperature", agentloop.WithTemperature(-0.1)},
		{"temperature too high", agentloop.WithTemperature(2.5)},
		{"zero budget", agentloop.WithRoundBudget(0)},
		{"negative timeout", agentloop.WithToolTimeout(-time.Second)},
		{"nil enricher", agentloop.WithAttributeEnricher(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := agentloop.New(client, tt.opt); err == nil {
				t.Error("New: got = nil, wanted error")
			}
		})
	}

	if _, err := agentloop.New(nil); err == nil {
		t.Error("New(nil): got = nil, wanted error")
	}

	loop, err := agentloop.New(client, agentloop.WithName("Lead Developer"), agentloop.WithModel("m"), agentloop.WithTemperature(1.2))
	require.NoError(t, err)
	if loop.Name() != "Lead Developer" || loop.Model() != "m" {
		t.Errorf("got Name=%q Model=%q", loop.Name(), loop.Model())
	}
}
