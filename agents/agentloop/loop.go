/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentloop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/nalyx27/reviewpanel/agents/agenttrace"
	"github.com/nalyx27/reviewpanel/agents/conversation"
	"github.com/nalyx27/reviewpanel/agents/finding"
	"github.com/nalyx27/reviewpanel/agents/metrics"
	"github.com/nalyx27/reviewpanel/agents/model"
	"github.com/nalyx27/reviewpanel/agents/result"
	"github.com/nalyx27/reviewpanel/agents/toolcall"
	"github.com/nalyx27/reviewpanel/agents/toolcall/params"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "google/gemini-2.0-flash-001"
	// DefaultRoundBudget is the number of model calls a run may make.
	DefaultRoundBudget = 5
	// DefaultTemperature keeps reviews close to deterministic.
	DefaultTemperature = 0.1
)

// Result is the outcome of one run.
type Result struct {
	// Text is the model's final answer. Empty when the budget ran out.
	Text string `json:"text"`

	// Findings parsed from Text. Never nil.
	Findings []finding.Finding `json:"findings"`

	// Exhausted is set when the run spent its whole round budget without a
	// final answer. Findings is then empty.
	Exhausted bool `json:"exhausted,omitempty"`

	// Rounds is the number of model calls made.
	Rounds int `json:"rounds"`

	// ToolCalls is the number of tool calls dispatched.
	ToolCalls int `json:"tool_calls"`
}

// Loop runs agents against one model. A Loop holds no per-run state and may
// serve concurrent runs.
type Loop struct {
	client        model.Client
	name          string
	model         string
	temperature   float64
	rounds        int
	parallelTools bool
	toolTimeout   time.Duration
	metrics       *metrics.GenAI
}

// New creates a Loop with the default model, a temperature of 0.1 and a
// budget of 5 rounds.
func New(client model.Client, opts ...Option) (*Loop, error) {
	if client == nil {
		return nil, errors.New("model client cannot be nil")
	}

	genaiMetrics := metrics.NewGenAI(metrics.MeterName)
	genaiMetrics.SetAttributeEnricher(func(ctx context.Context, base []attribute.KeyValue) []attribute.KeyValue {
		return agenttrace.GetExecutionContext(ctx).EnrichAttributes(base)
	})

	l := &Loop{
		client:      client,
		name:        "agent",
		model:       DefaultModel,
		temperature: DefaultTemperature,
		rounds:      DefaultRoundBudget,
		metrics:     genaiMetrics,
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return l, nil
}

// Name returns the agent name.
func (l *Loop) Name() string { return l.name }

// Model returns the model id.
func (l *Loop) Model() string { return l.model }

// Run drives one conversation: the system prompt and user content open the
// transcript, and registry supplies the tools the model may call. A nil
// registry offers no tools.
func (l *Loop) Run(ctx context.Context, systemPrompt, userContent string, registry *toolcall.Registry) (res Result, err error) {
	execCtx := agenttrace.GetExecutionContext(ctx)
	execCtx.Agent = l.name
	execCtx.Model = l.model
	ctx = agenttrace.WithExecutionContext(ctx, execCtx)
	ctx = clog.WithLogger(ctx, clog.FromContext(ctx).With("agent", l.name, "model", l.model))
	log := clog.FromContext(ctx)

	trace := agenttrace.StartTrace[Result](ctx, userContent)
	defer func() {
		trace.Complete(res, err)
	}()

	transcript := conversation.New()
	for _, msg := range []conversation.Message{
		conversation.System(systemPrompt),
		conversation.User(userContent),
	} {
		if err := transcript.Append(msg); err != nil {
			return l.fail(ctx, 0, transcript, err)
		}
	}

	tools := registry.Definitions()
	log.With("tools", len(tools), "rounds", l.rounds).Info("Starting agent run")

	dispatched := 0
	for round := 1; round <= l.rounds; round++ {
		trace.StartRound(round)

		resp, err := l.client.Complete(trace.Context(), model.Request{
			Model:       l.model,
			Messages:    transcript.Snapshot(),
			Temperature: l.temperature,
			Tools:       tools,
		})
		if err != nil {
			return l.fail(ctx, round, transcript, fmt.Errorf("calling model: %w", err))
		}

		if resp.Usage.InputTokens > 0 || resp.Usage.OutputTokens > 0 {
			l.metrics.RecordTokens(ctx, l.model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
			trace.RecordTokenUsage(l.model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
		}

		if len(resp.ToolCalls) == 0 {
			res = Result{
				Text:      resp.Content,
				Findings:  result.Findings(resp.Content),
				Rounds:    round,
				ToolCalls: dispatched,
			}
			l.metrics.RecordAgentRun(ctx, l.model, metrics.OutcomeAnswered)
			log.With("round", round, "findings", len(res.Findings)).Info("Agent answered")
			return res, nil
		}

		if err := transcript.Append(conversation.Assistant(resp.Content, resp.ToolCalls...)); err != nil {
			return l.fail(ctx, round, transcript, err)
		}

		outputs := l.dispatchAll(ctx, trace, registry, resp.ToolCalls)
		for i, call := range resp.ToolCalls {
			if err := transcript.Append(conversation.ToolResult(call, outputs[i])); err != nil {
				return l.fail(ctx, round, transcript, err)
			}
		}
		dispatched += len(resp.ToolCalls)
	}

	trace.MarkExhausted()
	l.metrics.RecordAgentRun(ctx, l.model, metrics.OutcomeExhausted)
	log.With("rounds", l.rounds, "tool_calls", dispatched).Warn("Round budget exhausted without a final answer")
	return Result{
		Findings:  []finding.Finding{},
		Exhausted: true,
		Rounds:    l.rounds,
		ToolCalls: dispatched,
	}, nil
}

func (l *Loop) fail(ctx context.Context, round int, transcript *conversation.Transcript, err error) (Result, error) {
	l.metrics.RecordAgentRun(ctx, l.model, metrics.OutcomeFailed)
	clog.FromContext(ctx).With("round", round, "error", err).Error("Agent run failed")
	return Result{}, &AgentFailure{
		Agent:      l.name,
		Round:      round,
		Transcript: transcript.Snapshot(),
		Err:        err,
	}
}

// dispatchAll runs one turn's tool calls and returns their outputs indexed
// like calls.
func (l *Loop) dispatchAll(ctx context.Context, trace *agenttrace.Trace[Result], registry *toolcall.Registry, calls []conversation.ToolCall) []string {
	outputs := make([]string, len(calls))
	if !l.parallelTools || len(calls) == 1 {
		for i, call := range calls {
			outputs[i] = l.dispatch(ctx, trace, registry, call)
		}
		return outputs
	}

	var g errgroup.Group
	for i, call := range calls {
		g.Go(func() error {
			outputs[i] = l.dispatch(ctx, trace, registry, call)
			return nil
		})
	}
	_ = g.Wait()
	return outputs
}

// dispatch executes one tool call. It never fails: every problem is rendered
// as an error text for the model.
func (l *Loop) dispatch(ctx context.Context, trace *agenttrace.Trace[Result], registry *toolcall.Registry, call conversation.ToolCall) string {
	log := clog.FromContext(ctx).With("tool", call.Name, "id", call.ID)

	args, err := call.DecodeArguments()
	if err != nil {
		log.With("error", err).Warn("Model sent malformed tool arguments")
		trace.BadToolCall(call.ID, call.Name, map[string]any{"arguments": call.Arguments}, err)
		l.metrics.RecordToolCall(ctx, l.model, call.Name, true)
		return params.Error("Invalid JSON arguments for %s: %v", call.Name, err)
	}

	if !registry.Has(call.Name) {
		log.Warn("Model requested an unknown tool")
		trace.BadToolCall(call.ID, call.Name, args, fmt.Errorf("unknown tool: %q", call.Name))
		l.metrics.RecordToolCall(ctx, l.model, call.Name, true)
		out, _ := registry.Dispatch(ctx, call.Name, args)
		return out
	}

	log.Info("Executing tool call")
	tc := trace.StartToolCall(call.ID, call.Name, args)
	out, err := l.invoke(tc.Context(), registry, call.Name, args)
	if err != nil {
		out = l.errorText(call.Name, err)
		log.With("error", err).Warn("Tool call failed")
	}
	tc.Complete(out, err)
	l.metrics.RecordToolCall(ctx, l.model, call.Name, err != nil || strings.HasPrefix(out, "Error:"))
	return out
}

type dispatchResult struct {
	out string
	err error
}

// errToolTimeout marks a handler that outlived the tool timeout.
var errToolTimeout = errors.New("tool timed out")

func (l *Loop) invoke(ctx context.Context, registry *toolcall.Registry, name string, args map[string]any) (string, error) {
	if l.toolTimeout <= 0 {
		return registry.Dispatch(ctx, name, args)
	}

	ctx, cancel := context.WithTimeout(ctx, l.toolTimeout)
	defer cancel()

	// Handlers that ignore ctx must not hold the run hostage.
	done := make(chan dispatchResult, 1)
	go func() {
		out, err := registry.Dispatch(ctx, name, args)
		done <- dispatchResult{out: out, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", errToolTimeout
		}
		return r.out, r.err
	case <-ctx.Done():
		return "", errToolTimeout
	}
}

func (l *Loop) errorText(name string, err error) string {
	var verr *toolcall.ValidationError
	switch {
	case errors.As(err, &verr):
		return params.Error("Invalid arguments for %s: %s %s.", verr.Tool, verr.Parameter, verr.Reason)
	case errors.Is(err, errToolTimeout):
		return params.Error("Tool %s timed out after %v.", name, l.toolTimeout)
	default:
		return params.Error("Tool %s failed: %v", name, err)
	}
}
