/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "reviewpanel.agents.agenttrace"

func tracer() oteltrace.Tracer {
	return otel.Tracer(instrumentationName, oteltrace.WithInstrumentationVersion("1.0.0"))
}

// ToolCall represents a single tool invocation within a trace.
type ToolCall[T any] struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Round     int            `json:"round"`
	Params    map[string]any `json:"params"`
	Result    string         `json:"result"`
	Error     error          `json:"error,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	trace     *Trace[T]
	mu        sync.Mutex
	ctx       context.Context
	span      oteltrace.Span
}

// Trace records one agent run from its prompt to its result.
type Trace[T any] struct {
	ID           string           `json:"id"`
	InputPrompt  string           `json:"input_prompt"`
	ExecContext  ExecutionContext `json:"exec_context,omitempty"`
	ToolCalls    []*ToolCall[T]   `json:"tool_calls"`
	Rounds       int              `json:"rounds"`
	InputTokens  int64            `json:"input_tokens"`
	OutputTokens int64            `json:"output_tokens"`

	// Exhausted is set when the run spent its whole round budget without a
	// final answer.
	Exhausted bool `json:"exhausted,omitempty"`

	Result    T              `json:"result"`
	Error     error          `json:"error,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	tracer    Tracer[T]
	mu        sync.Mutex
	ctx       context.Context
	span      oteltrace.Span
}

func newTraceWithTracer[T any](ctx context.Context, tr Tracer[T], prompt string) *Trace[T] {
	execCtx := GetExecutionContext(ctx)

	attrs := []attribute.KeyValue{attribute.String("agent.prompt", prompt)}
	if execCtx.Agent != "" {
		attrs = append(attrs, attribute.String("agent.name", execCtx.Agent))
	}
	if execCtx.Model != "" {
		attrs = append(attrs, attribute.String("agent.model", execCtx.Model))
	}
	if execCtx.Subject != "" {
		attrs = append(attrs, attribute.String("review.subject", execCtx.Subject))
	}
	ctx, span := tracer().Start(ctx, "agent.execution", oteltrace.WithAttributes(attrs...))

	return &Trace[T]{
		ID:          ulid.Make().String(),
		InputPrompt: prompt,
		ExecContext: execCtx,
		ToolCalls:   []*ToolCall[T]{},
		StartTime:   time.Now(),
		Metadata:    make(map[string]any),
		tracer:      tr,
		ctx:         ctx,
		span:        span,
	}
}

// Context returns a context carrying the trace's span.
func (t *Trace[T]) Context() context.Context {
	return t.ctx
}

// StartRound records that round n (1-based) has begun.
func (t *Trace[T]) StartRound(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Rounds = n
	if t.span != nil {
		t.span.AddEvent("agent.round", oteltrace.WithAttributes(attribute.Int("round", n)))
	}
}

// StartToolCall starts a new tool call and returns it.
func (t *Trace[T]) StartToolCall(id, name string, params map[string]any) *ToolCall[T] {
	ctx, span := tracer().Start(t.ctx, "agent.tool_call", oteltrace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.id", id),
	))

	t.mu.Lock()
	round := t.Rounds
	t.mu.Unlock()

	return &ToolCall[T]{
		ID:        id,
		Name:      name,
		Round:     round,
		Params:    params,
		StartTime: time.Now(),
		trace:     t,
		ctx:       ctx,
		span:      span,
	}
}

// BadToolCall records a tool call that could not run because its arguments
// were malformed or invalid.
func (t *Trace[T]) BadToolCall(id, name string, params map[string]any, err error) {
	_, span := tracer().Start(t.ctx, "agent.tool_call", oteltrace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.id", id),
		attribute.String("error", err.Error()),
	))
	span.SetStatus(codes.Error, err.Error())
	span.End()

	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ToolCalls = append(t.ToolCalls, &ToolCall[T]{
		ID:        id,
		Name:      name,
		Round:     t.Rounds,
		Params:    params,
		StartTime: now,
		EndTime:   now,
		Error:     err,
		trace:     t,
	})
}

// RecordTokenUsage adds one model call's token usage to the trace.
func (t *Trace[T]) RecordTokenUsage(model string, inputTokens, outputTokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.InputTokens += inputTokens
	t.OutputTokens += outputTokens
	if t.span != nil {
		t.span.SetAttributes(
			attribute.String("model", model),
			attribute.Int64("tokens.input", t.InputTokens),
			attribute.Int64("tokens.output", t.OutputTokens),
			attribute.Int64("tokens.total", t.InputTokens+t.OutputTokens),
		)
	}
}

// MarkExhausted flags the run as having spent its round budget.
func (t *Trace[T]) MarkExhausted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Exhausted = true
	if t.span != nil {
		t.span.SetAttributes(attribute.Bool("agent.exhausted", true))
	}
}

// Context returns a context carrying the tool call's span.
func (tc *ToolCall[T]) Context() context.Context {
	return tc.ctx
}

// Complete marks the tool call as complete and adds it to the parent trace.
func (tc *ToolCall[T]) Complete(result string, err error) {
	tc.mu.Lock()
	tc.Result = result
	tc.Error = err
	tc.EndTime = time.Now()
	trace := tc.trace
	span := tc.span
	tc.mu.Unlock()

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}

	trace.mu.Lock()
	defer trace.mu.Unlock()
	trace.ToolCalls = append(trace.ToolCalls, tc)
}

// Duration returns the duration of the tool call.
func (tc *ToolCall[T]) Duration() time.Duration {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return elapsed(tc.StartTime, tc.EndTime)
}

// Complete marks the trace as complete and hands it to its tracer.
func (t *Trace[T]) Complete(result T, err error) {
	t.mu.Lock()
	t.Result = result
	t.Error = err
	t.EndTime = time.Now()
	tr := t.tracer
	span := t.span
	t.mu.Unlock()

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}

	tr.RecordTrace(t)
}

// Duration returns the total duration of the trace.
func (t *Trace[T]) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return elapsed(t.StartTime, t.EndTime)
}

func elapsed(start, end time.Time) time.Duration {
	if end.IsZero() {
		return time.Since(start)
	}
	return end.Sub(start)
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// String renders the trace for humans, e.g. in --verbose output.
func (t *Trace[T]) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Trace %s ===\n", t.ID)
	if t.ExecContext.Agent != "" {
		fmt.Fprintf(&sb, "Agent: %s (%s)\n", t.ExecContext.Agent, t.ExecContext.Model)
	}
	fmt.Fprintf(&sb, "Prompt: %q\n", clip(t.InputPrompt, 200))
	fmt.Fprintf(&sb, "Duration: %v\n", elapsed(t.StartTime, t.EndTime))
	fmt.Fprintf(&sb, "Rounds: %d\n", t.Rounds)
	fmt.Fprintf(&sb, "Tokens: %d in, %d out\n", t.InputTokens, t.OutputTokens)

	if len(t.ToolCalls) > 0 {
		fmt.Fprintf(&sb, "\nTool Calls (%d):\n", len(t.ToolCalls))
		for i, tc := range t.ToolCalls {
			fmt.Fprintf(&sb, "  [%d] %s (ID: %s, round %d)\n", i+1, tc.Name, tc.ID, tc.Round)
			fmt.Fprintf(&sb, "      Duration: %v\n", elapsed(tc.StartTime, tc.EndTime))
			if len(tc.Params) > 0 {
				sb.WriteString("      Params:\n")
				for k, v := range tc.Params {
					fmt.Fprintf(&sb, "        %s: %v\n", k, v)
				}
			}
			if tc.Error != nil {
				fmt.Fprintf(&sb, "      Error: %v\n", tc.Error)
			} else if tc.Result != "" {
				fmt.Fprintf(&sb, "      Result: %s\n", clip(tc.Result, 200))
			}
		}
	} else {
		sb.WriteString("\nNo tool calls\n")
	}

	sb.WriteString("\nCompletion:\n")
	switch {
	case t.Error != nil:
		fmt.Fprintf(&sb, "  Error: %v\n", t.Error)
	case t.Exhausted:
		sb.WriteString("  Round budget exhausted\n")
	default:
		fmt.Fprintf(&sb, "  Result: %s\n", clip(fmt.Sprintf("%v", any(t.Result)), 500))
	}

	if len(t.Metadata) > 0 {
		sb.WriteString("\nMetadata:\n")
		for k, v := range t.Metadata {
			fmt.Fprintf(&sb, "  %s: %v\n", k, v)
		}
	}
	return sb.String()
}
