/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// ExecutionContext describes which review an agent run belongs to.
// It enriches traces and metrics for every run started under it.
type ExecutionContext struct {
	Subject string `json:"subject,omitempty"` // What is under review: a file path, "staged changes" or a PR URL
	Agent   string `json:"agent,omitempty"`   // Identity name, e.g. "Security Auditor"
	Model   string `json:"model,omitempty"`   // Model id the agent runs on
}

// EnrichAttributes adds execution context attributes to the provided base attributes.
// Only the agent name is added: metrics already carry the model, and the
// subject is unbounded so it stays on traces.
func (e ExecutionContext) EnrichAttributes(baseAttrs []attribute.KeyValue) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, len(baseAttrs), len(baseAttrs)+1)
	copy(attrs, baseAttrs)
	if e.Agent != "" {
		attrs = append(attrs, attribute.String("agent", e.Agent))
	}
	return attrs
}

type contextKey string

const executionContextKey contextKey = "execution_context"

// WithExecutionContext adds execution context to the Go context.
func WithExecutionContext(ctx context.Context, execCtx ExecutionContext) context.Context {
	return context.WithValue(ctx, executionContextKey, execCtx)
}

// GetExecutionContext retrieves execution context from the Go context.
func GetExecutionContext(ctx context.Context) ExecutionContext {
	if execCtx, ok := ctx.Value(executionContextKey).(ExecutionContext); ok {
		return execCtx
	}
	return ExecutionContext{}
}
