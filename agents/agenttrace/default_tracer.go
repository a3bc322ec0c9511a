/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"github.com/chainguard-dev/clog"
)

// NewDefaultTracer creates a tracer that logs completed traces to clog.
func NewDefaultTracer[T any](ctx context.Context) Tracer[T] {
	logger := clog.FromContext(ctx)

	return ByCode[T](func(trace *Trace[T]) {
		log := logger.With(
			"trace_id", trace.ID,
			"agent", trace.ExecContext.Agent,
			"duration_ms", trace.Duration().Milliseconds(),
			"rounds", trace.Rounds,
			"tool_calls", len(trace.ToolCalls),
		)
		if trace.Exhausted {
			log.Warn("Agent exhausted its round budget without a final answer")
		}
		log.Info("Agent trace completed", "trace", trace.String())
	})
}
