/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package agenttrace records what an agent did during one run.

A Trace[T] holds the prompt, every tool call (with its round, arguments and
result), token usage, the number of rounds used and whether the round budget
was exhausted. Each trace and tool call is also an OpenTelemetry span.

# Usage

Attach the review being performed so traces and metrics carry it:

	ctx = agenttrace.WithExecutionContext(ctx, agenttrace.ExecutionContext{
		Subject: "src/db.py",
		Agent:   "Security Auditor",
		Model:   "google/gemini-2.0-flash-001",
	})

Collect traces with a callback tracer:

	tracer := agenttrace.ByCode[string](func(trace *agenttrace.Trace[string]) {
		log.Printf("Trace completed: %s", trace.ID)
	})
	ctx = agenttrace.WithTracer[string](ctx, tracer)

	trace := agenttrace.StartTrace[string](ctx, "Review db.py")
	tc := trace.StartToolCall("call_1", "read_file", map[string]any{"path": "db.py"})
	tc.Complete("import os", nil)
	trace.Complete("[]", nil)

Without a tracer in the context, completed traces are logged through clog.
*/
package agenttrace
