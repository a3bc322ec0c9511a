/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package toolcall defines the tools an agent may call and dispatches calls to them.
//
// A Tool pairs a provider-independent Definition with a Handler. Definitions are
// converted to SDK-specific shapes by the model backends, so the same Registry
// serves OpenAI-compatible, Claude and Gemini models.
//
// # Registry
//
//	reg, err := toolcall.NewRegistry(tool1, tool2)
//	out, err := reg.Dispatch(ctx, "read_file", map[string]any{"path": "db.py"})
//
// Dispatch never fails on an unknown tool name; it returns an "Error: ..." text
// for the model instead. Arguments that violate the schema produce a
// *ValidationError and handler failures are returned unchanged.
//
// # Review tools
//
// WorkspaceTools and RemoteTools expose the read-only inspection tools over
// callbacks.WorkspaceCallbacks and callbacks.RemoteCallbacks. Implementations of
// those callbacks live in the workspace and remote packages.
//
//	reg, err := toolcall.ReviewTools(ws.Callbacks(), gh.Callbacks())
package toolcall
