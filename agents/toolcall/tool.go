/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"
	"slices"

	"github.com/nalyx27/reviewpanel/agents/toolcall/params"
)

// ToolCall is a provider-independent representation of a tool invocation
// with its arguments already decoded.
type ToolCall struct {
	Name string
	Args map[string]any
}

// Definition describes a tool's schema (name, description, parameters).
type Definition struct {
	Name        string
	Description string
	Parameters  []Parameter

	// DisallowUnknown rejects arguments that are not declared in Parameters.
	// Unknown arguments are tolerated by default.
	DisallowUnknown bool
}

// Parameter describes a single tool parameter.
type Parameter struct {
	Name        string
	Type        string // "string", "integer", "boolean", "number"
	Description string
	Required    bool
}

// Clone returns a deep copy of the definition.
func (d Definition) Clone() Definition {
	d.Parameters = slices.Clone(d.Parameters)
	return d
}

// Required returns the names of the required parameters in declaration order.
func (d Definition) Required() []string {
	var req []string
	for _, p := range d.Parameters {
		if p.Required {
			req = append(req, p.Name)
		}
	}
	return req
}

// JSONSchema renders the parameters as a JSON schema object, the shape every
// chat completion API accepts for function parameters.
func (d Definition) JSONSchema() map[string]any {
	props := make(map[string]any, len(d.Parameters))
	for _, p := range d.Parameters {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[p.Name] = prop
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if req := d.Required(); len(req) > 0 {
		schema["required"] = req
	}
	if d.DisallowUnknown {
		schema["additionalProperties"] = false
	}
	return schema
}

// Handler executes a tool call and returns its text result.
// Handlers report I/O failures as errors; the agent loop turns them into text.
type Handler func(ctx context.Context, call ToolCall) (string, error)

// Tool binds a definition to the handler that serves it.
type Tool struct {
	Def     Definition
	Handler Handler
}

// Param extracts a required parameter from the tool call args.
func Param[T any](call ToolCall, name string) (T, error) {
	return params.Extract[T](call.Args, name)
}

// OptionalParam extracts an optional parameter from the tool call args.
func OptionalParam[T any](call ToolCall, name string, defaultValue T) (T, error) {
	return params.ExtractOptional[T](call.Args, name, defaultValue)
}
