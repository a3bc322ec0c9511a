/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/nalyx27/reviewpanel/agents/toolcall/params"
)

// DuplicateToolError is returned when registering a name that is already taken.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// ValidationError is returned when arguments do not satisfy a tool's schema.
type ValidationError struct {
	Tool      string
	Parameter string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s %s", e.Tool, e.Parameter, e.Reason)
}

// Registry holds the tools an agent may call.
// Register everything up front; after that a Registry is read-only and
// may be shared by concurrently running agents.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry returns a registry holding the given tools.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool. Registering a name twice returns a *DuplicateToolError.
func (r *Registry) Register(t Tool) error {
	if t.Def.Name == "" {
		return errors.New("tool definition has no name")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %q has no handler", t.Def.Name)
	}
	if _, exists := r.tools[t.Def.Name]; exists {
		return &DuplicateToolError{Name: t.Def.Name}
	}
	t.Def = t.Def.Clone()
	r.tools[t.Def.Name] = t
	r.order = append(r.order, t.Def.Name)
	return nil
}

// Definitions returns copies of the registered definitions in registration order.
// A nil registry has no definitions.
func (r *Registry) Definitions() []Definition {
	if r == nil {
		return nil
	}
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Def.Clone())
	}
	return defs
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.order)
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.tools[name]
	return ok
}

// Dispatch validates args against the named tool's schema and invokes it.
//
// An unknown name is not an error: the returned text tells the model the tool
// does not exist so a hallucinated call cannot end the run. Schema violations
// return a *ValidationError; handler failures are returned as-is.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (string, error) {
	var t Tool
	var ok bool
	if r != nil {
		t, ok = r.tools[name]
	}
	if !ok {
		return params.Error("Tool %s not found.", name), nil
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := validate(t.Def, args); err != nil {
		return "", err
	}
	return t.Handler(ctx, ToolCall{Name: name, Args: args})
}

func validate(def Definition, args map[string]any) error {
	declared := make(map[string]Parameter, len(def.Parameters))
	for _, p := range def.Parameters {
		declared[p.Name] = p
		v, present := args[p.Name]
		if !present || v == nil {
			if p.Required {
				return &ValidationError{Tool: def.Name, Parameter: p.Name, Reason: "is required"}
			}
			continue
		}
		if err := params.CheckType(v, p.Type); err != nil {
			return &ValidationError{Tool: def.Name, Parameter: p.Name, Reason: err.Error()}
		}
	}
	if def.DisallowUnknown {
		for name := range args {
			if _, ok := declared[name]; !ok {
				return &ValidationError{Tool: def.Name, Parameter: name, Reason: "is not a declared parameter"}
			}
		}
	}
	return nil
}
