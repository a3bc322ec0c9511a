/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

// Provider contributes tools to a registry.
// Compose providers with Build: Workspace -> Remote -> anything custom.
type Provider interface {
	// Tools returns provider-independent tool definitions with their handlers.
	Tools() []Tool
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func() []Tool

// Tools implements Provider.
func (f ProviderFunc) Tools() []Tool { return f() }

// Build registers every tool from every provider, in order, into a new Registry.
func Build(providers ...Provider) (*Registry, error) {
	r, _ := NewRegistry()
	for _, p := range providers {
		if p == nil {
			continue
		}
		for _, t := range p.Tools() {
			if err := r.Register(t); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}
