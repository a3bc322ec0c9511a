/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package orchestrator

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Identity is a reviewer persona bound to a model.
type Identity struct {
	Name    string `yaml:"name" json:"name"`
	Persona string `yaml:"persona" json:"persona"`

	// Model overrides the panel's default model.
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	// RequiredTools are tools the prompt tells the agent to call before
	// answering. Nothing enforces it.
	RequiredTools []string `yaml:"required_tools,omitempty" json:"required_tools,omitempty"`
}

// Panel is the reviewers that run side by side and the lead who merges
// their findings.
type Panel struct {
	Reviewers   []Identity `yaml:"reviewers"`
	Synthesizer Identity   `yaml:"synthesizer"`
}

// ReviewTools is the tool set every default reviewer must exercise.
var ReviewTools = []string{"read_file", "search_codebase", "get_file_history"}

// DefaultPanel returns the Security Auditor and Maintainability Critic, led
// by the Lead Developer, all on model.
func DefaultPanel(model string) Panel {
	return Panel{
		Reviewers: []Identity{{
			Name:          "Security Auditor",
			Persona:       "Paranoid, strict, and unyielding. Treats every line of code as a potential vector for attack. Scans for vulnerabilities (SQL injection, XSS), hardcoded secrets, and missing permission checks.",
			Model:         model,
			RequiredTools: ReviewTools,
		}, {
			Name:          "Maintainability Critic",
			Persona:       "Obsessed with 'Clean Code', naming conventions, and the DRY principle. Hates messy formatting. Focuses on readability, function length, and refactoring.",
			Model:         model,
			RequiredTools: ReviewTools,
		}},
		Synthesizer: Identity{
			Name:    "Lead Developer",
			Persona: "Extremely experienced, pragmatic, empathetic but firm. Goal: De-duplicate, filter hallucinations, resolve conflicts, and format into a clean Markdown report.",
			Model:   model,
		},
	}
}

// LoadPanel reads a YAML panel. Identities without a model get
// defaultModel.
//
//	reviewers:
//	  - name: Performance Hawk
//	    persona: Counts allocations in hot loops.
//	    required_tools: [read_file]
//	synthesizer:
//	  name: Lead Developer
//	  persona: Merges findings into a Markdown report.
func LoadPanel(r io.Reader, defaultModel string) (Panel, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Panel
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return Panel{}, errors.New("panel file is empty")
		}
		return Panel{}, fmt.Errorf("decoding panel: %w", err)
	}

	for i := range p.Reviewers {
		if p.Reviewers[i].Model == "" {
			p.Reviewers[i].Model = defaultModel
		}
	}
	if p.Synthesizer.Model == "" {
		p.Synthesizer.Model = defaultModel
	}
	if err := p.Validate(); err != nil {
		return Panel{}, err
	}
	return p, nil
}

// Validate checks that the panel can run.
func (p Panel) Validate() error {
	if len(p.Reviewers) == 0 {
		return errors.New("panel has no reviewers")
	}
	seen := make(map[string]struct{}, len(p.Reviewers))
	for i, id := range p.Reviewers {
		if err := id.validate(); err != nil {
			return fmt.Errorf("reviewer %d: %w", i+1, err)
		}
		if _, dup := seen[id.Name]; dup {
			return fmt.Errorf("reviewer %q appears twice", id.Name)
		}
		seen[id.Name] = struct{}{}
	}
	if err := p.Synthesizer.validate(); err != nil {
		return fmt.Errorf("synthesizer: %w", err)
	}
	return nil
}

func (id Identity) validate() error {
	switch {
	case strings.TrimSpace(id.Name) == "":
		return errors.New("name is required")
	case strings.TrimSpace(id.Persona) == "":
		return fmt.Errorf("%s: persona is required", id.Name)
	case id.Model == "":
		return fmt.Errorf("%s: model is required", id.Name)
	}
	return nil
}
