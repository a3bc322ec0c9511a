/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package orchestrator

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultPanel(t *testing.T) {
	p := DefaultPanel("m")
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	var names []string
	for _, r := range p.Reviewers {
		names = append(names, r.Name)
		if diff := cmp.Diff(ReviewTools, r.RequiredTools); diff != "" {
			t.Errorf("%s RequiredTools (-want, +got): %s", r.Name, diff)
		}
	}
	if diff := cmp.Diff([]string{"Security Auditor", "Maintainability Critic"}, names); diff != "" {
		t.Errorf("Reviewers (-want, +got): %s", diff)
	}
	if p.Synthesizer.Name != "Lead Developer" || len(p.Synthesizer.RequiredTools) != 0 {
		t.Errorf("Synthesizer: got = %+v", p.Synthesizer)
	}
}

func TestLoadPanel(t *testing.T) {
	const doc = `
reviewers:
  - name: Performance Hawk
    persona: Counts allocations in hot loops.
    required_tools: [read_file]
  - name: Security Auditor
    persona: Paranoid.
    model: anthropic/claude-sonnet-4
synthesizer:
  name: Lead Developer
  persona: Merges findings.
`
	got, err := LoadPanel(strings.NewReader(doc), "default-model")
	if err != nil {
		t.Fatalf("LoadPanel: %v", err)
	}
	want := Panel{
		Reviewers: []Identity{{
			Name:          "Performance Hawk",
			Persona:       "Counts allocations in hot loops.",
			Model:         "default-model",
			RequiredTools: []string{"read_file"},
		}, {
			Name:    "Security Auditor",
			Persona: "Paranoid.",
			Model:   "anthropic/claude-sonnet-4",
		}},
		Synthesizer: Identity{Name: "Lead Developer", Persona: "Merges findings.", Model: "default-model"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadPanel (-want, +got): %s", diff)
	}
}

func TestLoadPanelErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{{
		name:    "empty",
		doc:     "",
		wantErr: "panel file is empty",
	}, {
		name:    "unknown field",
		doc:     "reviewers:\n  - name: A\n    persona: B\n    temperature: 2\n",
		wantErr: "decoding panel",
	}, {
		name:    "no reviewers",
		doc:     "synthesizer:\n  name: Lead\n  persona: P\n",
		wantErr: "no reviewers",
	}, {
		name:    "duplicate reviewer",
		doc:     "reviewers:\n  - {name: A, persona: B}\n  - {name: A, persona: C}\nsynthesizer: {name: L, persona: P}\n",
		wantErr: `reviewer "A" appears twice`,
	}, {
		name:    "missing persona",
		doc:     "reviewers:\n  - {name: A}\nsynthesizer: {name: L, persona: P}\n",
		wantErr: "persona is required",
	}, {
		name:    "missing synthesizer",
		doc:     "reviewers:\n  - {name: A, persona: B}\n",
		wantErr: "synthesizer: name is required",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPanel(strings.NewReader(tt.doc), "m")
			if err == nil {
				t.Fatal("LoadPanel: got = nil, wanted error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadPanel: got = %v, wanted %q", err, tt.wantErr)
			}
		})
	}
}

func TestToolHints(t *testing.T) {
	if got := (toolHints{}).list(); got != "(none)" {
		t.Errorf("list: got = %q, wanted (none)", got)
	}
	if got := (toolHints{}).required("x"); strings.Contains(got, "MANDATORY") {
		t.Errorf("required with no tools: got = %q", got)
	}

	h := toolHints{Required: []string{"search_codebase", "read_file"}}
	want := "MANDATORY PROOF OF WORK: you MUST call EACH of the following tools at least once before providing your final JSON findings:\n" +
		"1. `search_codebase`\n" +
		"2. `read_file` (use 'app.py' as the path)\n" +
		"Failure to use all of them will result in an incomplete review."
	if diff := cmp.Diff(want, h.required("app.py")); diff != "" {
		t.Errorf("required (-want, +got): %s", diff)
	}
}
