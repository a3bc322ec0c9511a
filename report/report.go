/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/nalyx27/reviewpanel/agents/finding"
	"github.com/nalyx27/reviewpanel/agents/orchestrator"
	"github.com/nalyx27/reviewpanel/subject"
)

// Format selects how a Review is rendered.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatTable    Format = "table"
)

// Formats lists the supported formats.
var Formats = []Format{FormatMarkdown, FormatJSON, FormatTable}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Formats, f) {
		return "", fmt.Errorf("unknown format %q (want one of markdown, json, table)", s)
	}
	return f, nil
}

// Review is the rendered outcome of one panel run.
type Review struct {
	Subject   string         `json:"subject"`
	Mode      subject.Mode   `json:"mode"`
	Files     []string       `json:"files,omitempty"`
	Agents    []AgentSummary `json:"agents"`
	Synthesis string         `json:"synthesis,omitempty"`

	// SynthesisError is set when the lead could not produce a report.
	SynthesisError string `json:"synthesis_error,omitempty"`
}

// AgentSummary is one reviewer's part of a Review.
type AgentSummary struct {
	Name      string            `json:"name"`
	Model     string            `json:"model"`
	Findings  []finding.Finding `json:"findings"`
	Exhausted bool              `json:"exhausted,omitempty"`
	Rounds    int               `json:"rounds"`
	ToolCalls int               `json:"tool_calls"`
	Error     string            `json:"error,omitempty"`
}

// Failed reports whether the reviewer's run failed.
func (a AgentSummary) Failed() bool { return a.Error != "" }

// FromResults collects a panel's results and the synthesized report. A
// non-nil synthErr is recorded in place of the synthesis.
func FromResults(res orchestrator.Results, synthesis string, synthErr error) Review {
	r := Review{
		Subject:   res.Subject.Name,
		Mode:      res.Subject.Mode,
		Files:     res.Subject.Files,
		Agents:    make([]AgentSummary, 0, len(res.Agents)),
		Synthesis: synthesis,
	}
	if synthErr != nil {
		r.Synthesis = ""
		r.SynthesisError = synthErr.Error()
	}
	for _, a := range res.Agents {
		s := AgentSummary{
			Name:      a.Identity.Name,
			Model:     a.Identity.Model,
			Findings:  a.Result.Findings,
			Exhausted: a.Result.Exhausted,
			Rounds:    a.Result.Rounds,
			ToolCalls: a.Result.ToolCalls,
		}
		if a.Err != nil {
			s.Error = a.Err.Error()
		}
		if s.Findings == nil {
			s.Findings = []finding.Finding{}
		}
		r.Agents = append(r.Agents, s)
	}
	return r
}

// Write renders r to w in format f.
func Write(w io.Writer, f Format, r Review) error {
	switch f {
	case FormatMarkdown:
		return writeMarkdown(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatTable:
		return writeTable(w, r)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// ranked is a finding tagged with the reviewer that reported it.
type ranked struct {
	reviewer string
	finding.Finding
}

// allFindings returns every finding, most severe first, keeping panel order
// within a severity.
func (r Review) allFindings() []ranked {
	var out []ranked
	for _, a := range r.Agents {
		for _, f := range a.Findings {
			out = append(out, ranked{reviewer: a.Name, Finding: f})
		}
	}
	slices.SortStableFunc(out, func(a, b ranked) int {
		return cmp.Compare(b.Severity.Rank(), a.Severity.Rank())
	})
	return out
}
