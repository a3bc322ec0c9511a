/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package result_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nalyx27/reviewpanel/agents/finding"
	"github.com/nalyx27/reviewpanel/agents/result"
)

func TestFindings(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []finding.Finding
	}{{
		name: "plain array",
		text: `[{"file":"db.py","line_number":12,"severity":"critical","category":"security","description":"SQL injection"}]`,
		want: []finding.Finding{{File: "db.py", LineNumber: finding.Line(12), Severity: finding.SeverityCritical, Category: "security", Description: "SQL injection"}},
	}, {
		name: "prose and fences around the array",
		text: "Here is my review:\n```json\n[{\"file\":\"a.go\",\"severity\":\"warn\",\"description\":\"long function\"}]\n```\nLet me know.",
		want: []finding.Finding{{File: "a.go", Severity: finding.SeverityWarn, Category: "general", Description: "long function"}},
	}, {
		name: "defaults and coercion",
		text: `[{"file":"a.go","line_number":"7","severity":"WARNING","description":"x","extra":true},
		        {"file":"b.go","line_number":0,"severity":"bogus","category":"","description":"y"},
		        {"file":"c.go","line_number":-3,"description":"z"},
		        {"file":"d.go","line_number":"n/a","description":"w"},
		        {"file":"e.go","line_number":null,"severity":null,"description":"v"}]`,
		want: []finding.Finding{
			{File: "a.go", LineNumber: finding.Line(7), Severity: finding.SeverityWarn, Category: "general", Description: "x"},
			{File: "b.go", Severity: finding.SeverityInfo, Category: "general", Description: "y"},
			{File: "c.go", Severity: finding.SeverityInfo, Category: "general", Description: "z"},
			{File: "d.go", Severity: finding.SeverityInfo, Category: "general", Description: "w"},
			{File: "e.go", Severity: finding.SeverityInfo, Category: "general", Description: "v"},
		},
	}, {
		name: "elements missing required fields are skipped",
		text: `[{"file":"a.go"},{"description":"no file"},"a string",42,null,{"file":"ok.go","description":"kept"}]`,
		want: []finding.Finding{{File: "ok.go", Severity: finding.SeverityInfo, Category: "general", Description: "kept"}},
	}, {
		name: "empty array",
		text: "No issues found: []",
		want: []finding.Finding{},
	}, {
		name: "no array",
		text: "The code looks fine to me.",
		want: []finding.Finding{},
	}, {
		name: "malformed json",
		text: `[{"file": "a.go", "description": "unterminated}`,
		want: []finding.Finding{},
	}, {
		name: "reversed brackets",
		text: "] nothing [",
		want: []finding.Finding{},
	}, {
		name: "object instead of array",
		text: `{"file":"a.go","description":"x"}`,
		want: []finding.Finding{},
	}, {
		name: "brackets in prose break slicing but fence recovers",
		text: "See [docs] first.\n```json\n[{\"file\":\"a.go\",\"description\":\"x\"}]\n```",
		want: []finding.Finding{{File: "a.go", Severity: finding.SeverityInfo, Category: "general", Description: "x"}},
	}, {
		name: "empty input",
		text: "",
		want: []finding.Finding{},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := result.Findings(tt.text)
			if got == nil {
				t.Fatal("Findings returned nil, wanted a non-nil slice")
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Findings (-want, +got): %s", diff)
			}
		})
	}
}

func FuzzFindings(f *testing.F) {
	f.Add(`[{"file":"a","description":"b","line_number":3}]`)
	f.Add("[[[")
	f.Add("]]][[[")
	f.Fuzz(func(t *testing.T, s string) {
		if got := result.Findings(s); got == nil {
			t.Fatal("Findings returned nil")
		}
	})
}
