/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"fmt"
	"io"
	"strings"
)

func writeMarkdown(w io.Writer, r Review) error {
	var sb strings.Builder
	if r.Synthesis != "" {
		sb.WriteString(strings.TrimSpace(r.Synthesis))
		sb.WriteString("\n")
	} else {
		// Without a synthesis the raw findings are the report.
		fmt.Fprintf(&sb, "# Review of %s\n\n", r.Subject)
		if r.SynthesisError != "" {
			fmt.Fprintf(&sb, "> The final report could not be written: %s\n\n", r.SynthesisError)
		}
		findings := r.allFindings()
		if len(findings) == 0 {
			sb.WriteString("No issues found.\n")
		}
		for _, f := range findings {
			category := f.Category
			if category == "" {
				category = "general"
			}
			fmt.Fprintf(&sb, "- **%s** `%s` [%s] %s _(%s)_\n", f.Severity, f.Location(), category, f.Description, f.reviewer)
		}
	}

	var notes []string
	for _, a := range r.Agents {
		switch {
		case a.Failed():
			notes = append(notes, fmt.Sprintf("- %s failed: %s", a.Name, a.Error))
		case a.Exhausted:
			notes = append(notes, fmt.Sprintf("- %s ran out of rounds after %d tool calls without a verdict.", a.Name, a.ToolCalls))
		}
	}
	if len(notes) > 0 {
		sb.WriteString("\n## Reviewer Status\n\n")
		sb.WriteString(strings.Join(notes, "\n"))
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
