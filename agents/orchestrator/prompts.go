/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package orchestrator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nalyx27/reviewpanel/agents/finding"
	"github.com/nalyx27/reviewpanel/agents/promptbuilder"
	"github.com/nalyx27/reviewpanel/agents/schema"
	"github.com/nalyx27/reviewpanel/agents/toolcall"
	"github.com/nalyx27/reviewpanel/subject"
)

var reviewerSystem = promptbuilder.MustNewPrompt(`You are {{name}}. {{persona}}

You will receive {{subject_kind}} '{{subject}}'.
Your goal is to find issues and return them in a structured JSON format.

Available tools:
{{tools}}

{{required}}

RESPONSE FORMAT:
You may explain your reasoning for calling tools first.
Once you have gathered enough information, provide your findings as an ARRAY of JSON objects matching this schema:
{{schema}}

Severity is one of critical, warn or info. Use null for line_number when a finding applies to the whole file.
If no issues are found, return an empty array [].
Do not include any other text in the final response except the JSON array.`)

var reviewerUser = promptbuilder.MustNewPrompt(`Review this {{mode}} content from {{subject}}:

{{content}}`)

var synthesizerSystem = promptbuilder.MustNewPrompt(`You are {{name}}. {{persona}}`)

var synthesis = promptbuilder.MustNewPrompt(`Here are the raw findings from {{count}} reviewers of {{subject}}:

{{findings}}

Please synthesize these into a final, actionable Markdown report.
Deduplicate if several reviewers found the same issue.
Filter out minor nits or hallucinations.
If a reviewer failed or ran out of rounds, say so briefly; do not invent findings for it.
Make it human-readable and professional.`)

// toolHints is what a reviewer prompt says about tools.
type toolHints struct {
	Tools    []toolcall.Definition
	Required []string
}

func (h toolHints) list() string {
	if len(h.Tools) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for _, def := range h.Tools {
		params := make([]string, 0, len(def.Parameters))
		for _, p := range def.Parameters {
			if p.Required {
				params = append(params, p.Name)
			} else {
				params = append(params, p.Name+"?")
			}
		}
		fmt.Fprintf(&sb, "- %s(%s): %s\n", def.Name, strings.Join(params, ", "), def.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (h toolHints) required(subjectName string) string {
	if len(h.Required) == 0 {
		return "Use the tools whenever the content alone is not enough to confirm an issue."
	}
	var sb strings.Builder
	sb.WriteString("MANDATORY PROOF OF WORK: you MUST call EACH of the following tools at least once before providing your final JSON findings:\n")
	for i, name := range h.Required {
		fmt.Fprintf(&sb, "%d. `%s`", i+1, name)
		if name == "read_file" || name == "get_file_history" {
			fmt.Fprintf(&sb, " (use '%s' as the path)", subjectName)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Failure to use all of them will result in an incomplete review.")
	return sb.String()
}

func subjectKind(subj subject.Subject) string {
	if subj.Mode == subject.ModeDiff {
		return "a unified diff of the changes staged as"
	}
	return "content from a file named"
}

func reviewerSystemPrompt(id Identity, subj subject.Subject, hints toolHints) (string, error) {
	findingsSchema, err := schema.FindingsJSON()
	if err != nil {
		return "", err
	}
	// The staged diff has no single path to read.
	target := subj.Name
	if subj.Mode == subject.ModeDiff && len(subj.Files) > 0 {
		target = subj.Files[0]
	}

	p := reviewerSystem
	for _, b := range []struct{ name, value string }{
		{"name", id.Name},
		{"persona", id.Persona},
		{"subject_kind", subjectKind(subj)},
		{"subject", subj.Name},
		{"tools", hints.list()},
		{"required", hints.required(target)},
		{"schema", findingsSchema},
	} {
		if p, err = p.BindTrustedString(b.name, b.value); err != nil {
			return "", fmt.Errorf("binding %s: %w", b.name, err)
		}
	}
	return p.Build()
}

func reviewerUserPrompt(subj subject.Subject) (string, error) {
	mode, lang := "file", ""
	if subj.Mode == subject.ModeDiff {
		mode, lang = "diff", "diff"
	}
	p, err := reviewerUser.BindTrustedString("mode", mode)
	if err != nil {
		return "", err
	}
	if p, err = p.BindTrustedString("subject", subj.Name); err != nil {
		return "", err
	}
	if p, err = p.BindFenced("content", lang, subj.Content); err != nil {
		return "", err
	}
	return p.Build()
}

func synthesizerSystemPrompt(lead Identity) (string, error) {
	p, err := synthesizerSystem.BindTrustedString("name", lead.Name)
	if err != nil {
		return "", err
	}
	if p, err = p.BindTrustedString("persona", lead.Persona); err != nil {
		return "", err
	}
	return p.Build()
}

// reviewerReport is one reviewer's section of the synthesis input.
type reviewerReport struct {
	Reviewer  string            `json:"reviewer"`
	Findings  []finding.Finding `json:"findings"`
	Exhausted bool              `json:"ran_out_of_rounds,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func synthesisPrompt(results Results) (string, error) {
	reports := make([]reviewerReport, 0, len(results.Agents))
	for _, a := range results.Agents {
		r := reviewerReport{Reviewer: a.Identity.Name, Findings: a.Result.Findings, Exhausted: a.Result.Exhausted}
		if a.Err != nil {
			r.Findings = nil
			r.Error = a.Err.Error()
		}
		reports = append(reports, r)
	}

	p, err := synthesis.BindTrustedString("count", strconv.Itoa(len(reports)))
	if err != nil {
		return "", err
	}
	if p, err = p.BindTrustedString("subject", results.Subject.Name); err != nil {
		return "", err
	}
	if p, err = p.BindJSON("findings", reports); err != nil {
		return "", err
	}
	return p.Build()
}
