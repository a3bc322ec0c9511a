/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package finding defines the structured review observation produced by agents.
package finding

import (
	"fmt"
	"strings"
)

// Severity ranks how urgent a finding is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarn     Severity = "warn"
	SeverityInfo     Severity = "info"
)

// DefaultCategory is used when a finding does not name one.
const DefaultCategory = "general"

// ParseSeverity normalizes free-form model text into a Severity.
// The second return value reports whether the input was recognized.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return SeverityCritical, true
	case "warn", "warning":
		return SeverityWarn, true
	case "info":
		return SeverityInfo, true
	default:
		return SeverityInfo, false
	}
}

// Rank returns a numeric rank for sorting (higher = more severe).
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarn:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Finding is one structured review observation.
type Finding struct {
	File        string   `json:"file" jsonschema:"required,description=Path of the file the finding refers to"`
	LineNumber  *int     `json:"line_number" jsonschema:"description=1-based line number or null when the finding is file-wide"`
	Severity    Severity `json:"severity" jsonschema:"enum=critical,enum=warn,enum=info"`
	Category    string   `json:"category" jsonschema:"description=Free-form tag such as security or style"`
	Description string   `json:"description" jsonschema:"required,description=Short explanation of the issue"`
}

// Location renders file:line, or just the file when no line is known.
func (f Finding) Location() string {
	if f.LineNumber == nil {
		return f.File
	}
	return fmt.Sprintf("%s:%d", f.File, *f.LineNumber)
}

// Line returns a pointer to n, for building findings in code.
func Line(n int) *int {
	return &n
}
