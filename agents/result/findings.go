/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package result

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/nalyx27/reviewpanel/agents/finding"
)

// Findings extracts the findings array from a model's final answer.
//
// The array is taken from the first '[' to the last ']' of text, so prose or
// code fences around it are ignored. If that slice does not decode, the first
// ```json block is tried. Elements are coerced leniently:
//
//   - severity defaults to info ("warning" is accepted as warn)
//   - category defaults to "general"
//   - line_number accepts numbers and numeric strings; anything else, or a
//     non-positive line, becomes nil
//   - unknown fields are dropped
//
// Elements that are not objects, or lack a file or description, are skipped.
// Findings never fails: anything unparseable yields an empty, non-nil slice.
func Findings(text string) []finding.Finding {
	items, ok := decodeArray(bracketed(text))
	if !ok {
		items, ok = decodeArray(bracketed(ExtractJSON(text)))
	}
	out := []finding.Finding{}
	if !ok {
		return out
	}
	for _, item := range items {
		obj, isObj := item.(map[string]any)
		if !isObj {
			continue
		}
		if f, keep := coerce(obj); keep {
			out = append(out, f)
		}
	}
	return out
}

// bracketed returns text from the first '[' through the last ']', or "" if
// there is no such span.
func bracketed(text string) string {
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}

func decodeArray(s string) ([]any, bool) {
	if s == "" {
		return nil, false
	}
	var items []any
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, false
	}
	return items, true
}

func coerce(obj map[string]any) (finding.Finding, bool) {
	file := text(obj["file"])
	desc := text(obj["description"])
	if file == "" || desc == "" {
		return finding.Finding{}, false
	}

	sev, _ := finding.ParseSeverity(text(obj["severity"]))
	category := text(obj["category"])
	if category == "" {
		category = finding.DefaultCategory
	}
	return finding.Finding{
		File:        file,
		LineNumber:  line(obj["line_number"]),
		Severity:    sev,
		Category:    category,
		Description: desc,
	}, true
}

// text returns v as trimmed text. Only strings count; other JSON types are
// treated as absent.
func text(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func line(v any) *int {
	var f float64
	switch v := v.(type) {
	case float64:
		f = v
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = n
	default:
		return nil
	}
	if f < 1 || f > math.MaxInt32 || math.IsNaN(f) {
		return nil
	}
	return finding.Line(int(f))
}
