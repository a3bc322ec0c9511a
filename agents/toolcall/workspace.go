/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/chainguard-dev/clog"
	"github.com/nalyx27/reviewpanel/agents/toolcall/callbacks"
	"github.com/nalyx27/reviewpanel/agents/toolcall/params"
)

const (
	// MaxReadChars bounds the text read_file hands back to the model.
	MaxReadChars = 50000

	// MaxSearchChars bounds the text search_codebase hands back to the model.
	MaxSearchChars = 10000

	truncatedMarker = "\n... [TRUNCATED DUE TO LENGTH] ..."
	noMatches       = "No matches found."
	noHistory       = "No history available (file is new or untracked)."
)

// WorkspaceTools returns a Provider exposing read_file, search_codebase and
// get_file_history over the given callbacks. Tools whose callback is nil are omitted.
func WorkspaceTools(cb callbacks.WorkspaceCallbacks) Provider {
	return ProviderFunc(func() []Tool {
		var tools []Tool
		if cb.ReadFile != nil {
			tools = append(tools, Tool{
				Def: Definition{
					Name:        "read_file",
					Description: "Read the content of a file to understand context, imports, or dependencies.",
					Parameters: []Parameter{
						{Name: "path", Type: "string", Description: "The path to the file to read (relative to repository root)", Required: true},
						{Name: "start_line", Type: "integer", Description: "First line to return, 1-indexed (default: 1)"},
						{Name: "end_line", Type: "integer", Description: "Last line to return, inclusive (default: end of file)"},
					},
				},
				Handler: readFileHandler(cb.ReadFile),
			})
		}
		if cb.SearchCodebase != nil {
			tools = append(tools, Tool{
				Def: Definition{
					Name:        "search_codebase",
					Description: "Search for a regex pattern across all files in the codebase, e.g. to find usages of a function.",
					Parameters: []Parameter{
						{Name: "pattern", Type: "string", Description: "The regex pattern to search for", Required: true},
					},
				},
				Handler: searchCodebaseHandler(cb.SearchCodebase),
			})
		}
		if cb.FileHistory != nil {
			tools = append(tools, Tool{
				Def: Definition{
					Name:        "get_file_history",
					Description: "Get the recent git history of a file, including the changes each commit made.",
					Parameters: []Parameter{
						{Name: "path", Type: "string", Description: "The path to the file (relative to repository root)", Required: true},
					},
				},
				Handler: fileHistoryHandler(cb.FileHistory),
			})
		}
		return tools
	})
}

func readFileHandler(readFile func(context.Context, string) (string, error)) Handler {
	return func(ctx context.Context, call ToolCall) (string, error) {
		path, err := Param[string](call, "path")
		if err != nil {
			return "", err
		}
		start, err := OptionalParam(call, "start_line", 1)
		if err != nil {
			return "", err
		}
		end, err := OptionalParam(call, "end_line", 0)
		if err != nil {
			return "", err
		}

		content, err := readFile(ctx, path)
		switch {
		case errors.Is(err, callbacks.ErrNotFound):
			return params.Error("File '%s' not found.", path), nil
		case errors.Is(err, callbacks.ErrTooLarge):
			return params.Error("File '%s' is too large to read (limit 1MB).", path), nil
		case err != nil:
			clog.FromContext(ctx).With("path", path, "error", err).Warn("Failed to read file")
			return "", fmt.Errorf("reading %s: %w", path, err)
		}

		if start != 1 || end != 0 {
			var rerr string
			content, rerr = lineRange(path, content, start, end)
			if rerr != "" {
				return rerr, nil
			}
		}
		return truncate(content, MaxReadChars, truncatedMarker), nil
	}
}

// lineRange returns lines [start, end] of content, 1-indexed and inclusive.
// A non-positive end means the end of the file.
func lineRange(path, content string, start, end int) (string, string) {
	lines := strings.SplitAfter(content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if start < 1 {
		start = 1
	}
	if end <= 0 || end > len(lines) {
		end = len(lines)
	}
	if start > len(lines) {
		return "", params.Error("start_line %d is past the end of '%s' (%d lines).", start, path, len(lines))
	}
	if start > end {
		return "", params.Error("start_line %d is after end_line %d.", start, end)
	}
	return strings.Join(lines[start-1:end], ""), ""
}

func searchCodebaseHandler(search func(context.Context, string) ([]callbacks.Match, error)) Handler {
	return func(ctx context.Context, call ToolCall) (string, error) {
		pattern, err := Param[string](call, "pattern")
		if err != nil {
			return "", err
		}
		matches, err := search(ctx, pattern)
		if err != nil {
			return "", fmt.Errorf("searching for %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return noMatches, nil
		}
		var sb strings.Builder
		for _, m := range matches {
			fmt.Fprintf(&sb, "%s:%d:%s\n", m.Path, m.Line, m.Content)
		}
		return truncate(sb.String(), MaxSearchChars, ""), nil
	}
}

func fileHistoryHandler(history func(context.Context, string) (string, error)) Handler {
	return func(ctx context.Context, call ToolCall) (string, error) {
		path, err := Param[string](call, "path")
		if err != nil {
			return "", err
		}
		out, err := history(ctx, path)
		if errors.Is(err, callbacks.ErrNotFound) {
			return noHistory, nil
		}
		if err != nil {
			return params.Error("getting history for '%s': %v", path, err), nil
		}
		if strings.TrimSpace(out) == "" {
			return noHistory, nil
		}
		return out, nil
	}
}

// truncate cuts s to at most limit characters and appends marker when it does.
func truncate(s string, limit int, marker string) string {
	if len(s) <= limit || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + marker
}
