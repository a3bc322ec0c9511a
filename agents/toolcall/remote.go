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

	"github.com/nalyx27/reviewpanel/agents/toolcall/callbacks"
	"github.com/nalyx27/reviewpanel/agents/toolcall/params"
)

// MaxRemoteLines bounds the number of lines fetch_remote_file returns.
const MaxRemoteLines = 500

// RemoteTools returns a Provider exposing fetch_remote_file.
// It contributes nothing when FetchFile is nil.
func RemoteTools(cb callbacks.RemoteCallbacks) Provider {
	return ProviderFunc(func() []Tool {
		if cb.FetchFile == nil {
			return nil
		}
		return []Tool{{
			Def: Definition{
				Name:        "fetch_remote_file",
				Description: "Fetch the content of a file from a GitHub repository to see full context or related code not included in the diff.",
				Parameters: []Parameter{
					{Name: "owner", Type: "string", Description: "The repository owner (e.g. 'kubernetes')", Required: true},
					{Name: "repo", Type: "string", Description: "The repository name (e.g. 'kubernetes')", Required: true},
					{Name: "path", Type: "string", Description: "The path to the file within the repository", Required: true},
					{Name: "ref", Type: "string", Description: "Branch, tag or commit to read (default: main)"},
				},
			},
			Handler: fetchFileHandler(cb.FetchFile),
		}}
	})
}

func fetchFileHandler(fetch func(ctx context.Context, owner, repo, path, ref string) (string, error)) Handler {
	return func(ctx context.Context, call ToolCall) (string, error) {
		owner, err := Param[string](call, "owner")
		if err != nil {
			return "", err
		}
		repo, err := Param[string](call, "repo")
		if err != nil {
			return "", err
		}
		path, err := Param[string](call, "path")
		if err != nil {
			return "", err
		}
		ref, err := OptionalParam(call, "ref", "main")
		if err != nil {
			return "", err
		}
		if ref == "" {
			ref = "main"
		}

		content, err := fetch(ctx, owner, repo, path, ref)
		if errors.Is(err, callbacks.ErrNotFound) {
			return params.Error("File not found: https://github.com/%s/%s/blob/%s/%s", owner, repo, ref, path), nil
		}
		if err != nil {
			return params.Error("fetching file: %v", err), nil
		}
		return capLines(content, MaxRemoteLines), nil
	}
}

// capLines keeps the first limit lines of content, noting how many were dropped.
func capLines(content string, limit int) string {
	lines := strings.Split(content, "\n")
	if len(lines) <= limit {
		return content
	}
	return strings.Join(lines[:limit], "\n") +
		fmt.Sprintf("\n\n[File truncated: showing first %d of %d lines]", limit, len(lines))
}
