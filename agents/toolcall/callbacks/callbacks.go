/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package callbacks

import (
	"context"
	"errors"
)

// Match represents a search result from SearchCodebase.
type Match struct {
	// Path is the file path relative to the workspace root
	Path string `json:"path"`

	// Line is the line number (1-based)
	Line int `json:"line"`

	// Content is the matching line content
	Content string `json:"content"`
}

// ErrNotFound is returned by callbacks when the requested file does not exist.
var ErrNotFound = errors.New("not found")

// ErrTooLarge is returned by ReadFile when the file exceeds the read limit.
var ErrTooLarge = errors.New("file too large")

// WorkspaceCallbacks provides read-only callbacks over the checkout under review.
type WorkspaceCallbacks struct {
	// ReadFile reads a file from the workspace. Missing files return ErrNotFound.
	ReadFile func(ctx context.Context, path string) (content string, err error)

	// SearchCodebase searches for a pattern in the workspace.
	SearchCodebase func(ctx context.Context, pattern string) (matches []Match, err error)

	// FileHistory renders the most recent changes to path.
	// An empty result means the file has no recorded history.
	FileHistory func(ctx context.Context, path string) (history string, err error)
}

// RemoteCallbacks provides read-only access to a hosted repository.
type RemoteCallbacks struct {
	// FetchFile fetches path at ref from owner/repo. Missing files return ErrNotFound.
	FetchFile func(ctx context.Context, owner, repo, path, ref string) (content string, err error)
}
