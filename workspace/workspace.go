/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package workspace serves the read-only inspection tools from a local
// checkout: file reads, regex search and per-file git history.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"

	"github.com/nalyx27/reviewpanel/agents/toolcall/callbacks"
)

// MaxFileSize is the largest file ReadFile will return.
const MaxFileSize = 1_000_000

// Workspace is a directory tree, usually a git worktree.
type Workspace struct {
	root string

	// repo is nil when root is not inside a git repository.
	repo *gogit.Repository
}

// Open returns the workspace containing dir. When dir is inside a git
// repository the workspace is rooted at its worktree; otherwise dir itself is
// the root and no history is available.
func Open(dir string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	if fi, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("opening workspace: %w", err)
	} else if !fi.IsDir() {
		return nil, fmt.Errorf("opening workspace: %s is not a directory", abs)
	}

	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	switch {
	case errors.Is(err, gogit.ErrRepositoryNotExists):
		return &Workspace{root: abs}, nil
	case err != nil:
		return nil, fmt.Errorf("opening git repository at %s: %w", abs, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no files to review.
		return &Workspace{root: abs}, nil
	}
	return &Workspace{root: wt.Filesystem.Root(), repo: repo}, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// HasHistory reports whether the workspace is backed by a git repository.
func (w *Workspace) HasHistory() bool {
	return w.repo != nil
}

// Callbacks exposes the workspace to the review tools.
func (w *Workspace) Callbacks() callbacks.WorkspaceCallbacks {
	return callbacks.WorkspaceCallbacks{
		ReadFile:       w.ReadFile,
		SearchCodebase: w.Search,
		FileHistory:    w.History,
	}
}

// rel cleans path into a slash-separated path relative to the root and
// rejects paths that leave it.
func (w *Workspace) rel(path string) (string, error) {
	p := path
	if filepath.IsAbs(p) {
		r, err := filepath.Rel(w.root, p)
		if err != nil {
			return "", fmt.Errorf("path %q: %w", path, err)
		}
		p = r
	}
	p = filepath.Clean(p)
	if p == ".." || strings.HasPrefix(p, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the workspace", path)
	}
	return filepath.ToSlash(p), nil
}

// ReadFile returns the content of path. Invalid UTF-8 is replaced.
func (w *Workspace) ReadFile(_ context.Context, path string) (string, error) {
	p, err := w.rel(path)
	if err != nil {
		return "", err
	}

	root, err := os.OpenRoot(w.root)
	if err != nil {
		return "", err
	}
	defer root.Close()

	f, err := root.Open(filepath.FromSlash(p))
	if errors.Is(err, fs.ErrNotExist) {
		return "", callbacks.ErrNotFound
	} else if err != nil {
		return "", err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return "", fmt.Errorf("%s is a directory", p)
	}
	if fi.Size() > MaxFileSize {
		return "", callbacks.ErrTooLarge
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}
