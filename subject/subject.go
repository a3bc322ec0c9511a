/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package subject selects what a review looks at: a single file, or the
// changes staged in a git repository.
package subject

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/waigani/diffparser"
)

// Mode says how Content should be read.
type Mode string

const (
	ModeFile Mode = "file"
	ModeDiff Mode = "diff"
)

// StagedName names the subject of a staged review.
const StagedName = "staged_changes"

// ErrNoStagedChanges is returned by Staged when the index matches HEAD.
var ErrNoStagedChanges = errors.New("no staged changes to review")

// Subject is the content handed to every agent on a panel.
type Subject struct {
	// Name is the file path, or StagedName.
	Name string `json:"name"`

	Mode Mode `json:"mode"`

	// Content is the file text or the unified diff.
	Content string `json:"-"`

	// Files lists the paths the subject touches.
	Files []string `json:"files"`
}

// FromFile reads path as a review subject.
func FromFile(path string) (Subject, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Subject{}, fmt.Errorf("file '%s' not found", path)
		}
		return Subject{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Subject{
		Name:    path,
		Mode:    ModeFile,
		Content: string(b),
		Files:   []string{filepath.ToSlash(filepath.Clean(path))},
	}, nil
}

// GitRunner runs git with args in dir and returns its standard output.
type GitRunner func(ctx context.Context, dir string, args ...string) ([]byte, error)

// ExecGit runs the git binary found on PATH.
func ExecGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// Staged returns the staged diff of the repository at dir. A nil run uses
// ExecGit.
func Staged(ctx context.Context, dir string, run GitRunner) (Subject, error) {
	if run == nil {
		run = ExecGit
	}
	out, err := run(ctx, dir, "diff", "--cached")
	if err != nil {
		return Subject{}, fmt.Errorf("checking git changes: %w", err)
	}
	diff := strings.TrimSpace(string(out))
	if diff == "" {
		return Subject{}, ErrNoStagedChanges
	}
	return Subject{
		Name:    StagedName,
		Mode:    ModeDiff,
		Content: diff,
		Files:   ChangedFiles(diff),
	}, nil
}

// ChangedFiles lists the files a unified diff touches, in diff order.
// Deleted files are reported by their old path.
func ChangedFiles(diff string) []string {
	parsed, err := diffparser.Parse(diff)
	if err != nil {
		return nil
	}
	var files []string
	for _, f := range parsed.Files {
		name := f.NewName
		if f.Mode == diffparser.DELETED || name == "" {
			name = f.OrigName
		}
		if name != "" && !slices.Contains(files, name) {
			files = append(files, name)
		}
	}
	return files
}
