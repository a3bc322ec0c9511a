/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workspace

import (
	"bufio"
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/nalyx27/reviewpanel/agents/toolcall/callbacks"
)

// MaxMatches bounds how many matches one search collects.
const MaxMatches = 1000

// Search finds lines matching pattern in every text file of the workspace.
// A pattern that is not a valid regular expression is matched literally.
// Dot directories and git-ignored paths are skipped.
func (w *Workspace) Search(ctx context.Context, pattern string) ([]callbacks.Match, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = regexp.MustCompile(regexp.QuoteMeta(pattern))
	}

	ignored := w.ignoreMatcher()

	var matches []callbacks.Match
	err = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip entries we can't access
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == w.root {
			return nil
		}

		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || ignored(parts, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || ignored(parts, false) {
			return nil
		}

		fileMatches, err := searchFile(path, filepath.ToSlash(rel), re)
		if err != nil {
			return nil // Skip files we can't read
		}
		matches = append(matches, fileMatches...)
		if len(matches) >= MaxMatches {
			matches = matches[:MaxMatches]
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// ignoreMatcher loads the repository's .gitignore files. Plain directories
// ignore nothing.
func (w *Workspace) ignoreMatcher() func(parts []string, isDir bool) bool {
	if w.repo == nil {
		return func([]string, bool) bool { return false }
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(w.root), nil)
	if err != nil || len(patterns) == 0 {
		return func([]string, bool) bool { return false }
	}
	m := gitignore.NewMatcher(patterns)
	return m.Match
}

func searchFile(path, rel string, re *regexp.Regexp) ([]callbacks.Match, error) {
	fi, err := os.Stat(path)
	if err != nil || fi.Size() > MaxFileSize {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isBinary(data) {
		return nil, nil
	}

	var matches []callbacks.Match
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), MaxFileSize)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if re.MatchString(line) {
			matches = append(matches, callbacks.Match{
				Path:    rel,
				Line:    lineNum,
				Content: strings.TrimSpace(line),
			})
		}
	}
	return matches, scanner.Err()
}

// isBinary applies git's heuristic: a NUL byte in the first 8000 bytes.
func isBinary(data []byte) bool {
	return bytes.IndexByte(data[:min(len(data), 8000)], 0) >= 0
}
