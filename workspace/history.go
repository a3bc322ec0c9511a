/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// HistoryDepth is how many commits History reports.
const HistoryDepth = 3

// History renders the last HistoryDepth commits touching path, newest first,
// each with its patch to that file. It returns "" when the workspace has no
// repository or the file has never been committed.
func (w *Workspace) History(ctx context.Context, path string) (string, error) {
	if w.repo == nil {
		return "", nil
	}
	p, err := w.rel(path)
	if err != nil {
		return "", err
	}

	iter, err := w.repo.Log(&gogit.LogOptions{FileName: &p, Order: gogit.LogOrderCommitterTime})
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// No commits yet.
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("reading log for %s: %w", p, err)
	}
	defer iter.Close()

	var sb strings.Builder
	for range HistoryDepth {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		c, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return "", fmt.Errorf("walking log for %s: %w", p, err)
		}
		if err := writeCommit(ctx, &sb, c, p); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// writeCommit renders c the way `git log -p` does, limited to path.
func writeCommit(ctx context.Context, sb *strings.Builder, c *object.Commit, path string) error {
	fmt.Fprintf(sb, "commit %s\n", c.Hash)
	fmt.Fprintf(sb, "Author: %s <%s>\n", c.Author.Name, c.Author.Email)
	fmt.Fprintf(sb, "Date:   %s\n\n", c.Author.When.Format("Mon Jan 2 15:04:05 2006 -0700"))
	for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
		fmt.Fprintf(sb, "    %s\n", line)
	}
	sb.WriteString("\n")

	tree, err := c.Tree()
	if err != nil {
		return fmt.Errorf("reading tree of %s: %w", c.Hash, err)
	}
	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return fmt.Errorf("reading parent of %s: %w", c.Hash, err)
		}
		if parentTree, err = parent.Tree(); err != nil {
			return fmt.Errorf("reading tree of %s: %w", parent.Hash, err)
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, object.DefaultDiffTreeOptions)
	if err != nil {
		return fmt.Errorf("diffing %s: %w", c.Hash, err)
	}
	for _, change := range changes {
		if change.From.Name != path && change.To.Name != path {
			continue
		}
		patch, err := change.PatchContext(ctx)
		if err != nil {
			return fmt.Errorf("rendering patch of %s: %w", c.Hash, err)
		}
		sb.WriteString(patch.String())
		sb.WriteString("\n")
	}
	return nil
}
