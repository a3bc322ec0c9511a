/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package callbacks provides lightweight callback types for the read-only review tools.

This package contains the callback types used by tools without importing any
git or GitHub client. Packages that implement the callbacks (workspace and remote)
can import this package without pulling in the toolcall registry.

# Workspace Callbacks

WorkspaceCallbacks inspects the local checkout being reviewed:

	cb := callbacks.WorkspaceCallbacks{
		ReadFile: func(ctx context.Context, path string) (string, error) {
			// Read file from the checkout
		},
		SearchCodebase: func(ctx context.Context, pattern string) ([]callbacks.Match, error) {
			// Grep the checkout
		},
		FileHistory: func(ctx context.Context, path string) (string, error) {
			// Render recent commits touching path
		},
	}

# Remote Callbacks

RemoteCallbacks reads files from a hosted repository:

	cb := callbacks.RemoteCallbacks{
		FetchFile: func(ctx context.Context, owner, repo, path, ref string) (string, error) {
			// Fetch the file at ref
		},
	}
*/
package callbacks
