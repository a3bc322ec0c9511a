/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import "github.com/nalyx27/reviewpanel/agents/toolcall/callbacks"

// ReviewTools builds the registry the review panel shares: the workspace
// inspection tools followed by fetch_remote_file.
func ReviewTools(ws callbacks.WorkspaceCallbacks, rc callbacks.RemoteCallbacks) (*Registry, error) {
	return Build(WorkspaceTools(ws), RemoteTools(rc))
}
