/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package prexplain explains a GitHub pull request: its diff, its
// description and its discussion, with the option of fetching more files from
// the repository through the agent loop.
//
//	data, err := gh.FetchPullRequest(ctx, pr)
//	...
//	ex, err := prexplain.New(client, gh.Callbacks(), agentloop.WithModel(model))
//	...
//	report, err := ex.Explain(ctx, data, "")
package prexplain
