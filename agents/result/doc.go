/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package result turns a model's free-text final answer into structured findings.
//
// Models are told to answer with a JSON array of findings, but routinely wrap it
// in prose or markdown fences, misspell severities or send line numbers as
// strings. Findings tolerates all of that and never fails: a response it cannot
// use yields an empty slice.
//
//	findings := result.Findings(resp.Content)
//
// ExtractJSON is the lower-level helper that unwraps a ```json block.
package result
