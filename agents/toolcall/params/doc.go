/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package params provides typed argument extraction and schema type checks
// for decoded tool call arguments, plus the textual error format tools return.
package params
