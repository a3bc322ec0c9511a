/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claudemodel implements model.Client with the Anthropic SDK.
//
// Responses are streamed and accumulated, so long reviews are not cut off by
// request timeouts. The leading system message becomes the system prompt and
// runs of tool messages are sent as a single user turn of tool_result blocks.
package claudemodel
