/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package conversation holds the role-tagged transcript exchanged with a model
// during one agent run.
//
// The Transcript enforces tool call pairing at append time: every tool message
// must answer an unanswered call from the preceding assistant message, and no
// other message may be appended while calls are outstanding.
//
//	t := conversation.New()
//	_ = t.Append(conversation.System("You are a reviewer."))
//	_ = t.Append(conversation.User(diff))
//	_ = t.Append(conversation.Assistant("", call))
//	_ = t.Append(conversation.ToolResult(call, "file contents"))
package conversation
