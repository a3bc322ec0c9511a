/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package model defines the provider-independent boundary between the agent
// loop and a chat completion API.
//
// Backends live in sub-packages: openaimodel (any OpenAI-compatible endpoint,
// OpenRouter by default), claudemodel and googlemodel. The router package picks
// one of them per request from the model id.
package model

import (
	"context"

	"github.com/nalyx27/reviewpanel/agents/conversation"
	"github.com/nalyx27/reviewpanel/agents/toolcall"
)

// Request is one chat completion call.
type Request struct {
	// Model is the provider model id, e.g. "google/gemini-2.0-flash-001".
	Model string

	// Messages is the full transcript so far, system message first.
	Messages []conversation.Message

	Temperature float64

	// Tools offered to the model. Empty means a plain completion.
	Tools []toolcall.Definition
}

// Usage reports token consumption for one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the model's reply. Either ToolCalls is non-empty, or Content is
// the final answer.
type Response struct {
	Content   string
	ToolCalls []conversation.ToolCall
	Usage     Usage
}

// Client performs chat completions.
// Implementations must be safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (Response, error)

// Complete implements Client.
func (f ClientFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// SystemPrompt returns the content of the leading system message, if any,
// and the messages that follow it. Providers that take the system prompt
// out of band use this.
func SystemPrompt(msgs []conversation.Message) (string, []conversation.Message) {
	if len(msgs) > 0 && msgs[0].Role == conversation.RoleSystem {
		return msgs[0].Content, msgs[1:]
	}
	return "", msgs
}
