/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package modeltest provides a scripted model.Client for tests.
package modeltest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/nalyx27/reviewpanel/agents/conversation"
	"github.com/nalyx27/reviewpanel/agents/model"
)

// Step is one scripted reply.
type Step struct {
	Response model.Response
	Err      error

	// Wait, when set, blocks the reply until it is closed or ctx is done.
	Wait <-chan struct{}
}

// Text scripts a final answer.
func Text(content string) Step {
	return Step{Response: model.Response{Content: content}}
}

// Calls scripts a reply requesting tools.
func Calls(calls ...conversation.ToolCall) Step {
	return Step{Response: model.Response{ToolCalls: calls}}
}

// Fail scripts a transport error.
func Fail(err error) Step {
	return Step{Err: err}
}

// Call builds a tool call with raw JSON arguments.
func Call(id, name, args string) conversation.ToolCall {
	return conversation.ToolCall{ID: id, Name: name, Arguments: args}
}

// Client replays a script of replies in order and records every request.
// It is safe for concurrent use.
type Client struct {
	mu       sync.Mutex
	script   []Step
	requests []model.Request
}

var _ model.Client = (*Client)(nil)

// New returns a client that answers with steps in order.
func New(steps ...Step) *Client {
	return &Client{script: steps}
}

// Complete implements model.Client. Requests beyond the script fail.
func (c *Client) Complete(ctx context.Context, req model.Request) (model.Response, error) {
	c.mu.Lock()
	req.Messages = slices.Clone(req.Messages)
	req.Tools = slices.Clone(req.Tools)
	c.requests = append(c.requests, req)
	n := len(c.requests)
	if n > len(c.script) {
		c.mu.Unlock()
		return model.Response{}, fmt.Errorf("modeltest: unscripted request %d", n)
	}
	step := c.script[n-1]
	c.mu.Unlock()

	if step.Wait != nil {
		select {
		case <-step.Wait:
		case <-ctx.Done():
			return model.Response{}, ctx.Err()
		}
	}
	return step.Response, step.Err
}

// Requests returns the requests received so far.
func (c *Client) Requests() []model.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.requests)
}

// ByModel routes each request to the client registered for its model id, so
// concurrently running agents can each follow their own script.
type ByModel map[string]model.Client

// Complete implements model.Client.
func (b ByModel) Complete(ctx context.Context, req model.Request) (model.Response, error) {
	c, ok := b[req.Model]
	if !ok {
		return model.Response{}, fmt.Errorf("modeltest: no client for model %q", req.Model)
	}
	return c.Complete(ctx, req)
}
