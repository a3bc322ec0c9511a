/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudemodel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/chainguard-dev/clog"
	"github.com/nalyx27/reviewpanel/agents/conversation"
	"github.com/nalyx27/reviewpanel/agents/model"
	"github.com/nalyx27/reviewpanel/agents/model/retry"
)

// Client implements model.Client over the Anthropic Messages API.
type Client struct {
	client      anthropic.Client
	maxTokens   int64
	baseURL     string
	retryConfig retry.Config
}

var _ model.Client = (*Client)(nil)

// New creates a client authenticated with apiKey.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	c := &Client{
		maxTokens:   8192,
		retryConfig: retry.DefaultConfig(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if c.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(c.baseURL))
	}
	c.client = anthropic.NewClient(reqOpts...)
	return c, nil
}

// Complete implements model.Client.
func (c *Client) Complete(ctx context.Context, req model.Request) (model.Response, error) {
	log := clog.FromContext(ctx)

	system, rest := model.SystemPrompt(req.Messages)
	msgs, err := toMessages(rest)
	if err != nil {
		return model.Response{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: c.maxTokens,
		Messages:  msgs,
		// Claude accepts temperatures in [0, 1].
		Temperature: anthropic.Float(min(max(req.Temperature, 0), 1)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	for _, def := range req.Tools {
		schema := def.JSONSchema()
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        def.Name,
				Description: anthropic.String(def.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: schema["properties"],
					Required:   def.Required(),
				},
			},
		})
	}

	log.With("model", req.Model).With("messages", len(msgs)).Debug("Streaming Claude message")

	message, err := retry.Do(ctx, c.retryConfig, "stream_message", isRetryable, func() (anthropic.Message, error) {
		stream := c.client.Messages.NewStreaming(ctx, params)
		var msg anthropic.Message
		for stream.Next() {
			if err := msg.Accumulate(stream.Current()); err != nil {
				return msg, fmt.Errorf("failed to accumulate event: %w", err)
			}
		}
		return msg, stream.Err()
	})
	if err != nil {
		return model.Response{}, fmt.Errorf("failed to stream Claude response: %w", err)
	}
	return fromMessage(message), nil
}

func fromMessage(message anthropic.Message) model.Response {
	out := model.Response{
		Usage: model.Usage{
			InputTokens:  message.Usage.InputTokens,
			OutputTokens: message.Usage.OutputTokens,
		},
	}
	var text []string
	for _, block := range message.Content {
		switch block.Type {
		case "text":
			text = append(text, block.Text)
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, conversation.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}
	out.Content = strings.Join(text, "")
	return out
}

// toMessages converts a transcript (without its system message) to Claude turns.
// Claude carries tool results as blocks of a user turn, so consecutive tool
// messages fold into one.
func toMessages(msgs []conversation.Message) ([]anthropic.MessageParam, error) {
	var out []anthropic.MessageParam
	var results []anthropic.ContentBlockParamUnion
	flush := func() {
		if len(results) > 0 {
			out = append(out, anthropic.NewUserMessage(results...))
			results = nil
		}
	}

	for _, m := range msgs {
		switch m.Role {
		case conversation.RoleTool:
			results = append(results, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, strings.HasPrefix(m.Content, "Error:")))
		case conversation.RoleUser:
			flush()
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case conversation.RoleAssistant:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				args, err := tc.DecodeArguments()
				if err != nil {
					// Replay what we can; the tool result already told the model it was malformed.
					args = map[string]any{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, args, tc.Name))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case conversation.RoleSystem:
			return nil, errors.New("system message must come first")
		}
	}
	flush()
	return out, nil
}

func isRetryable(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return retry.StatusRetryable(apiErr.StatusCode)
	}
	return false
}

