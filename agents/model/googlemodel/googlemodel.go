/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googlemodel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/nalyx27/reviewpanel/agents/conversation"
	"github.com/nalyx27/reviewpanel/agents/model"
	"github.com/nalyx27/reviewpanel/agents/model/retry"
	"github.com/nalyx27/reviewpanel/agents/toolcall"
	"github.com/oklog/ulid/v2"
	"google.golang.org/genai"
)

// Client implements model.Client with the Gemini API.
type Client struct {
	client          *genai.Client
	maxOutputTokens int32
	retryConfig     retry.Config
}

var _ model.Client = (*Client)(nil)

// New creates a Gemini API client authenticated with apiKey.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	c := &Client{
		maxOutputTokens: 8192,
		retryConfig:     retry.DefaultConfig(),
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		if err := opt(c, cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	c.client = client
	return c, nil
}

// Complete implements model.Client.
func (c *Client) Complete(ctx context.Context, req model.Request) (model.Response, error) {
	system, rest := model.SystemPrompt(req.Messages)
	contents, err := toContents(rest)
	if err != nil {
		return model.Response{}, err
	}

	temp := float32(req.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: c.maxOutputTokens,
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, def := range req.Tools {
			decls = append(decls, toDeclaration(def))
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	clog.FromContext(ctx).With("model", req.Model).With("contents", len(contents)).Debug("Generating content")

	resp, err := retry.Do(ctx, c.retryConfig, "generate_content", isRetryable, func() (*genai.GenerateContentResponse, error) {
		return c.client.Models.GenerateContent(ctx, req.Model, contents, config)
	})
	if err != nil {
		return model.Response{}, fmt.Errorf("generating content with %s: %w", req.Model, err)
	}
	return fromResponse(resp)
}

func fromResponse(resp *genai.GenerateContentResponse) (model.Response, error) {
	var out model.Response
	if resp == nil {
		return out, errors.New("empty response")
	}
	if resp.UsageMetadata != nil {
		out.Usage = model.Usage{
			InputTokens:  int64(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(resp.Candidates) == 0 {
		return out, errors.New("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return out, fmt.Errorf("no content generated (finish reason %s)", candidate.FinishReason)
	}

	var text []string
	for _, part := range candidate.Content.Parts {
		switch {
		case part.Thought:
		case part.FunctionCall != nil:
			id := part.FunctionCall.ID
			if id == "" {
				// The Gemini API does not always assign call IDs; the transcript needs one.
				id = "call_" + ulid.Make().String()
			}
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return out, fmt.Errorf("encoding arguments for %s: %w", part.FunctionCall.Name, err)
			}
			if part.FunctionCall.Args == nil {
				args = []byte("{}")
			}
			out.ToolCalls = append(out.ToolCalls, conversation.ToolCall{
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: string(args),
			})
		case part.Text != "":
			text = append(text, part.Text)
		}
	}
	out.Content = strings.Join(text, "")
	return out, nil
}

// toContents converts a transcript (without its system message) to Gemini turns.
// Consecutive tool messages become one user turn of function responses.
func toContents(msgs []conversation.Message) ([]*genai.Content, error) {
	var out []*genai.Content
	var responses []*genai.Part
	flush := func() {
		if len(responses) > 0 {
			out = append(out, &genai.Content{Role: "user", Parts: responses})
			responses = nil
		}
	}

	for _, m := range msgs {
		switch m.Role {
		case conversation.RoleTool:
			key := "output"
			if strings.HasPrefix(m.Content, "Error:") {
				key = "error"
			}
			responses = append(responses, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       m.ToolCallID,
				Name:     m.Name,
				Response: map[string]any{key: m.Content},
			}})
		case conversation.RoleUser:
			flush()
			out = append(out, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		case conversation.RoleAssistant:
			flush()
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, &genai.Part{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				args, err := tc.DecodeArguments()
				if err != nil {
					args = map[string]any{}
				}
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args}})
			}
			out = append(out, &genai.Content{Role: "model", Parts: parts})
		case conversation.RoleSystem:
			return nil, errors.New("system message must come first")
		}
	}
	flush()
	return out, nil
}

func toDeclaration(def toolcall.Definition) *genai.FunctionDeclaration {
	props := make(map[string]*genai.Schema, len(def.Parameters))
	for _, p := range def.Parameters {
		props[p.Name] = &genai.Schema{Type: schemaType(p.Type), Description: p.Description}
	}
	return &genai.FunctionDeclaration{
		Name:        def.Name,
		Description: def.Description,
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: props,
			Required:   def.Required(),
		},
	}
}

func schemaType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	}
	return genai.TypeString
}

// isRetryable matches the transient error strings the Gemini API returns.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Resource exhausted") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "Overloaded") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "UNAVAILABLE") ||
		strings.Contains(errStr, "quota exceeded") ||
		strings.Contains(errStr, "Internal error")
}
