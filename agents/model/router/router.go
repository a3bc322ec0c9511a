/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package router provides a model.Client that picks a backend per request
// from the model id.
//
//   - Models starting with "claude-" use Anthropic's SDK
//   - Models starting with "gemini-" use Google's Gemini API
//   - Anything else (e.g. "google/gemini-2.0-flash-001") goes to the
//     OpenAI-compatible endpoint, OpenRouter by default
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nalyx27/reviewpanel/agents/model"
	"github.com/nalyx27/reviewpanel/agents/model/claudemodel"
	"github.com/nalyx27/reviewpanel/agents/model/googlemodel"
	"github.com/nalyx27/reviewpanel/agents/model/openaimodel"
)

// Provider names a backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderClaude Provider = "claude"
	ProviderGoogle Provider = "google"
)

// ProviderFor returns the backend that serves modelID.
func ProviderFor(modelID string) Provider {
	lower := strings.ToLower(modelID)
	switch {
	case strings.HasPrefix(lower, "claude-"):
		return ProviderClaude
	case strings.HasPrefix(lower, "gemini-"):
		return ProviderGoogle
	default:
		return ProviderOpenAI
	}
}

// credential names the environment variable each provider needs.
var credential = map[Provider]string{
	ProviderOpenAI: "OPENROUTER_API_KEY",
	ProviderClaude: "ANTHROPIC_API_KEY",
	ProviderGoogle: "GEMINI_API_KEY",
}

// MissingCredentialError is returned when a model needs a backend that was
// not configured.
type MissingCredentialError struct {
	Model    string
	Provider Provider
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("model %q needs the %s backend: set %s", e.Model, e.Provider, credential[e.Provider])
}

// Router dispatches each request to the backend for its model.
type Router struct {
	backends map[Provider]model.Client
}

var _ model.Client = (*Router)(nil)

// New creates a router over already-constructed backends. Nil backends are
// treated as unconfigured.
func New(backends map[Provider]model.Client) *Router {
	r := &Router{backends: make(map[Provider]model.Client, len(backends))}
	for p, c := range backends {
		if c != nil {
			r.backends[p] = c
		}
	}
	return r
}

// Config holds the credentials for every backend. Empty keys leave that
// backend unconfigured.
type Config struct {
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	AnthropicAPIKey   string
	GeminiAPIKey      string
}

// FromConfig constructs the SDK clients for every configured backend.
func FromConfig(ctx context.Context, cfg Config) (*Router, error) {
	backends := map[Provider]model.Client{}
	if cfg.OpenRouterAPIKey != "" {
		c, err := openaimodel.New(cfg.OpenRouterAPIKey, openaimodel.WithBaseURL(cfg.OpenRouterBaseURL))
		if err != nil {
			return nil, fmt.Errorf("creating OpenAI-compatible client: %w", err)
		}
		backends[ProviderOpenAI] = c
	}
	if cfg.AnthropicAPIKey != "" {
		c, err := claudemodel.New(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("creating Claude client: %w", err)
		}
		backends[ProviderClaude] = c
	}
	if cfg.GeminiAPIKey != "" {
		c, err := googlemodel.New(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("creating Gemini client: %w", err)
		}
		backends[ProviderGoogle] = c
	}
	return New(backends), nil
}

// Check verifies that every model has a configured backend, so a missing
// credential is reported before any agent starts.
func (r *Router) Check(models ...string) error {
	for _, m := range models {
		if _, err := r.backend(m); err != nil {
			return err
		}
	}
	return nil
}

// Complete implements model.Client.
func (r *Router) Complete(ctx context.Context, req model.Request) (model.Response, error) {
	c, err := r.backend(req.Model)
	if err != nil {
		return model.Response{}, err
	}
	return c.Complete(ctx, req)
}

func (r *Router) backend(modelID string) (model.Client, error) {
	if modelID == "" {
		return nil, errors.New("no model specified")
	}
	p := ProviderFor(modelID)
	c, ok := r.backends[p]
	if !ok {
		return nil, &MissingCredentialError{Model: modelID, Provider: p}
	}
	return c, nil
}
