/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googlemodel

import (
	"fmt"

	"github.com/nalyx27/reviewpanel/agents/model/retry"
	"google.golang.org/genai"
)

// Option is a functional option for configuring the client.
type Option func(*Client, *genai.ClientConfig) error

// WithMaxOutputTokens sets the maximum tokens for responses.
func WithMaxOutputTokens(tokens int32) Option {
	return func(c *Client, _ *genai.ClientConfig) error {
		if tokens <= 0 {
			return fmt.Errorf("max output tokens must be positive, got %d", tokens)
		}
		c.maxOutputTokens = tokens
		return nil
	}
}

// WithBaseURL overrides the Gemini API endpoint.
func WithBaseURL(url string) Option {
	return func(_ *Client, cfg *genai.ClientConfig) error {
		cfg.HTTPOptions.BaseURL = url
		return nil
	}
}

// WithRetryConfig sets the retry configuration for transient Gemini API errors.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client, _ *genai.ClientConfig) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid retry config: %w", err)
		}
		c.retryConfig = cfg
		return nil
	}
}
