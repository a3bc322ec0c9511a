/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package openaimodel

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nalyx27/reviewpanel/agents/model/retry"
)

// Option is a functional option for configuring the client.
type Option func(*Client) error

// WithBaseURL points the client at another OpenAI-compatible endpoint.
// An empty url keeps the OpenRouter default.
func WithBaseURL(url string) Option {
	return func(c *Client) error {
		if url != "" {
			c.baseURL = url
		}
		return nil
	}
}

// WithAttribution overrides the HTTP-Referer and X-Title headers OpenRouter
// uses to attribute traffic. Empty values suppress the header.
func WithAttribution(referer, title string) Option {
	return func(c *Client) error {
		c.referer = referer
		c.title = title
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithRetryConfig sets the retry configuration for transient API errors.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid retry config: %w", err)
		}
		c.retryConfig = cfg
		return nil
	}
}
