/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/nalyx27/reviewpanel/agents/agentloop"
	"github.com/nalyx27/reviewpanel/agents/model/router"
)

type config struct {
	OpenRouterAPIKey  string `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string `env:"OPENROUTER_BASE_URL"`
	AnthropicAPIKey   string `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey      string `env:"GEMINI_API_KEY"`

	// GitHubToken authenticates fetch_remote_file and the PR explainer.
	// Unauthenticated access works for public repositories at a low rate limit.
	GitHubToken string `env:"GITHUB_TOKEN"`

	Model       string  `env:"REVIEW_MODEL,default=google/gemini-2.0-flash-001"`
	Rounds      int     `env:"REVIEW_ROUNDS,default=5"`
	Temperature float64 `env:"REVIEW_TEMPERATURE,default=0.1"`
}

func (c config) router() router.Config {
	return router.Config{
		OpenRouterAPIKey:  c.OpenRouterAPIKey,
		OpenRouterBaseURL: c.OpenRouterBaseURL,
		AnthropicAPIKey:   c.AnthropicAPIKey,
		GeminiAPIKey:      c.GeminiAPIKey,
	}
}

// loadConfig reads the .env file, when there is one, and then the
// environment. Variables already set win over the .env file.
func (a *app) loadConfig(ctx context.Context) (config, error) {
	if a.dotenv != "" {
		if err := godotenv.Load(a.dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config{}, fmt.Errorf("loading %s: %w", a.dotenv, err)
		}
	}

	var cfg config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: a.lookuper,
	}); err != nil {
		return config{}, fmt.Errorf("processing config: %w", err)
	}
	if cfg.Model == "" {
		cfg.Model = agentloop.DefaultModel
	}
	if cfg.Rounds < 1 {
		return config{}, fmt.Errorf("REVIEW_ROUNDS must be at least 1, got %d", cfg.Rounds)
	}
	return cfg, nil
}
