/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/nalyx27/reviewpanel/agents/agentloop"
	"github.com/nalyx27/reviewpanel/agents/prexplain"
	"github.com/nalyx27/reviewpanel/remote"
)

func (a *app) explainCmd() *cobra.Command {
	var request string
	var rounds int
	cmd := &cobra.Command{
		Use:   "explain PR_URL",
		Short: "Explain a GitHub pull request",
		Long: `Explain a GitHub pull request for a reader new to the change: a summary,
the discussion, an assessment and questions to check understanding.

The explainer may fetch files from the repository at the PR's head commit.`,
		Example: "  reviewpanel explain https://github.com/microsoft/vscode/pull/289801",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.explain(cmd.Context(), args[0], request, rounds)
		},
	}
	cmd.Flags().StringVar(&request, "request", "", "Extra instruction appended to the prompt, e.g. a file to fetch")
	cmd.Flags().IntVar(&rounds, "rounds", 0, "Model calls the explainer may make (default: REVIEW_ROUNDS)")
	return cmd
}

func (a *app) explain(ctx context.Context, rawURL, request string, rounds int) error {
	pr, err := remote.ParsePullRequestURL(strings.TrimSpace(rawURL))
	if err != nil {
		return err
	}
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}
	client, err := a.client(ctx, cfg, cfg.Model)
	if err != nil {
		return err
	}
	gh, err := a.newRemote(ctx, cfg.GitHubToken)
	if err != nil {
		return err
	}

	clog.FromContext(ctx).With("pr", pr.String()).Info("Fetching pull request")
	data, err := gh.FetchPullRequest(ctx, pr)
	if err != nil {
		return fmt.Errorf("fetching PR data: %w", err)
	}

	if rounds == 0 {
		rounds = cfg.Rounds
	}
	ex, err := prexplain.New(client, gh.Callbacks(),
		agentloop.WithModel(cfg.Model),
		agentloop.WithTemperature(cfg.Temperature),
		agentloop.WithRoundBudget(rounds),
	)
	if err != nil {
		return err
	}
	if a.verbose {
		ctx = a.withTraces(ctx)
	}

	out, err := ex.Explain(ctx, data, request)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, strings.TrimSpace(out))
	return nil
}
