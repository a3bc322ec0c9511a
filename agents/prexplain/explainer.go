/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package prexplain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"

	"github.com/nalyx27/reviewpanel/agents/agentloop"
	"github.com/nalyx27/reviewpanel/agents/agenttrace"
	"github.com/nalyx27/reviewpanel/agents/model"
	"github.com/nalyx27/reviewpanel/agents/toolcall"
	"github.com/nalyx27/reviewpanel/agents/toolcall/callbacks"
	"github.com/nalyx27/reviewpanel/remote"
)

// ErrExhausted is returned when the explainer spends its round budget on
// tool calls without writing a report.
var ErrExhausted = errors.New("explainer ran out of rounds before writing a report")

// Explainer turns a pull request into a Markdown walkthrough for a reader
// new to the change.
type Explainer struct {
	loop     *agentloop.Loop
	registry *toolcall.Registry
}

// New returns an Explainer. fetch backs the fetch_remote_file tool; with a
// nil FetchFile the explainer works from the diff alone. opts configure the
// underlying agent loop; the name defaults to "PR Explainer".
func New(client model.Client, fetch callbacks.RemoteCallbacks, opts ...agentloop.Option) (*Explainer, error) {
	registry, err := toolcall.Build(toolcall.RemoteTools(fetch))
	if err != nil {
		return nil, fmt.Errorf("building tools: %w", err)
	}
	loop, err := agentloop.New(client, append([]agentloop.Option{agentloop.WithName("PR Explainer")}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Explainer{loop: loop, registry: registry}, nil
}

// Explain writes the report for pr. request, when set, is appended to the
// user turn, e.g. to ask for a specific file to be fetched.
func (e *Explainer) Explain(ctx context.Context, pr *remote.PullRequestData, request string) (string, error) {
	if pr == nil {
		return "", errors.New("pull request cannot be nil")
	}
	ctx = agenttrace.WithExecutionContext(ctx, agenttrace.ExecutionContext{Subject: pr.String()})
	log := clog.FromContext(ctx).With("pr", pr.String())
	if pr.DiffTruncated {
		log.Warn("Diff too large, explaining a truncated diff")
	}

	system, err := buildSystemPrompt(len(e.registry.Names()) > 0)
	if err != nil {
		return "", err
	}
	user, err := buildUserPrompt(pr, request)
	if err != nil {
		return "", err
	}

	log.With("comments", len(pr.Comments), "diff_bytes", len(pr.Diff)).Info("Explaining pull request")
	res, err := e.loop.Run(ctx, system, user, e.registry)
	if err != nil {
		return "", err
	}
	if res.Exhausted {
		return "", ErrExhausted
	}
	if strings.TrimSpace(res.Text) == "" {
		return "", fmt.Errorf("%s returned an empty report", e.loop.Name())
	}
	return res.Text, nil
}
