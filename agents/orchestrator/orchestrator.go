/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"

	"github.com/nalyx27/reviewpanel/agents/agentloop"
	"github.com/nalyx27/reviewpanel/agents/agenttrace"
	"github.com/nalyx27/reviewpanel/agents/finding"
	"github.com/nalyx27/reviewpanel/agents/model"
	"github.com/nalyx27/reviewpanel/agents/toolcall"
	"github.com/nalyx27/reviewpanel/subject"
)

// Orchestrator runs panels against one model client and tool registry.
type Orchestrator struct {
	client   model.Client
	registry *toolcall.Registry
	loopOpts []agentloop.Option
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithRoundBudget sets every reviewer's round budget.
func WithRoundBudget(rounds int) Option {
	return func(o *Orchestrator) error {
		o.loopOpts = append(o.loopOpts, agentloop.WithRoundBudget(rounds))
		return nil
	}
}

// WithTemperature sets the reviewers' sampling temperature.
func WithTemperature(temp float64) Option {
	return func(o *Orchestrator) error {
		o.loopOpts = append(o.loopOpts, agentloop.WithTemperature(temp))
		return nil
	}
}

// WithParallelTools lets reviewers run one turn's tool calls concurrently.
func WithParallelTools(parallel bool) Option {
	return func(o *Orchestrator) error {
		o.loopOpts = append(o.loopOpts, agentloop.WithParallelTools(parallel))
		return nil
	}
}

// WithToolTimeout bounds every tool dispatch.
func WithToolTimeout(d time.Duration) Option {
	return func(o *Orchestrator) error {
		o.loopOpts = append(o.loopOpts, agentloop.WithToolTimeout(d))
		return nil
	}
}

// New returns an Orchestrator. registry is shared read-only by every
// reviewer; nil gives reviewers no tools.
func New(client model.Client, registry *toolcall.Registry, opts ...Option) (*Orchestrator, error) {
	if client == nil {
		return nil, errors.New("model client cannot be nil")
	}
	o := &Orchestrator{client: client, registry: registry}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	// Surface bad loop options now rather than once per reviewer.
	if _, err := agentloop.New(client, o.loopOpts...); err != nil {
		return nil, err
	}
	return o, nil
}

// AgentResult is one reviewer's outcome. Err is set when the run failed;
// Result is then zero.
type AgentResult struct {
	Identity Identity
	Result   agentloop.Result
	Err      error
}

// Results holds a panel's outcomes in panel order.
type Results struct {
	Subject subject.Subject
	Agents  []AgentResult
}

// Findings maps each reviewer that finished to its findings.
func (r Results) Findings() map[string][]finding.Finding {
	out := make(map[string][]finding.Finding, len(r.Agents))
	for _, a := range r.Agents {
		if a.Err == nil {
			out[a.Identity.Name] = a.Result.Findings
		}
	}
	return out
}

// Failed returns the reviewers whose run failed.
func (r Results) Failed() []AgentResult {
	var out []AgentResult
	for _, a := range r.Agents {
		if a.Err != nil {
			out = append(out, a)
		}
	}
	return out
}

// Available reports whether at least one reviewer finished.
func (r Results) Available() bool {
	return slices.ContainsFunc(r.Agents, func(a AgentResult) bool { return a.Err == nil })
}

// Review runs every reviewer against subj concurrently and waits for all of
// them.
func (o *Orchestrator) Review(ctx context.Context, subj subject.Subject, reviewers []Identity) Results {
	ctx = agenttrace.WithExecutionContext(ctx, agenttrace.ExecutionContext{Subject: subj.Name})
	log := clog.FromContext(ctx)
	log.With("subject", subj.Name, "mode", subj.Mode, "reviewers", len(reviewers)).Info("Running panel review")

	results := Results{Subject: subj, Agents: make([]AgentResult, len(reviewers))}
	var g errgroup.Group
	for i, id := range reviewers {
		g.Go(func() error {
			res, err := o.review(ctx, subj, id)
			results.Agents[i] = AgentResult{Identity: id, Result: res, Err: err}
			if err != nil {
				log.With("agent", id.Name, "error", err).Warn("Reviewer failed")
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (o *Orchestrator) review(ctx context.Context, subj subject.Subject, id Identity) (agentloop.Result, error) {
	if err := id.validate(); err != nil {
		return agentloop.Result{}, err
	}
	loop, err := o.loop(id)
	if err != nil {
		return agentloop.Result{}, err
	}

	system, err := reviewerSystemPrompt(id, subj, o.available(ctx, id))
	if err != nil {
		return agentloop.Result{}, err
	}
	user, err := reviewerUserPrompt(subj)
	if err != nil {
		return agentloop.Result{}, err
	}
	return loop.Run(ctx, system, user, o.registry)
}

func (o *Orchestrator) loop(id Identity, extra ...agentloop.Option) (*agentloop.Loop, error) {
	opts := slices.Concat(o.loopOpts, []agentloop.Option{
		agentloop.WithName(id.Name),
		agentloop.WithModel(id.Model),
	}, extra)
	return agentloop.New(o.client, opts...)
}

// available returns the registered tool definitions, with the identity's
// required tools that actually exist.
func (o *Orchestrator) available(ctx context.Context, id Identity) toolHints {
	hints := toolHints{Tools: o.registry.Definitions()}
	for _, name := range id.RequiredTools {
		if !o.registry.Has(name) {
			clog.FromContext(ctx).With("agent", id.Name, "tool", name).Warn("Required tool is not registered, dropping it from the prompt")
			continue
		}
		hints.Required = append(hints.Required, name)
	}
	return hints
}

// Synthesize asks lead to merge the reviewers' findings into a Markdown
// report. It makes a single model call without tools and returns the raw
// response text.
func (o *Orchestrator) Synthesize(ctx context.Context, results Results, lead Identity) (string, error) {
	if err := lead.validate(); err != nil {
		return "", fmt.Errorf("synthesizer: %w", err)
	}
	if !results.Available() {
		return "", errors.New("no reviewer finished, nothing to synthesize")
	}
	ctx = agenttrace.WithExecutionContext(ctx, agenttrace.ExecutionContext{Subject: results.Subject.Name})

	loop, err := o.loop(lead, agentloop.WithRoundBudget(1))
	if err != nil {
		return "", err
	}
	system, err := synthesizerSystemPrompt(lead)
	if err != nil {
		return "", err
	}
	user, err := synthesisPrompt(results)
	if err != nil {
		return "", err
	}

	res, err := loop.Run(ctx, system, user, nil)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(res.Text) == "" {
		return "", fmt.Errorf("%s returned an empty report", lead.Name)
	}
	return res.Text, nil
}
