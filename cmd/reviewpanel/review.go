/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/nalyx27/reviewpanel/agents/agentloop"
	"github.com/nalyx27/reviewpanel/agents/agenttrace"
	"github.com/nalyx27/reviewpanel/agents/orchestrator"
	"github.com/nalyx27/reviewpanel/agents/toolcall"
	"github.com/nalyx27/reviewpanel/report"
	"github.com/nalyx27/reviewpanel/subject"
	"github.com/nalyx27/reviewpanel/workspace"
)

type reviewFlags struct {
	file          string
	rounds        int
	parallelTools bool
	toolTimeout   time.Duration
	panel         string
	format        string
	metricsFile   string
}

func (a *app) reviewCmd() *cobra.Command {
	var f reviewFlags
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review a file or the staged changes",
		Long: `Review a file, or the staged changes when no file is given.

Every reviewer on the panel runs concurrently with read_file, search_codebase,
get_file_history and fetch_remote_file at hand. The Lead Developer then merges
their findings into one report.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.review(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.file, "file", "", "File to review (default: the staged changes)")
	cmd.Flags().IntVar(&f.rounds, "rounds", 0, "Model calls each reviewer may make (default: REVIEW_ROUNDS)")
	cmd.Flags().BoolVar(&f.parallelTools, "parallel-tools", false, "Run one turn's tool calls concurrently")
	cmd.Flags().DurationVar(&f.toolTimeout, "tool-timeout", 30*time.Second, "Limit for a single tool call (0 disables)")
	cmd.Flags().StringVar(&f.panel, "panel", "", "YAML file describing the reviewers and the synthesizer")
	cmd.Flags().StringVar(&f.format, "format", string(report.FormatMarkdown), "Output format (markdown, json, table)")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics about the review to this file")
	return cmd
}

func (a *app) review(ctx context.Context, f reviewFlags) error {
	log := clog.FromContext(ctx)
	format, err := report.ParseFormat(f.format)
	if err != nil {
		return err
	}
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	subj, err := a.subject(ctx, f.file)
	if errors.Is(err, subject.ErrNoStagedChanges) {
		fmt.Fprintln(a.stdout, "No staged changes to review.")
		return nil
	} else if err != nil {
		return err
	}

	panel, err := loadPanel(f.panel, cfg.Model)
	if err != nil {
		return err
	}
	models := []string{panel.Synthesizer.Model}
	for _, r := range panel.Reviewers {
		models = append(models, r.Model)
	}
	client, err := a.client(ctx, cfg, models...)
	if err != nil {
		return err
	}

	registry, err := a.reviewTools(ctx, cfg)
	if err != nil {
		return err
	}

	rounds := cfg.Rounds
	if f.rounds != 0 {
		rounds = f.rounds
	}
	o, err := orchestrator.New(client, registry,
		orchestrator.WithRoundBudget(rounds),
		orchestrator.WithTemperature(cfg.Temperature),
		orchestrator.WithParallelTools(f.parallelTools),
		orchestrator.WithToolTimeout(f.toolTimeout),
	)
	if err != nil {
		return err
	}

	if a.verbose {
		ctx = a.withTraces(ctx)
	}
	log.With("subject", subj.Name, "mode", subj.Mode).Info("Running parallel reviews")
	results := o.Review(ctx, subj, panel.Reviewers)
	if a.verbose {
		a.printFindings(results)
	}

	var synthesis string
	var synthErr error
	if results.Available() {
		log.With("synthesizer", panel.Synthesizer.Name).Info("Synthesizing report")
		synthesis, synthErr = o.Synthesize(ctx, results, panel.Synthesizer)
		if synthErr != nil {
			log.With("error", synthErr).Warn("Synthesis failed, reporting raw findings")
		}
	} else {
		synthErr = errors.New("every reviewer failed")
	}

	rep := report.FromResults(results, synthesis, synthErr)
	if err := report.Write(a.stdout, format, rep); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if f.metricsFile != "" {
		m := report.NewMetrics()
		m.Observe(rep)
		if err := m.WriteTextfile(f.metricsFile); err != nil {
			return err
		}
	}

	if !results.Available() {
		return fmt.Errorf("all %d reviewers failed", len(results.Agents))
	}
	return nil
}

func (a *app) subject(ctx context.Context, file string) (subject.Subject, error) {
	if file != "" {
		return subject.FromFile(file)
	}
	return subject.Staged(ctx, a.dir, a.git)
}

func loadPanel(path, model string) (orchestrator.Panel, error) {
	if path == "" {
		return orchestrator.DefaultPanel(model), nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return orchestrator.Panel{}, fmt.Errorf("opening panel: %w", err)
	}
	defer fh.Close()
	return orchestrator.LoadPanel(fh, model)
}

// reviewTools wires the workspace and GitHub tools every reviewer shares.
func (a *app) reviewTools(ctx context.Context, cfg config) (*toolcall.Registry, error) {
	ws, err := workspace.Open(a.dir)
	if err != nil {
		return nil, err
	}
	if !ws.HasHistory() {
		clog.FromContext(ctx).With("root", ws.Root()).Warn("Not a git repository, file history is unavailable")
	}
	gh, err := a.newRemote(ctx, cfg.GitHubToken)
	if err != nil {
		return nil, err
	}
	return toolcall.ReviewTools(ws.Callbacks(), gh.Callbacks())
}

// withTraces prints every completed agent trace to stderr.
func (a *app) withTraces(ctx context.Context) context.Context {
	var mu sync.Mutex
	return agenttrace.WithTracer(ctx, agenttrace.ByCode[agentloop.Result](func(tr *agenttrace.Trace[agentloop.Result]) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(a.stderr, tr.String())
	}))
}

func (a *app) printFindings(results orchestrator.Results) {
	for _, r := range results.Agents {
		if r.Err != nil {
			fmt.Fprintf(a.stderr, "\n[%s failed]: %v\n", r.Identity.Name, r.Err)
			continue
		}
		b, err := json.MarshalIndent(r.Result.Findings, "", "  ")
		if err != nil {
			continue
		}
		fmt.Fprintf(a.stderr, "\n[%s Findings]:\n%s\n", r.Identity.Name, b)
	}
}
