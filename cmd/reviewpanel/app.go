/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/nalyx27/reviewpanel/agents/model"
	"github.com/nalyx27/reviewpanel/agents/model/router"
	"github.com/nalyx27/reviewpanel/remote"
	"github.com/nalyx27/reviewpanel/subject"
)

// modelClient is a model.Client that can tell up front whether it serves a
// model.
type modelClient interface {
	model.Client
	Check(models ...string) error
}

// app carries the process boundaries so commands can be exercised in tests.
type app struct {
	stdout, stderr io.Writer

	lookuper envconfig.Lookuper
	dotenv   string
	dir      string
	git      subject.GitRunner

	newModel  func(ctx context.Context, cfg config) (modelClient, error)
	newRemote func(ctx context.Context, token string) (*remote.Client, error)

	verbose bool
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:   stdout,
		stderr:   stderr,
		lookuper: envconfig.OsLookuper(),
		dotenv:   ".env",
		dir:      ".",
		git:      subject.ExecGit,
		newModel: func(ctx context.Context, cfg config) (modelClient, error) {
			return router.FromConfig(ctx, cfg.router())
		},
		newRemote: func(ctx context.Context, token string) (*remote.Client, error) {
			return remote.New(ctx, token)
		},
	}
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "reviewpanel",
		Short:         "AI code review panel",
		Long:          "reviewpanel runs several AI reviewers side by side, lets them inspect the codebase with tools and merges their findings into one report.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SetContext(a.withLogger(cmd.Context()))
		},
	}
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log progress and print agent traces to stderr")

	cmd.AddCommand(a.reviewCmd())
	cmd.AddCommand(a.explainCmd())
	cmd.AddCommand(a.commitMessageCmd())
	return cmd
}

// run executes args and returns the process exit code.
func (a *app) run(ctx context.Context, args []string) int {
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// withLogger installs a text logger on stderr: Info with --verbose, Warn
// otherwise.
func (a *app) withLogger(ctx context.Context) context.Context {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelInfo
	}
	return clog.WithLogger(ctx, clog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level})))
}

// client builds the model client and checks it serves every model.
func (a *app) client(ctx context.Context, cfg config, models ...string) (modelClient, error) {
	c, err := a.newModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Check(models...); err != nil {
		return nil, err
	}
	return c, nil
}
