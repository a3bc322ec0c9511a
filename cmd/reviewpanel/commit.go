/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nalyx27/reviewpanel/agents/agentloop"
	"github.com/nalyx27/reviewpanel/agents/scribe"
	"github.com/nalyx27/reviewpanel/subject"
)

func (a *app) commitMessageCmd() *cobra.Command {
	var creative bool
	cmd := &cobra.Command{
		Use:   "commit-message",
		Short: "Suggest a commit message for the staged changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.commitMessage(cmd.Context(), creative)
		},
	}
	cmd.Flags().BoolVar(&creative, "creative", false, "Write the message in pirate slang")
	return cmd
}

func (a *app) commitMessage(ctx context.Context, creative bool) error {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}
	subj, err := subject.Staged(ctx, a.dir, a.git)
	if errors.Is(err, subject.ErrNoStagedChanges) {
		return errors.New("no staged changes found")
	} else if err != nil {
		return err
	}

	client, err := a.client(ctx, cfg, cfg.Model)
	if err != nil {
		return err
	}
	s, err := scribe.New(client, creative, agentloop.WithModel(cfg.Model))
	if err != nil {
		return err
	}
	if a.verbose {
		ctx = a.withTraces(ctx)
	}

	msg, err := s.Write(ctx, subj)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, msg)
	return nil
}
