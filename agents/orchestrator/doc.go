/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package orchestrator runs a review panel: every reviewer identity gets its
// own agent loop over the same subject and tool registry, all at once, and a
// lead identity merges their findings into one Markdown report.
//
// One reviewer failing never stops the others. Review records the failure on
// that reviewer's AgentResult and Synthesize still runs as long as one
// reviewer finished.
//
//	o, err := orchestrator.New(client, registry, orchestrator.WithRoundBudget(5))
//	if err != nil {
//		return err
//	}
//	panel := orchestrator.DefaultPanel(model)
//	results := o.Review(ctx, subj, panel.Reviewers)
//	report, err := o.Synthesize(ctx, results, panel.Synthesizer)
package orchestrator
