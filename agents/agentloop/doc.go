/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package agentloop runs one agent: it sends a transcript to a model, executes
// the tools the model asks for, feeds the results back, and repeats until the
// model answers in plain text or the round budget runs out.
//
// Every model call spends one round. A run that spends its whole budget is not
// an error: Run returns an empty findings slice with Result.Exhausted set.
// Tool failures of any kind (bad JSON arguments, schema violations, unknown
// tools, handler errors, timeouts) become "Error: ..." tool results so the
// model can recover. Only model call failures and transcript protocol
// violations end a run early, as an *AgentFailure.
//
// Usage:
//
//	loop, err := agentloop.New(client,
//		agentloop.WithName("Security Auditor"),
//		agentloop.WithModel("google/gemini-2.0-flash-001"),
//		agentloop.WithRoundBudget(5),
//	)
//	if err != nil {
//		return err
//	}
//	res, err := loop.Run(ctx, systemPrompt, userContent, registry)
package agentloop
