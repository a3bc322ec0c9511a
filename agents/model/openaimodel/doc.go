/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package openaimodel implements model.Client over the OpenAI chat completions
// API. It defaults to OpenRouter, which exposes Gemini, Llama and many other
// models behind the same wire format.
//
//	client, err := openaimodel.New(os.Getenv("OPENROUTER_API_KEY"))
//	resp, err := client.Complete(ctx, model.Request{
//		Model:    "google/gemini-2.0-flash-001",
//		Messages: msgs,
//		Tools:    registry.Definitions(),
//	})
package openaimodel
