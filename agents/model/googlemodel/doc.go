/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package googlemodel implements model.Client with the Gemini API (genai SDK).
//
// Function calls without an ID are assigned one so the transcript can pair
// them with their results.
package googlemodel
