/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package schema derives JSON schemas from Go types with invopop/jsonschema.
// Review prompts embed the schema of []finding.Finding so models know the
// exact shape of their final answer.
package schema
