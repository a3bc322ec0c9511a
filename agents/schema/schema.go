/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/nalyx27/reviewpanel/agents/finding"
)

// reflector inlines every type so a schema can be pasted into a prompt as-is.
var reflector = jsonschema.Reflector{
	RequiredFromJSONSchemaTags: true,
	ExpandedStruct:             true,
	AllowAdditionalProperties:  true,
	DoNotReference:             true,
}

// Reflect returns the JSON schema for v.
func Reflect(v any) *jsonschema.Schema {
	return reflector.Reflect(v)
}

// Of returns the JSON schema of T without the draft URI, which means nothing
// to a model.
func Of[T any]() *jsonschema.Schema {
	var zero T
	s := Reflect(&zero)
	s.Version = ""
	return s
}

// FindingsJSON returns the schema of a reviewer's final answer, an array of
// findings, as indented JSON.
func FindingsJSON() (string, error) {
	b, err := json.MarshalIndent(Of[[]finding.Finding](), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling findings schema: %w", err)
	}
	return string(b), nil
}
