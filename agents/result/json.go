/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package result

import (
	"bytes"
	"strings"
)

// ExtractJSON returns the content of the first ```json block in a model
// response, or the response trimmed of whitespace and bare fences when there
// is no such block.
func ExtractJSON(responseText string) string {
	// Search for the first instance of ```json on its own line and collect content until closing ```
	lines := strings.Split(responseText, "\n")
	var jsonBuffer bytes.Buffer
	inJSONBlock := false
	foundJSON := false

	for _, line := range lines {
		if !inJSONBlock && line == "```json" {
			inJSONBlock = true
			foundJSON = true
			continue
		}

		if inJSONBlock && line == "```" {
			// Found closing marker, we're done
			break
		}

		if inJSONBlock {
			if jsonBuffer.Len() > 0 {
				jsonBuffer.WriteString("\n")
			}
			jsonBuffer.WriteString(line)
		}
	}

	if foundJSON {
		if jsonBuffer.Len() == 0 {
			// Found ```json block but it was empty, return empty string
			// The caller should handle this as an error
			return ""
		}
		return strings.TrimSpace(jsonBuffer.String())
	}

	// Fallback: clean the response text - sometimes models add extra whitespace or markdown formatting
	responseText = strings.TrimSpace(responseText)

	// If the response is wrapped in markdown code blocks, extract the JSON
	if strings.HasPrefix(responseText, "```json") && strings.HasSuffix(responseText, "```") {
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)
	} else {
		// These do nothing if the values aren't there, so always do it.
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)
	}

	return responseText
}
