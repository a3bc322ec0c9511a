/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package promptbuilder builds prompts from templates with {{name}} placeholders,
the way prepared statements build SQL.

Templates must be string literals. Every placeholder must be bound exactly once
before Build, and values are substituted in a single pass, so text under review
can never introduce a new placeholder. The binding method decides how a value is
rendered:

  - BindStringLiteral: developer text, verbatim
  - BindTrustedString: operator configuration such as a panel persona, verbatim
  - BindFenced: untrusted text inside a code fence it cannot close
  - BindJSON, BindXML, BindYAML: structured data through the standard encoders

Example:

	p, err := promptbuilder.NewPrompt(`Review this file:

	{{code}}`)
	if err != nil {
		return err
	}
	p, err = p.BindFenced("code", "", source)
	if err != nil {
		return err
	}
	prompt, err := p.Build()

Prompts are immutable: binding returns a new Prompt, so a template can be shared
across goroutines.
*/
package promptbuilder
