/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentloop

import (
	"fmt"

	"github.com/nalyx27/reviewpanel/agents/conversation"
)

// AgentFailure ends a run that could not complete: the model call failed or
// the transcript rejected a message. Transcript holds the messages exchanged
// before the failure.
type AgentFailure struct {
	Agent      string
	Round      int
	Transcript []conversation.Message
	Err        error
}

func (e *AgentFailure) Error() string {
	return fmt.Sprintf("agent %q failed in round %d: %v", e.Agent, e.Round, e.Err)
}

func (e *AgentFailure) Unwrap() error {
	return e.Err
}
