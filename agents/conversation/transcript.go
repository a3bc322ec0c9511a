/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package conversation

import (
	"fmt"
	"slices"
)

// ProtocolError reports a message that would break tool call pairing.
type ProtocolError struct {
	Role       Role
	ToolCallID string
	Reason     string
}

func (e *ProtocolError) Error() string {
	if e.ToolCallID != "" {
		return fmt.Sprintf("protocol violation appending %s message (tool_call_id %q): %s", e.Role, e.ToolCallID, e.Reason)
	}
	return fmt.Sprintf("protocol violation appending %s message: %s", e.Role, e.Reason)
}

// Transcript is the ordered message history of a single agent run.
// It only grows; Append rejects messages that would break tool call pairing.
// A Transcript is owned by one goroutine and is not safe for concurrent use.
type Transcript struct {
	messages []Message

	// pending holds the IDs of the latest assistant message's tool calls
	// that have not been answered yet, in issuance order.
	pending []string
	// seen holds every tool call ID issued in this conversation.
	seen map[string]struct{}
}

// New returns an empty transcript.
func New() *Transcript {
	return &Transcript{seen: make(map[string]struct{})}
}

// Append adds msg to the end of the transcript.
func (t *Transcript) Append(msg Message) error {
	if !msg.Role.Valid() {
		return &ProtocolError{Role: msg.Role, Reason: "unknown role"}
	}

	switch msg.Role {
	case RoleTool:
		idx := slices.Index(t.pending, msg.ToolCallID)
		if idx < 0 {
			return &ProtocolError{Role: msg.Role, ToolCallID: msg.ToolCallID, Reason: "no matching unanswered tool call"}
		}
		t.pending = slices.Delete(t.pending, idx, idx+1)

	default:
		if len(t.pending) > 0 {
			return &ProtocolError{Role: msg.Role, Reason: fmt.Sprintf("%d tool call(s) still unanswered: %v", len(t.pending), t.pending)}
		}
		if msg.Role != RoleAssistant && len(msg.ToolCalls) > 0 {
			return &ProtocolError{Role: msg.Role, Reason: "only assistant messages may request tools"}
		}
		if msg.ToolCallID != "" {
			return &ProtocolError{Role: msg.Role, ToolCallID: msg.ToolCallID, Reason: "only tool messages may carry a tool_call_id"}
		}
		ids := make([]string, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			if tc.ID == "" {
				return &ProtocolError{Role: msg.Role, Reason: fmt.Sprintf("tool call %q has no id", tc.Name)}
			}
			if _, dup := t.seen[tc.ID]; dup || slices.Contains(ids, tc.ID) {
				return &ProtocolError{Role: msg.Role, ToolCallID: tc.ID, Reason: "duplicate tool call id"}
			}
			ids = append(ids, tc.ID)
		}
		for _, id := range ids {
			t.seen[id] = struct{}{}
		}
		t.pending = ids
	}

	t.messages = append(t.messages, msg.clone())
	return nil
}

// Snapshot returns a copy of the transcript suitable for sending to a model.
// Mutating the result never affects the transcript.
func (t *Transcript) Snapshot() []Message {
	out := make([]Message, len(t.messages))
	for i, m := range t.messages {
		out[i] = m.clone()
	}
	return out
}

// Len returns the number of messages appended so far.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Pending returns the IDs of tool calls still awaiting a tool message.
func (t *Transcript) Pending() []string {
	return slices.Clone(t.pending)
}
