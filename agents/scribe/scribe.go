/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package scribe suggests a commit message for the staged changes.
package scribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"

	"github.com/nalyx27/reviewpanel/agents/agentloop"
	"github.com/nalyx27/reviewpanel/agents/agenttrace"
	"github.com/nalyx27/reviewpanel/agents/model"
	"github.com/nalyx27/reviewpanel/agents/promptbuilder"
	"github.com/nalyx27/reviewpanel/subject"
)

const (
	// ConventionalTemperature keeps conventional messages predictable.
	ConventionalTemperature = 0.1
	// CreativeTemperature is used for the pirate voice.
	CreativeTemperature = 1.2
)

const (
	conventionalPersona = "You are an LLM that writes git commit messages. " +
		"Given a git diff, output ONLY a Conventional Commit message (e.g., 'feat: add logging'). No explanation."
	creativePersona = "You are a 17th century pirate. " +
		"Write a git commit message in pirate slang. Output ONLY the commit message. No explanation."
)

var userPrompt = promptbuilder.MustNewPrompt(`Write the commit message for these staged changes:

{{diff}}`)

// Scribe writes commit messages with a single tool-less model call.
type Scribe struct {
	loop     *agentloop.Loop
	creative bool
}

// New returns a Scribe. creative switches to the pirate voice and a higher
// temperature. opts configure the agent loop and are applied last.
func New(client model.Client, creative bool, opts ...agentloop.Option) (*Scribe, error) {
	temp := ConventionalTemperature
	if creative {
		temp = CreativeTemperature
	}
	base := []agentloop.Option{
		agentloop.WithName("Git Scribe"),
		agentloop.WithTemperature(temp),
		agentloop.WithRoundBudget(1),
	}
	loop, err := agentloop.New(client, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Scribe{loop: loop, creative: creative}, nil
}

// Write returns the suggested message for subj, normally the staged diff.
func (s *Scribe) Write(ctx context.Context, subj subject.Subject) (string, error) {
	if strings.TrimSpace(subj.Content) == "" {
		return "", subject.ErrNoStagedChanges
	}
	ctx = agenttrace.WithExecutionContext(ctx, agenttrace.ExecutionContext{Subject: subj.Name})
	clog.FromContext(ctx).With("diff_bytes", len(subj.Content), "creative", s.creative).Info("Writing commit message")

	persona := conventionalPersona
	if s.creative {
		persona = creativePersona
	}
	p, err := userPrompt.BindFenced("diff", "diff", subj.Content)
	if err != nil {
		return "", err
	}
	user, err := p.Build()
	if err != nil {
		return "", err
	}

	res, err := s.loop.Run(ctx, persona, user, nil)
	if err != nil {
		return "", err
	}
	msg := unfence(res.Text)
	if msg == "" {
		return "", errors.New("model returned an empty commit message")
	}
	return msg, nil
}

// unfence trims the reply and drops a code fence wrapped around all of it.
func unfence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}
	inner := strings.TrimSuffix(text, "```")
	nl := strings.IndexByte(inner, '\n')
	if nl < 0 {
		return text
	}
	return strings.TrimSpace(inner[nl+1:])
}

// String describes the voice, for logs.
func (s *Scribe) String() string {
	if s.creative {
		return fmt.Sprintf("%s (creative, %s)", s.loop.Name(), s.loop.Model())
	}
	return fmt.Sprintf("%s (%s)", s.loop.Name(), s.loop.Model())
}
