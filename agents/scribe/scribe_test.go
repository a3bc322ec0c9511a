/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package scribe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nalyx27/reviewpanel/agents/model/modeltest"
	"github.com/nalyx27/reviewpanel/subject"
)

var staged = subject.Subject{
	Name:    subject.StagedName,
	Mode:    subject.ModeDiff,
	Content: "diff --git a/log.go b/log.go\n+log.Println(\"hi\")",
	Files:   []string{"log.go"},
}

func TestWrite(t *testing.T) {
	tests := []struct {
		name     string
		creative bool
		temp     float64
		persona  string
	}{{
		name:    "conventional",
		temp:    ConventionalTemperature,
		persona: "Conventional Commit",
	}, {
		name:     "creative",
		creative: true,
		temp:     CreativeTemperature,
		persona:  "17th century pirate",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := modeltest.New(modeltest.Text("  feat: add logging\n"))
			s, err := New(client, tt.creative)
			require.NoError(t, err)

			msg, err := s.Write(context.Background(), staged)
			require.NoError(t, err)
			if msg != "feat: add logging" {
				t.Errorf("Write: got = %q", msg)
			}

			req := client.Requests()[0]
			if req.Temperature != tt.temp {
				t.Errorf("Temperature: got = %v, wanted %v", req.Temperature, tt.temp)
			}
			if len(req.Tools) != 0 {
				t.Errorf("Tools: got = %d, wanted none", len(req.Tools))
			}
			if !strings.Contains(req.Messages[0].Content, tt.persona) {
				t.Errorf("system prompt: got = %q, wanted it to mention %q", req.Messages[0].Content, tt.persona)
			}
			if !strings.Contains(req.Messages[1].Content, "```diff\n"+staged.Content+"\n```") {
				t.Errorf("user prompt: got = %q", req.Messages[1].Content)
			}
		})
	}
}

func TestWriteNoChanges(t *testing.T) {
	client := modeltest.New()
	s, err := New(client, false)
	require.NoError(t, err)

	if _, err := s.Write(context.Background(), subject.Subject{Name: subject.StagedName, Mode: subject.ModeDiff}); !errors.Is(err, subject.ErrNoStagedChanges) {
		t.Errorf("Write: got = %v, wanted ErrNoStagedChanges", err)
	}
	if n := len(client.Requests()); n != 0 {
		t.Errorf("model calls: got = %d, wanted 0", n)
	}
}

func TestWriteEmptyReply(t *testing.T) {
	s, err := New(modeltest.New(modeltest.Text("```\n```")), false)
	require.NoError(t, err)
	if _, err := s.Write(context.Background(), staged); err == nil {
		t.Error("Write: got = nil, wanted error")
	}
}

func TestUnfence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"fix: typo", "fix: typo"},
		{"```\nfix: typo\n```", "fix: typo"},
		{"```text\nfeat: add x\n\nBody line.\n```", "feat: add x\n\nBody line."},
		{"```", "```"},
		{"``````", "``````"},
	}
	for _, tt := range tests {
		if got := unfence(tt.in); got != tt.want {
			t.Errorf("unfence(%q): got = %q, wanted %q", tt.in, got, tt.want)
		}
	}
}
