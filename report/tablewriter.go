/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// createStandardTable creates a markdown-styled table writer
func createStandardTable(headers []string, w io.Writer) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 120,
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}

// writeTable renders one row per finding followed by one row per reviewer.
func writeTable(w io.Writer, r Review) error {
	findings := createStandardTable([]string{"Severity", "Location", "Category", "Description", "Reviewer"}, w)
	for _, f := range r.allFindings() {
		if err := findings.Append([]string{string(f.Severity), f.Location(), f.Category, f.Description, f.reviewer}); err != nil {
			return err
		}
	}
	if err := findings.Render(); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}

	agents := createStandardTable([]string{"Reviewer", "Model", "Status", "Findings", "Rounds", "Tool Calls"}, w)
	for _, a := range r.Agents {
		status := "answered"
		switch {
		case a.Failed():
			status = "failed: " + a.Error
		case a.Exhausted:
			status = "out of rounds"
		}
		row := []string{a.Name, a.Model, status, strconv.Itoa(len(a.Findings)), strconv.Itoa(a.Rounds), strconv.Itoa(a.ToolCalls)}
		if err := agents.Append(row); err != nil {
			return err
		}
	}
	return agents.Render()
}
