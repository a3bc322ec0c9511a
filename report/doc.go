/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package report renders the outcome of a panel review.

# Formats

  - markdown: the synthesized report, or the raw findings most severe first
    when no synthesis is available, followed by a note for every reviewer
    that failed or ran out of rounds
  - json: the whole Review, for scripts
  - table: markdown tables of findings and reviewer status

# Usage

	review := report.FromResults(results, synthesis, synthErr)
	if err := report.Write(os.Stdout, report.FormatMarkdown, review); err != nil {
		return err
	}

# Metrics

Metrics exports the review as Prometheus gauges in the text exposition
format, for the node_exporter textfile collector:

	m := report.NewMetrics()
	m.Observe(review)
	err := m.WriteTextfile("/var/lib/node_exporter/reviewpanel.prom")
*/
package report
