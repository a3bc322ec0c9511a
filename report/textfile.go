/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nalyx27/reviewpanel/agents/finding"
)

// Metrics holds the collectors describing one review, ready for the
// node_exporter textfile collector.
type Metrics struct {
	registry  *prometheus.Registry
	findings  *prometheus.GaugeVec
	rounds    *prometheus.GaugeVec
	toolCalls *prometheus.GaugeVec
	outcome   *prometheus.GaugeVec
}

// NewMetrics constructs a registry with the review collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	findings := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reviewpanel_findings",
		Help: "Findings reported in the last review by reviewer and severity",
	}, []string{"reviewer", "severity"})

	rounds := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reviewpanel_agent_rounds",
		Help: "Model calls each reviewer made in the last review",
	}, []string{"reviewer", "model"})

	toolCalls := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reviewpanel_agent_tool_calls",
		Help: "Tool calls each reviewer dispatched in the last review",
	}, []string{"reviewer", "model"})

	outcome := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reviewpanel_agent_outcome",
		Help: "1 for the outcome of each reviewer's last run",
	}, []string{"reviewer", "outcome"})

	reg.MustRegister(findings, rounds, toolCalls, outcome)

	return &Metrics{
		registry:  reg,
		findings:  findings,
		rounds:    rounds,
		toolCalls: toolCalls,
		outcome:   outcome,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records r. Every severity is reported for every reviewer that
// finished so a clean review exports zeros.
func (m *Metrics) Observe(r Review) {
	for _, a := range r.Agents {
		m.rounds.WithLabelValues(a.Name, a.Model).Set(float64(a.Rounds))
		m.toolCalls.WithLabelValues(a.Name, a.Model).Set(float64(a.ToolCalls))

		outcome := "answered"
		switch {
		case a.Failed():
			outcome = "failed"
		case a.Exhausted:
			outcome = "exhausted"
		}
		m.outcome.WithLabelValues(a.Name, outcome).Set(1)
		if a.Failed() {
			continue
		}

		counts := map[finding.Severity]int{}
		for _, f := range a.Findings {
			counts[f.Severity]++
		}
		for _, sev := range []finding.Severity{finding.SeverityCritical, finding.SeverityWarn, finding.SeverityInfo} {
			m.findings.WithLabelValues(a.Name, string(sev)).Set(float64(counts[sev]))
		}
	}
}

// WriteTextfile writes the gathered metrics to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
