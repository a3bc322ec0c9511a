/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics_test

import (
	"context"
	"testing"

	"github.com/nalyx27/reviewpanel/agents/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string][]metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	out := map[string][]metricdata.DataPoint[int64]{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				out[m.Name] = append(out[m.Name], sum.DataPoints...)
			}
		}
	}
	return out
}

func TestGenAI(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	m := metrics.NewGenAI(metrics.MeterName)
	m.SetAttributeEnricher(func(_ context.Context, base []attribute.KeyValue) []attribute.KeyValue {
		return append(base, attribute.String("agent", "Security Auditor"))
	})

	ctx := context.Background()
	m.RecordTokens(ctx, "m", 100, 7)
	m.RecordTokens(ctx, "m", 50, 3)
	m.RecordToolCall(ctx, "m", "read_file", false)
	m.RecordToolCall(ctx, "m", "read_file", true)
	m.RecordAgentRun(ctx, "m", metrics.OutcomeExhausted)

	got := collect(t, reader)

	sum := func(name string) int64 {
		var total int64
		for _, dp := range got[name] {
			total += dp.Value
		}
		return total
	}
	if v := sum("genai.token.prompt"); v != 150 {
		t.Errorf("prompt tokens: got = %d, wanted = 150", v)
	}
	if v := sum("genai.token.completion"); v != 10 {
		t.Errorf("completion tokens: got = %d, wanted = 10", v)
	}
	if n := len(got["genai.tool.calls"]); n != 2 {
		t.Errorf("tool call series: got = %d, wanted = 2 (failed and ok)", n)
	}

	runs := got["genai.agent.runs"]
	if len(runs) != 1 {
		t.Fatalf("agent run series: got = %d, wanted = 1", len(runs))
	}
	if v, ok := runs[0].Attributes.Value("outcome"); !ok || v.AsString() != "exhausted" {
		t.Errorf("outcome: got = %v", v)
	}
	if v, ok := runs[0].Attributes.Value("agent"); !ok || v.AsString() != "Security Auditor" {
		t.Errorf("agent: got = %v", v)
	}
}
