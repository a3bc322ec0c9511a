/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentloop

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nalyx27/reviewpanel/agents/metrics"
)

// Option is a functional option for configuring a Loop.
type Option func(*Loop) error

// WithName sets the agent name used in logs, traces and failures.
func WithName(name string) Option {
	return func(l *Loop) error {
		if strings.TrimSpace(name) == "" {
			return errors.New("agent name cannot be empty")
		}
		l.name = name
		return nil
	}
}

// WithModel sets the model id sent with every request.
func WithModel(model string) Option {
	return func(l *Loop) error {
		if model == "" {
			return errors.New("model name cannot be empty")
		}
		l.model = model
		return nil
	}
}

// WithTemperature sets the sampling temperature.
// Values above 1 are accepted for creative prompts; backends that cap lower
// clamp on their side.
func WithTemperature(temp float64) Option {
	return func(l *Loop) error {
		if temp < 0.0 || temp > 2.0 {
			return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", temp)
		}
		l.temperature = temp
		return nil
	}
}

// WithRoundBudget sets how many model calls a run may make.
func WithRoundBudget(rounds int) Option {
	return func(l *Loop) error {
		if rounds < 1 {
			return fmt.Errorf("round budget must be at least 1, got %d", rounds)
		}
		l.rounds = rounds
		return nil
	}
}

// WithParallelTools runs the tool calls of a single model turn concurrently.
// Results are still appended in the order the model issued the calls.
func WithParallelTools(parallel bool) Option {
	return func(l *Loop) error {
		l.parallelTools = parallel
		return nil
	}
}

// WithToolTimeout bounds each tool dispatch. A call that exceeds it is
// reported to the model as a failed tool call. Zero disables the bound.
func WithToolTimeout(d time.Duration) Option {
	return func(l *Loop) error {
		if d < 0 {
			return fmt.Errorf("tool timeout cannot be negative, got %v", d)
		}
		l.toolTimeout = d
		return nil
	}
}

// WithAttributeEnricher replaces the metric attribute enricher. The default
// adds the agent name from the execution context.
func WithAttributeEnricher(enricher metrics.AttributeEnricher) Option {
	return func(l *Loop) error {
		if enricher == nil {
			return errors.New("attribute enricher cannot be nil")
		}
		l.metrics.SetAttributeEnricher(enricher)
		return nil
	}
}
