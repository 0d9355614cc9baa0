// Copyright 2026 © The Ethos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"sync"
	"time"

	"github.com/jllopis/ethos/pkg/index"
	"github.com/jllopis/ethos/pkg/lint"
	"github.com/jllopis/ethos/pkg/telemetry"
)

var (
	metricsOnce sync.Once
	metricsInst *telemetry.Metrics
)

// processMetrics returns the shared metrics instance, nil when the
// instruments could not be built. Instruments bind to the global meter
// provider and re-bind when telemetry.InitWithConfig installs the SDK,
// so building them early is safe; without the SDK they are no-ops.
func processMetrics() *telemetry.Metrics {
	metricsOnce.Do(func() {
		if m, err := telemetry.NewMetrics(context.Background()); err == nil {
			metricsInst = m
		}
	})
	return metricsInst
}

// severityCounts flattens a lint count map for metric recording.
func severityCounts(counts map[lint.Severity]int) map[string]int {
	out := make(map[string]int, len(counts))
	for severity, count := range counts {
		out[string(severity)] = count
	}
	return out
}

// suggestTimer wraps a suggester and records query latency and errors,
// whichever surface the query came through (HTTP API or MCP).
type suggestTimer struct {
	next       index.Suggester
	metrics    *telemetry.Metrics
	collection string
}

func (st suggestTimer) Suggest(ctx context.Context, text string, limit int) ([]index.Suggestion, error) {
	start := time.Now()
	suggestions, err := st.next.Suggest(ctx, text, limit)
	st.metrics.RecordSuggestLatency(ctx, float64(time.Since(start).Microseconds())/1000.0, st.collection)
	if err != nil {
		st.metrics.RecordError(ctx, err, "suggest")
	}
	return suggestions, err
}
