// SPDX-License-Identifier: Apache-2.0
// Package telemetry provides observability for registry operations.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/ethos/pkg/errors"
)

// Metrics tracks corpus, lint, catalog and serving activity for
// production monitoring.
type Metrics struct {
	// corpusLoads counts registry loads and reloads by result
	corpusLoads metric.Int64Counter

	// personasLoaded tracks the current registry size
	personasLoaded metric.Int64Gauge

	// lintFindings counts lint findings by rule severity
	lintFindings metric.Int64Counter

	// catalogRows counts catalog sync row operations
	catalogRows metric.Int64Counter

	// suggestDuration tracks suggestion query latency
	suggestDuration metric.Float64Histogram

	// httpRequests counts HTTP requests by route and status
	httpRequests metric.Int64Counter

	// errorCounter tracks total errors by code and component
	errorCounter metric.Int64Counter

	mu sync.RWMutex
}

// NewMetrics creates a metrics tracker with OTEL meters.
func NewMetrics(ctx context.Context) (*Metrics, error) {
	meter := otel.Meter("ethos/registry")

	corpusLoads, err := meter.Int64Counter(
		"ethos.corpus.loads.total",
		metric.WithDescription("Registry loads and reloads by result"),
	)
	if err != nil {
		return nil, err
	}

	personasLoaded, err := meter.Int64Gauge(
		"ethos.registry.personas",
		metric.WithDescription("Personas in the current registry snapshot"),
	)
	if err != nil {
		return nil, err
	}

	lintFindings, err := meter.Int64Counter(
		"ethos.lint.findings.total",
		metric.WithDescription("Lint findings by rule severity"),
	)
	if err != nil {
		return nil, err
	}

	catalogRows, err := meter.Int64Counter(
		"ethos.catalog.rows.total",
		metric.WithDescription("Catalog sync row operations by kind (upserted, deleted, unchanged)"),
	)
	if err != nil {
		return nil, err
	}

	suggestDuration, err := meter.Float64Histogram(
		"ethos.suggest.duration_ms",
		metric.WithDescription("Suggestion query latency in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	httpRequests, err := meter.Int64Counter(
		"ethos.http.requests.total",
		metric.WithDescription("HTTP requests by route and status code"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"ethos.errors.total",
		metric.WithDescription("Total errors by code and component"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		corpusLoads:     corpusLoads,
		personasLoaded:  personasLoaded,
		lintFindings:    lintFindings,
		catalogRows:     catalogRows,
		suggestDuration: suggestDuration,
		httpRequests:    httpRequests,
		errorCounter:    errorCounter,
	}, nil
}

// RecordCorpusLoad counts one registry load or reload. Result is "ok"
// or "failed"; personas is the snapshot size after a successful load.
func (m *Metrics) RecordCorpusLoad(ctx context.Context, result string, personas int) {
	if m == nil {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	m.corpusLoads.Add(ctx, 1,
		metric.WithAttributes(attribute.String(AttrReloadResult, result)),
	)
	if result == "ok" {
		m.personasLoaded.Record(ctx, int64(personas))
	}
}

// RecordLintFindings counts lint findings for one run, keyed by severity.
func (m *Metrics) RecordLintFindings(ctx context.Context, bySeverity map[string]int) {
	if m == nil {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for severity, count := range bySeverity {
		m.lintFindings.Add(ctx, int64(count),
			metric.WithAttributes(attribute.String(AttrLintSeverity, severity)),
		)
	}
}

// RecordCatalogSync counts row operations from one catalog sync.
func (m *Metrics) RecordCatalogSync(ctx context.Context, upserted, deleted, unchanged int) {
	if m == nil {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	m.catalogRows.Add(ctx, int64(upserted),
		metric.WithAttributes(attribute.String(AttrCatalogRowKind, "upserted")))
	m.catalogRows.Add(ctx, int64(deleted),
		metric.WithAttributes(attribute.String(AttrCatalogRowKind, "deleted")))
	m.catalogRows.Add(ctx, int64(unchanged),
		metric.WithAttributes(attribute.String(AttrCatalogRowKind, "unchanged")))
}

// RecordSuggestLatency records one suggestion query's latency.
func (m *Metrics) RecordSuggestLatency(ctx context.Context, durationMs float64, collection string) {
	if m == nil {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	m.suggestDuration.Record(ctx, durationMs,
		metric.WithAttributes(attribute.String(AttrIndexCollection, collection)),
	)
}

// RecordHTTPRequest counts one served HTTP request. Route is the route
// template, not the raw path.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int) {
	if m == nil {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	m.httpRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(AttrHTTPMethod, method),
			attribute.String(AttrHTTPRoute, route),
			attribute.Int(AttrHTTPStatus, status),
		),
	)
}

// RecordError increments the error counter for the given error and component.
func (m *Metrics) RecordError(ctx context.Context, err error, component string) {
	if m == nil || err == nil {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if ee, ok := err.(*errors.EthosError); ok {
		m.errorCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String(AttrErrorCode, string(ee.Code)),
				attribute.String(AttrErrorComponent, component),
				attribute.String(AttrErrorRecoverable, ee.RecoverableString()),
			),
		)
	} else {
		m.errorCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String(AttrErrorCode, "UNKNOWN"),
				attribute.String(AttrErrorComponent, component),
				attribute.String(AttrErrorRecoverable, "unknown"),
			),
		)
	}
}
