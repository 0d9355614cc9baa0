// Copyright 2026 © The Ethos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

// Semantic conventions for ethos metric and span attributes. HTTP keys
// follow the standard OpenTelemetry conventions; the rest live under
// the ethos namespace.
const (
	// AttrReloadResult is "ok" or "failed".
	AttrReloadResult = "ethos.reload.result"

	AttrLintSeverity = "ethos.lint.severity"

	// AttrCatalogRowKind is "upserted", "deleted" or "unchanged".
	AttrCatalogRowKind = "ethos.catalog.row_kind"

	AttrIndexCollection = "ethos.index.collection"

	AttrHTTPMethod = "http.request.method"
	AttrHTTPRoute  = "http.route"
	AttrHTTPStatus = "http.response.status_code"

	AttrErrorCode        = "ethos.error.code"
	AttrErrorComponent   = "ethos.error.component"
	AttrErrorRecoverable = "ethos.error.recoverable"
)
