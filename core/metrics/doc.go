// Package metrics exposes Prometheus counters for scheduled ingestion runs.
//
// Counters track inserted/updated/skipped records per entity type plus run
// totals. The Serve helper publishes the standard /metrics endpoint when the
// pipeline runs in scheduled mode.
package metrics
