// Package reconcile implements the upsert-by-natural-key reconciliation
// engine for CSV-sourced library records.
//
// # Pipeline
//
// For each entity type (libraries, authors, books, members) the engine reads
// rows in source order, validates them through feature/records, looks up an
// existing entity by the documented key priority, and merges or inserts.
// Merges only overwrite fields with present values; a blank never nulls out a
// previously known field. Re-running the pipeline over unchanged input
// therefore creates no duplicates.
//
// # Failure isolation
//
// Row-level failures are counted as skipped and logged; they never abort the
// batch. A fatal store error rolls back the current entity type's batch and
// the run proceeds to the next entity type, returning the partial summary
// along with the first fatal error.
//
// # Sources
//
// Input rows come from a RowSource: a local directory of CSV files or an
// object-storage bucket of CSV drops.
package reconcile
