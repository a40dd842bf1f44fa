// Package catalog integrates the Open Library API into the ingestion
// pipeline.
//
// # Client
//
// Client enforces a minimum interval between consecutive requests (measured
// from completion of the previous one) and retries transient failures (5xx,
// transport errors) with linear backoff, attempt N sleeping N x the base
// backoff. 4xx responses fail immediately. Exhausting all attempts yields a
// RequestError naming the path and attempt count, which callers treat as
// fatal to the current fetch.
//
// # Parsing
//
// Work details are parsed strictly first; records that fail strict parsing
// fall back to an explicit lenient constructor that salvages key and title.
// The raw payload is always retained for audit.
package catalog
