// Package records contains the pure validation and normalization layer of the
// ingestion pipeline.
//
// It is split into two stages with no side effects:
//
//  1. Normalization primitives (NormalizeName, NormalizePhone, ParseDate,
//     CleanISBN, ISBN checksums) that turn raw strings into canonical values.
//  2. Per-entity schemas (ParseLibrary, ParseAuthor, ParseBook, ParseMember)
//     that apply required-field and format rules to a raw Row and either
//     produce a typed record or a rejection reason.
//
// Rejections are values, not panics: a failed parse returns an error that the
// reconciliation engine counts and logs while the batch continues.
package records
