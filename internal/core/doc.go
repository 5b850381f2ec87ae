// Package core provides the export contract shared by both CRM export paths.
//
// This package is the single definition of what an export file looks like.
// The relational exporter and the remote batch exporter both depend on it,
// and neither carries formatting rules of its own.
//
// # Output Shape
//
// Every export is UTF-8 with a leading byte-order-mark, one header row with
// the 40 column names from [schema.LeadColumns], and one record per lead:
//
//   - Non-empty fields are double-quoted, embedded quotes doubled
//   - Missing values are written as bare empty fields
//   - Records end with '\n'
//
// # Value Rules
//
// Rendering rules live in format.go: [NormalizeText], [FormatBool],
// [FormatFloat], [NormalizeTimestamp], [NormalizeDate] and [JoinTags]. The
// relational exporter expresses the same rules in SQL using [TrimSet],
// [TagSeparator] and the layouts defined next to them.
//
// # Runs
//
// [Run] drives one [Exporter] through prepare, preamble, streaming and an
// atomic publish of the file (temporary file plus rename). Fatal errors leave
// no file at the output path. Isolated failures and degraded discovery are
// recorded in the [Summary] and classified with [Classify].
package core
