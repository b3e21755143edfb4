// Package engine implements the table operations: schema inspection,
// concatenation, label resolution, and joins.
//
// The package is pure computation. It holds no state between calls,
// performs no I/O, and knows nothing about workbooks, jobs, or HTTP.
// Callers load tables, invoke an operation, and decide what to do with
// the result; the engine only transforms [Table] values into new
// [Table] values.
//
// # Values and Tables
//
// Every cell is a [Value]: exactly one of text, number, boolean, date,
// or the empty cell. [Parse] turns raw cell strings into values using
// the same recognition rules everywhere, so type inference is
// deterministic and testable:
//
//	engine.Parse("$1,234.56")  // number 1234.56
//	engine.Parse("3/1/24")     // date 2024-03-01
//	engine.Parse("yes")        // boolean true
//	engine.Parse("")           // empty
//
// A [Table] is an ordered set of named columns plus rows of values,
// immutable once built. Operations never modify their inputs.
//
// # Schema Inspection
//
// [Inspect] compares tables against the first table's inferred
// signature and produces a [CompatibilityReport] naming every
// mismatching label and kind per table. [ModeStrict] demands identical
// labels, order, and kinds; [ModeLoose] matches columns by label and
// leaves kind differences to coercion.
//
// # Combining
//
// [Concatenate] appends rows under the first table's schema, coercing
// in loose mode. [Join] chains pairwise joins left to right, with the
// first table driving left-join semantics and duplicate keys fanning
// out. Both are all-or-nothing: any failure returns a typed error and
// no partial result.
//
// # Errors
//
// Failures are typed and carry enough detail to report precisely:
// [SchemaMismatchError] embeds the full compatibility report,
// [CoercionError] names the table, row, and column of the offending
// cell, and the join errors identify the key columns involved. All of
// them match their sentinel (for example [ErrSchemaMismatch]) through
// errors.Is.
package engine
