package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrSchemaMismatch indicates tables failed schema compatibility checks.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrCoercion indicates a cell could not be converted to the required kind.
	ErrCoercion = errors.New("coercion failed")

	// ErrKeyNotFound indicates a join key column is missing from a table.
	ErrKeyNotFound = errors.New("join key not found")

	// ErrKeyTypeMismatch indicates join key columns hold incomparable kinds.
	ErrKeyTypeMismatch = errors.New("join key type mismatch")

	// ErrResultTooLarge indicates a join result exceeded the row ceiling.
	ErrResultTooLarge = errors.New("join result too large")
)

// SchemaMismatchError reports that one or more tables are not compatible
// with the reference table. The embedded report names every mismatching
// label and kind per table.
type SchemaMismatchError struct {
	// Report holds the full per-table findings from Inspect.
	Report CompatibilityReport
}

// Error returns a human-readable error message.
func (e *SchemaMismatchError) Error() string {
	msg := "schema mismatch"
	if s := e.Report.Summary(); s != "" {
		msg += ": " + s
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// CoercionError reports a cell that could not be converted to the kind
// required by the reference schema. It names the offending table, row,
// and column so callers can surface an exact location.
type CoercionError struct {
	// Table is the name of the offending table.
	Table string
	// TableIndex is the position of the table in the input slice.
	TableIndex int
	// Row is the zero-based row index within the table.
	Row int
	// Column is the label of the offending column.
	Column string
	// Value is the display form of the cell that failed to convert.
	Value string
	// From is the inferred kind of the cell.
	From Kind
	// To is the kind the cell was being converted to.
	To Kind
}

// Error returns a human-readable error message.
func (e *CoercionError) Error() string {
	return fmt.Sprintf("coercion failed: table %q row %d column %q: cannot convert %s %q to %s",
		e.Table, e.Row, e.Column, e.From, e.Value, e.To)
}

// Is reports whether target matches this error type.
func (e *CoercionError) Is(target error) bool {
	return target == ErrCoercion
}

// KeyNotFoundError reports a join key column that does not exist in the
// table it was declared for.
type KeyNotFoundError struct {
	// Table is the name of the table missing the key column.
	Table string
	// TableIndex is the position of the table in the input slice.
	TableIndex int
	// Column is the declared key label that was not found.
	Column string
}

// Error returns a human-readable error message.
func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("join key not found: table %q has no column %q", e.Table, e.Column)
}

// Is reports whether target matches this error type.
func (e *KeyNotFoundError) Is(target error) bool {
	return target == ErrKeyNotFound
}

// KeyTypeMismatchError reports two join key columns whose inferred kinds
// cannot be compared, even after numeric reconciliation.
type KeyTypeMismatchError struct {
	// LeftTable and LeftColumn identify the key that set the expected kind.
	LeftTable  string
	LeftColumn string
	// LeftKind is the inferred kind of the left key column.
	LeftKind Kind
	// RightTable and RightColumn identify the conflicting key.
	RightTable  string
	RightColumn string
	// RightKind is the inferred kind of the right key column.
	RightKind Kind
}

// Error returns a human-readable error message.
func (e *KeyTypeMismatchError) Error() string {
	return fmt.Sprintf("join key type mismatch: %q.%q is %s but %q.%q is %s",
		e.LeftTable, e.LeftColumn, e.LeftKind, e.RightTable, e.RightColumn, e.RightKind)
}

// Is reports whether target matches this error type.
func (e *KeyTypeMismatchError) Is(target error) bool {
	return target == ErrKeyTypeMismatch
}

// ResultTooLargeError reports a join whose output crossed the configured
// row ceiling. The partial result is discarded before this is returned.
type ResultTooLargeError struct {
	// Limit is the configured maximum number of result rows.
	Limit int
	// Rows is the row count at the point the join was abandoned.
	Rows int
}

// Error returns a human-readable error message.
func (e *ResultTooLargeError) Error() string {
	return fmt.Sprintf("join result too large: %d rows exceeds limit of %d", e.Rows, e.Limit)
}

// Is reports whether target matches this error type.
func (e *ResultTooLargeError) Is(target error) bool {
	return target == ErrResultTooLarge
}
