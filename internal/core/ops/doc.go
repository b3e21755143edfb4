// Package ops registers the built-in workbook operations with the core
// registry. Import this package to ensure all operations are registered.
package ops

// This file exists to provide a single import point.
// Each operation file uses init() to register its operations.
