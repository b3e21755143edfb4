package workbook

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/excelops/sheetops/internal/engine"
)

// maxFileNameLen caps generated download names.
const maxFileNameLen = 180

// maxSheetTitleLen is the spreadsheet format's hard limit.
const maxSheetTitleLen = 31

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// invalid in sheet titles: [ ] : * ? / \
var unsafeSheetChars = regexp.MustCompile(`[\[\]:*?/\\]`)

// SafeFileName reduces an arbitrary name to characters safe for disk
// and Content-Disposition headers. Runs of unsafe characters collapse
// to a single underscore and the result is length-capped.
func SafeFileName(name string) string {
	s := unsafeFileChars.ReplaceAllString(strings.TrimSpace(name), "_")
	s = strings.Trim(s, "._")
	if len(s) > maxFileNameLen {
		s = s[:maxFileNameLen]
	}
	if s == "" {
		return "file"
	}
	return s
}

// sheetTitle strips characters the format forbids. Length capping is
// left to UniqueSheetTitles so counters never push a title past the
// limit.
func sheetTitle(name string, ordinal int) string {
	s := unsafeSheetChars.ReplaceAllString(name, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Sprintf("Sheet%d", ordinal)
	}
	return s
}

// UniqueSheetTitles maps table names to legal, unique sheet titles:
// forbidden characters stripped, 31-rune cap, repeated names counted
// apart.
func UniqueSheetTitles(names []string) []string {
	bases := make([]string, len(names))
	for i, name := range names {
		bases[i] = sheetTitle(name, i+1)
	}
	return engine.ResolveLabelsWith(bases, engine.LabelOptions{MaxLength: maxSheetTitleLen})
}
