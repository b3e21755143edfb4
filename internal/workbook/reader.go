// Package workbook moves tables between disk formats and the engine's
// in-memory form. It reads and writes spreadsheet workbooks and
// delimited text files, bundles multi-file outputs into archives, and
// keeps generated file and sheet names inside each format's limits.
package workbook

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/excelops/sheetops/internal/engine"
)

// SpreadsheetExts lists the workbook extensions the reader accepts.
var SpreadsheetExts = map[string]bool{
	".xlsx": true,
	".xlsm": true,
}

// ReadWorkbook loads every sheet of a workbook as a table, in sheet
// order. Each sheet's first row supplies column labels; cells parse
// through the engine's inference rules.
func ReadWorkbook(path string) ([]engine.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var tables []engine.Table
	for _, sheet := range f.GetSheetList() {
		records, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		t, err := tableFromRecords(sheet, records)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// SheetNames lists a workbook's sheets in order without loading cell
// data. Also serves as a cheap integrity check on uploaded files.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// Load reads any accepted input file as tables: workbooks load one
// table per sheet, delimited files load as a single table.
func Load(path string) ([]engine.Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if SpreadsheetExts[ext] {
		return ReadWorkbook(path)
	}
	if ext == ".csv" {
		t, err := ReadCSV(path)
		if err != nil {
			return nil, err
		}
		return []engine.Table{t}, nil
	}
	return nil, fmt.Errorf("unsupported file type %q", ext)
}
