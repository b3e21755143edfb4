package workbook

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/excelops/sheetops/internal/engine"
)

// WriteWorkbook renders tables as a workbook, one sheet per table in
// input order. Sheet titles derive from table names through
// UniqueSheetTitles. Dates write as native date cells. Zero tables
// produce a valid workbook with its default empty sheet.
func WriteWorkbook(w io.Writer, tables []engine.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name()
	}
	titles := UniqueSheetTitles(names)

	// Date cells carry a date-only format so they read back as dates,
	// not timestamps.
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		return fmt.Errorf("date style: %w", err)
	}

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), titles[0]); err != nil {
				return fmt.Errorf("name sheet %q: %w", titles[0], err)
			}
		} else {
			if _, err := f.NewSheet(titles[i]); err != nil {
				return fmt.Errorf("add sheet %q: %w", titles[i], err)
			}
		}
		if err := writeSheet(f, titles[i], t, dateStyle); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, title string, t engine.Table, dateStyle int) error {
	for c, label := range t.Columns() {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(title, cell, label); err != nil {
			return fmt.Errorf("sheet %q header %q: %w", title, label, err)
		}
	}
	for r := 0; r < t.NumRows(); r++ {
		for c := 0; c < t.NumCols(); c++ {
			v := t.Cell(r, c)
			if v.IsEmpty() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(title, cell, v.Native()); err != nil {
				return fmt.Errorf("sheet %q cell %s: %w", title, cell, err)
			}
			if v.Kind() == engine.KindDate {
				if err := f.SetCellStyle(title, cell, cell, dateStyle); err != nil {
					return fmt.Errorf("sheet %q cell %s: %w", title, cell, err)
				}
			}
		}
	}
	return nil
}

// WriteWorkbookFile is WriteWorkbook to a file path.
func WriteWorkbookFile(path string, tables []engine.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}
	if err := WriteWorkbook(f, tables); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
