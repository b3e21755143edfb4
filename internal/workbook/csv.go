package workbook

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/excelops/sheetops/internal/engine"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText converts raw file bytes to a UTF-8 string, trying the
// encodings legacy exports actually arrive in: UTF-8 (with or without
// BOM), then GBK, then Latin-1 as the never-fails fallback. It returns
// the decoded text and the encoding name used.
func decodeText(data []byte) (string, string) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), "utf-8"
	}
	if out, err := simplifiedchinese.GBK.NewDecoder().Bytes(data); err == nil && !bytes.ContainsRune(out, utf8.RuneError) {
		return string(out), "gbk"
	}
	out, _ := charmap.ISO8859_1.NewDecoder().Bytes(data)
	return string(out), "latin-1"
}

// ReadCSV loads a delimited file as a single table. The first record
// supplies column labels (repeats renamed apart); every following
// record becomes a row of parsed values. The table is named after the
// file, without its extension.
func ReadCSV(path string) (engine.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Table{}, fmt.Errorf("read csv: %w", err)
	}
	text, _ := decodeText(data)

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return engine.Table{}, fmt.Errorf("read csv %s: %w", filepath.Base(path), err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return tableFromRecords(name, records)
}

// tableFromRecords builds a table from raw string records: first record
// is the header, short rows pad with empty cells, and rows wider than
// the header grow generated labels.
func tableFromRecords(name string, records [][]string) (engine.Table, error) {
	if len(records) == 0 {
		return engine.NewTable(name, nil, nil)
	}
	width := len(records[0])
	for _, rec := range records[1:] {
		if len(rec) > width {
			width = len(rec)
		}
	}
	labels := make([]string, width)
	for i := range labels {
		if i < len(records[0]) {
			labels[i] = strings.TrimSpace(records[0][i])
		} else {
			labels[i] = fmt.Sprintf("column_%d", i+1)
		}
	}
	labels = engine.ResolveLabels(labels)

	rows := make([][]engine.Value, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]engine.Value, width)
		for c := range row {
			if c < len(rec) {
				row[c] = engine.Parse(rec[c])
			}
		}
		rows = append(rows, row)
	}
	return engine.NewTable(name, labels, rows)
}

// WriteCSV renders a table as UTF-8 CSV with a BOM, which keeps
// spreadsheet applications from guessing a legacy encoding.
func WriteCSV(w io.Writer, t engine.Table) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, t.NumCols())
	for r := 0; r < t.NumRows(); r++ {
		for c := range record {
			record[c] = t.Cell(r, c).String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", r, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile is WriteCSV to a file path.
func WriteCSVFile(path string, t engine.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
