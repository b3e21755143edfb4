package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/excelops/sheetops/internal/core"
	"github.com/excelops/sheetops/internal/engine"
	"github.com/excelops/sheetops/internal/workbook"
)

// decodeParams unmarshals raw job parameters into dst. A missing payload
// leaves dst at its defaults.
func decodeParams(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

// baseName strips the directory and extension from an uploaded file name.
func baseName(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}

// clampRows bounds a user-supplied row ceiling by the service ceiling.
// Zero or negative requests fall back to the service ceiling.
func clampRows(requested, ceiling int) int {
	if requested <= 0 || (ceiling > 0 && requested > ceiling) {
		return ceiling
	}
	return requested
}

// loadAll reads every sheet of every input in submission order, reporting
// one progress step per file. extraSteps counts the steps the caller will
// report afterwards, so the step total never shrinks mid-job.
func loadAll(ctx context.Context, env core.RunEnv, extraSteps int) ([]engine.Table, error) {
	total := len(env.InputPaths) + extraSteps
	var tables []engine.Table
	for i, path := range env.InputPaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		env.Report("reading "+env.InputNames[i], i, total)
		loaded, err := workbook.Load(path)
		if err != nil {
			return nil, err
		}
		tables = append(tables, loaded...)
	}
	return tables, nil
}

// loadOne reads a single table from an input: the named sheet of a
// workbook (first sheet when sheet is empty), or the delimited file
// itself.
func loadOne(path, name, sheet string) (engine.Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !workbook.SpreadsheetExts[ext] {
		return workbook.ReadCSV(path)
	}

	tables, err := workbook.ReadWorkbook(path)
	if err != nil {
		return engine.Table{}, err
	}
	if len(tables) == 0 {
		return engine.Table{}, fmt.Errorf("file is empty: %s", name)
	}
	if sheet == "" {
		return tables[0], nil
	}
	for _, t := range tables {
		if t.Name() == sheet {
			return t, nil
		}
	}
	return engine.Table{}, fmt.Errorf("invalid parameters: %s has no sheet %q", name, sheet)
}

// memberNames derives unique archive member names from table names:
// sanitized, deduplicated, extension appended.
func memberNames(tables []engine.Table, ext string) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = workbook.SafeFileName(t.Name())
	}
	names = engine.ResolveLabels(names)
	for i := range names {
		names[i] += ext
	}
	return names
}

// spreadsheetExtList is the Extensions value for workbook-only operations.
func spreadsheetExtList() []string {
	return []string{".xlsx", ".xlsm"}
}
