package ops

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/excelops/sheetops/internal/core"
	"github.com/excelops/sheetops/internal/engine"
	"github.com/excelops/sheetops/internal/workbook"
)

func init() {
	registerExcelToCSV()
	registerCSVToExcel()
}

func registerExcelToCSV() {
	core.Register(core.OperationDefinition{
		Info: core.OperationInfo{
			Key:         "excel_to_csv",
			Group:       "Convert",
			Label:       "Workbook to CSV",
			Description: "Export each sheet of a workbook as a CSV file.",
			MinInputs:   1,
			MaxInputs:   1,
			Extensions:  spreadsheetExtList(),
		},
		Run: runExcelToCSV,
	})
}

func runExcelToCSV(ctx context.Context, env core.RunEnv) (core.RunResult, error) {
	name := env.InputNames[0]
	env.Report("reading "+name, 0, 0)
	tables, err := workbook.ReadWorkbook(env.InputPaths[0])
	if err != nil {
		return core.RunResult{}, err
	}
	if len(tables) == 0 {
		return core.RunResult{}, fmt.Errorf("file is empty: %s", name)
	}

	// A single sheet downloads as a plain CSV; anything more bundles into
	// an archive.
	if len(tables) == 1 {
		env.Report("writing csv", 1, 2)
		out := filepath.Join(env.ArtifactsDir, env.JobID+".csv")
		if err := workbook.WriteCSVFile(out, tables[0]); err != nil {
			return core.RunResult{}, err
		}
		return core.RunResult{
			OutputPath: out,
			OutputName: workbook.SafeFileName(tables[0].Name()) + ".csv",
		}, nil
	}

	out := filepath.Join(env.ArtifactsDir, env.JobID+".zip")
	zb, err := workbook.NewZipBuilder(out)
	if err != nil {
		return core.RunResult{}, err
	}

	members := memberNames(tables, ".csv")
	total := len(tables) + 1
	for i := range tables {
		if err := ctx.Err(); err != nil {
			zb.Abort()
			return core.RunResult{}, err
		}
		env.Report("writing "+members[i], i+1, total)

		t := tables[i]
		err := zb.Add(members[i], func(w io.Writer) error {
			return workbook.WriteCSV(w, t)
		})
		if err != nil {
			zb.Abort()
			return core.RunResult{}, err
		}
	}
	if err := zb.Close(); err != nil {
		return core.RunResult{}, err
	}

	return core.RunResult{
		OutputPath: out,
		OutputName: workbook.SafeFileName(baseName(name)) + "_csv.zip",
	}, nil
}

func registerCSVToExcel() {
	core.Register(core.OperationDefinition{
		Info: core.OperationInfo{
			Key:         "csv_to_excel",
			Group:       "Convert",
			Label:       "CSV to workbook",
			Description: "Bundle CSV files into one workbook, one sheet per file.",
			MinInputs:   1,
			Extensions:  []string{".csv"},
		},
		Run: runCSVToExcel,
	})
}

func runCSVToExcel(ctx context.Context, env core.RunEnv) (core.RunResult, error) {
	total := len(env.InputPaths) + 1
	tables := make([]engine.Table, len(env.InputPaths))
	for i, path := range env.InputPaths {
		if err := ctx.Err(); err != nil {
			return core.RunResult{}, err
		}
		env.Report("reading "+env.InputNames[i], i, total)

		t, err := workbook.ReadCSV(path)
		if err != nil {
			return core.RunResult{}, err
		}
		tables[i] = t.WithName(baseName(env.InputNames[i]))
	}

	env.Report("writing workbook", total-1, total)
	out := filepath.Join(env.ArtifactsDir, env.JobID+".xlsx")
	if err := workbook.WriteWorkbookFile(out, tables); err != nil {
		return core.RunResult{}, err
	}
	return core.RunResult{OutputPath: out, OutputName: "workbook.xlsx"}, nil
}
