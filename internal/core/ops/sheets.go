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
	registerMergeSheets()
	registerSplitSheets()
}

func registerMergeSheets() {
	core.Register(core.OperationDefinition{
		Info: core.OperationInfo{
			Key:         "merge_sheets",
			Group:       "Sheets",
			Label:       "Merge into one workbook",
			Description: "Collect every sheet of every input into a single workbook.",
			MinInputs:   2,
		},
		Run: runMergeSheets,
	})
}

func runMergeSheets(ctx context.Context, env core.RunEnv) (core.RunResult, error) {
	tables, err := loadAll(ctx, env, 1)
	if err != nil {
		return core.RunResult{}, err
	}

	total := len(env.InputPaths) + 1
	env.Report("writing workbook", total-1, total)
	out := filepath.Join(env.ArtifactsDir, env.JobID+".xlsx")
	if err := workbook.WriteWorkbookFile(out, tables); err != nil {
		return core.RunResult{}, err
	}
	return core.RunResult{OutputPath: out, OutputName: "merged.xlsx"}, nil
}

func registerSplitSheets() {
	core.Register(core.OperationDefinition{
		Info: core.OperationInfo{
			Key:         "split_sheets",
			Group:       "Sheets",
			Label:       "Split into one workbook per sheet",
			Description: "Unpack a workbook into an archive of single-sheet workbooks.",
			MinInputs:   1,
			MaxInputs:   1,
			Extensions:  spreadsheetExtList(),
		},
		Run: runSplitSheets,
	})
}

func runSplitSheets(ctx context.Context, env core.RunEnv) (core.RunResult, error) {
	name := env.InputNames[0]
	env.Report("reading "+name, 0, 0)
	tables, err := workbook.ReadWorkbook(env.InputPaths[0])
	if err != nil {
		return core.RunResult{}, err
	}
	if len(tables) == 0 {
		return core.RunResult{}, fmt.Errorf("file is empty: %s", name)
	}

	out := filepath.Join(env.ArtifactsDir, env.JobID+".zip")
	zb, err := workbook.NewZipBuilder(out)
	if err != nil {
		return core.RunResult{}, err
	}

	members := memberNames(tables, ".xlsx")
	total := len(tables) + 1
	for i := range tables {
		if err := ctx.Err(); err != nil {
			zb.Abort()
			return core.RunResult{}, err
		}
		env.Report("writing "+members[i], i+1, total)

		t := tables[i]
		err := zb.Add(members[i], func(w io.Writer) error {
			return workbook.WriteWorkbook(w, []engine.Table{t})
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
		OutputName: workbook.SafeFileName(baseName(name)) + "_sheets.zip",
	}, nil
}
