package ops

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/excelops/sheetops/internal/core"
	"github.com/excelops/sheetops/internal/engine"
	"github.com/excelops/sheetops/internal/workbook"
)

func init() {
	registerConcatenate()
	registerJoin()
}

// concatenateParams are the parameters accepted by the concatenate
// operation.
type concatenateParams struct {
	// Mode selects schema matching: "strict" (default) or "loose".
	Mode string `json:"mode"`
}

func registerConcatenate() {
	core.Register(core.OperationDefinition{
		Info: core.OperationInfo{
			Key:         "concatenate",
			Group:       "Combine",
			Label:       "Concatenate tables",
			Description: "Stack the rows of every sheet of every input into one table.",
			MinInputs:   1,
		},
		Run: runConcatenate,
	})
}

func runConcatenate(ctx context.Context, env core.RunEnv) (core.RunResult, error) {
	var p concatenateParams
	if err := decodeParams(env.Params, &p); err != nil {
		return core.RunResult{}, err
	}
	mode, err := engine.ParseMode(p.Mode)
	if err != nil {
		return core.RunResult{}, fmt.Errorf("invalid parameters: %w", err)
	}

	tables, err := loadAll(ctx, env, 2)
	if err != nil {
		return core.RunResult{}, err
	}

	total := len(env.InputPaths) + 2
	env.Report("combining tables", total-2, total)
	combined, err := engine.Concatenate(tables, mode)
	if err != nil {
		return core.RunResult{}, err
	}

	env.Report("writing workbook", total-1, total)
	out := filepath.Join(env.ArtifactsDir, env.JobID+".xlsx")
	if err := workbook.WriteWorkbookFile(out, []engine.Table{combined.WithName("Combined")}); err != nil {
		return core.RunResult{}, err
	}
	return core.RunResult{OutputPath: out, OutputName: "combined.xlsx"}, nil
}

// joinParams are the parameters accepted by the join operation.
type joinParams struct {
	// Kind selects join semantics: "left" (default), "inner", or
	// "full_outer".
	Kind string `json:"kind"`
	// Keys holds one key column label per input. A single entry applies
	// to every input.
	Keys []string `json:"keys"`
	// KeyLabel overrides the output label of the key column.
	KeyLabel string `json:"keyLabel"`
	// Sheets selects a sheet per workbook input; an empty entry means the
	// first sheet. Ignored for delimited inputs.
	Sheets []string `json:"sheets"`
	// FoldKeys compares text keys case-insensitively.
	FoldKeys bool `json:"foldKeys"`
	// MaxRows overrides the result row ceiling, bounded by the service
	// ceiling.
	MaxRows int `json:"maxRows"`
}

func registerJoin() {
	core.Register(core.OperationDefinition{
		Info: core.OperationInfo{
			Key:         "join",
			Group:       "Combine",
			Label:       "Join tables",
			Description: "Match rows across inputs on key columns, one table per input.",
			MinInputs:   2,
		},
		Run: runJoin,
	})
}

func runJoin(ctx context.Context, env core.RunEnv) (core.RunResult, error) {
	var p joinParams
	if err := decodeParams(env.Params, &p); err != nil {
		return core.RunResult{}, err
	}
	kind, err := engine.ParseJoinKind(p.Kind)
	if err != nil {
		return core.RunResult{}, fmt.Errorf("invalid parameters: %w", err)
	}

	n := len(env.InputPaths)
	keys := p.Keys
	switch len(keys) {
	case n:
	case 1:
		shared := keys[0]
		keys = make([]string, n)
		for i := range keys {
			keys[i] = shared
		}
	case 0:
		return core.RunResult{}, fmt.Errorf("invalid parameters: join requires key columns")
	default:
		return core.RunResult{}, fmt.Errorf("invalid parameters: %d keys for %d inputs", len(p.Keys), n)
	}
	if len(p.Sheets) > 0 && len(p.Sheets) != n {
		return core.RunResult{}, fmt.Errorf("invalid parameters: %d sheets for %d inputs", len(p.Sheets), n)
	}

	total := n + 2
	tables := make([]engine.Table, n)
	for i, path := range env.InputPaths {
		if err := ctx.Err(); err != nil {
			return core.RunResult{}, err
		}
		env.Report("reading "+env.InputNames[i], i, total)

		sheet := ""
		if len(p.Sheets) > 0 {
			sheet = p.Sheets[i]
		}
		t, err := loadOne(path, env.InputNames[i], sheet)
		if err != nil {
			return core.RunResult{}, err
		}
		// Error messages cite tables by name, so name them after the
		// files the user uploaded.
		tables[i] = t.WithName(baseName(env.InputNames[i]))
	}

	env.Report("joining tables", total-2, total)
	joined, err := engine.JoinWith(tables, keys, kind, engine.JoinOptions{
		KeyLabel:      p.KeyLabel,
		MaxResultRows: clampRows(p.MaxRows, env.MaxResultRows),
		FoldKeys:      p.FoldKeys,
	})
	if err != nil {
		return core.RunResult{}, err
	}

	env.Report("writing workbook", total-1, total)
	out := filepath.Join(env.ArtifactsDir, env.JobID+".xlsx")
	if err := workbook.WriteWorkbookFile(out, []engine.Table{joined.WithName("Joined")}); err != nil {
		return core.RunResult{}, err
	}
	return core.RunResult{OutputPath: out, OutputName: "joined.xlsx"}, nil
}
