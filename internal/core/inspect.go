package core

import (
	"context"
	"fmt"

	"github.com/excelops/sheetops/internal/engine"
	"github.com/excelops/sheetops/internal/workbook"
)

// InspectRequest names staged uploads and a schema comparison mode.
type InspectRequest struct {
	Inputs []string `json:"inputs"`
	Mode   string   `json:"mode,omitempty"` // strict (default) or loose
}

// InspectFiles loads every sheet of the staged inputs, in order, and
// reports their compatibility against the first sheet's schema. It runs
// synchronously; submissions use it as a pre-flight check before
// queueing a combine job.
func (s *Service) InspectFiles(ctx context.Context, req InspectRequest) (engine.CompatibilityReport, error) {
	mode, err := engine.ParseMode(req.Mode)
	if err != nil {
		return engine.CompatibilityReport{}, fmt.Errorf("invalid parameters: %w", err)
	}
	if len(req.Inputs) == 0 {
		return engine.CompatibilityReport{}, fmt.Errorf("inspection requires at least 1 input")
	}

	var tables []engine.Table
	for _, id := range req.Inputs {
		if err := ctx.Err(); err != nil {
			return engine.CompatibilityReport{}, err
		}
		path, _, err := s.ResolveUpload(id)
		if err != nil {
			return engine.CompatibilityReport{}, err
		}
		loaded, err := workbook.Load(path)
		if err != nil {
			return engine.CompatibilityReport{}, err
		}
		tables = append(tables, loaded...)
	}

	return engine.Inspect(tables, mode), nil
}
