package core

// Upload staging. Files arrive through the HTTP layer, pass the
// concurrency limiter, and land in the data directory under a
// uuid-prefixed name. Jobs reference uploads by that uuid; the original
// file name survives in the suffix so results can echo it back.

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/excelops/sheetops/internal/workbook"
)

// StagedUpload describes a file accepted into the staging area.
type StagedUpload struct {
	ID     string   `json:"fileId"`
	Name   string   `json:"name"`
	Size   int64    `json:"size"`
	Sheets []string `json:"sheets,omitempty"` // workbook uploads only
}

// allowedExt reports whether the extension is accepted for upload.
func allowedExt(ext string) bool {
	return workbook.SpreadsheetExts[ext] || ext == ".csv"
}

// SaveUpload stages an incoming file for later job submissions. Workbook
// uploads are opened once to verify integrity and list their sheets.
func (s *Service) SaveUpload(ctx context.Context, fileName string, r io.Reader) (*StagedUpload, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExt(ext) {
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	id := uuid.New().String()
	dest := filepath.Join(s.dataDir, id+"_"+workbook.SafeFileName(fileName))

	out, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}

	size, err := io.Copy(out, r)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("write staging file: %w", err)
	}
	if size == 0 {
		os.Remove(dest)
		return nil, fmt.Errorf("empty file: %s", fileName)
	}

	staged := &StagedUpload{
		ID:   id,
		Name: filepath.Base(fileName),
		Size: size,
	}

	// Reject broken workbooks at upload time, not when a job fails
	// minutes later.
	if workbook.SpreadsheetExts[ext] {
		sheets, err := workbook.SheetNames(dest)
		if err != nil {
			os.Remove(dest)
			return nil, err
		}
		staged.Sheets = sheets
	}

	return staged, nil
}

// ResolveUpload maps a staged upload ID to its file path and original
// name. The ID must parse as a uuid, which also keeps path traversal out
// of the glob below.
func (s *Service) ResolveUpload(uploadID string) (path, name string, err error) {
	if _, err := uuid.Parse(uploadID); err != nil {
		return "", "", fmt.Errorf("upload not found: %s", uploadID)
	}

	matches, err := filepath.Glob(filepath.Join(s.dataDir, uploadID+"_*"))
	if err != nil || len(matches) == 0 {
		return "", "", fmt.Errorf("upload not found: %s", uploadID)
	}

	path = matches[0]
	name = strings.TrimPrefix(filepath.Base(path), uploadID+"_")
	return path, name, nil
}

// resolveInputs resolves every staged id of a job row, preserving order.
func (s *Service) resolveInputs(uploadIDs []string) (paths, names []string, err error) {
	paths = make([]string, 0, len(uploadIDs))
	names = make([]string, 0, len(uploadIDs))
	for _, id := range uploadIDs {
		p, n, err := s.ResolveUpload(id)
		if err != nil {
			return nil, nil, err
		}
		paths = append(paths, p)
		names = append(names, n)
	}
	return paths, names, nil
}
