package workbook

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
)

// ZipBuilder streams members into a zip archive on disk. Members write
// directly into the archive, so a bundle of workbooks never needs to
// sit in memory twice.
type ZipBuilder struct {
	f  *os.File
	zw *zip.Writer
}

// NewZipBuilder creates the archive file.
func NewZipBuilder(path string) (*ZipBuilder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	return &ZipBuilder{f: f, zw: zip.NewWriter(f)}, nil
}

// Add appends one member, delegating its content to write.
func (z *ZipBuilder) Add(name string, write func(io.Writer) error) error {
	w, err := z.zw.Create(name)
	if err != nil {
		return fmt.Errorf("archive member %q: %w", name, err)
	}
	if err := write(w); err != nil {
		return fmt.Errorf("archive member %q: %w", name, err)
	}
	return nil
}

// Close finishes the archive. The builder is unusable afterwards.
func (z *ZipBuilder) Close() error {
	if err := z.zw.Close(); err != nil {
		z.f.Close()
		return fmt.Errorf("close archive: %w", err)
	}
	return z.f.Close()
}

// Abort discards the partially written archive.
func (z *ZipBuilder) Abort() {
	z.zw.Close()
	z.f.Close()
	os.Remove(z.f.Name())
}
