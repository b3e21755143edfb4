package workbook

import (
	"archive/zip"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/excelops/sheetops/internal/engine"
)

func sampleTables(t *testing.T) []engine.Table {
	t.Helper()
	first, err := engine.NewTable("orders", []string{"id", "total", "shipped", "when"}, [][]engine.Value{
		{engine.Number(1), engine.Number(9.99), engine.Bool(true), engine.Date(time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))},
		{engine.Number(2), engine.Empty(), engine.Bool(false), engine.Empty()},
	})
	require.NoError(t, err)
	second, err := engine.NewTable("notes", []string{"id", "note"}, [][]engine.Value{
		{engine.Number(1), engine.Text("hello")},
	})
	require.NoError(t, err)
	return []engine.Table{first, second}
}

func TestWorkbook_RoundTrip(t *testing.T) {
	tables := sampleTables(t)
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteWorkbookFile(path, tables))

	back, err := ReadWorkbook(path)
	require.NoError(t, err)
	require.Len(t, back, 2)

	orders := back[0]
	assert.Equal(t, "orders", orders.Name())
	assert.Equal(t, []string{"id", "total", "shipped", "when"}, orders.Columns())
	require.Equal(t, 2, orders.NumRows())

	assert.Equal(t, engine.KindNumber, orders.Cell(0, 0).Kind())
	assert.Equal(t, 9.99, orders.Cell(0, 1).Num())
	assert.Equal(t, engine.KindBool, orders.Cell(0, 2).Kind())
	assert.True(t, orders.Cell(0, 2).B())

	when := orders.Cell(0, 3)
	require.Equal(t, engine.KindDate, when.Kind())
	assert.Equal(t, "2024-01-15", when.String())

	assert.True(t, orders.Cell(1, 1).IsEmpty())
	assert.True(t, orders.Cell(1, 3).IsEmpty())

	notes := back[1]
	assert.Equal(t, "notes", notes.Name())
	assert.Equal(t, "hello", notes.Cell(0, 1).Str())
}

func TestWriteWorkbook_DuplicateNames(t *testing.T) {
	a, err := engine.NewTable("data", []string{"x"}, [][]engine.Value{{engine.Number(1)}})
	require.NoError(t, err)
	b := a.WithName("data")

	path := filepath.Join(t.TempDir(), "dup.xlsx")
	require.NoError(t, WriteWorkbookFile(path, []engine.Table{a, b}))

	back, err := ReadWorkbook(path)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, "data", back[0].Name())
	assert.Equal(t, "data_1", back[1].Name())
}

func TestLoad(t *testing.T) {
	t.Run("csv loads one table", func(t *testing.T) {
		path := writeTemp(t, "one.csv", []byte("a\n1\n"))
		tables, err := Load(path)
		require.NoError(t, err)
		require.Len(t, tables, 1)
		assert.Equal(t, "one", tables[0].Name())
	})

	t.Run("workbook loads all sheets", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "two.xlsx")
		require.NoError(t, WriteWorkbookFile(path, sampleTables(t)))
		tables, err := Load(path)
		require.NoError(t, err)
		assert.Len(t, tables, 2)
	})

	t.Run("unknown extension rejected", func(t *testing.T) {
		_, err := Load("input.pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unsupported file type ".pdf"`)
	})
}

func TestZipBuilder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.zip")
	zb, err := NewZipBuilder(path)
	require.NoError(t, err)

	require.NoError(t, zb.Add("a.txt", func(w io.Writer) error {
		_, err := w.Write([]byte("alpha"))
		return err
	}))
	require.NoError(t, zb.Add("sub/b.txt", func(w io.Writer) error {
		_, err := w.Write([]byte("beta"))
		return err
	}))
	require.NoError(t, zb.Close())

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 2)
	assert.Equal(t, "a.txt", zr.File[0].Name)
	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "beta", string(got))
}

func TestZipBuilder_HoldsWorkbooks(t *testing.T) {
	tables := sampleTables(t)
	path := filepath.Join(t.TempDir(), "sheets.zip")
	zb, err := NewZipBuilder(path)
	require.NoError(t, err)

	for _, tbl := range tables {
		require.NoError(t, zb.Add(SafeFileName(tbl.Name())+".xlsx", func(w io.Writer) error {
			return WriteWorkbook(w, []engine.Table{tbl})
		}))
	}
	require.NoError(t, zb.Close())

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 2)
	assert.Equal(t, "orders.xlsx", zr.File[0].Name)
	assert.Equal(t, "notes.xlsx", zr.File[1].Name)
}
