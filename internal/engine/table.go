package engine

import "fmt"

// Table is an ordered set of named columns and zero or more rows of
// values. Tables are immutable once constructed: every operation that
// changes shape or content returns a new Table. Callers must not modify
// the column or row slices after handing them to NewTable.
type Table struct {
	name    string
	columns []string
	rows    [][]Value
	byLabel map[string]int
}

// NewTable constructs a table from a name, ordered column labels, and
// rows. Every row must have exactly one value per column, and column
// labels must be unique within the table.
func NewTable(name string, columns []string, rows [][]Value) (Table, error) {
	byLabel := make(map[string]int, len(columns))
	for i, label := range columns {
		if _, dup := byLabel[label]; dup {
			return Table{}, fmt.Errorf("table %q: duplicate column label %q", name, label)
		}
		byLabel[label] = i
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return Table{}, fmt.Errorf("table %q: row %d has %d values, want %d",
				name, i, len(row), len(columns))
		}
	}
	return Table{name: name, columns: columns, rows: rows, byLabel: byLabel}, nil
}

// Name returns the table's name.
func (t Table) Name() string { return t.name }

// WithName returns a copy of the table under a different name. Columns
// and rows are shared with the receiver.
func (t Table) WithName(name string) Table {
	t.name = name
	return t
}

// Columns returns a copy of the ordered column labels.
func (t Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// NumCols returns the number of columns.
func (t Table) NumCols() int { return len(t.columns) }

// NumRows returns the number of rows.
func (t Table) NumRows() int { return len(t.rows) }

// Row returns the i-th row. The returned slice is shared with the table
// and must not be modified.
func (t Table) Row(i int) []Value { return t.rows[i] }

// Cell returns the value at row r, column c.
func (t Table) Cell(r, c int) Value { return t.rows[r][c] }

// ColumnIndex returns the position of the column with the given label.
func (t Table) ColumnIndex(label string) (int, bool) {
	i, ok := t.byLabel[label]
	return i, ok
}
