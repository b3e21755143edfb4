package engine

// Concatenate appends the rows of every table, in input order, under the
// first table's schema. Tables must first pass Inspect under the given
// mode; otherwise a SchemaMismatchError carrying the full report is
// returned and nothing is combined. In loose mode columns are matched by
// label and every cell is coerced to the reference column's kind; a cell
// that will not coerce aborts the whole operation with a CoercionError.
// Row content and relative order are preserved exactly. Concatenating
// zero tables yields an empty table.
func Concatenate(tables []Table, mode Mode) (Table, error) {
	report := Inspect(tables, mode)
	if !report.Compatible {
		return Table{}, &SchemaMismatchError{Report: report}
	}
	if len(tables) == 0 {
		return NewTable("", nil, nil)
	}

	ref := report.Reference
	labels := ref.Labels()
	total := 0
	for _, t := range tables {
		total += t.NumRows()
	}
	rows := make([][]Value, 0, total)
	for ti, t := range tables {
		// Column positions can differ per table in loose mode.
		idx := make([]int, len(labels))
		for c, label := range labels {
			idx[c], _ = t.ColumnIndex(label)
		}
		for r := 0; r < t.NumRows(); r++ {
			src := t.Row(r)
			row := make([]Value, len(labels))
			for c := range labels {
				cell := src[idx[c]]
				if mode == ModeLoose {
					coerced, err := Coerce(cell, ref[c].Kind)
					if err != nil {
						return Table{}, &CoercionError{
							Table:      t.Name(),
							TableIndex: ti,
							Row:        r,
							Column:     labels[c],
							Value:      cell.String(),
							From:       cell.Kind(),
							To:         ref[c].Kind,
						}
					}
					cell = coerced
				}
				row[c] = cell
			}
			rows = append(rows, row)
		}
	}
	return NewTable(tables[0].Name(), labels, rows)
}
