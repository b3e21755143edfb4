package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// JoinKind selects which rows of a join survive.
type JoinKind int

const (
	// JoinLeft keeps every row of the first table, null-filling where
	// later tables have no match.
	JoinLeft JoinKind = iota
	// JoinInner keeps only rows whose key matches in every table.
	JoinInner
	// JoinFullOuter keeps the union of keys across all tables.
	JoinFullOuter
)

// String returns the lowercase name of the join kind.
func (k JoinKind) String() string {
	switch k {
	case JoinLeft:
		return "left"
	case JoinInner:
		return "inner"
	case JoinFullOuter:
		return "full_outer"
	default:
		return fmt.Sprintf("join(%d)", int(k))
	}
}

// MarshalJSON encodes the join kind as its lowercase name.
func (k JoinKind) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(k.String())), nil
}

// ParseJoinKind converts a join kind name to a JoinKind. "outer" is
// accepted as an alias for "full_outer".
func ParseJoinKind(s string) (JoinKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "":
		return JoinLeft, nil
	case "inner":
		return JoinInner, nil
	case "full_outer", "outer":
		return JoinFullOuter, nil
	default:
		return JoinLeft, fmt.Errorf("unknown join kind %q", s)
	}
}

// JoinOptions configure JoinWith.
type JoinOptions struct {
	// KeyLabel overrides the output label of the key column. Empty
	// means the first table's key label.
	KeyLabel string
	// MaxResultRows caps the row count of every pairwise step's output.
	// A join whose intermediate or final result would exceed the cap is
	// abandoned with a ResultTooLargeError. Zero means no cap.
	MaxResultRows int
	// FoldKeys compares text keys case-insensitively.
	FoldKeys bool
}

// Join combines tables on their declared key columns with default
// options. keys holds one key label per table, in table order.
//
// An n-way join is the chain of pairwise joins evaluated left to right:
// the first table is joined with the second, that result with the
// third, and so on. The first table drives the semantics; each
// duplicate key on the right side fans out, with the extra rows placed
// immediately after the row they extend. The key appears once in the
// output, as the first column, under the first table's key label;
// every non-key column follows in table order, renamed through
// ResolveLabels where labels repeat.
//
// Row order: left joins preserve the first table's row order. Inner and
// full outer joins group rows sharing a key and order the groups by the
// key's first appearance, scanning the first table's rows and then each
// later table's in turn.
//
// Key columns must be comparable. Text keys reconcile with numeric keys
// only when every non-empty text key parses cleanly as a number;
// otherwise the join fails with a KeyTypeMismatchError before any rows
// are combined. Empty key cells never match anything, mirroring SQL
// null semantics: inner joins drop such rows, left and full outer joins
// keep them null-filled.
func Join(tables []Table, keys []string, kind JoinKind) (Table, error) {
	return JoinWith(tables, keys, kind, JoinOptions{})
}

// JoinWith is Join with explicit options.
func JoinWith(tables []Table, keys []string, kind JoinKind, opts JoinOptions) (Table, error) {
	if len(keys) != len(tables) {
		return Table{}, fmt.Errorf("join: %d tables but %d key columns", len(tables), len(keys))
	}
	if len(tables) == 0 {
		return NewTable("", nil, nil)
	}

	j, err := newJoiner(tables, keys, opts)
	if err != nil {
		return Table{}, err
	}

	acc := j.initial()
	for ti := 1; ti < len(tables); ti++ {
		acc, err = j.step(acc, ti, kind)
		if err != nil {
			return Table{}, err
		}
	}
	return NewTable(tables[0].Name(), j.labels, acc)
}

// joiner carries the invariants shared by every pairwise step: resolved
// output labels, per-table key positions, and the reconciled key kind.
type joiner struct {
	tables   []Table
	keys     []string
	keyIdx   []int
	segStart []int
	labels   []string
	width    int
	common   Kind
	maxRows  int
	fold     bool
}

func newJoiner(tables []Table, keys []string, opts JoinOptions) (*joiner, error) {
	j := &joiner{
		tables:  tables,
		keys:    keys,
		keyIdx:  make([]int, len(tables)),
		maxRows: opts.MaxResultRows,
		fold:    opts.FoldKeys,
	}

	// Validate keys and infer their kinds before touching any rows, so
	// a failing join reports without partial work.
	keyKinds := make([]Kind, len(tables))
	for i, t := range tables {
		idx, ok := t.ColumnIndex(keys[i])
		if !ok {
			return nil, &KeyNotFoundError{Table: t.Name(), TableIndex: i, Column: keys[i]}
		}
		j.keyIdx[i] = idx
		keyKinds[i] = keyColumnKind(t, idx)
	}
	common, err := reconcileKeyKinds(tables, keys, j.keyIdx, keyKinds)
	if err != nil {
		return nil, err
	}
	j.common = common

	// Resolve every output label once, up front. Chained steps would
	// otherwise suffix a label twice.
	keyLabel := opts.KeyLabel
	if keyLabel == "" {
		keyLabel = keys[0]
	}
	raw := []string{keyLabel}
	j.segStart = make([]int, len(tables))
	for i, t := range tables {
		j.segStart[i] = len(raw)
		for c, label := range t.Columns() {
			if c != j.keyIdx[i] {
				raw = append(raw, label)
			}
		}
	}
	j.labels = ResolveLabels(raw)
	j.width = len(j.labels)
	return j, nil
}

// keyColumnKind is the key-specific kind policy: no non-empty cells is
// KindEmpty (comparable with anything, since empty keys never match)
// and mixed kinds are text.
func keyColumnKind(t Table, col int) Kind {
	kind := KindEmpty
	for r := 0; r < t.NumRows(); r++ {
		k := t.rows[r][col].Kind()
		if k == KindEmpty {
			continue
		}
		if kind == KindEmpty {
			kind = k
			continue
		}
		if kind != k {
			return KindText
		}
	}
	return kind
}

// reconcileKeyKinds folds the per-table key kinds into one comparison
// kind. Text and number reconcile to number when every text key cell
// parses as a number; any other disagreement is a type mismatch.
func reconcileKeyKinds(tables []Table, keys []string, keyIdx []int, keyKinds []Kind) (Kind, error) {
	base := -1
	common := KindEmpty
	for i, k := range keyKinds {
		if k == KindEmpty || k == common {
			continue
		}
		if base < 0 {
			base, common = i, k
			continue
		}
		textNumber := (common == KindNumber && k == KindText) ||
			(common == KindText && k == KindNumber)
		if !textNumber {
			return 0, &KeyTypeMismatchError{
				LeftTable:   tables[base].Name(),
				LeftColumn:  keys[base],
				LeftKind:    keyKinds[base],
				RightTable:  tables[i].Name(),
				RightColumn: keys[i],
				RightKind:   k,
			}
		}
		if k == KindNumber {
			base = i
		}
		common = KindNumber
	}
	if common == KindEmpty {
		return KindText, nil
	}
	if common != KindNumber {
		return common, nil
	}
	for i, k := range keyKinds {
		if k != KindText {
			continue
		}
		if keyParsesNumeric(tables[i], keyIdx[i]) {
			continue
		}
		return 0, &KeyTypeMismatchError{
			LeftTable:   tables[base].Name(),
			LeftColumn:  keys[base],
			LeftKind:    KindNumber,
			RightTable:  tables[i].Name(),
			RightColumn: keys[i],
			RightKind:   KindText,
		}
	}
	return KindNumber, nil
}

func keyParsesNumeric(t Table, col int) bool {
	for r := 0; r < t.NumRows(); r++ {
		v := t.rows[r][col]
		switch v.Kind() {
		case KindEmpty, KindNumber:
		case KindText:
			if _, ok := parseNumber(v.Str()); !ok {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// keyValue is the comparable map representation of a key cell.
type keyValue struct {
	kind Kind
	num  float64
	text string
	b    bool
	day  int64
}

// key converts a cell to its comparison representation and its coerced
// output form. Empty cells have no key.
func (j *joiner) key(cell Value) (keyValue, Value, bool) {
	if cell.IsEmpty() {
		return keyValue{}, Value{}, false
	}
	c, err := Coerce(cell, j.common)
	if err != nil {
		// Unreachable after reconcileKeyKinds; treat as keyless.
		return keyValue{}, cell, false
	}
	switch c.Kind() {
	case KindText:
		text := c.Str()
		if j.fold {
			text = strings.ToLower(text)
		}
		return keyValue{kind: KindText, text: text}, c, true
	case KindNumber:
		return keyValue{kind: KindNumber, num: c.Num()}, c, true
	case KindBool:
		return keyValue{kind: KindBool, b: c.B()}, c, true
	case KindDate:
		return keyValue{kind: KindDate, day: c.Day().Unix()}, c, true
	}
	return keyValue{}, c, false
}

// copySegment writes a table's non-key cells into their resolved
// positions in a full-width row.
func (j *joiner) copySegment(dst []Value, ti, r int) {
	src := j.tables[ti].Row(r)
	d := j.segStart[ti]
	for c := range src {
		if c == j.keyIdx[ti] {
			continue
		}
		dst[d] = src[c]
		d++
	}
}

// initial lays the first table out as full-width rows: the key cell
// first, then the table's non-key cells in its own segment. Segments of
// tables not yet joined stay empty.
func (j *joiner) initial() [][]Value {
	t := j.tables[0]
	rows := make([][]Value, t.NumRows())
	for r := range rows {
		row := make([]Value, j.width)
		_, cell, _ := j.key(t.Cell(r, j.keyIdx[0]))
		row[0] = cell
		j.copySegment(row, 0, r)
		rows[r] = row
	}
	return rows
}

// group is a run of row indices sharing one key, ordered by the key's
// first appearance. Rows with empty keys form singleton groups at their
// scan position.
type group struct {
	kv    keyValue
	keyed bool
	rows  []int
}

func (j *joiner) groupAcc(acc [][]Value) []group {
	var groups []group
	index := make(map[keyValue]int)
	for ri, row := range acc {
		kv, _, ok := j.key(row[0])
		if !ok {
			groups = append(groups, group{rows: []int{ri}})
			continue
		}
		if gi, seen := index[kv]; seen {
			groups[gi].rows = append(groups[gi].rows, ri)
			continue
		}
		index[kv] = len(groups)
		groups = append(groups, group{kv: kv, keyed: true, rows: []int{ri}})
	}
	return groups
}

// step joins the accumulated rows with table ti.
func (j *joiner) step(acc [][]Value, ti int, kind JoinKind) ([][]Value, error) {
	right := j.tables[ti]
	rightIdx := make(map[keyValue][]int)
	for r := 0; r < right.NumRows(); r++ {
		kv, _, ok := j.key(right.Cell(r, j.keyIdx[ti]))
		if !ok {
			continue
		}
		rightIdx[kv] = append(rightIdx[kv], r)
	}

	var out [][]Value
	push := func(row []Value) error {
		out = append(out, row)
		if j.maxRows > 0 && len(out) > j.maxRows {
			return &ResultTooLargeError{Limit: j.maxRows, Rows: len(out)}
		}
		return nil
	}
	// extend copies an accumulated row and fills in the right table's
	// segment from row r.
	extend := func(row []Value, r int) []Value {
		dup := make([]Value, len(row))
		copy(dup, row)
		j.copySegment(dup, ti, r)
		return dup
	}

	switch kind {
	case JoinLeft:
		for _, row := range acc {
			kv, _, ok := j.key(row[0])
			var matches []int
			if ok {
				matches = rightIdx[kv]
			}
			if len(matches) == 0 {
				if err := push(row); err != nil {
					return nil, err
				}
				continue
			}
			for _, r := range matches {
				if err := push(extend(row, r)); err != nil {
					return nil, err
				}
			}
		}

	case JoinInner:
		for _, g := range j.groupAcc(acc) {
			if !g.keyed {
				continue
			}
			matches := rightIdx[g.kv]
			if len(matches) == 0 {
				continue
			}
			for _, ri := range g.rows {
				for _, r := range matches {
					if err := push(extend(acc[ri], r)); err != nil {
						return nil, err
					}
				}
			}
		}

	case JoinFullOuter:
		matched := make(map[keyValue]struct{})
		for _, g := range j.groupAcc(acc) {
			var matches []int
			if g.keyed {
				matches = rightIdx[g.kv]
				if len(matches) > 0 {
					matched[g.kv] = struct{}{}
				}
			}
			for _, ri := range g.rows {
				if len(matches) == 0 {
					if err := push(acc[ri]); err != nil {
						return nil, err
					}
					continue
				}
				for _, r := range matches {
					if err := push(extend(acc[ri], r)); err != nil {
						return nil, err
					}
				}
			}
		}
		// Right-side rows whose key never matched, grouped by key in
		// the right table's scan order.
		var rightOnly []group
		index := make(map[keyValue]int)
		for r := 0; r < right.NumRows(); r++ {
			kv, _, ok := j.key(right.Cell(r, j.keyIdx[ti]))
			if !ok {
				rightOnly = append(rightOnly, group{rows: []int{r}})
				continue
			}
			if _, hit := matched[kv]; hit {
				continue
			}
			if gi, seen := index[kv]; seen {
				rightOnly[gi].rows = append(rightOnly[gi].rows, r)
				continue
			}
			index[kv] = len(rightOnly)
			rightOnly = append(rightOnly, group{kv: kv, keyed: true, rows: []int{r}})
		}
		for _, g := range rightOnly {
			for _, r := range g.rows {
				row := make([]Value, j.width)
				_, cell, _ := j.key(right.Cell(r, j.keyIdx[ti]))
				row[0] = cell
				j.copySegment(row, ti, r)
				if err := push(row); err != nil {
					return nil, err
				}
			}
		}

	default:
		return nil, fmt.Errorf("join: unknown kind %d", int(kind))
	}
	return out, nil
}
