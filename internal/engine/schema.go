package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode selects how strictly schemas are compared.
type Mode int

const (
	// ModeStrict requires identical labels, order, and inferred kinds.
	ModeStrict Mode = iota
	// ModeLoose requires identical label sets; order may differ and
	// kinds reconcile through coercion.
	ModeLoose
)

// String returns the lowercase name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModeLoose:
		return "loose"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// MarshalJSON encodes the mode as its lowercase name.
func (m Mode) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict", "":
		return ModeStrict, nil
	case "loose":
		return ModeLoose, nil
	default:
		return ModeStrict, fmt.Errorf("unknown mode %q", s)
	}
}

// SchemaColumn pairs a column label with its inferred kind.
type SchemaColumn struct {
	Label string `json:"label"`
	Kind  Kind   `json:"kind"`
}

// Signature is the ordered schema of a table: one entry per column.
type Signature []SchemaColumn

// Labels returns the ordered column labels of the signature.
func (s Signature) Labels() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Label
	}
	return out
}

// Equal reports whether two signatures have identical labels, order,
// and kinds.
func (s Signature) Equal(o Signature) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// SignatureOf infers a table's schema. A column whose non-empty cells
// all share one kind takes that kind, so a column of mixed numeric and
// blank cells is numeric. A column with no non-empty cells is text, and
// a column mixing kinds is text.
func SignatureOf(t Table) Signature {
	sig := make(Signature, t.NumCols())
	for c := range sig {
		sig[c] = SchemaColumn{Label: t.columns[c], Kind: columnKind(t, c)}
	}
	return sig
}

func columnKind(t Table, c int) Kind {
	kind := KindEmpty
	for r := 0; r < t.NumRows(); r++ {
		k := t.rows[r][c].Kind()
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
	if kind == KindEmpty {
		return KindText
	}
	return kind
}

// TypeDiff records one column whose inferred kind differs from the
// reference.
type TypeDiff struct {
	Label string `json:"label"`
	Want  Kind   `json:"want"`
	Got   Kind   `json:"got"`
}

// TableFinding describes why one table is incompatible with the
// reference. Only incompatible tables produce findings.
type TableFinding struct {
	// TableIndex is the position of the table in the input slice.
	TableIndex int `json:"table_index"`
	// TableName is the table's name.
	TableName string `json:"table_name"`
	// Missing lists reference labels absent from this table.
	Missing []string `json:"missing,omitempty"`
	// Extra lists labels present here but absent from the reference.
	Extra []string `json:"extra,omitempty"`
	// TypeDiffs lists shared labels whose inferred kinds differ.
	TypeDiffs []TypeDiff `json:"type_diffs,omitempty"`
	// OrderDiff is set when the label sets match but the order differs.
	OrderDiff bool `json:"order_diff,omitempty"`
}

func (f TableFinding) describe() string {
	var parts []string
	if len(f.Missing) > 0 {
		parts = append(parts, "missing "+quoteJoin(f.Missing))
	}
	if len(f.Extra) > 0 {
		parts = append(parts, "extra "+quoteJoin(f.Extra))
	}
	for _, d := range f.TypeDiffs {
		parts = append(parts, fmt.Sprintf("column %q is %s, want %s", d.Label, d.Got, d.Want))
	}
	if f.OrderDiff {
		parts = append(parts, "columns out of order")
	}
	return fmt.Sprintf("table %q: %s", f.TableName, strings.Join(parts, "; "))
}

func quoteJoin(labels []string) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = strconv.Quote(l)
	}
	return strings.Join(quoted, ", ")
}

// CompatibilityReport is the outcome of inspecting a set of tables
// against the first table's schema.
type CompatibilityReport struct {
	// Mode is the comparison mode the report was produced under.
	Mode Mode `json:"mode"`
	// Compatible is true when every table matched the reference.
	Compatible bool `json:"compatible"`
	// Reference is the first table's inferred signature.
	Reference Signature `json:"reference,omitempty"`
	// Findings holds one entry per incompatible table.
	Findings []TableFinding `json:"findings,omitempty"`
}

// Summary renders the findings as a single human-readable line.
func (r CompatibilityReport) Summary() string {
	if r.Compatible {
		return ""
	}
	parts := make([]string, len(r.Findings))
	for i, f := range r.Findings {
		parts[i] = f.describe()
	}
	return strings.Join(parts, "; ")
}

// Inspect compares every table against the first table's schema and
// reports which are compatible under the given mode. Zero tables and a
// single table are vacuously compatible. In strict mode labels, order,
// and inferred kinds must match exactly. In loose mode the label sets
// must match; order is ignored and kind differences are left to
// coercion at combine time.
func Inspect(tables []Table, mode Mode) CompatibilityReport {
	report := CompatibilityReport{Mode: mode, Compatible: true}
	if len(tables) == 0 {
		return report
	}
	report.Reference = SignatureOf(tables[0])
	refByLabel := make(map[string]SchemaColumn, len(report.Reference))
	for _, col := range report.Reference {
		refByLabel[col.Label] = col
	}
	for i := 1; i < len(tables); i++ {
		sig := SignatureOf(tables[i])
		finding := compare(report.Reference, refByLabel, sig, mode)
		if finding == nil {
			continue
		}
		finding.TableIndex = i
		finding.TableName = tables[i].Name()
		report.Compatible = false
		report.Findings = append(report.Findings, *finding)
	}
	return report
}

func compare(ref Signature, refByLabel map[string]SchemaColumn, sig Signature, mode Mode) *TableFinding {
	var f TableFinding
	sigLabels := make(map[string]Kind, len(sig))
	for _, col := range sig {
		sigLabels[col.Label] = col.Kind
	}
	for _, col := range ref {
		if _, ok := sigLabels[col.Label]; !ok {
			f.Missing = append(f.Missing, col.Label)
		}
	}
	for _, col := range sig {
		if _, ok := refByLabel[col.Label]; !ok {
			f.Extra = append(f.Extra, col.Label)
		}
	}
	if mode == ModeStrict {
		for _, col := range sig {
			want, ok := refByLabel[col.Label]
			if ok && want.Kind != col.Kind {
				f.TypeDiffs = append(f.TypeDiffs, TypeDiff{Label: col.Label, Want: want.Kind, Got: col.Kind})
			}
		}
		if len(f.Missing) == 0 && len(f.Extra) == 0 && !sameOrder(ref, sig) {
			f.OrderDiff = true
		}
	}
	if len(f.Missing) == 0 && len(f.Extra) == 0 && len(f.TypeDiffs) == 0 && !f.OrderDiff {
		return nil
	}
	return &f
}

func sameOrder(ref, sig Signature) bool {
	if len(ref) != len(sig) {
		return false
	}
	for i := range ref {
		if ref[i].Label != sig[i].Label {
			return false
		}
	}
	return true
}
