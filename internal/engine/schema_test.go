package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureOf(t *testing.T) {
	tbl := mustTable(t, "t",
		[]string{"mixed_numeric", "all_blank", "mixed_kinds", "dates", "flags"},
		[][]Value{
			{Number(1), Empty(), Number(1), Date(day(2024, time.May, 1)), Bool(true)},
			{Empty(), Empty(), Text("x"), Empty(), Bool(false)},
			{Number(3), Empty(), Number(2), Date(day(2024, time.May, 2)), Empty()},
		})

	sig := SignatureOf(tbl)
	require.Len(t, sig, 5)
	// A column of mixed numeric and blank cells is numeric.
	assert.Equal(t, SchemaColumn{Label: "mixed_numeric", Kind: KindNumber}, sig[0])
	// A column with no values at all defaults to text.
	assert.Equal(t, SchemaColumn{Label: "all_blank", Kind: KindText}, sig[1])
	// A column mixing kinds falls back to text.
	assert.Equal(t, SchemaColumn{Label: "mixed_kinds", Kind: KindText}, sig[2])
	assert.Equal(t, SchemaColumn{Label: "dates", Kind: KindDate}, sig[3])
	assert.Equal(t, SchemaColumn{Label: "flags", Kind: KindBool}, sig[4])
}

func TestSignature_Equal(t *testing.T) {
	a := Signature{{Label: "id", Kind: KindNumber}, {Label: "name", Kind: KindText}}
	b := Signature{{Label: "id", Kind: KindNumber}, {Label: "name", Kind: KindText}}
	c := Signature{{Label: "id", Kind: KindText}, {Label: "name", Kind: KindText}}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(a[:1]))
	assert.Equal(t, []string{"id", "name"}, a.Labels())
}

func TestInspect_NoTables(t *testing.T) {
	report := Inspect(nil, ModeStrict)
	assert.True(t, report.Compatible)
	assert.Empty(t, report.Findings)
}

func TestInspect_SingleTable(t *testing.T) {
	tbl := mustTable(t, "only", []string{"a"}, [][]Value{{Number(1)}})
	report := Inspect([]Table{tbl}, ModeStrict)
	assert.True(t, report.Compatible)
	require.Len(t, report.Reference, 1)
	assert.Equal(t, "a", report.Reference[0].Label)
}

func TestInspect_Strict(t *testing.T) {
	ref := mustTable(t, "ref", []string{"id", "name"}, [][]Value{
		{Number(1), Text("a")},
	})

	t.Run("identical is compatible", func(t *testing.T) {
		other := mustTable(t, "other", []string{"id", "name"}, [][]Value{
			{Number(2), Text("b")},
		})
		report := Inspect([]Table{ref, other}, ModeStrict)
		assert.True(t, report.Compatible)
	})

	t.Run("kind difference is a finding", func(t *testing.T) {
		other := mustTable(t, "other", []string{"id", "name"}, [][]Value{
			{Text("two"), Text("b")},
		})
		report := Inspect([]Table{ref, other}, ModeStrict)
		require.False(t, report.Compatible)
		require.Len(t, report.Findings, 1)
		f := report.Findings[0]
		assert.Equal(t, 1, f.TableIndex)
		assert.Equal(t, "other", f.TableName)
		require.Len(t, f.TypeDiffs, 1)
		assert.Equal(t, TypeDiff{Label: "id", Want: KindNumber, Got: KindText}, f.TypeDiffs[0])
	})

	t.Run("order difference is a finding", func(t *testing.T) {
		other := mustTable(t, "other", []string{"name", "id"}, [][]Value{
			{Text("b"), Number(2)},
		})
		report := Inspect([]Table{ref, other}, ModeStrict)
		require.False(t, report.Compatible)
		require.Len(t, report.Findings, 1)
		assert.True(t, report.Findings[0].OrderDiff)
	})

	t.Run("missing and extra labels", func(t *testing.T) {
		other := mustTable(t, "other", []string{"id", "total"}, [][]Value{
			{Number(2), Number(10)},
		})
		report := Inspect([]Table{ref, other}, ModeStrict)
		require.False(t, report.Compatible)
		f := report.Findings[0]
		assert.Equal(t, []string{"name"}, f.Missing)
		assert.Equal(t, []string{"total"}, f.Extra)
	})
}

func TestInspect_Loose(t *testing.T) {
	ref := mustTable(t, "ref", []string{"id", "name"}, [][]Value{
		{Number(1), Text("a")},
	})

	t.Run("reordered columns are compatible", func(t *testing.T) {
		other := mustTable(t, "other", []string{"name", "id"}, [][]Value{
			{Text("b"), Number(2)},
		})
		report := Inspect([]Table{ref, other}, ModeLoose)
		assert.True(t, report.Compatible)
	})

	t.Run("kind differences are compatible", func(t *testing.T) {
		other := mustTable(t, "other", []string{"id", "name"}, [][]Value{
			{Text("2"), Text("b")},
		})
		report := Inspect([]Table{ref, other}, ModeLoose)
		assert.True(t, report.Compatible)
	})

	t.Run("label set must still match", func(t *testing.T) {
		other := mustTable(t, "other", []string{"id"}, [][]Value{
			{Number(2)},
		})
		report := Inspect([]Table{ref, other}, ModeLoose)
		require.False(t, report.Compatible)
		assert.Equal(t, []string{"name"}, report.Findings[0].Missing)
	})
}

func TestInspect_MultipleIncompatible(t *testing.T) {
	ref := mustTable(t, "ref", []string{"a"}, nil)
	t2 := mustTable(t, "two", []string{"b"}, nil)
	t3 := mustTable(t, "three", []string{"a"}, nil)
	t4 := mustTable(t, "four", []string{"c"}, nil)

	report := Inspect([]Table{ref, t2, t3, t4}, ModeLoose)
	require.False(t, report.Compatible)
	require.Len(t, report.Findings, 2)
	assert.Equal(t, 1, report.Findings[0].TableIndex)
	assert.Equal(t, 3, report.Findings[1].TableIndex)

	summary := report.Summary()
	assert.Contains(t, summary, `table "two"`)
	assert.Contains(t, summary, `table "four"`)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("strict")
	require.NoError(t, err)
	assert.Equal(t, ModeStrict, m)

	m, err = ParseMode("LOOSE")
	require.NoError(t, err)
	assert.Equal(t, ModeLoose, m)

	_, err = ParseMode("fuzzy")
	assert.Error(t, err)
}
