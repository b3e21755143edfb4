package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaMismatchError(t *testing.T) {
	err := &SchemaMismatchError{Report: CompatibilityReport{
		Mode: ModeStrict,
		Findings: []TableFinding{
			{TableIndex: 2, TableName: "march", Missing: []string{"total"}},
		},
	}}

	assert.True(t, errors.Is(err, ErrSchemaMismatch))
	assert.False(t, errors.Is(err, ErrCoercion))
	assert.Equal(t, `schema mismatch: table "march": missing "total"`, err.Error())
}

func TestCoercionError(t *testing.T) {
	err := &CoercionError{
		Table:  "feb",
		Row:    7,
		Column: "amount",
		Value:  "n/a",
		From:   KindText,
		To:     KindNumber,
	}

	assert.True(t, errors.Is(err, ErrCoercion))
	assert.False(t, errors.Is(err, ErrSchemaMismatch))
	assert.Equal(t, `coercion failed: table "feb" row 7 column "amount": cannot convert text "n/a" to number`, err.Error())
}

func TestKeyNotFoundError(t *testing.T) {
	err := &KeyNotFoundError{Table: "orders", TableIndex: 1, Column: "customer_id"}

	assert.True(t, errors.Is(err, ErrKeyNotFound))
	assert.Equal(t, `join key not found: table "orders" has no column "customer_id"`, err.Error())
}

func TestKeyTypeMismatchError(t *testing.T) {
	err := &KeyTypeMismatchError{
		LeftTable: "a", LeftColumn: "id", LeftKind: KindNumber,
		RightTable: "b", RightColumn: "id", RightKind: KindDate,
	}

	assert.True(t, errors.Is(err, ErrKeyTypeMismatch))
	assert.Equal(t, `join key type mismatch: "a"."id" is number but "b"."id" is date`, err.Error())
}

func TestResultTooLargeError(t *testing.T) {
	err := &ResultTooLargeError{Limit: 1000, Rows: 1001}

	assert.True(t, errors.Is(err, ErrResultTooLarge))
	assert.Equal(t, "join result too large: 1001 rows exceeds limit of 1000", err.Error())
}
