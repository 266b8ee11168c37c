package icydb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalizeTestModel() EntityModel {
	return EntityModel{
		Name:       "widget",
		PKField:    "id",
		PrimaryKey: StorageKeyUint,
		Fields: map[string]FieldDecl{
			"id":     {Name: "id", Kind: FieldKind{Kind: KindUint}},
			"age":    {Name: "age", Kind: FieldKind{Kind: KindUint}},
			"name":   {Name: "name", Kind: FieldKind{Kind: KindText}},
			"labels": {Name: "labels", Kind: FieldKind{Kind: KindMap}},
		},
	}
}

func eqField(field string, v Value) FieldPredicate {
	return FieldPredicate{Field: field, Op: OpEq, Operand: v, Coercion: CoercionStrict}
}

func TestNormalizeFoldsEmptyAndToAlways(t *testing.T) {
	out, err := Normalize(And{}, normalizeTestModel())
	require.NoError(t, err)
	assert.Equal(t, Always{}, out)
}

func TestNormalizeFoldsEmptyOrToNever(t *testing.T) {
	out, err := Normalize(Or{}, normalizeTestModel())
	require.NoError(t, err)
	assert.Equal(t, Never{}, out)
}

func TestNormalizeCollapsesIncompatibleOperandToNever(t *testing.T) {
	out, err := Normalize(eqField("age", Text("thirty")), normalizeTestModel())
	require.NoError(t, err)
	assert.Equal(t, Never{}, out)
}

func TestNormalizeDoubleNegationCancels(t *testing.T) {
	p := Not{Child: Not{Child: eqField("age", Uint(1))}}
	out, err := Normalize(p, normalizeTestModel())
	require.NoError(t, err)
	assert.Equal(t, eqField("age", Uint(1)), out)
}

func TestNormalizeOrderIndependentAndProducesSameTree(t *testing.T) {
	m := normalizeTestModel()
	a := And{Children: []Predicate{eqField("age", Uint(1)), eqField("name", Text("a"))}}
	b := And{Children: []Predicate{eqField("name", Text("a")), eqField("age", Uint(1))}}

	na, err := Normalize(a, m)
	require.NoError(t, err)
	nb, err := Normalize(b, m)
	require.NoError(t, err)

	assert.Equal(t, na, nb)
	assert.Equal(t, predicateSortKey(na), predicateSortKey(nb))
}

func TestNormalizeFoldsStartsWithOnNonTextFieldToNever(t *testing.T) {
	p := FieldPredicate{Field: "age", Op: OpStartsWith, Operand: Text("3"), Coercion: CoercionStrict}
	out, err := Normalize(p, normalizeTestModel())
	require.NoError(t, err)
	assert.Equal(t, Never{}, out)
}

func TestNormalizeKeepsStartsWithOnTextField(t *testing.T) {
	p := FieldPredicate{Field: "name", Op: OpStartsWith, Operand: Text("a"), Coercion: CoercionStrict}
	out, err := Normalize(p, normalizeTestModel())
	require.NoError(t, err)
	assert.Equal(t, p, out)
}

func TestNormalizeFoldsMapContainsKeyOnNonMapFieldToNever(t *testing.T) {
	p := FieldPredicate{Field: "name", Op: OpMapContainsKey, Operand: Text("x"), Coercion: CoercionStrict}
	out, err := Normalize(p, normalizeTestModel())
	require.NoError(t, err)
	assert.Equal(t, Never{}, out)
}

func TestNormalizeKeepsMapContainsEntryOnMapField(t *testing.T) {
	p := FieldPredicate{Field: "labels", Op: OpMapContainsEntry, Operand: Text("k"), Operand2: Text("v"), Coercion: CoercionStrict}
	out, err := Normalize(p, normalizeTestModel())
	require.NoError(t, err)
	assert.Equal(t, p, out)
}

func TestNormalizeIsEmptyPassesThroughUnchanged(t *testing.T) {
	p := FieldPredicate{Field: "labels", Op: OpIsEmpty, Coercion: CoercionStrict}
	out, err := Normalize(p, normalizeTestModel())
	require.NoError(t, err)
	assert.Equal(t, p, out)
}

func TestPredicateSortKeyDistinguishesMapContainsEntryOperands(t *testing.T) {
	a := FieldPredicate{Field: "labels", Op: OpMapContainsEntry, Operand: Text("k"), Operand2: Text("v1"), Coercion: CoercionStrict}
	b := FieldPredicate{Field: "labels", Op: OpMapContainsEntry, Operand: Text("k"), Operand2: Text("v2"), Coercion: CoercionStrict}
	assert.NotEqual(t, predicateSortKey(a), predicateSortKey(b))
}

func TestNormalizeFlattensNestedAnd(t *testing.T) {
	m := normalizeTestModel()
	nested := And{Children: []Predicate{
		eqField("age", Uint(1)),
		And{Children: []Predicate{eqField("name", Text("a"))}},
	}}
	out, err := Normalize(nested, m)
	require.NoError(t, err)
	and, ok := out.(And)
	require.True(t, ok)
	assert.Len(t, and.Children, 2)
}
