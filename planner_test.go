package icydb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plannerTestModel() EntityModel {
	return EntityModel{
		Name:       "widget",
		PKField:    "id",
		PrimaryKey: StorageKeyUint,
		Fields: map[string]FieldDecl{
			"id":     {Name: "id", Kind: FieldKind{Kind: KindUint}},
			"age":    {Name: "age", Kind: FieldKind{Kind: KindUint}},
			"status": {Name: "status", Kind: FieldKind{Kind: KindText}},
		},
		Indexes: []IndexModel{
			{Name: "by_status_age", Fields: []string{"status", "age"}},
		},
	}
}

func TestPlanPicksByKeyOnPKEquality(t *testing.T) {
	m := plannerTestModel()
	plan, residual, err := Plan(eqField("id", Uint(7)), m, PlanOptions{})
	require.NoError(t, err)
	assert.Equal(t, PathByKey, plan.Path.Kind)
	assert.Nil(t, residual)
}

func TestPlanPicksIndexPrefixOnLeadingEquality(t *testing.T) {
	m := plannerTestModel()
	plan, residual, err := Plan(eqField("status", Text("active")), m, PlanOptions{})
	require.NoError(t, err)
	assert.Equal(t, PathIndexPrefix, plan.Path.Kind)
	assert.Equal(t, "by_status_age", plan.Path.IndexName)
	assert.Nil(t, residual)
}

func TestPlanPicksIndexRangeOnPrefixPlusRange(t *testing.T) {
	m := plannerTestModel()
	p := And{Children: []Predicate{
		eqField("status", Text("active")),
		FieldPredicate{Field: "age", Op: OpGe, Operand: Uint(18), Coercion: CoercionStrict},
	}}
	plan, residual, err := Plan(p, m, PlanOptions{})
	require.NoError(t, err)
	assert.Equal(t, PathIndexRange, plan.Path.Kind)
	assert.Nil(t, residual)
}

func TestPlanFallsBackToFullScanRetainsUnindexedFieldAsResidual(t *testing.T) {
	m := plannerTestModel()
	p := FieldPredicate{Field: "age", Op: OpGe, Operand: Uint(30), Coercion: CoercionStrict}
	plan, residual, err := Plan(p, m, PlanOptions{})
	require.NoError(t, err)
	assert.Equal(t, PathFullScan, plan.Path.Kind)
	require.NotNil(t, residual, "an unconsumed range binding must survive as residual, not be silently dropped")
	fp, ok := residual.Predicate.(FieldPredicate)
	require.True(t, ok)
	assert.Equal(t, "age", fp.Field)
	assert.Equal(t, OpGe, fp.Op)
	assert.Equal(t, Uint(30), fp.Operand)
}

func TestPlanFullScanOnNoMatchingIndexLeavesEqualityAsResidual(t *testing.T) {
	m := plannerTestModel()
	p := eqField("age", Uint(42))
	plan, residual, err := Plan(p, m, PlanOptions{})
	require.NoError(t, err)
	assert.Equal(t, PathFullScan, plan.Path.Kind)
	require.NotNil(t, residual)
	fp, ok := residual.Predicate.(FieldPredicate)
	require.True(t, ok)
	assert.Equal(t, "age", fp.Field)
	assert.Equal(t, OpEq, fp.Op)
}

func TestPlanIndexPrefixDoesNotLeaveConsumedFieldAsResidual(t *testing.T) {
	m := plannerTestModel()
	plan, residual, err := Plan(eqField("status", Text("active")), m, PlanOptions{})
	require.NoError(t, err)
	assert.Equal(t, PathIndexPrefix, plan.Path.Kind)
	assert.Nil(t, residual, "the field the index prefix encodes must not reappear in the residual")
}

func TestPlanStrictAllOrNoneDemotesPartialIndexMatch(t *testing.T) {
	m := plannerTestModel()
	p := And{Children: []Predicate{
		eqField("status", Text("active")),
		FieldPredicate{Field: "age", Op: OpGe, Operand: Uint(18), Coercion: CoercionStrict},
		FieldPredicate{Field: "id", Op: OpLe, Operand: Uint(100), Coercion: CoercionStrict},
	}}
	// id <= 100 gives a primary-key range, which leaves status and age
	// unabsorbed, so pushdown is not exact; StrictAllOrNone must demote to a
	// full scan.
	plan, residual, err := Plan(p, m, PlanOptions{Pushdown: StrictAllOrNone})
	require.NoError(t, err)
	assert.Equal(t, PathFullScan, plan.Path.Kind)
	require.NotNil(t, residual)
}
