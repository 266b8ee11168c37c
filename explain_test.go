package icydb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExplainByKey(t *testing.T) {
	p := AccessPlan{Path: &AccessPath{Kind: PathByKey, Key: Uint(7)}}
	assert.Equal(t, "ByKey(7)", Explain(p))
}

func TestExplainFullScanDescending(t *testing.T) {
	p := AccessPlan{Path: &AccessPath{Kind: PathFullScan, Descending: true}}
	assert.Equal(t, "FullScan(desc)", Explain(p))
}

func TestExplainIndexRangeIncludesBounds(t *testing.T) {
	p := AccessPlan{Path: &AccessPath{
		Kind:        PathIndexRange,
		IndexName:   "by_status_age",
		IndexPrefix: []Value{Text("active")},
		RangeLow:    Bound{Value: Uint(18), Inclusive: true},
		RangeHigh:   Bound{},
	}}
	assert.Equal(t, `IndexRange(by_status_age, ["active"], [18..+inf))`, Explain(p))
}

func TestPlanFingerprintStableForEquivalentPlans(t *testing.T) {
	a := AccessPlan{Path: &AccessPath{Kind: PathByKey, Key: Uint(1)}}
	b := AccessPlan{Path: &AccessPath{Kind: PathByKey, Key: Uint(1)}}
	assert.Equal(t, PlanFingerprint(a), PlanFingerprint(b))
}

func TestPlanFingerprintDiffersForDifferentPaths(t *testing.T) {
	a := AccessPlan{Path: &AccessPath{Kind: PathByKey, Key: Uint(1)}}
	b := AccessPlan{Path: &AccessPath{Kind: PathByKey, Key: Uint(2)}}
	assert.NotEqual(t, PlanFingerprint(a), PlanFingerprint(b))
}
