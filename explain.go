package icydb

import (
	"fmt"
	"strings"
)

// Explain renders a deterministic, human-readable description of an
// AccessPlan, used by tests to assert plan shape without comparing opaque
// fingerprints and by callers debugging query behavior.
//
// Grounded on original_source's query/plan/explain.rs rendering shape
// (`ByKey(7)`, `IndexRange(idx_a_b, [1], [2..10))`).
func Explain(p AccessPlan) string {
	switch {
	case p.Path != nil:
		return explainPath(*p.Path)
	case len(p.Union) > 0:
		return explainCombinator("Union", p.Union)
	case len(p.Intersection) > 0:
		return explainCombinator("Intersection", p.Intersection)
	default:
		return "Empty"
	}
}

func explainCombinator(name string, plans []AccessPlan) string {
	parts := make([]string, len(plans))
	for i, pl := range plans {
		parts[i] = Explain(pl)
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}

func explainPath(path AccessPath) string {
	dir := ""
	if path.Descending {
		dir = ", desc"
	}
	switch path.Kind {
	case PathByKey:
		return fmt.Sprintf("ByKey(%s%s)", String(path.Key), dir)
	case PathByKeys:
		return fmt.Sprintf("ByKeys(%s%s)", explainValueList(path.Keys), dir)
	case PathKeyRange:
		return fmt.Sprintf("KeyRange(%s%s)", explainRange(path.KeyLow, path.KeyHigh), dir)
	case PathIndexPrefix:
		return fmt.Sprintf("IndexPrefix(%s, %s%s)", path.IndexName, explainValueList(path.IndexPrefix), dir)
	case PathIndexRange:
		return fmt.Sprintf("IndexRange(%s, %s, %s%s)", path.IndexName, explainValueList(path.IndexPrefix), explainRange(path.RangeLow, path.RangeHigh), dir)
	case PathFullScan:
		return fmt.Sprintf("FullScan(%s)", strings.TrimPrefix(dir, ", "))
	default:
		return "?"
	}
}

func explainValueList(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = String(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func explainRange(lo, hi Bound) string {
	left := "-inf"
	leftBr := "("
	if lo.Value != nil {
		left = String(lo.Value)
		if lo.Inclusive {
			leftBr = "["
		}
	}
	right := "+inf"
	rightBr := ")"
	if hi.Value != nil {
		right = String(hi.Value)
		if hi.Inclusive {
			rightBr = "]"
		}
	}
	return fmt.Sprintf("%s%s..%s%s", leftBr, left, right, rightBr)
}

// PlanFingerprint returns a stable string key for an AccessPlan, used to
// detect "two logically different predicates produced the same plan" in
// the planner's own tests (spec §8 "Plan determinism": the same normalized
// predicate always yields the same plan and the same fingerprint).
func PlanFingerprint(p AccessPlan) string {
	return Explain(p)
}
