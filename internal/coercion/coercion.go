// Package coercion implements the predicate coercion table: which
// cross-variant comparisons a given CoercionMode permits, and the
// comparison/equality rules themselves. It is deliberately decoupled from
// the root icydb.Value union (the root package imports this package, not
// the other way around) and instead operates on the small set of primitive
// views a predicate comparison ever needs: a family tag and either a
// float64 (numeric) or a string (textual) projection of the operand.
//
// Grounded on original_source's
// db/query/predicate/coercion.rs (CoercionId, CoercionSpec,
// CoercionRuleFamily, COERCION_TABLE, supports_coercion, compare_eq,
// compare_order, canonical_cmp, compare_casefold).
package coercion

import "golang.org/x/text/cases"

var foldCaser = cases.Fold()

// Family mirrors icydb.CoercionFamily without importing the root package.
type Family uint8

const (
	FamilyOpaque Family = iota
	FamilyNumeric
	FamilyTextual
)

// Mode mirrors icydb.CoercionMode.
type Mode uint8

const (
	Strict Mode = iota
	NumericWiden
	TextCasefold
	CollectionElement
)

// RuleFamily groups related coercion rules, matching the original's
// CoercionRuleFamily: a mode is legal only between operands whose families
// agree with the rule family it implements.
type RuleFamily uint8

const (
	RuleFamilyNone RuleFamily = iota
	RuleFamilyNumeric
	RuleFamilyTextual
	RuleFamilyCollection
)

// Spec is one row of the coercion table: which Mode, which RuleFamily it
// belongs to, and which operand Families it is legal between.
type Spec struct {
	Mode   Mode
	Rule   RuleFamily
	Family Family
}

// Table is the full coercion table, in declaration order. Supports below
// does not consult it; it encodes the same rules directly in a switch.
var Table = []Spec{
	{Mode: Strict, Rule: RuleFamilyNone, Family: FamilyOpaque},
	{Mode: NumericWiden, Rule: RuleFamilyNumeric, Family: FamilyNumeric},
	{Mode: TextCasefold, Rule: RuleFamilyTextual, Family: FamilyTextual},
	{Mode: CollectionElement, Rule: RuleFamilyCollection, Family: FamilyOpaque},
}

// Supports reports whether mode permits comparing two operands whose
// families are a and b. Strict only ever permits same-family (in practice
// same-variant, checked by the caller) comparisons; the other modes permit
// cross-family comparison within their own family group.
func Supports(mode Mode, a, b Family) bool {
	switch mode {
	case Strict:
		return a == b
	case NumericWiden:
		return a == FamilyNumeric && b == FamilyNumeric
	case TextCasefold:
		return a == FamilyTextual && b == FamilyTextual
	case CollectionElement:
		// Collection-element membership is checked element-by-element by
		// the caller with Strict semantics per element; Supports here only
		// gates that the mode itself is the one in play.
		return true
	default:
		return false
	}
}

// CompareOrder compares two numeric projections under NumericWiden. Strict
// ordering uses the canonical comparator, not this package; TextCasefold
// has no ordering rule.
func CompareOrder(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// CompareEqCasefold reports whether a and b are equal under full Unicode
// casefolding (grounded on coercion.rs's casefold, here backed by
// golang.org/x/text/cases rather than the ASCII-only strings.EqualFold so
// that e.g. German "STRASSE"/"straße" fold equal).
func CompareEqCasefold(a, b string) bool {
	return foldCaser.String(a) == foldCaser.String(b)
}

// Casefold returns the casefolded projection of s, used by the
// case-insensitive text predicates (starts/ends-with under TextCasefold and
// case-insensitive contains).
func Casefold(s string) string {
	return foldCaser.String(s)
}
