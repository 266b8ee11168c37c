package icydb

import (
	"strings"

	"github.com/dragginzgame/icydb-sub005/internal/coercion"
)

// Row is a decoded record's field values, keyed by declared field name.
// The core never decodes storage bytes itself (spec §4.6: decoding is an
// external collaborator's job); Row is the shape every evaluation and
// aggregation function in this package consumes.
type Row map[string]Value

// Eval reports whether row satisfies p. Missing fields are treated as
// Null, except that OpIsMissing tests for the field's absence specifically
// (distinct from an explicitly-stored Null, spec §3) and that OpIsEmpty and
// OpIsNotEmpty are both false for a missing field.
func Eval(p Predicate, row Row) (bool, error) {
	switch pr := p.(type) {
	case Always:
		return true, nil
	case Never:
		return false, nil
	case And:
		for _, c := range pr.Children {
			ok, err := Eval(c, row)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case Or:
		for _, c := range pr.Children {
			ok, err := Eval(c, row)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case Not:
		ok, err := Eval(pr.Child, row)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case FieldPredicate:
		return evalField(pr, row)
	default:
		return false, NewInternalError(CodeInvariantViolation, "unknown predicate node in Eval")
	}
}

func evalField(pr FieldPredicate, row Row) (bool, error) {
	v, present := row[pr.Field]

	if pr.Op == OpIsMissing {
		return !present, nil
	}
	if !present {
		v = Null{}
	}
	if pr.Op == OpIsNull {
		_, isNull := v.(Null)
		return isNull, nil
	}
	switch pr.Op {
	case OpIsEmpty:
		return present && isEmptyValue(v), nil
	case OpIsNotEmpty:
		return present && !isEmptyValue(v), nil
	case OpStartsWith, OpEndsWith, OpTextContainsCS, OpTextContainsCI:
		if !present {
			return false, nil
		}
		return evalTextOp(pr, v)
	case OpMapContainsKey, OpMapContainsValue, OpMapContainsEntry:
		if !present {
			return false, nil
		}
		return evalMapContainsOp(pr, v)
	}
	if _, isNull := v.(Null); isNull {
		// Null never compares true against any other comparison operator,
		// three-valued-logic style, except when the operand is itself Null
		// under Strict equality.
		if pr.Op == OpEq && pr.Coercion == CoercionStrict {
			if _, operandNull := pr.Operand.(Null); operandNull {
				return true, nil
			}
		}
		return false, nil
	}

	switch pr.Op {
	case OpEq:
		return CoerceEqual(pr.Coercion, v, pr.Operand)
	case OpNe:
		eq, err := CoerceEqual(pr.Coercion, v, pr.Operand)
		if err != nil {
			return false, err
		}
		return !eq, nil
	case OpLt:
		c, err := CoerceOrder(pr.Coercion, v, pr.Operand)
		if Incomparable(err) {
			return false, nil
		}
		return err == nil && c < 0, err
	case OpLe:
		c, err := CoerceOrder(pr.Coercion, v, pr.Operand)
		if Incomparable(err) {
			return false, nil
		}
		return err == nil && c <= 0, err
	case OpGt:
		c, err := CoerceOrder(pr.Coercion, v, pr.Operand)
		if Incomparable(err) {
			return false, nil
		}
		return err == nil && c > 0, err
	case OpGe:
		c, err := CoerceOrder(pr.Coercion, v, pr.Operand)
		if Incomparable(err) {
			return false, nil
		}
		return err == nil && c >= 0, err
	case OpIn:
		for _, operand := range pr.Operands {
			eq, err := CoerceEqual(pr.Coercion, v, operand)
			if err != nil {
				continue
			}
			if eq {
				return true, nil
			}
		}
		return false, nil
	case OpContains:
		return collectionContains(v, pr.Operand, pr.Coercion)
	default:
		return false, NewInternalError(CodeInvariantViolation, "unknown compare op in Eval")
	}
}

// isEmptyValue reports whether v is a zero-length Text, List, Set, or Map
// (grounded on original_source's is_empty_value, extended from its
// Text/List-only coverage to Set/Map since IcyDB's Value union declares
// those as distinct collection kinds too). Every other variant, including
// Null, is never considered empty.
func isEmptyValue(v Value) bool {
	switch typed := v.(type) {
	case Text:
		return len(typed) == 0
	case List:
		return len(typed) == 0
	case Set:
		return len(typed) == 0
	case Map:
		return len(typed) == 0
	default:
		return false
	}
}

// evalTextOp implements OpStartsWith/OpEndsWith (compare_text, cs/ci
// selected by pr.Coercion: Strict is cs, TextCasefold is ci) and
// OpTextContainsCS/OpTextContainsCI (spec's TextContains{cs|ci}, op-tagged
// rather than coercion-tagged). Non-text fields or operands never match
// (grounded on original_source's compare_text: "text coercions never apply
// to non-text values").
func evalTextOp(pr FieldPredicate, v Value) (bool, error) {
	actual, ok := textView(v)
	if !ok {
		return false, nil
	}
	operand, ok := textView(pr.Operand)
	if !ok {
		return false, nil
	}
	switch pr.Op {
	case OpStartsWith:
		if pr.Coercion == CoercionTextCasefold {
			return strings.HasPrefix(coercion.Casefold(actual), coercion.Casefold(operand)), nil
		}
		return strings.HasPrefix(actual, operand), nil
	case OpEndsWith:
		if pr.Coercion == CoercionTextCasefold {
			return strings.HasSuffix(coercion.Casefold(actual), coercion.Casefold(operand)), nil
		}
		return strings.HasSuffix(actual, operand), nil
	case OpTextContainsCS:
		return strings.Contains(actual, operand), nil
	case OpTextContainsCI:
		return strings.Contains(coercion.Casefold(actual), coercion.Casefold(operand)), nil
	default:
		return false, NewInternalError(CodeInvariantViolation, "unknown text op in Eval")
	}
}

// evalMapContainsOp implements OpMapContainsKey/Value/Entry over a
// Map-typed field, matching entries by CoerceEqual under pr.Coercion
// (grounded on original_source's map_contains_key/value/entry, which the
// original implements over its list-of-pairs Map representation; IcyDB's
// Map is a typed MapEntry slice).
func evalMapContainsOp(pr FieldPredicate, v Value) (bool, error) {
	m, ok := v.(Map)
	if !ok {
		return false, nil
	}
	for _, entry := range m {
		switch pr.Op {
		case OpMapContainsKey:
			if eq, err := CoerceEqual(pr.Coercion, entry.Key, pr.Operand); err == nil && eq {
				return true, nil
			}
		case OpMapContainsValue:
			if eq, err := CoerceEqual(pr.Coercion, entry.Val, pr.Operand); err == nil && eq {
				return true, nil
			}
		case OpMapContainsEntry:
			keyEq, err := CoerceEqual(pr.Coercion, entry.Key, pr.Operand)
			if err != nil || !keyEq {
				continue
			}
			if valEq, err := CoerceEqual(pr.Coercion, entry.Val, pr.Operand2); err == nil && valEq {
				return true, nil
			}
		}
	}
	return false, nil
}
