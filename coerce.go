package icydb

import (
	"errors"
	"fmt"

	"github.com/dragginzgame/icydb-sub005/internal/coercion"
)

// errIncomparable is returned by CoerceOrder when the two operands cannot
// be ordered under mode at all (spec §4.1: "Ordering is only defined when
// a coercion yields a comparable pair; otherwise the compare evaluates
// false and ordering is None"). Callers in eval.go treat this as "false,
// no error" rather than propagating a query failure; it is distinct from
// a genuine internal error.
var errIncomparable = errors.New("icydb: operands not comparable under coercion")

// Incomparable reports whether err is the sentinel CoerceOrder returns for
// an out-of-table comparison, as opposed to a real failure.
func Incomparable(err error) bool {
	return errors.Is(err, errIncomparable)
}

func coercionMode(m CoercionMode) coercion.Mode {
	switch m {
	case CoercionNumericWiden:
		return coercion.NumericWiden
	case CoercionTextCasefold:
		return coercion.TextCasefold
	case CoercionCollectionElement:
		return coercion.CollectionElement
	default:
		return coercion.Strict
	}
}

func numericView(v Value) (float64, bool) {
	switch typed := v.(type) {
	case Uint:
		return float64(typed), true
	case Int:
		return float64(typed), true
	case Decimal:
		return typed.AsFloat64(), true
	default:
		return 0, false
	}
}

func textView(v Value) (string, bool) {
	if t, ok := v.(Text); ok {
		return string(t), true
	}
	return "", false
}

// CoerceEqual reports whether a and b are equal under mode. Strict requires
// identical variants and CanonicalCompare()==0; the looser modes consult
// internal/coercion's table.
func CoerceEqual(mode CoercionMode, a, b Value) (bool, error) {
	cm := coercionMode(mode)
	switch cm {
	case coercion.Strict:
		if !sameVariant(a, b) {
			return false, nil
		}
		return CanonicalCompare(a, b) == 0, nil
	case coercion.NumericWiden:
		fa, oka := numericView(a)
		fb, okb := numericView(b)
		if !oka || !okb {
			return false, nil
		}
		return coercion.CompareOrder(fa, fb) == 0, nil
	case coercion.TextCasefold:
		ta, oka := textView(a)
		tb, okb := textView(b)
		if !oka || !okb {
			return false, nil
		}
		return coercion.CompareEqCasefold(ta, tb), nil
	case coercion.CollectionElement:
		return collectionContains(a, b, mode)
	default:
		return false, fmt.Errorf("icydb: unknown coercion mode")
	}
}

// CoerceOrder compares a and b under mode for <, <=, >, >= operators.
// TextCasefold and CollectionElement never support ordering comparisons
// (spec §4.1); only Strict (same-variant canonical order) and
// NumericWiden support them.
func CoerceOrder(mode CoercionMode, a, b Value) (int, error) {
	cm := coercionMode(mode)
	switch cm {
	case coercion.Strict:
		if !sameVariant(a, b) {
			return 0, errIncomparable
		}
		return CanonicalCompare(a, b), nil
	case coercion.NumericWiden:
		fa, oka := numericView(a)
		fb, okb := numericView(b)
		if !oka || !okb {
			return 0, errIncomparable
		}
		return coercion.CompareOrder(fa, fb), nil
	default:
		// TextCasefold and CollectionElement never support ordering
		// comparisons (spec §4.1); this is a closed, non-data-dependent
		// fact about the mode itself, so it is well-defined as
		// "incomparable" rather than a distinct error class.
		return 0, errIncomparable
	}
}

// collectionContains implements OpContains under CollectionElement: b is
// checked for Strict-equal membership against the elements of List/Set a,
// or against the values of Map a.
func collectionContains(a, needle Value, mode CoercionMode) (bool, error) {
	switch coll := a.(type) {
	case List:
		for _, e := range coll {
			eq, err := CoerceEqual(CoercionStrict, e, needle)
			if err != nil {
				return false, err
			}
			if eq {
				return true, nil
			}
		}
		return false, nil
	case Set:
		for _, e := range coll {
			eq, err := CoerceEqual(CoercionStrict, e, needle)
			if err != nil {
				return false, err
			}
			if eq {
				return true, nil
			}
		}
		return false, nil
	case Map:
		for _, e := range coll {
			eq, err := CoerceEqual(CoercionStrict, e.Val, needle)
			if err != nil {
				return false, err
			}
			if eq {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("icydb: contains requires a List/Set/Map field, got %s", a.Kind())
	}
}
