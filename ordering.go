package icydb

import "sort"

// CanonicalCompare implements the single total order used throughout IcyDB
// for ORDER BY, range planning, and index/storage key comparison
// (grounded on original_source's canonical_cmp: rank-first, then
// variant-specific comparison; never affected by predicate coercion).
func CanonicalCompare(a, b Value) int {
	ra, rb := int(a.Kind()), int(b.Kind())
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch av := a.(type) {
	case Null:
		return 0
	case Unit:
		return 0
	case Bool:
		bv := b.(Bool)
		return compareBool(bool(av), bool(bv))
	case Uint:
		bv := b.(Uint)
		return compareUint64(uint64(av), uint64(bv))
	case Int:
		bv := b.(Int)
		return compareInt64(int64(av), int64(bv))
	case Timestamp:
		bv := b.(Timestamp)
		return compareInt64(int64(av), int64(bv))
	case Decimal:
		bv := b.(Decimal)
		return compareDecimal(av, bv)
	case Text:
		bv := b.(Text)
		return compareBytes([]byte(av), []byte(bv))
	case Blob:
		bv := b.(Blob)
		return compareBytes([]byte(av), []byte(bv))
	case Ulid:
		bv := b.(Ulid)
		return compareBytes(av[:], bv[:])
	case Principal:
		bv := b.(Principal)
		return compareBytes([]byte(av), []byte(bv))
	case Account:
		bv := b.(Account)
		if c := compareBytes([]byte(av.Owner), []byte(bv.Owner)); c != 0 {
			return c
		}
		return compareBytes(av.Subaccount[:], bv.Subaccount[:])
	case Enum:
		bv := b.(Enum)
		if av.Path != bv.Path {
			if av.Path < bv.Path {
				return -1
			}
			return 1
		}
		return compareInt64(int64(av.Ordinal), int64(bv.Ordinal))
	case List:
		bv := b.(List)
		return compareValueSlices(av, bv)
	case Set:
		bv := b.(Set)
		return compareValueSlices([]Value(av), []Value(bv))
	case Map:
		bv := b.(Map)
		n := len(av)
		if len(bv) < n {
			n = len(bv)
		}
		for i := 0; i < n; i++ {
			if c := CanonicalCompare(av[i].Key, bv[i].Key); c != 0 {
				return c
			}
			if c := CanonicalCompare(av[i].Val, bv[i].Val); c != 0 {
				return c
			}
		}
		return compareInt64(int64(len(av)), int64(len(bv)))
	default:
		return 0
	}
}

func compareValueSlices(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := CanonicalCompare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareInt64(int64(len(a)), int64(len(b)))
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return compareInt64(int64(len(a)), int64(len(b)))
}

// compareDecimal orders by rescaled numeric value first, then breaks ties on
// Scale itself so that e.g. 1.50 (Coef 150, Scale 2) and 1.5 (Coef 15, Scale
// 1) — equal in numeric value but distinct subtypes — never collapse to
// equal in canonical order (spec §9: canonical ordering must distinguish
// the precise numeric subtypes, not just their numeric value). This is
// distinct from NumericWiden (internal/coercion), which compares across
// families under a predicate and is indifferent to Scale.
func compareDecimal(a, b Decimal) int {
	var byValue int
	switch {
	case a.Scale == b.Scale:
		byValue = compareInt64(a.Coef, b.Coef)
	case a.Scale < b.Scale:
		byValue = compareInt64(scaleCoef(a.Coef, b.Scale-a.Scale), b.Coef)
	default:
		byValue = compareInt64(a.Coef, scaleCoef(b.Coef, a.Scale-b.Scale))
	}
	if byValue != 0 {
		return byValue
	}
	return compareInt64(int64(a.Scale), int64(b.Scale))
}

func scaleCoef(coef int64, places int32) int64 {
	for i := int32(0); i < places; i++ {
		coef *= 10
	}
	return coef
}

func sortValues(vs []Value) {
	sort.Slice(vs, func(i, j int) bool {
		return CanonicalCompare(vs[i], vs[j]) < 0
	})
}

func sortMapEntries(es []MapEntry) {
	sort.SliceStable(es, func(i, j int) bool {
		return CanonicalCompare(es[i].Key, es[j].Key) < 0
	})
}
