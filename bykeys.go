package icydb

// CanonicalizeKeys implements spec §4.5's ByKeys canonicalization: dedupe
// and sort the caller-supplied key list into strictly ascending canonical
// order before the planner or executor ever sees it, so that two
// logically-equal ByKeys requests (same set, different caller-supplied
// order or duplicates) always produce the same plan fingerprint and the
// same physical scan order.
func CanonicalizeKeys(keys []Value) []Value {
	if len(keys) == 0 {
		return keys
	}
	sorted := append([]Value(nil), keys...)
	sortValues(sorted)
	out := sorted[:1]
	for _, k := range sorted[1:] {
		if CanonicalCompare(out[len(out)-1], k) == 0 {
			continue
		}
		out = append(out, k)
	}
	return out
}
