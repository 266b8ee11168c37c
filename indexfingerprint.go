package icydb

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/dragginzgame/icydb-sub005/internal/indexmodel"
)

// Orderable reports whether v's fingerprint preserves CanonicalCompare
// order, which is required for an index on this field to support the
// planner's IndexRange access path (as opposed to IndexPrefix/equality
// only).
func Orderable(v Value) bool {
	switch v.(type) {
	case Uint, Int, Timestamp, Bool, Text:
		return true
	default:
		return false
	}
}

// Fingerprint reduces v to the fixed 16-byte representation stored in an
// IndexKey slot. The leading byte is always v's Kind rank, so fingerprints
// of differently-kinded values never collide and sort consistently with
// CanonicalCompare's rank-first rule; the remaining 15 bytes carry an
// order-preserving encoding for the Orderable kinds and an FNV-1a digest
// (equality-only, not range-scannable) for everything else.
func Fingerprint(v Value) [indexmodel.FieldFingerprintSize]byte {
	var out [indexmodel.FieldFingerprintSize]byte
	out[0] = byte(v.Kind())
	switch typed := v.(type) {
	case Uint:
		binary.BigEndian.PutUint64(out[1:9], uint64(typed))
	case Int:
		binary.BigEndian.PutUint64(out[1:9], orderPreservingInt64(int64(typed)))
	case Timestamp:
		binary.BigEndian.PutUint64(out[1:9], orderPreservingInt64(int64(typed)))
	case Bool:
		if typed {
			out[1] = 1
		}
	case Text:
		raw := []byte(typed)
		n := copy(out[1:], raw)
		_ = n // longer text values share a fingerprint prefix; IndexRange
		// scans over such a field return a superset the executor's
		// residual predicate narrows (spec §4.4 "Conservative subset").
	default:
		digest(v, out[1:])
	}
	return out
}

// digest writes an FNV-1a hash of v's debug string into out. Used only for
// kinds with no natural fixed-width order-preserving encoding; equality
// lookups (ByKey/IndexPrefix full-arity match) are exact, range scans on
// such a field are rejected by the planner (Orderable reports false).
func digest(v Value, out []byte) {
	h := fnv.New128a()
	_, _ = h.Write([]byte(String(v)))
	sum := h.Sum(nil)
	copy(out, sum)
}
