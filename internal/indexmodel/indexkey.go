// Package indexmodel implements the fixed-size composite index key and its
// entry payload, grounded on original_source's db/index/key.rs
// (IndexId, IndexKey{index_id, len, values: [[u8;16]; MAX_INDEX_FIELDS]}).
//
// Like internal/coercion, this package avoids importing the root icydb
// package to keep the dependency graph acyclic (root imports
// indexmodel, not the reverse); it operates on pre-encoded per-field
// fingerprints ([16]byte) the root package produces from its Value union.
package indexmodel

import (
	"bytes"
	"fmt"
)

// MaxIndexFields bounds the number of fields composing a single index,
// matching the root package's MaxIndexFields (F_max). Duplicated here
// rather than imported, for the same acyclic-dependency reason as above;
// entity.Validate is the single source of truth callers must consult
// before constructing an IndexKey with more fields than this.
const MaxIndexFields = 4

// FieldFingerprintSize is the width of one field's fixed-size fingerprint
// within an IndexKey.
const FieldFingerprintSize = 16

// IndexID is a stable, pre-computed identifier for one declared index (the
// root package derives it from the index name), used as the leading
// discriminator of every key belonging to that index.
type IndexID uint64

// IndexKey is the fixed-size composite key stored against every row
// participating in an index: an IndexID, a field count, and up to
// MaxIndexFields 16-byte fingerprints, one per indexed field value, in
// declared field order.
type IndexKey struct {
	IndexID IndexID
	Len     uint8
	Values  [MaxIndexFields][FieldFingerprintSize]byte
}

// StoredSizeBytes is the fixed on-disk width of an encoded IndexKey: 8
// bytes IndexID + 1 byte Len + MaxIndexFields*16 bytes of fingerprints.
const StoredSizeBytes = 8 + 1 + MaxIndexFields*FieldFingerprintSize

// New builds an IndexKey from fingerprints already computed for each
// indexed field (root package's indexscan.go does this from Value
// fields), validating the field count against MaxIndexFields.
func New(id IndexID, fingerprints [][FieldFingerprintSize]byte) (IndexKey, error) {
	if len(fingerprints) == 0 {
		return IndexKey{}, fmt.Errorf("indexmodel: index key needs at least one field")
	}
	if len(fingerprints) > MaxIndexFields {
		return IndexKey{}, fmt.Errorf("indexmodel: index key has %d fields, max is %d", len(fingerprints), MaxIndexFields)
	}
	var k IndexKey
	k.IndexID = id
	k.Len = uint8(len(fingerprints))
	for i, fp := range fingerprints {
		k.Values[i] = fp
	}
	return k, nil
}

// Encode renders k to its fixed-width on-disk byte form.
func (k IndexKey) Encode() []byte {
	out := make([]byte, StoredSizeBytes)
	putUint64(out[:8], uint64(k.IndexID))
	out[8] = k.Len
	off := 9
	for i := 0; i < MaxIndexFields; i++ {
		copy(out[off:off+FieldFingerprintSize], k.Values[i][:])
		off += FieldFingerprintSize
	}
	return out
}

// Decode parses a fixed-width encoding produced by Encode.
func Decode(buf []byte) (IndexKey, error) {
	if len(buf) != StoredSizeBytes {
		return IndexKey{}, fmt.Errorf("indexmodel: index key length %d, want %d", len(buf), StoredSizeBytes)
	}
	var k IndexKey
	k.IndexID = IndexID(getUint64(buf[:8]))
	k.Len = buf[8]
	off := 9
	for i := 0; i < MaxIndexFields; i++ {
		copy(k.Values[i][:], buf[off:off+FieldFingerprintSize])
		off += FieldFingerprintSize
	}
	return k, nil
}

// Prefix reports whether k and other belong to the same index and their
// first n fingerprints are equal. The root package's index scans do not
// call it; they bound scans by byte range over encoded keys.
func (k IndexKey) Prefix(other IndexKey, n int) bool {
	if k.IndexID != other.IndexID {
		return false
	}
	if n > int(k.Len) || n > int(other.Len) {
		return false
	}
	for i := 0; i < n; i++ {
		if !bytes.Equal(k.Values[i][:], other.Values[i][:]) {
			return false
		}
	}
	return true
}

// Compare orders two IndexKeys byte-wise over their encoded form, which is
// the order the underlying OrderedKV physically stores index entries in
// and the order IndexRange/IndexPrefix access paths scan.
func (k IndexKey) Compare(other IndexKey) int {
	return bytes.Compare(k.Encode(), other.Encode())
}

// Entry is the payload stored alongside an IndexKey: the owning row's
// DataKey bytes (opaque to this package) plus a flag marking entries of
// unique indexes. No code in this module builds or reads an Entry, and
// nothing here enforces uniqueness.
type Entry struct {
	Key      IndexKey
	DataKey  []byte
	Unique   bool
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v >> (8 * i))
	}
}

func getUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[7-i]) << (8 * i)
	}
	return v
}
