package icydb

import "context"

// OrderedKV is the abstract storage capability the executor streams key
// ranges from. Concrete backends (adapters/memstore, adapters/duckdbstore,
// adapters/pgstore) implement it; the core never assumes a particular
// storage engine (spec §4.6: "write-path hooks/external collaborators").
type OrderedKV interface {
	// Get fetches the value stored under key, if any.
	Get(ctx context.Context, key []byte) (value []byte, found bool, err error)
	// ScanRange streams entries with key in [low, high) (bounds adjusted
	// for inclusivity by the caller before calling ScanRange; a nil bound
	// means unbounded on that side), in ascending key order unless
	// descending is set.
	ScanRange(ctx context.Context, low, high []byte, descending bool) (KVIterator, error)
}

// KVIterator streams key/value pairs in the order ScanRange promised.
type KVIterator interface {
	Next(ctx context.Context) bool
	Key() []byte
	Value() []byte
	Err() error
	Close() error
}

// RowDecoder turns raw stored bytes for an entity into a Row. Like
// OrderedKV, this is an external collaborator: the core's value model is
// opaque bytes on disk, decoding is the caller's schema-aware concern.
type RowDecoder interface {
	Decode(entity string, raw []byte) (Row, error)
}

// IndexedKV is an optional capability an OrderedKV backend may also
// implement: scanning a secondary index's key range and yielding the
// owning rows' DataKey bytes in index order, so the kernel can resolve
// PathIndexPrefix/PathIndexRange access paths without falling back to a
// full scan. A backend that does not implement this only ever serves
// ByKey/ByKeys/KeyRange/FullScan access paths.
type IndexedKV interface {
	ScanIndex(ctx context.Context, indexName string, low, high []byte, descending bool) (KVIterator, error)
}

// nextKeyBytes returns the smallest byte string strictly greater than k,
// used to turn an inclusive upper bound into the exclusive-upper-bound
// shape ScanRange expects.
func nextKeyBytes(k []byte) []byte {
	out := append([]byte(nil), k...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0xff {
			out[i]++
			return out[:i+1]
		}
	}
	return append(out, 0x00)
}
