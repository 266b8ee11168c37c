package icydb

import (
	"hash/fnv"

	"github.com/dragginzgame/icydb-sub005/internal/indexmodel"
)

// indexID derives a stable IndexID from an index's declared name. Real
// deployments may prefer a registry-assigned integer id; hashing the name
// is sufficient here since the core never persists an IndexID across a
// schema migration that renames an index.
func indexID(name string) indexmodel.IndexID {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return indexmodel.IndexID(h.Sum64())
}

// indexKeyBytes builds the encoded IndexKey bytes for a fully-bound field
// tuple (used for equality prefix scans and for range bound construction).
func indexKeyBytes(name string, fields []Value) ([]byte, error) {
	fps := make([][indexmodel.FieldFingerprintSize]byte, len(fields))
	for i, v := range fields {
		fps[i] = Fingerprint(v)
	}
	k, err := indexmodel.New(indexID(name), fps)
	if err != nil {
		return nil, err
	}
	return k.Encode(), nil
}

// indexRangeBounds builds the [low, high) byte bounds for an
// IndexPrefix/IndexRange access path: prefix fields bound by equality, plus
// an optional trailing range on the field immediately after the prefix.
func indexRangeBounds(path AccessPath) (low, high []byte, err error) {
	switch path.Kind {
	case PathIndexPrefix:
		lowKey, err := indexKeyBytes(path.IndexName, path.IndexPrefix)
		if err != nil {
			return nil, nil, err
		}
		return lowKey, nextKeyBytes(lowKey), nil
	case PathIndexRange:
		lowFields := append([]Value(nil), path.IndexPrefix...)
		highFields := append([]Value(nil), path.IndexPrefix...)
		if path.RangeLow.Value != nil {
			lowFields = append(lowFields, path.RangeLow.Value)
		}
		if path.RangeHigh.Value != nil {
			highFields = append(highFields, path.RangeHigh.Value)
		}
		var lowBytes []byte
		if len(lowFields) > len(path.IndexPrefix) {
			lowBytes, err = indexKeyBytes(path.IndexName, lowFields)
			if err != nil {
				return nil, nil, err
			}
			if !path.RangeLow.Inclusive {
				lowBytes = nextKeyBytes(lowBytes)
			}
		} else {
			lowBytes, err = indexKeyBytes(path.IndexName, path.IndexPrefix)
			if err != nil {
				return nil, nil, err
			}
		}
		var highBytes []byte
		if len(highFields) > len(path.IndexPrefix) {
			highBytes, err = indexKeyBytes(path.IndexName, highFields)
			if err != nil {
				return nil, nil, err
			}
			if path.RangeHigh.Inclusive {
				highBytes = nextKeyBytes(highBytes)
			}
		} else {
			prefixBytes, err := indexKeyBytes(path.IndexName, path.IndexPrefix)
			if err != nil {
				return nil, nil, err
			}
			highBytes = nextKeyBytes(prefixBytes)
		}
		return lowBytes, highBytes, nil
	default:
		return nil, nil, NewInternalError(CodeInvariantViolation, "indexRangeBounds called on a non-index access path")
	}
}
