package icydb

import (
	"crypto/sha256"
	"fmt"
)

// QuerySignature reduces the query shape that determines a result's row
// order and membership (normalized predicate, ORDER BY keys and direction,
// pushdown mode) to a fixed 32-byte digest. It deliberately excludes limit,
// offset, and any cursor state: two requests for different pages of the
// *same* query must produce the same signature, since that is exactly the
// binding a continuation token has to prove on resume (spec §4.3: "a
// resumed page must match the query shape that produced it").
//
// Grounded on original_source's query/plan/fingerprint.rs signature
// derivation (hash of normalized predicate + order + pushdown, independent
// of pagination state).
func QuerySignature(norm Predicate, sortKeys []string, descending bool, pushdown PushdownMode) [32]byte {
	h := sha256.New()
	fmt.Fprintf(h, "p:%s|o:%v|d:%t|pd:%d", predicateSortKey(norm), sortKeys, descending, pushdown)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
