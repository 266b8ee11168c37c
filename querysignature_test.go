package icydb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuerySignatureStableAcrossEquivalentShapes(t *testing.T) {
	a := QuerySignature(eqField("age", Uint(1)), []string{"age"}, false, StrictAllOrNone)
	b := QuerySignature(eqField("age", Uint(1)), []string{"age"}, false, StrictAllOrNone)
	assert.Equal(t, a, b)
}

func TestQuerySignatureChangesWithPredicate(t *testing.T) {
	a := QuerySignature(eqField("age", Uint(1)), []string{"age"}, false, StrictAllOrNone)
	b := QuerySignature(eqField("age", Uint(2)), []string{"age"}, false, StrictAllOrNone)
	assert.NotEqual(t, a, b)
}

func TestQuerySignatureChangesWithDirection(t *testing.T) {
	a := QuerySignature(eqField("age", Uint(1)), []string{"age"}, false, StrictAllOrNone)
	b := QuerySignature(eqField("age", Uint(1)), []string{"age"}, true, StrictAllOrNone)
	assert.NotEqual(t, a, b)
}

func TestQuerySignatureChangesWithSortKeys(t *testing.T) {
	a := QuerySignature(eqField("age", Uint(1)), []string{"age"}, false, StrictAllOrNone)
	b := QuerySignature(eqField("age", Uint(1)), []string{"name"}, false, StrictAllOrNone)
	assert.NotEqual(t, a, b)
}

func TestQuerySignatureIgnoresNothingElse(t *testing.T) {
	// Same predicate/order/pushdown, computed twice independently of any
	// pagination state (no limit/offset/cursor parameter exists to vary).
	a := QuerySignature(Always{}, nil, false, ConservativeSubset)
	b := QuerySignature(Always{}, nil, false, ConservativeSubset)
	assert.Equal(t, a, b)
}
