package icydb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeKeysSortsAndDedupes(t *testing.T) {
	got := CanonicalizeKeys([]Value{Uint(3), Uint(1), Uint(2), Uint(1)})
	assert.Equal(t, []Value{Uint(1), Uint(2), Uint(3)}, got)
}

func TestCanonicalizeKeysOrderIndependence(t *testing.T) {
	a := CanonicalizeKeys([]Value{Uint(5), Uint(2), Uint(9)})
	b := CanonicalizeKeys([]Value{Uint(9), Uint(2), Uint(5)})
	assert.Equal(t, a, b)
}

func TestCanonicalizeKeysEmpty(t *testing.T) {
	assert.Empty(t, CanonicalizeKeys(nil))
}
