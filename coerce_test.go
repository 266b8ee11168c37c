package icydb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceEqualStrictRequiresSameVariant(t *testing.T) {
	eq, err := CoerceEqual(CoercionStrict, Uint(1), Int(1))
	require.NoError(t, err)
	assert.False(t, eq)

	eq, err = CoerceEqual(CoercionStrict, Uint(1), Uint(1))
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestCoerceEqualNumericWiden(t *testing.T) {
	eq, err := CoerceEqual(CoercionNumericWiden, Uint(1), Int(1))
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = CoerceEqual(CoercionNumericWiden, Uint(1), Text("1"))
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestCoerceEqualTextCasefold(t *testing.T) {
	eq, err := CoerceEqual(CoercionTextCasefold, Text("Hello"), Text("hello"))
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = CoerceEqual(CoercionTextCasefold, Text("Hello"), Uint(1))
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestCoerceOrderStrictIncomparableAcrossVariants(t *testing.T) {
	_, err := CoerceOrder(CoercionStrict, Uint(1), Int(1))
	assert.True(t, Incomparable(err))
}

func TestCoerceOrderStrictSameVariant(t *testing.T) {
	c, err := CoerceOrder(CoercionStrict, Uint(1), Uint(2))
	require.NoError(t, err)
	assert.Negative(t, c)
}

func TestCoerceOrderNumericWiden(t *testing.T) {
	c, err := CoerceOrder(CoercionNumericWiden, Uint(1), Int(2))
	require.NoError(t, err)
	assert.Negative(t, c)
}

func TestCoerceOrderTextCasefoldNeverOrders(t *testing.T) {
	_, err := CoerceOrder(CoercionTextCasefold, Text("a"), Text("b"))
	assert.True(t, Incomparable(err))
}

func TestCollectionContainsList(t *testing.T) {
	ok, err := CoerceEqual(CoercionCollectionElement, List{Uint(1), Uint(2)}, Uint(2))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CoerceEqual(CoercionCollectionElement, List{Uint(1), Uint(2)}, Uint(3))
	require.NoError(t, err)
	assert.False(t, ok)
}
