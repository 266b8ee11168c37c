package icydb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateReducerCount(t *testing.T) {
	r, err := NewAggregateReducer(AggregateRequest{Kind: AggCount}, normalizeTestModel())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, r.Admit(Row{"id": Uint(uint64(i))}, Uint(uint64(i))))
	}
	res := r.Result()
	assert.Equal(t, int64(3), res.Count)
	assert.False(t, r.Done())
}

func TestAggregateReducerExistsDoneAfterFirstRow(t *testing.T) {
	r, err := NewAggregateReducer(AggregateRequest{Kind: AggExists}, normalizeTestModel())
	require.NoError(t, err)

	assert.False(t, r.Done())
	require.NoError(t, r.Admit(Row{"id": Uint(1)}, Uint(1)))
	assert.True(t, r.Done())
	assert.True(t, r.Result().Exists)
}

func TestAggregateReducerFirstDoneAfterFirstRow(t *testing.T) {
	r, err := NewAggregateReducer(AggregateRequest{Kind: AggFirst}, normalizeTestModel())
	require.NoError(t, err)

	require.NoError(t, r.Admit(Row{"id": Uint(5)}, Uint(5)))
	assert.True(t, r.Done())
	require.NoError(t, r.Admit(Row{"id": Uint(6)}, Uint(6)))
	assert.Equal(t, Uint(5), r.Result().Row["id"])
}

func TestAggregateReducerMaxNeverShortCircuits(t *testing.T) {
	r, err := NewAggregateReducer(AggregateRequest{Kind: AggMax}, normalizeTestModel())
	require.NoError(t, err)

	require.NoError(t, r.Admit(Row{"id": Uint(1)}, Uint(1)))
	assert.False(t, r.Done())
	require.NoError(t, r.Admit(Row{"id": Uint(9)}, Uint(9)))
	assert.False(t, r.Done())
	assert.Equal(t, Uint(9), r.Result().Value)
}

func TestAggregateReducerMinFieldSkipsNull(t *testing.T) {
	r, err := NewAggregateReducer(AggregateRequest{Kind: AggMinField, Field: "age"}, normalizeTestModel())
	require.NoError(t, err)

	require.NoError(t, r.Admit(Row{"age": Null{}}, Uint(1)))
	require.NoError(t, r.Admit(Row{"age": Uint(30)}, Uint(2)))
	require.NoError(t, r.Admit(Row{"age": Uint(10)}, Uint(3)))

	res := r.Result()
	assert.True(t, res.Found)
	assert.Equal(t, Uint(10), res.Value)
}

func TestAggregateReducerRejectsUnknownField(t *testing.T) {
	_, err := NewAggregateReducer(AggregateRequest{Kind: AggMinField, Field: "nope"}, normalizeTestModel())
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeUnknownField))
}
