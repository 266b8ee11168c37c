package icydb

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragginzgame/icydb-sub005/adapters/memstore"
)

// jsonRowDecoder decodes the plain JSON bodies the test fixtures below
// write, independent of any production encoding the adapters use.
type jsonRowDecoder struct{}

func (jsonRowDecoder) Decode(entity string, raw []byte) (Row, error) {
	var fields map[string]uint64
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	row := make(Row, len(fields))
	for k, v := range fields {
		row[k] = Uint(v)
	}
	return row, nil
}

func seedWidget(t *testing.T, store *memstore.Store, m EntityModel, id, age uint64) {
	t.Helper()
	dk := DataKey{Entity: m.Name, Key: Uint(id)}
	key, err := dk.Encode(m.PrimaryKey)
	require.NoError(t, err)
	val, err := json.Marshal(map[string]uint64{"id": id, "age": age})
	require.NoError(t, err)
	store.Put(key, val)
}

func executorTestModel() EntityModel {
	return EntityModel{
		Name:       "widget",
		PKField:    "id",
		PrimaryKey: StorageKeyUint,
		Fields: map[string]FieldDecl{
			"id":  {Name: "id", Kind: FieldKind{Kind: KindUint}},
			"age": {Name: "age", Kind: FieldKind{Kind: KindUint}},
		},
	}
}

func newExecutorTestSession(t *testing.T) (*Session, *memstore.Store, EntityModel) {
	t.Helper()
	store := memstore.New()
	m := executorTestModel()
	for i, age := range map[uint64]uint64{1: 30, 2: 20, 3: 40} {
		seedWidget(t, store, m, i, age)
	}
	cfg := DefaultConfig()
	cfg.Cursor.SignatureSecret = []byte("test-secret")
	sess := NewSession(store, jsonRowDecoder{}, cfg)
	return sess, store, m
}

func TestExecuteAllFullScanReturnsAllRows(t *testing.T) {
	sess, _, m := newExecutorTestSession(t)
	resp, err := sess.LoadQuery(m).ExecuteAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, resp.Rows, 3)
	assert.False(t, resp.HasMore)
}

func TestExecuteAllAppliesResidualPredicate(t *testing.T) {
	sess, _, m := newExecutorTestSession(t)
	resp, err := sess.LoadQuery(m).
		Where(FieldPredicate{Field: "age", Op: OpGe, Operand: Uint(30), Coercion: CoercionStrict}).
		ExecuteAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, resp.Rows, 2)
}

func TestExecutePagedIssuesCursorWithMatchingSignature(t *testing.T) {
	sess, _, m := newExecutorTestSession(t)
	ctx := context.Background()

	first, err := sess.LoadQuery(m).OrderBy("id").Limit(2).ExecutePaged(ctx)
	require.NoError(t, err)
	assert.Len(t, first.Rows, 2)
	require.True(t, first.HasMore)
	require.NotEmpty(t, first.Cursor)

	qb2, err := sess.LoadQuery(m).OrderBy("id").Cursor(ctx, first.Cursor)
	require.NoError(t, err)
	second, err := qb2.Limit(2).ExecutePaged(ctx)
	require.NoError(t, err)
	assert.Len(t, second.Rows, 1)
	assert.False(t, second.HasMore)
}

func TestCursorRejectedAfterPredicateChanges(t *testing.T) {
	sess, _, m := newExecutorTestSession(t)
	ctx := context.Background()

	first, err := sess.LoadQuery(m).OrderBy("id").Limit(2).ExecutePaged(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first.Cursor)

	qb2, err := sess.LoadQuery(m).OrderBy("id").Cursor(ctx, first.Cursor)
	require.NoError(t, err)
	_, err = qb2.
		Where(FieldPredicate{Field: "age", Op: OpGe, Operand: Uint(25), Coercion: CoercionStrict}).
		Limit(2).ExecutePaged(ctx)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeSignatureMismatch))
}

func TestCursorWithOffsetIsRejectedAsIntentError(t *testing.T) {
	sess, _, m := newExecutorTestSession(t)
	ctx := context.Background()
	first, err := sess.LoadQuery(m).OrderBy("id").Limit(2).ExecutePaged(ctx)
	require.NoError(t, err)

	qb2, err := sess.LoadQuery(m).OrderBy("id").Cursor(ctx, first.Cursor)
	require.NoError(t, err)
	_, err = qb2.Offset(1).Limit(2).ExecutePaged(ctx)
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrIntent))
	assert.True(t, IsCode(err, CodeCursorWithOffset))
}

func TestOffsetWithoutOrderByIsRejected(t *testing.T) {
	sess, _, m := newExecutorTestSession(t)
	_, err := sess.LoadQuery(m).Offset(1).ExecuteAll(context.Background())
	require.Error(t, err)
	assert.True(t, IsCode(err, CodePaginationUnordered))
}

func TestCountAggregateMatchesRowCount(t *testing.T) {
	sess, _, m := newExecutorTestSession(t)
	count, err := sess.LoadQuery(m).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestExistsShortCircuitsScan(t *testing.T) {
	sess, _, m := newExecutorTestSession(t)
	ok, err := sess.LoadQuery(m).Exists(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestByKeysMissingOkSkipsGapByDefault(t *testing.T) {
	sess, _, m := newExecutorTestSession(t)
	resp, err := sess.LoadQuery(m).
		Where(FieldPredicate{Field: "id", Op: OpIn, Operands: []Value{Uint(1), Uint(2), Uint(999)}, Coercion: CoercionStrict}).
		ExecuteAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, resp.Rows, 2)
}

func TestByKeysStrictMissingRowReturnsCorruptionError(t *testing.T) {
	sess, _, m := newExecutorTestSession(t)
	_, err := sess.LoadQuery(m).
		MissingRowPolicy(Strict).
		Where(FieldPredicate{Field: "id", Op: OpIn, Operands: []Value{Uint(1), Uint(2), Uint(999)}, Coercion: CoercionStrict}).
		ExecuteAll(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrInternal))
	assert.True(t, IsCode(err, CodeIndexCorruption))
}
