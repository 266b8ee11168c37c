package pgstore

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewWithPool(mock), mock
}

func TestGetFound(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{"v"}).AddRow([]byte("v1"))
	mock.ExpectQuery(`SELECT v FROM icydb_kv WHERE k = \$1`).WithArgs([]byte("k1")).WillReturnRows(rows)

	v, found, err := s.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v1"), v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{"v"})
	mock.ExpectQuery(`SELECT v FROM icydb_kv WHERE k = \$1`).WithArgs([]byte("missing")).WillReturnRows(rows)

	_, found, err := s.Get(ctx, []byte("missing"))
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPutUpserts(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO icydb_kv`).
		WithArgs([]byte("k1"), []byte("v1")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.Put(ctx, []byte("k1"), []byte("v1"))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRangeOrdersAscending(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{"k", "v"}).
		AddRow([]byte("a"), []byte("va")).
		AddRow([]byte("b"), []byte("vb"))
	mock.ExpectQuery(`SELECT k, v FROM icydb_kv ORDER BY k`).WillReturnRows(rows)

	iter, err := s.ScanRange(ctx, nil, nil, false)
	require.NoError(t, err)
	var got []string
	for iter.Next(ctx) {
		got = append(got, string(iter.Key()))
	}
	iter.Close()
	assert.Equal(t, []string{"a", "b"}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
