// Package pgstore is an icydb.OrderedKV/icydb.IndexedKV backend over
// PostgreSQL, for deployments that already run Postgres as their system of
// record and want the query subsystem layered directly on top of it rather
// than introducing a second storage engine.
//
// Grounded on the teacher's internal/postgres_persistent_repository*.go:
// a *pgxpool.Pool-holding repository struct, a pool interface narrow enough
// for pgxmock substitution in unit tests, and zap-logged queries.
package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	icydb "github.com/dragginzgame/icydb-sub005"
)

// pool is the subset of *pgxpool.Pool's surface Store needs, narrow enough
// that tests can substitute github.com/pashagolub/pgxmock/v4's PgxPoolIface
// (grounded on the teacher's factory.go queryPool interface).
type pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store wraps a Postgres connection pool, storing byte keys/values in a
// main row-storage table plus one index table shared by every secondary
// index and keyed by (index name, key), exactly as duckdbstore.Store does, so both adapters are interchangeable
// behind icydb.OrderedKV/icydb.IndexedKV.
type Store struct {
	db pool
}

var (
	_ icydb.OrderedKV = (*Store)(nil)
	_ icydb.IndexedKV = (*Store)(nil)
)

// New wraps an already-connected pgxpool.Pool. Callers own the pool's
// lifecycle (pgxpool.New / Close); Store never closes it.
func New(p *pgxpool.Pool) *Store {
	return &Store{db: p}
}

// NewWithPool wraps any pool-shaped value, primarily for tests substituting
// a pgxmock.PgxPoolIface.
func NewWithPool(p pool) *Store {
	return &Store{db: p}
}

// Migrate creates the backing tables if they do not already exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS icydb_kv (k BYTEA PRIMARY KEY, v BYTEA NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS icydb_index_kv (idx TEXT NOT NULL, k BYTEA NOT NULL, v BYTEA NOT NULL, PRIMARY KEY (idx, k))`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("icydb/pgstore: migrate: %w", err)
		}
	}
	return nil
}

// Get implements icydb.OrderedKV.
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	rows, err := s.db.Query(ctx, `SELECT v FROM icydb_kv WHERE k = $1`, key)
	if err != nil {
		return nil, false, fmt.Errorf("icydb/pgstore: get: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, false, rows.Err()
	}
	var v []byte
	if err := rows.Scan(&v); err != nil {
		return nil, false, fmt.Errorf("icydb/pgstore: get scan: %w", err)
	}
	return v, true, nil
}

// Put upserts value under key in the main keyspace.
func (s *Store) Put(ctx context.Context, key, value []byte) error {
	_, err := s.db.Exec(ctx, `INSERT INTO icydb_kv (k, v) VALUES ($1, $2)
		ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v`, key, value)
	if err != nil {
		return fmt.Errorf("icydb/pgstore: put: %w", err)
	}
	return nil
}

// Delete removes key from the main keyspace.
func (s *Store) Delete(ctx context.Context, key []byte) error {
	_, err := s.db.Exec(ctx, `DELETE FROM icydb_kv WHERE k = $1`, key)
	if err != nil {
		return fmt.Errorf("icydb/pgstore: delete: %w", err)
	}
	return nil
}

// PutIndexEntry records that indexKey points at dataKey in the named
// index's keyspace.
func (s *Store) PutIndexEntry(ctx context.Context, indexName string, indexKey, dataKey []byte) error {
	_, err := s.db.Exec(ctx, `INSERT INTO icydb_index_kv (idx, k, v) VALUES ($1, $2, $3)
		ON CONFLICT (idx, k) DO UPDATE SET v = EXCLUDED.v`, indexName, indexKey, dataKey)
	if err != nil {
		return fmt.Errorf("icydb/pgstore: put index entry: %w", err)
	}
	return nil
}

// DeleteIndexEntry removes a previously recorded index entry.
func (s *Store) DeleteIndexEntry(ctx context.Context, indexName string, indexKey []byte) error {
	_, err := s.db.Exec(ctx, `DELETE FROM icydb_index_kv WHERE idx = $1 AND k = $2`, indexName, indexKey)
	if err != nil {
		return fmt.Errorf("icydb/pgstore: delete index entry: %w", err)
	}
	return nil
}

// ScanRange implements icydb.OrderedKV over the main keyspace.
func (s *Store) ScanRange(ctx context.Context, low, high []byte, descending bool) (icydb.KVIterator, error) {
	return s.scan(ctx, "icydb_kv", "", nil, low, high, descending)
}

// ScanIndex implements icydb.IndexedKV over the named index keyspace.
func (s *Store) ScanIndex(ctx context.Context, indexName string, low, high []byte, descending bool) (icydb.KVIterator, error) {
	return s.scan(ctx, "icydb_index_kv", "idx = $1", []any{indexName}, low, high, descending)
}

func (s *Store) scan(ctx context.Context, table, baseWhere string, baseArgs []any, low, high []byte, descending bool) (icydb.KVIterator, error) {
	where := baseWhere
	args := append([]any(nil), baseArgs...)
	addCond := func(cond string, arg any) {
		args = append(args, arg)
		placeholder := fmt.Sprintf(cond, len(args))
		if where == "" {
			where = placeholder
		} else {
			where += " AND " + placeholder
		}
	}
	if low != nil {
		addCond("k >= $%d", low)
	}
	if high != nil {
		addCond("k < $%d", high)
	}

	query := fmt.Sprintf("SELECT k, v FROM %s", table)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY k"
	if descending {
		query += " DESC"
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("icydb/pgstore: scan: %w", err)
	}
	defer rows.Close()

	var entries []kvEntry
	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("icydb/pgstore: scan row: %w", err)
		}
		entries = append(entries, kvEntry{key: k, val: v})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("icydb/pgstore: scan iterate: %w", err)
	}
	zap.S().Debugw("icydb/pgstore: scanned", "table", table, "rows", len(entries), "descending", descending)
	return &sliceIterator{entries: entries, pos: -1}, nil
}

type kvEntry struct{ key, val []byte }

type sliceIterator struct {
	entries []kvEntry
	pos     int
}

func (it *sliceIterator) Next(ctx context.Context) bool {
	it.pos++
	return it.pos < len(it.entries)
}
func (it *sliceIterator) Key() []byte   { return it.entries[it.pos].key }
func (it *sliceIterator) Value() []byte { return it.entries[it.pos].val }
func (it *sliceIterator) Err() error    { return nil }
func (it *sliceIterator) Close() error  { return nil }
