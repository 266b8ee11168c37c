// Package duckdbstore is an icydb.OrderedKV/icydb.IndexedKV backend over an
// embedded DuckDB database, for callers who want the query subsystem's
// planner/executor/cursor semantics running directly against a columnar
// single-process store rather than a client/server database.
//
// Grounded on the teacher's internal/duckdb_conn.go DuckDBClient: open via
// database/sql with the DuckDB driver, a single-connection pool, and a
// startup ping before the store is considered usable.
package duckdbstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"

	icydb "github.com/dragginzgame/icydb-sub005"
)

// Config configures a Store's underlying DuckDB connection.
type Config struct {
	// Path is the database file, or ":memory:" for an ephemeral store.
	Path string
	// PingTimeout bounds the startup connectivity check. Zero uses 5s.
	PingTimeout time.Duration
}

// Store is a single main keyspace table plus one shared index table keyed
// by (index name, key), each keyed on an opaque byte key the core already produces
// (StorageKey/DataKey/IndexKey encodings); DuckDB never interprets the
// bytes, it only orders and ranges over them.
type Store struct {
	db *sql.DB
}

var (
	_ icydb.OrderedKV = (*Store)(nil)
	_ icydb.IndexedKV = (*Store)(nil)
)

// Open creates (if needed) the backing tables and returns a ready Store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dsn := cfg.Path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("icydb/duckdbstore: open duckdb: %w", err)
	}
	db.SetMaxOpenConns(1) // DuckDB's single-writer model: one connection is correct, not a tuning choice

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("icydb/duckdbstore: ping duckdb: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS icydb_kv (k BLOB PRIMARY KEY, v BLOB NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS icydb_index_kv (idx VARCHAR NOT NULL, k BLOB NOT NULL, v BLOB NOT NULL, PRIMARY KEY (idx, k))`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("icydb/duckdbstore: migrate: %w", err)
		}
	}
	return nil
}

// Close releases the underlying DuckDB connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get implements icydb.OrderedKV.
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT v FROM icydb_kv WHERE k = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("icydb/duckdbstore: get: %w", err)
	}
	return v, true, nil
}

// Put upserts value under key in the main keyspace. Used by test fixtures
// and by a caller's own write-path; not part of icydb.OrderedKV's read
// contract (spec §4.6: writes are an external collaborator).
func (s *Store) Put(ctx context.Context, key, value []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO icydb_kv (k, v) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("icydb/duckdbstore: put: %w", err)
	}
	return nil
}

// Delete removes key from the main keyspace.
func (s *Store) Delete(ctx context.Context, key []byte) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM icydb_kv WHERE k = ?`, key)
	if err != nil {
		return fmt.Errorf("icydb/duckdbstore: delete: %w", err)
	}
	return nil
}

// PutIndexEntry records that indexKey points at dataKey in the named
// index's keyspace.
func (s *Store) PutIndexEntry(ctx context.Context, indexName string, indexKey, dataKey []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO icydb_index_kv (idx, k, v) VALUES (?, ?, ?)`, indexName, indexKey, dataKey)
	if err != nil {
		return fmt.Errorf("icydb/duckdbstore: put index entry: %w", err)
	}
	return nil
}

// DeleteIndexEntry removes a previously recorded index entry.
func (s *Store) DeleteIndexEntry(ctx context.Context, indexName string, indexKey []byte) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM icydb_index_kv WHERE idx = ? AND k = ?`, indexName, indexKey)
	if err != nil {
		return fmt.Errorf("icydb/duckdbstore: delete index entry: %w", err)
	}
	return nil
}

// ScanRange implements icydb.OrderedKV over the main keyspace.
func (s *Store) ScanRange(ctx context.Context, low, high []byte, descending bool) (icydb.KVIterator, error) {
	return s.scan(ctx, `SELECT k, v FROM icydb_kv`, nil, low, high, descending)
}

// ScanIndex implements icydb.IndexedKV over the named index keyspace.
func (s *Store) ScanIndex(ctx context.Context, indexName string, low, high []byte, descending bool) (icydb.KVIterator, error) {
	return s.scan(ctx, `SELECT k, v FROM icydb_index_kv`, []any{indexName}, low, high, descending, "idx = ?")
}

func (s *Store) scan(ctx context.Context, base string, baseArgs []any, low, high []byte, descending bool, extraWhere ...string) (icydb.KVIterator, error) {
	where := append([]string(nil), extraWhere...)
	args := append([]any(nil), baseArgs...)
	if low != nil {
		where = append(where, "k >= ?")
		args = append(args, low)
	}
	if high != nil {
		where = append(where, "k < ?")
		args = append(args, high)
	}
	query := base
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY k"
	if descending {
		query += " DESC"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("icydb/duckdbstore: scan: %w", err)
	}
	defer rows.Close()

	var entries []kvEntry
	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("icydb/duckdbstore: scan row: %w", err)
		}
		entries = append(entries, kvEntry{key: k, val: v})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("icydb/duckdbstore: scan iterate: %w", err)
	}
	zap.S().Debugw("icydb/duckdbstore: scanned", "rows", len(entries), "descending", descending)
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
