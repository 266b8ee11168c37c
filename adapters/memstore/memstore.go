// Package memstore is an in-memory OrderedKV/IndexedKV reference
// implementation backed by github.com/google/btree, used by the core
// executor's own unit tests. No production backend in this repo is
// expected to be memstore; adapters/duckdbstore and adapters/pgstore are
// the persistent options.
package memstore

import (
	"bytes"
	"context"
	"sync"

	icydb "github.com/dragginzgame/icydb-sub005"
	"github.com/google/btree"
	"go.uber.org/zap"
)

type entry struct {
	key, val []byte
}

func (e entry) Less(other btree.Item) bool {
	return bytes.Compare(e.key, other.(entry).key) < 0
}

// Store is a single ordered keyspace plus a set of named secondary index
// keyspaces, each its own btree, guarded by one mutex (memstore is a test
// double, not a concurrency showcase).
type Store struct {
	mu      sync.RWMutex
	data    *btree.BTree
	indexes map[string]*btree.BTree
}

// New builds an empty Store.
func New() *Store {
	return &Store{
		data:    btree.New(32),
		indexes: make(map[string]*btree.BTree),
	}
}

var (
	_ icydb.OrderedKV = (*Store)(nil)
	_ icydb.IndexedKV = (*Store)(nil)
)

// Get implements icydb.OrderedKV.
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item := s.data.Get(entry{key: key})
	if item == nil {
		return nil, false, nil
	}
	return item.(entry).val, true, nil
}

// Put stores value under key in the main keyspace. Not part of the
// icydb.OrderedKV read interface; memstore's tests use it directly to seed
// fixtures, mirroring how the core's write path is an external concern.
func (s *Store) Put(key, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.ReplaceOrInsert(entry{key: append([]byte(nil), key...), val: append([]byte(nil), value...)})
}

// Delete removes key from the main keyspace.
func (s *Store) Delete(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Delete(entry{key: key})
}

// PutIndexEntry records that indexKey (the encoded composite index key)
// points at dataKey, in the named index's keyspace.
func (s *Store) PutIndexEntry(indexName string, indexKey, dataKey []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.indexes[indexName]
	if !ok {
		tr = btree.New(32)
		s.indexes[indexName] = tr
	}
	tr.ReplaceOrInsert(entry{key: append([]byte(nil), indexKey...), val: append([]byte(nil), dataKey...)})
}

// DeleteIndexEntry removes a previously recorded index entry.
func (s *Store) DeleteIndexEntry(indexName string, indexKey []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tr, ok := s.indexes[indexName]; ok {
		tr.Delete(entry{key: indexKey})
	}
}

// ScanRange implements icydb.OrderedKV over the main keyspace.
func (s *Store) ScanRange(ctx context.Context, low, high []byte, descending bool) (icydb.KVIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collectRange(s.data, low, high, descending), nil
}

// ScanIndex implements icydb.IndexedKV over the named index keyspace.
func (s *Store) ScanIndex(ctx context.Context, indexName string, low, high []byte, descending bool) (icydb.KVIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tr, ok := s.indexes[indexName]
	if !ok {
		zap.S().Debugw("memstore: index scan against unknown index", "index", indexName)
		return &sliceIter{pos: -1}, nil
	}
	return collectRange(tr, low, high, descending), nil
}

func collectRange(tr *btree.BTree, low, high []byte, descending bool) *sliceIter {
	var out []entry
	visit := func(i btree.Item) bool {
		e := i.(entry)
		if high != nil && bytes.Compare(e.key, high) >= 0 {
			return false
		}
		out = append(out, e)
		return true
	}
	if low == nil {
		tr.Ascend(visit)
	} else {
		tr.AscendGreaterOrEqual(entry{key: low}, visit)
	}
	if descending {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return &sliceIter{entries: out, pos: -1}
}

type sliceIter struct {
	entries []entry
	pos     int
}

func (it *sliceIter) Next(ctx context.Context) bool {
	it.pos++
	return it.pos < len(it.entries)
}
func (it *sliceIter) Key() []byte   { return it.entries[it.pos].key }
func (it *sliceIter) Value() []byte { return it.entries[it.pos].val }
func (it *sliceIter) Err() error    { return nil }
func (it *sliceIter) Close() error  { return nil }
