package icydb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExecuteMetrics carries the per-call counters spec §4.4 "Metrics" asks
// for: how many keys were touched versus how many rows actually matched
// after residual filtering, and whether the scan budget was exhausted.
type ExecuteMetrics struct {
	KeysScanned   int
	RowsMatched   int
	BudgetExceeded bool
	// TraceID correlates this call's log lines across the scan; it never
	// leaves the process and plays no role in cursor/plan identity.
	TraceID uuid.UUID
}

// executeOutcome is what one kernel run produces: the admitted rows, the
// call's metrics, the primary key of the last admitted row, and whether
// another row existed past the window (the "has more" signal).
type executeOutcome struct {
	rows    []Row
	metrics ExecuteMetrics
	lastPK  Value
	hasMore bool
}

// kernel runs one query end to end: normalize, plan, route-guard,
// key-stream resolution, decode, residual filter, cursor spine, window,
// metrics. It is the single place spec §4.4's "executor kernel" names;
// Session (session.go) is the thin builder API in front of it.
type kernel struct {
	store   OrderedKV
	decoder RowDecoder
	model   EntityModel
	cfg     Config
}

func (k *kernel) run(ctx context.Context, q *queryPlan) (executeOutcome, error) {
	traceID := uuid.New()

	plan, residual, err := Plan(q.predicate, k.model, PlanOptions{Pushdown: q.pushdown, Descending: q.descending})
	if err != nil {
		return executeOutcome{}, err
	}

	var spine *CursorSpine
	if q.cursor != nil {
		requestedDir := CursorForward
		if q.descending {
			requestedDir = CursorBackward
		}
		if err := ValidateCursor(CursorValidationInput{
			Token:             *q.cursor,
			ExpectedSignature: QuerySignature(q.predicate, q.sortKeys, q.descending, q.pushdown),
			ExpectedSortKeys:  q.sortKeys,
			RequestedDirection: requestedDir,
			Plan:              plan,
			PageSize:           q.pageSize,
			Cfg:                k.cfg.Cursor,
			TokenWireSize:      q.cursorWireLen,
		}); err != nil {
			return executeOutcome{}, err
		}
		spine = NewCursorSpine(q.cursor.Boundary, q.cursor.Direction)
	} else {
		spine = NewCursorSpine(nil, CursorForward)
	}

	offset := q.callerOffset
	if q.cursor != nil {
		offset = int(q.cursor.InitialOffset)
	}

	if err := RouteGuard(RouteContext{
		Plan:          plan,
		HasCursor:     q.cursor != nil,
		InitialOffset: q.callerOffset,
		OrderBySet:    len(q.sortKeys) > 0 || plan.Path == nil || plan.Path.Kind != PathFullScan,
		IndexArity:    len(indexArity(plan)),
		IndexMaxArity: k.cfg.Planner.MaxIndexFields,
	}); err != nil {
		return executeOutcome{}, err
	}

	window := NewWindow(offset, q.pageSize)

	iter, err := k.openIterator(ctx, plan, q.missingRowPolicy)
	if err != nil {
		return executeOutcome{}, err
	}
	defer iter.Close()

	var out executeOutcome
	scanned := 0
	for iter.Next(ctx) {
		scanned++
		if k.cfg.Query.ScanBudget > 0 && scanned > k.cfg.Query.ScanBudget {
			out.metrics.BudgetExceeded = true
			break
		}
		row, err := k.decoder.Decode(k.model.Name, iter.Value())
		if err != nil {
			return executeOutcome{}, NewInternalError(CodeInvariantViolation, "row decode failed").WithCause(err)
		}
		pk := row[k.model.PKField]

		ok, err := Eval(residualPredicate(residual), row)
		if err != nil {
			return executeOutcome{}, err
		}
		if !ok {
			continue
		}
		out.metrics.RowsMatched++

		admitted, err := spine.Admit(boundaryProjection(row, q.sortKeys))
		if err != nil {
			return executeOutcome{}, err
		}
		if !admitted {
			continue
		}

		if window.Admit() {
			if q.aggregator != nil {
				if err := q.aggregator.Admit(row, pk); err != nil {
					return executeOutcome{}, err
				}
				out.lastPK = pk
				if q.aggregator.Done() {
					break
				}
				continue
			}
			out.rows = append(out.rows, row)
			out.lastPK = pk
		} else if window.Full() {
			out.hasMore = true
			break
		}
	}
	if err := iter.Err(); err != nil {
		return executeOutcome{}, err
	}
	out.metrics.KeysScanned = scanned
	out.metrics.TraceID = traceID

	zap.S().Debugw("icydb: executed", "trace", traceID, "entity", k.model.Name, "path", plan.Path.Kind.String(),
		"scanned", out.metrics.KeysScanned, "matched", out.metrics.RowsMatched)
	return out, nil
}

func residualPredicate(r *Residual) Predicate {
	if r == nil {
		return Always{}
	}
	return r.Predicate
}

func boundaryProjection(row Row, sortKeys []string) Row {
	if len(sortKeys) == 0 {
		return row
	}
	out := make(Row, len(sortKeys))
	for _, f := range sortKeys {
		out[f] = row[f]
	}
	return out
}

func indexArity(p AccessPlan) []Value {
	if p.Path == nil {
		return nil
	}
	return p.Path.IndexPrefix
}

// openIterator resolves the AccessPath into a live KVIterator by
// constructing the appropriate byte-range bounds for the store.
func (k *kernel) openIterator(ctx context.Context, plan AccessPlan, missing MissingRowPolicy) (KVIterator, error) {
	if plan.Path == nil {
		return nil, NewInternalError(CodeInvariantViolation, "planner produced a non-Path plan")
	}
	path := *plan.Path
	switch path.Kind {
	case PathByKey:
		return k.singleKeyIterator(ctx, path.Key)
	case PathByKeys:
		return k.multiKeyIterator(ctx, path.Keys, missing)
	case PathKeyRange:
		return k.rangeIterator(ctx, path.KeyLow, path.KeyHigh, path.Descending)
	case PathIndexPrefix, PathIndexRange:
		return k.indexIterator(ctx, path, missing)
	case PathFullScan:
		return k.store.ScanRange(ctx, entityLowBound(k.model), entityHighBound(k.model), path.Descending)
	default:
		return nil, NewInternalError(CodeInvariantViolation, "unknown access path kind")
	}
}

// missingRowError builds the corruption-tagged InternalError a Strict
// MissingRowPolicy raises when an index or by-keys entry points at a data
// key the row store no longer has (spec §7 / testable scenario 5: "Under
// Strict the call fails with a corruption-tagged error").
func missingRowError(entity string, dataKey []byte) error {
	return NewInternalError(CodeIndexCorruption, "index entry points at a missing row").
		WithDetail("origin", "index").
		WithDetail("entity", entity).
		WithDetail("data_key", fmt.Sprintf("%x", dataKey))
}

// indexIterator resolves an IndexPrefix/IndexRange access path against an
// IndexedKV-capable store, translating each yielded DataKey-pointing entry
// into a full row fetch from the underlying OrderedKV. Under Strict, a
// gap between the index and the row store is corruption, not an empty
// result, and aborts the scan (spec GLOSSARY / §4.4.4 / §7).
func (k *kernel) indexIterator(ctx context.Context, path AccessPath, missing MissingRowPolicy) (KVIterator, error) {
	ix, ok := k.store.(IndexedKV)
	if !ok {
		return nil, NewInternalError(CodeInvariantViolation, "store does not implement IndexedKV, cannot serve "+path.Kind.String())
	}
	low, high, err := indexRangeBounds(path)
	if err != nil {
		return nil, err
	}
	idxIter, err := ix.ScanIndex(ctx, path.IndexName, low, high, path.Descending)
	if err != nil {
		return nil, err
	}
	defer idxIter.Close()

	var entries []kvEntry
	for idxIter.Next(ctx) {
		dataKey := idxIter.Value()
		val, found, err := k.store.Get(ctx, dataKey)
		if err != nil {
			return nil, err
		}
		if !found {
			if missing == Strict {
				return nil, missingRowError(k.model.Name, dataKey)
			}
			continue
		}
		entries = append(entries, kvEntry{key: dataKey, val: val})
	}
	if err := idxIter.Err(); err != nil {
		return nil, err
	}
	return &sliceIterator{entries: entries, pos: -1}, nil
}

func (k *kernel) singleKeyIterator(ctx context.Context, key Value) (KVIterator, error) {
	dk := DataKey{Entity: k.model.Name, Key: key}
	enc, err := dk.Encode(k.model.PrimaryKey)
	if err != nil {
		return nil, err
	}
	val, found, err := k.store.Get(ctx, enc)
	if err != nil {
		return nil, err
	}
	return &singleEntryIterator{key: enc, val: val, found: found}, nil
}

// multiKeyIterator resolves a PathByKeys access path (a PK IN-fanout the
// planner already proved exact equalities for). Under Strict, a key the
// planner expected to resolve but the store no longer has is corruption,
// matching indexIterator's Strict handling.
func (k *kernel) multiKeyIterator(ctx context.Context, keys []Value, missing MissingRowPolicy) (KVIterator, error) {
	entries := make([]kvEntry, 0, len(keys))
	for _, key := range keys {
		dk := DataKey{Entity: k.model.Name, Key: key}
		enc, err := dk.Encode(k.model.PrimaryKey)
		if err != nil {
			return nil, err
		}
		val, found, err := k.store.Get(ctx, enc)
		if err != nil {
			return nil, err
		}
		if !found {
			if missing == Strict {
				return nil, missingRowError(k.model.Name, enc)
			}
			continue
		}
		entries = append(entries, kvEntry{key: enc, val: val})
	}
	return &sliceIterator{entries: entries, pos: -1}, nil
}

func (k *kernel) rangeIterator(ctx context.Context, low, high Bound, descending bool) (KVIterator, error) {
	lowBytes := entityLowBound(k.model)
	if low.Value != nil {
		enc, err := EncodeStorageKey(low.Value)
		if err != nil {
			return nil, err
		}
		dk, err := (DataKey{Entity: k.model.Name, Key: low.Value}).Encode(k.model.PrimaryKey)
		if err != nil {
			return nil, err
		}
		if !low.Inclusive {
			dk = nextKeyBytes(dk)
		}
		lowBytes = dk
		_ = enc
	}
	highBytes := entityHighBound(k.model)
	if high.Value != nil {
		dk, err := (DataKey{Entity: k.model.Name, Key: high.Value}).Encode(k.model.PrimaryKey)
		if err != nil {
			return nil, err
		}
		if high.Inclusive {
			dk = nextKeyBytes(dk)
		}
		highBytes = dk
	}
	return k.store.ScanRange(ctx, lowBytes, highBytes, descending)
}

func entityLowBound(m EntityModel) []byte {
	out := make([]byte, 1+EntityNameCap)
	out[0] = byte(len(m.Name))
	copy(out[1:], []byte(m.Name))
	return out
}

func entityHighBound(m EntityModel) []byte {
	return nextKeyBytes(entityLowBound(m))
}

// singleEntryIterator adapts a single Get() result to KVIterator, used by
// the ByKey access path.
type singleEntryIterator struct {
	key, val []byte
	found    bool
	done     bool
}

func (it *singleEntryIterator) Next(ctx context.Context) bool {
	if it.done || !it.found {
		return false
	}
	it.done = true
	return true
}
func (it *singleEntryIterator) Key() []byte   { return it.key }
func (it *singleEntryIterator) Value() []byte { return it.val }
func (it *singleEntryIterator) Err() error    { return nil }
func (it *singleEntryIterator) Close() error  { return nil }

type kvEntry struct{ key, val []byte }

// sliceIterator adapts a pre-fetched, already-ordered slice of entries to
// KVIterator, used by the ByKeys access path (spec §4.5: canonicalized,
// deduplicated, ascending key order before planning ever sees it).
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
