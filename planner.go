package icydb

import (
	"sort"

	"go.uber.org/zap"
)

// PushdownMode selects how much of a predicate the chosen AccessPath is
// allowed to absorb versus leave as a residual filter the executor
// evaluates per row (spec §4.4 "Predicate pushdown modes").
type PushdownMode uint8

const (
	// StrictAllOrNone requires the access path to either fully resolve the
	// predicate's leading conjuncts or resolve none of them: no partial
	// credit for a prefix match that still needs a residual filter on the
	// same field.
	StrictAllOrNone PushdownMode = iota
	// ConservativeSubset allows the access path to narrow to a superset of
	// matching rows (e.g. an IndexRange scan on a prefix) and leaves the
	// remaining conjuncts as a residual filter.
	ConservativeSubset
)

// PlanOptions configures one call to Plan.
type PlanOptions struct {
	Pushdown   PushdownMode
	Descending bool
}

// MissingRowPolicy governs materialization when an index entry or a
// by-keys lookup points at a data key whose row is no longer present
// (spec GLOSSARY / §4.4.4 / §7): Strict surfaces the gap as a
// corruption-tagged InternalError, MissingOk silently skips it. MissingOk
// is the default, matching idempotent-delete semantics (spec §4.6:
// "MissingOk hides them and is the idempotent-delete default").
type MissingRowPolicy uint8

const (
	MissingOk MissingRowPolicy = iota
	Strict
)

// Plan chooses the AccessPath used to resolve p against m, trying in turn:
// (1) primary-key equality (ByKey), (2) primary-key IN list (ByKeys), (3)
// primary-key range (KeyRange), (4) the best secondary index by
// leading-conjunct match, scanned as an IndexRange when the field after the
// equality prefix carries a range and as an IndexPrefix otherwise, (5) full
// scan. Indexes are ranked by the number of leading equality fields, then
// by having a trailing range, then by field count (fewer wins, it is
// cheaper to seek), then by index name (for determinism).
//
// Grounded on the teacher's Optimizer.GeneratePlan (optimizer.go): resolve
// equalities from the top-level conjunction first, try to route them
// through the narrowest structure available, and fall back one step at a
// time.
func Plan(p Predicate, m EntityModel, opts PlanOptions) (AccessPlan, *Residual, error) {
	eqs, ranges, inLists, residual, exact := decompose(p, m)
	consumed := make(map[string]bool)

	if pkVal, ok := eqs[m.PKField]; ok {
		consumed[m.PKField] = true
		path := &AccessPath{Kind: PathByKey, Key: pkVal, Descending: opts.Descending}
		return finishPlan(path, residual, exact, opts, m, "pk_eq", eqs, ranges, inLists, consumed)
	}

	if keys, ok := inLists[m.PKField]; ok {
		consumed[m.PKField] = true
		path := &AccessPath{Kind: PathByKeys, Keys: CanonicalizeKeys(keys), Descending: opts.Descending}
		return finishPlan(path, residual, exact, opts, m, "pk_in", eqs, ranges, inLists, consumed)
	}

	if b, ok := ranges[m.PKField]; ok {
		consumed[m.PKField] = true
		path := &AccessPath{Kind: PathKeyRange, KeyLow: b[0], KeyHigh: b[1], Descending: opts.Descending}
		return finishPlan(path, residual, exact, opts, m, "pk_range", eqs, ranges, inLists, consumed)
	}

	if best, ok := bestIndex(m, eqs, ranges); ok {
		path := buildIndexPath(best, eqs, ranges, opts.Descending)
		for i := 0; i < len(path.IndexPrefix); i++ {
			consumed[best.Fields[i]] = true
		}
		if path.Kind == PathIndexRange {
			consumed[best.Fields[len(path.IndexPrefix)]] = true
		}
		return finishPlan(path, residual, exact, opts, m, "index", eqs, ranges, inLists, consumed)
	}

	path := &AccessPath{Kind: PathFullScan, Descending: opts.Descending}
	return finishPlan(path, residual, exact, opts, m, "full_scan", eqs, ranges, inLists, consumed)
}

// Residual is the portion of a predicate the chosen AccessPath cannot
// absorb; the executor evaluates it per candidate row after streaming keys
// from the path (spec §4.4 "Residual retry").
type Residual struct {
	Predicate Predicate
}

// boundToPredicate reconstructs the FieldPredicate a Bound was decomposed
// from, used to fold an eqs/ranges/inLists binding the chosen AccessPath
// did not actually consume back into the residual (see finishPlan).
func boundToPredicate(field string, b Bound, lower bool) FieldPredicate {
	var op CompareOp
	if lower {
		op = OpGt
		if b.Inclusive {
			op = OpGe
		}
	} else {
		op = OpLt
		if b.Inclusive {
			op = OpLe
		}
	}
	return FieldPredicate{Field: field, Op: op, Operand: b.Value, Coercion: CoercionStrict}
}

// finishPlan folds any eqs/ranges/inLists binding not actually consumed by
// path back into the residual: decompose groups every top-level
// equality/range/IN conjunct by field before the access path is chosen, but
// only the specific field(s) the chosen path encodes into its key/index
// bounds are truly enforced by the scan itself. Anything decompose pulled
// out of the top-level And that the path then didn't use must still be
// checked per row, or it would silently stop filtering the moment no
// PK/index match absorbs it (e.g. a plain field range with no matching
// index falling through to a full scan).
func finishPlan(path *AccessPath, residual Predicate, exact bool, opts PlanOptions, m EntityModel, reason string, eqs map[string]Value, ranges map[string][2]Bound, inLists map[string][]Value, consumed map[string]bool) (AccessPlan, *Residual, error) {
	origResidual := residual
	var extra []Predicate
	for field, v := range eqs {
		if consumed[field] {
			continue
		}
		extra = append(extra, FieldPredicate{Field: field, Op: OpEq, Operand: v, Coercion: CoercionStrict})
	}
	for field, b := range ranges {
		if consumed[field] {
			continue
		}
		if b[0].Value != nil {
			extra = append(extra, boundToPredicate(field, b[0], true))
		}
		if b[1].Value != nil {
			extra = append(extra, boundToPredicate(field, b[1], false))
		}
	}
	for field, vals := range inLists {
		if consumed[field] {
			continue
		}
		extra = append(extra, FieldPredicate{Field: field, Op: OpIn, Operands: vals, Coercion: CoercionStrict})
	}
	if len(extra) > 0 {
		exact = false
		sortPredicates(extra)
		if _, isAlways := residual.(Always); isAlways || residual == nil {
			if len(extra) == 1 {
				residual = extra[0]
			} else {
				residual = And{Children: extra}
			}
		} else {
			residual = And{Children: append([]Predicate{residual}, extra...)}
		}
	}

	if opts.Pushdown == StrictAllOrNone && !exact && path.Kind != PathFullScan {
		// The access path only narrows to a superset; StrictAllOrNone
		// refuses partial credit and demotes to a full scan carrying the
		// entire original predicate as residual.
		return finishPlan(&AccessPath{Kind: PathFullScan, Descending: opts.Descending}, origResidual, false, opts, m, reason, eqs, ranges, inLists, map[string]bool{})
	}
	zap.S().Debugw("icydb: plan built", "entity", m.Name, "path", path.Kind.String(), "reason", reason)
	var res *Residual
	if residual != nil {
		if _, isAlways := residual.(Always); !isAlways {
			res = &Residual{Predicate: residual}
		}
	}
	return AccessPlan{Path: path}, res, nil
}

// decompose walks a normalized top-level And (or a bare FieldPredicate) and
// extracts equality bindings and range bounds per field, returning whatever
// cannot be absorbed as a residual predicate. exact reports whether every
// top-level conjunct was absorbed (no Or/Not/unrelated conjunct survived).
func decompose(p Predicate, m EntityModel) (eqs map[string]Value, ranges map[string][2]Bound, inLists map[string][]Value, residual Predicate, exact bool) {
	eqs = make(map[string]Value)
	ranges = make(map[string][2]Bound)
	inLists = make(map[string][]Value)
	var leftover []Predicate

	var conjuncts []Predicate
	switch pr := p.(type) {
	case And:
		conjuncts = pr.Children
	case Always:
		conjuncts = nil
	default:
		conjuncts = []Predicate{p}
	}

	for _, c := range conjuncts {
		fp, ok := c.(FieldPredicate)
		if !ok || fp.Coercion != CoercionStrict {
			leftover = append(leftover, c)
			continue
		}
		switch fp.Op {
		case OpEq:
			if _, dup := eqs[fp.Field]; dup {
				leftover = append(leftover, c)
				continue
			}
			eqs[fp.Field] = fp.Operand
		case OpGe, OpGt:
			b := ranges[fp.Field]
			if b[0].Value != nil {
				leftover = append(leftover, c)
				continue
			}
			b[0] = Bound{Value: fp.Operand, Inclusive: fp.Op == OpGe}
			ranges[fp.Field] = b
		case OpLe, OpLt:
			b := ranges[fp.Field]
			if b[1].Value != nil {
				leftover = append(leftover, c)
				continue
			}
			b[1] = Bound{Value: fp.Operand, Inclusive: fp.Op == OpLe}
			ranges[fp.Field] = b
		case OpIn:
			if _, dup := inLists[fp.Field]; dup {
				leftover = append(leftover, c)
				continue
			}
			inLists[fp.Field] = fp.Operands
		default:
			leftover = append(leftover, c)
		}
	}

	exact = len(leftover) == 0
	switch len(leftover) {
	case 0:
		residual = Always{}
	case 1:
		residual = leftover[0]
	default:
		residual = And{Children: leftover}
	}

	return eqs, ranges, inLists, residual, exact
}

// bestIndex finds the secondary index whose leading fields are best
// satisfied by eqs (equality bindings) optionally followed by one ranged
// field, following index field declaration order. It returns false if no
// index's leading field is bound at all.
func bestIndex(m EntityModel, eqs map[string]Value, ranges map[string][2]Bound) (IndexModel, bool) {
	type candidate struct {
		idx        IndexModel
		eqFields   int
		hasRange   bool
	}
	var candidates []candidate
	for _, idx := range m.Indexes {
		eqCount := 0
		for _, f := range idx.Fields {
			if _, ok := eqs[f]; !ok {
				break
			}
			eqCount++
		}
		if eqCount == 0 {
			continue
		}
		hasRange := false
		if eqCount < len(idx.Fields) {
			if _, ok := ranges[idx.Fields[eqCount]]; ok {
				hasRange = true
			}
		}
		candidates = append(candidates, candidate{idx: idx, eqFields: eqCount, hasRange: hasRange})
	}
	if len(candidates) == 0 {
		return IndexModel{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if ci.eqFields != cj.eqFields {
			return ci.eqFields > cj.eqFields
		}
		if ci.hasRange != cj.hasRange {
			return ci.hasRange
		}
		if len(ci.idx.Fields) != len(cj.idx.Fields) {
			return len(ci.idx.Fields) < len(cj.idx.Fields)
		}
		return ci.idx.Name < cj.idx.Name
	})
	return candidates[0].idx, true
}

func buildIndexPath(idx IndexModel, eqs map[string]Value, ranges map[string][2]Bound, descending bool) *AccessPath {
	prefix := make([]Value, 0, len(idx.Fields))
	i := 0
	for ; i < len(idx.Fields); i++ {
		v, ok := eqs[idx.Fields[i]]
		if !ok {
			break
		}
		prefix = append(prefix, v)
	}
	if i == len(idx.Fields) {
		return &AccessPath{Kind: PathIndexPrefix, IndexName: idx.Name, IndexPrefix: prefix, Descending: descending}
	}
	if b, ok := ranges[idx.Fields[i]]; ok && (b[0].Value == nil || Orderable(b[0].Value)) && (b[1].Value == nil || Orderable(b[1].Value)) {
		return &AccessPath{
			Kind:        PathIndexRange,
			IndexName:   idx.Name,
			IndexPrefix: prefix,
			RangeLow:    b[0],
			RangeHigh:   b[1],
			Descending:  descending,
		}
	}
	return &AccessPath{Kind: PathIndexPrefix, IndexName: idx.Name, IndexPrefix: prefix, Descending: descending}
}
