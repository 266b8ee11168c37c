package icydb

import "go.uber.org/zap"

// AggregateKind enumerates the terminal aggregate reducers spec §4.4.6
// defines.
type AggregateKind uint8

const (
	AggCount AggregateKind = iota
	AggExists
	AggMin    // primary-key/sort-key extrema of the scanned stream itself
	AggMax
	AggFirst
	AggLast
	AggMinField // Min(field): extrema of a named, non-key field
	AggMaxField
)

// AggregateRequest describes one aggregate terminal call.
type AggregateRequest struct {
	Kind  AggregateKind
	Field string // required for AggMinField/AggMaxField
}

// AggregateResult is the terminal's output. Count and Exists are populated
// for every Kind; Value, Row and Found only for the kinds that select a row.
type AggregateResult struct {
	Count  int64
	Exists bool
	Value  Value
	Row    Row
	Found  bool
}

// aggregateReducer accumulates one AggregateResult over a stream of
// admitted rows, in the style of the teacher's incremental query result
// building rather than materializing the whole stream first.
type aggregateReducer struct {
	req       AggregateRequest
	result    AggregateResult
	fieldDecl FieldDecl
	haveField bool
	lastPK    Value
}

// NewAggregateReducer validates req against m before any row is consumed:
// a MinField/MaxField target field must be declared in m. The field's kind
// is not checked for orderability; field values are compared with
// CoerceOrder under Strict coercion, and values it cannot order are
// skipped. Grounded on original_source's aggregate/field_extrema.rs.
func NewAggregateReducer(req AggregateRequest, m EntityModel) (*aggregateReducer, error) {
	r := &aggregateReducer{req: req}
	if req.Kind == AggMinField || req.Kind == AggMaxField {
		decl, ok := m.Field(req.Field)
		if !ok {
			return nil, NewValidateError(CodeUnknownField, "aggregate field "+req.Field+" is not declared").WithField(req.Field)
		}
		r.fieldDecl = decl
		r.haveField = true
	}
	return r, nil
}

// Admit feeds one admitted row (already past predicate/cursor/window
// filtering) into the reducer. It never itself enforces a scan budget;
// the executor kernel does that and calls Admit only while budget remains.
func (r *aggregateReducer) Admit(row Row, pk Value) error {
	r.result.Count++
	r.result.Exists = true

	switch r.req.Kind {
	case AggCount, AggExists:
		return nil
	case AggFirst:
		if !r.result.Found {
			r.result.Row = row
			r.result.Found = true
		}
	case AggLast:
		r.result.Row = row
		r.result.Found = true
	case AggMin:
		if !r.result.Found || CanonicalCompare(pk, r.result.Value) < 0 {
			r.result.Value = pk
			r.result.Row = row
			r.result.Found = true
		}
	case AggMax:
		if !r.result.Found || CanonicalCompare(pk, r.result.Value) > 0 {
			r.result.Value = pk
			r.result.Row = row
			r.result.Found = true
		}
	case AggMinField, AggMaxField:
		return r.admitFieldExtrema(row, pk)
	}
	return nil
}

// admitFieldExtrema tracks (field_value, pk asc) as the tie-break pair,
// exactly as original_source's field_extrema.rs reducer does, including
// treating a missing/Null field value as ineligible rather than as a
// sentinel extremum.
func (r *aggregateReducer) admitFieldExtrema(row Row, pk Value) error {
	fv, ok := row[r.req.Field]
	if !ok {
		return nil
	}
	if _, isNull := fv.(Null); isNull {
		return nil
	}
	if !r.result.Found {
		r.setFieldExtrema(fv, row, pk)
		return nil
	}
	cmp, err := CoerceOrder(CoercionStrict, fv, r.result.Value)
	if err != nil {
		// Heterogeneous field values under Strict ordering are skipped
		// rather than failing the whole aggregate; a schema-conformant
		// field never reaches this branch.
		return nil
	}
	switch r.req.Kind {
	case AggMinField:
		if cmp < 0 || (cmp == 0 && CanonicalCompare(pk, r.tieBreakPK()) < 0) {
			r.setFieldExtrema(fv, row, pk)
		}
	case AggMaxField:
		if cmp > 0 || (cmp == 0 && CanonicalCompare(pk, r.tieBreakPK()) < 0) {
			r.setFieldExtrema(fv, row, pk)
		}
	}
	return nil
}

func (r *aggregateReducer) setFieldExtrema(fv Value, row Row, pk Value) {
	r.result.Value = fv
	r.result.Row = row
	r.result.Found = true
	r.lastPK = pk
}

func (r *aggregateReducer) tieBreakPK() Value {
	if r.lastPK == nil {
		return Unit{}
	}
	return r.lastPK
}

// Done reports whether further admitted rows cannot change the result, so
// the kernel may stop scanning (spec §4.4.6: Exists/First must short-circuit
// on the first admitted row rather than draining the whole stream). Count
// and the extrema kinds have no order-independent stopping point and
// always report false; they must observe every admitted row.
func (r *aggregateReducer) Done() bool {
	switch r.req.Kind {
	case AggExists, AggFirst:
		return r.result.Found
	default:
		return false
	}
}

// Result returns the accumulated AggregateResult. Calling it before any
// row was admitted yields Count=0, Exists=false, Found=false.
func (r *aggregateReducer) Result() AggregateResult {
	zap.S().Debugw("icydb: aggregate reduced", "kind", r.req.Kind, "count", r.result.Count)
	return r.result
}
