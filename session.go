package icydb

import "context"

// Session is the caller-facing entry point: one OrderedKV backend, one
// RowDecoder, and the Config governing every query built from it. It holds
// no per-query state; LoadQuery/DeleteQuery each start a fresh QueryBuilder.
type Session struct {
	store   OrderedKV
	decoder RowDecoder
	cfg     Config
}

// NewSession wires a Session to its storage and decoding collaborators.
func NewSession(store OrderedKV, decoder RowDecoder, cfg Config) *Session {
	return &Session{store: store, decoder: decoder, cfg: cfg}
}

// LoadQuery starts a read query builder against m.
func (s *Session) LoadQuery(m EntityModel) *QueryBuilder {
	return &QueryBuilder{
		session:           s,
		model:             m,
		predicate:         Always{},
		pushdown:          ConservativeSubset,
		missingRowPolicy:  s.cfg.Query.DefaultMissingRowPolicy,
		cursorDir:         CursorForward,
	}
}

// DeleteQuery starts a query builder intended to be consumed with Keys
// rather than ExecuteAll/ExecutePaged: the core only ever resolves which
// primary keys a predicate matches, the caller's own write-path performs
// the actual delete (spec §4.6: writes are an external collaborator).
func (s *Session) DeleteQuery(m EntityModel) *QueryBuilder {
	return s.LoadQuery(m)
}

// QueryBuilder accumulates one query's shape before a terminal method
// (ExecuteAll, ExecutePaged, Count, ...) runs it through the kernel. It is
// not safe for concurrent use, matching the teacher's
// QueryRequest/CursorQueryRequest builder style (a short-lived value built
// up, then consumed once).
type QueryBuilder struct {
	session  *Session
	model    EntityModel

	predicate Predicate
	pushdown  PushdownMode
	missingRowPolicy MissingRowPolicy
	sortKeys  []string
	descending bool

	initialOffset int
	pageSize      int

	cursorToken   *ContinuationToken
	cursorDir     CursorDirection
	cursorWireLen int
}

// Where ANDs p onto the query's predicate (repeated calls conjoin).
func (q *QueryBuilder) Where(p Predicate) *QueryBuilder {
	switch cur := q.predicate.(type) {
	case Always:
		q.predicate = p
	case And:
		q.predicate = And{Children: append(append([]Predicate(nil), cur.Children...), p)}
	default:
		q.predicate = And{Children: []Predicate{cur, p}}
	}
	return q
}

// OrderBy sets the ORDER BY field list (in order); the first field is the
// primary sort key.
func (q *QueryBuilder) OrderBy(fields ...string) *QueryBuilder {
	q.sortKeys = fields
	return q
}

// Descending reverses scan direction.
func (q *QueryBuilder) Descending() *QueryBuilder {
	q.descending = true
	q.cursorDir = CursorBackward
	return q
}

// Limit sets the page size for ExecutePaged (ExecuteAll ignores it).
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.pageSize = n
	return q
}

// Offset sets a caller-supplied initial offset. Mutually exclusive with
// Cursor (execution rejects both set at once with an IntentError).
func (q *QueryBuilder) Offset(n int) *QueryBuilder {
	q.initialOffset = n
	return q
}

// Pushdown overrides the default ConservativeSubset pushdown mode.
func (q *QueryBuilder) Pushdown(mode PushdownMode) *QueryBuilder {
	q.pushdown = mode
	return q
}

// MissingRowPolicy overrides the session's default gap-to-index behavior
// during materialization (MissingOk by default; Strict surfaces a gap
// between an index/by-keys entry and the row store as a corruption-tagged
// InternalError rather than silently skipping it).
func (q *QueryBuilder) MissingRowPolicy(policy MissingRowPolicy) *QueryBuilder {
	q.missingRowPolicy = policy
	return q
}

// Cursor resumes from a previously-issued continuation token.
func (q *QueryBuilder) Cursor(ctx context.Context, wire []byte) (*QueryBuilder, error) {
	tok, err := DecodeContinuationToken(wire, q.session.cfg.Cursor.SignatureSecret)
	if err != nil {
		return nil, err
	}
	q.cursorToken = &tok
	q.cursorDir = tok.Direction
	q.cursorWireLen = len(wire)
	return q, nil
}

func (q *QueryBuilder) toInternalQuery() (*queryPlan, error) {
	if q.cursorToken != nil && q.initialOffset != 0 {
		return nil, NewIntentError(CodeCursorWithOffset, "a cursor-bearing query must not also set an explicit Offset")
	}
	if (q.cursorToken != nil || q.initialOffset != 0) && len(q.sortKeys) == 0 {
		return nil, NewIntentError(CodePaginationUnordered, "pagination (Cursor or Offset) requires OrderBy")
	}

	norm, err := Normalize(q.predicate, q.model)
	if err != nil {
		return nil, err
	}
	if err := ValidatePredicate(norm, q.model); err != nil {
		return nil, err
	}
	return &queryPlan{
		predicate:        norm,
		pushdown:         q.pushdown,
		missingRowPolicy: q.missingRowPolicy,
		descending:       q.descending,
		sortKeys:         q.sortKeys,
		callerOffset:     q.initialOffset,
		pageSize:         q.pageSize,
		cursor:           q.cursorToken,
		cursorWireLen:    q.cursorWireLen,
	}, nil
}

// queryPlan is the kernel-facing, already-normalized shape of a
// QueryBuilder, separating "what the caller asked for" from "what the
// kernel runs." callerOffset is only ever set by QueryBuilder.Offset();
// RouteGuard rejects it alongside a cursor (the cursor's own embedded
// InitialOffset, not callerOffset, is what the window actually skips by).
type queryPlan struct {
	predicate        Predicate
	pushdown         PushdownMode
	missingRowPolicy MissingRowPolicy
	descending       bool
	sortKeys         []string
	callerOffset     int
	pageSize         int
	cursor           *ContinuationToken
	cursorWireLen    int
	aggregator       *aggregateReducer
}

func (q *QueryBuilder) kernel() *kernel {
	return &kernel{store: q.session.store, decoder: q.session.decoder, model: q.model, cfg: q.session.cfg}
}

// ExecuteAll runs the query to completion (no pagination), capped by the
// session's configured scan budget.
func (q *QueryBuilder) ExecuteAll(ctx context.Context) (Response, error) {
	return q.execute(ctx, 0)
}

// ExecutePaged runs one page, honoring Limit (or the session default),
// returning a continuation token when more rows remain.
func (q *QueryBuilder) ExecutePaged(ctx context.Context) (Response, error) {
	pageSize := q.pageSize
	if pageSize <= 0 {
		pageSize = q.session.cfg.Query.DefaultPageSize
	}
	if pageSize > q.session.cfg.Query.MaxPageSize {
		return Response{}, NewValidateError(CodePageSizeOutOfRange, "requested page size exceeds the configured maximum")
	}
	q.pageSize = pageSize
	return q.execute(ctx, pageSize)
}

func (q *QueryBuilder) execute(ctx context.Context, pageSize int) (Response, error) {
	qp, err := q.toInternalQuery()
	if err != nil {
		return Response{}, err
	}
	qp.pageSize = pageSize

	k := q.kernel()
	out, err := k.run(ctx, qp)
	if err != nil {
		return Response{}, err
	}

	resp := Response{Rows: out.rows, HasMore: out.hasMore, Metrics: out.metrics}
	if out.hasMore && len(out.rows) > 0 {
		boundary := make(CursorBoundary, 0, len(qp.sortKeys))
		last := out.rows[len(out.rows)-1]
		for _, f := range qp.sortKeys {
			boundary = append(boundary, CursorBoundarySlot{Field: f, Value: last[f]})
		}
		version := CursorTokenV2
		dir := CursorForward
		if qp.descending {
			dir = CursorBackward
		}
		sig := QuerySignature(qp.predicate, qp.sortKeys, qp.descending, qp.pushdown)
		tok := ContinuationToken{Version: version, PlanSignature: sig, Boundary: boundary, Direction: dir}
		wire, err := tok.Encode(q.session.cfg.Cursor.SignatureSecret)
		if err != nil {
			return Response{}, err
		}
		resp.Cursor = wire
	}
	return resp, nil
}

// Aggregate runs req as a terminal, never decoding rows beyond what the
// reducer needs to track.
func (q *QueryBuilder) Aggregate(ctx context.Context, req AggregateRequest) (AggregateResult, error) {
	reducer, err := NewAggregateReducer(req, q.model)
	if err != nil {
		return AggregateResult{}, err
	}
	qp, err := q.toInternalQuery()
	if err != nil {
		return AggregateResult{}, err
	}
	qp.pageSize = 0
	qp.aggregator = reducer

	k := q.kernel()
	if _, err := k.run(ctx, qp); err != nil {
		return AggregateResult{}, err
	}
	return reducer.Result(), nil
}

// Count is a convenience wrapper over Aggregate(AggCount).
func (q *QueryBuilder) Count(ctx context.Context) (int64, error) {
	res, err := q.Aggregate(ctx, AggregateRequest{Kind: AggCount})
	return res.Count, err
}

// Exists is a convenience wrapper over Aggregate(AggExists).
func (q *QueryBuilder) Exists(ctx context.Context) (bool, error) {
	res, err := q.Aggregate(ctx, AggregateRequest{Kind: AggExists})
	return res.Exists, err
}

// Keys runs the query to completion and returns only the primary keys of
// matching rows, for a DeleteQuery builder to hand to the caller's own
// write-path (the core never deletes anything itself; see DeleteQuery).
func (q *QueryBuilder) Keys(ctx context.Context) ([]Value, error) {
	resp, err := q.ExecuteAll(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]Value, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		keys = append(keys, row[q.model.PKField])
	}
	return keys, nil
}
