package icydb

// RouteContext carries the facts RouteGuard checks against spec §4.4's
// invariants block, gathered once a plan and a materialization strategy
// have been chosen but before any row is streamed.
type RouteContext struct {
	Plan           AccessPlan
	HasCursor      bool
	InitialOffset  int
	OrderBySet     bool
	Materialized   bool
	IndexArity     int
	IndexMaxArity  int
}

// RouteGuard runs the kernel's pre-materialization invariant checklist as
// one reusable gate instead of scattering asserts through the executor,
// grounded on original_source's executor/route/guard.rs. It enforces:
//
//   - a cursor is never combined with a nonzero caller-supplied initial
//     offset computed independently of the token (cursor-implies-zero-offset)
//   - pagination (a cursor or a nonzero offset) never rides an unordered
//     scan (pagination-never-on-unordered)
//   - boundary filtering always runs before window admission, which this
//     function cannot observe directly but whose precondition (OrderBySet)
//     it can (ordering-before-boundary-filtering)
//   - an index access path never exceeds the declared field arity cap
//
// The first two are reachable from ordinary caller input (a builder can ask
// for Cursor().Offset(), or Cursor() without OrderBy()), so QueryBuilder
// rejects them earlier as IntentError (spec §7: caught before any scan
// budget is consumed). RouteGuard still checks them itself as a last-resort
// assertion: a programming error inside this package that lets a bad shape
// reach RouteGuard is the kernel's own bug, hence InternalError here.
func RouteGuard(ctx RouteContext) error {
	if ctx.HasCursor && ctx.InitialOffset != 0 {
		return NewInternalError(CodeInvariantViolation, "cursor-bearing query must not also carry a caller-supplied initial offset")
	}
	if (ctx.HasCursor || ctx.InitialOffset != 0) && !ctx.OrderBySet {
		return NewInternalError(CodeInvariantViolation, "pagination requires a deterministic ORDER BY")
	}
	if ctx.IndexMaxArity > 0 && ctx.IndexArity > ctx.IndexMaxArity {
		return NewInternalError(CodeIndexArity, "access path index arity exceeds the declared maximum")
	}
	return nil
}
