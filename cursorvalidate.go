package icydb

import "fmt"

// CursorValidationInput carries everything ValidateCursor needs to check a
// decoded token against the query it is being replayed into.
type CursorValidationInput struct {
	Token           ContinuationToken
	ExpectedSignature [32]byte
	ExpectedSortKeys []string
	RequestedDirection CursorDirection
	Plan            AccessPlan
	PageSize        int
	Cfg             CursorConfig
	TokenWireSize   int
}

// ValidateCursor runs the six-step validation spec §4.3 requires before a
// decoded token may be used to resume a scan. HMAC signature verification
// against tampering already happened in DecodeContinuationToken; this
// function performs the remaining checks in order, returning the first
// failure:
//
//  1. the token's embedded plan signature matches the query shape it is
//     being resumed against (predicate, order, pushdown — spec's "signature
//     equals plan signature" rule; a different ORDER BY or WHERE on resume
//     fails here, not with a silently wrong page)
//  2. token version is one this build understands
//  3. boundary field set matches the query's current ORDER BY keys
//  4. token direction matches the direction the caller is paging in
//  5. an IndexRange anchor, if present, matches the plan just computed
//  6. the token's own encoded size respects the configured cap
func ValidateCursor(in CursorValidationInput) error {
	if in.Token.PlanSignature != in.ExpectedSignature {
		return NewCursorPlanError(CodeSignatureMismatch, "cursor plan signature does not match the current query shape")
	}

	if in.Token.Version != CursorTokenV1 && in.Token.Version != CursorTokenV2 {
		return NewCursorPlanError(CodeVersionUnsupported, fmt.Sprintf("unsupported cursor token version %d", in.Token.Version))
	}

	if len(in.Token.Boundary) != len(in.ExpectedSortKeys) {
		return NewCursorPlanError(CodeBoundaryShapeBad, "cursor boundary field count does not match query sort keys")
	}
	for i, slot := range in.Token.Boundary {
		if slot.Field != in.ExpectedSortKeys[i] {
			return NewCursorPlanError(CodeBoundaryShapeBad, fmt.Sprintf("cursor boundary field %d is %q, want %q", i, slot.Field, in.ExpectedSortKeys[i]))
		}
	}

	if in.Token.Direction != in.RequestedDirection {
		return NewCursorPlanError(CodeDirectionMismatch, "cursor direction does not match requested scan direction")
	}

	if in.Token.IndexRangeAnchor != nil {
		if in.Plan.Path == nil || in.Plan.Path.Kind != PathIndexRange {
			return NewCursorPlanError(CodeAnchorStale, "cursor carries an index range anchor but the current plan is not an IndexRange scan")
		}
		if in.Plan.Path.IndexName != in.Token.IndexRangeAnchor.IndexName {
			return NewCursorPlanError(CodeAnchorStale, "cursor index range anchor names a different index than the current plan")
		}
		if !valuesEqualStrict(in.Plan.Path.IndexPrefix, in.Token.IndexRangeAnchor.Prefix) {
			return NewCursorPlanError(CodeAnchorStale, "cursor index range anchor prefix no longer matches the current plan")
		}
	}

	if in.Cfg.MaxTokenBytes > 0 && in.TokenWireSize > in.Cfg.MaxTokenBytes {
		return NewCursorPlanError(CodePageSizeOutOfRange, "cursor token exceeds the configured maximum size")
	}

	return nil
}

func valuesEqualStrict(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		eq, err := CoerceEqual(CoercionStrict, a[i], b[i])
		if err != nil || !eq {
			return false
		}
	}
	return true
}
