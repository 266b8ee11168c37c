package icydb

import "fmt"

// ErrorKind partitions QueryError by the spec §7 error taxonomy.
type ErrorKind uint8

const (
	ErrValidate ErrorKind = iota
	ErrPlan
	ErrCursorPlan
	ErrIntent
	ErrInternal
	ErrConflict
)

func (k ErrorKind) String() string {
	switch k {
	case ErrValidate:
		return "ValidateError"
	case ErrPlan:
		return "PlanError"
	case ErrCursorPlan:
		return "CursorPlanError"
	case ErrIntent:
		return "IntentError"
	case ErrInternal:
		return "InternalError"
	case ErrConflict:
		return "Conflict"
	default:
		return "UnknownError"
	}
}

// Code is a stable, machine-checkable sub-classification within a Kind
// (e.g. a specific PlanError reason). Callers match on Code, not on the
// formatted Message.
type Code string

const (
	CodeUnknownField       Code = "unknown_field"
	CodeUnsupportedOp      Code = "unsupported_op"
	CodeBadCoercion        Code = "bad_coercion"
	CodeIndexArity         Code = "index_arity"
	CodeNoViableAccessPath Code = "no_viable_access_path"
	CodeAmbiguousTie       Code = "ambiguous_tie"
	CodeSignatureMismatch  Code = "cursor_signature_mismatch"
	CodeVersionUnsupported Code = "cursor_version_unsupported"
	CodeBoundaryShapeBad   Code = "cursor_boundary_shape"
	CodeDirectionMismatch  Code = "cursor_direction_mismatch"
	CodeAnchorStale        Code = "cursor_anchor_stale"
	CodePageSizeOutOfRange Code = "page_size_out_of_range"
	CodeCursorWithOffset   Code = "cursor_with_offset"
	CodePaginationUnordered Code = "pagination_requires_order"
	CodeInvariantViolation Code = "invariant_violation"
	CodeRelationViolation  Code = "relation_violation"
	CodeIndexCorruption    Code = "index_corruption"
)

// QueryError is IcyDB's single error type, in the teacher's FormaError
// style: a tagged Kind/Code pair, a human Message, optional Field/Details
// context, and a wrapped Cause for errors.Is/errors.As chains.
type QueryError struct {
	Kind    ErrorKind
	Code    Code
	Message string
	Field   string
	Details map[string]string
	Cause   error
}

func (e *QueryError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("icydb: %s[%s] field=%q: %s", e.Kind, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("icydb: %s[%s]: %s", e.Kind, e.Code, e.Message)
}

func (e *QueryError) Unwrap() error { return e.Cause }

// WithField returns a copy of e with Field set, chain-builder style.
func (e *QueryError) WithField(field string) *QueryError {
	c := *e
	c.Field = field
	return &c
}

// WithDetail returns a copy of e with a Details[key]=value entry added.
func (e *QueryError) WithDetail(key, value string) *QueryError {
	c := *e
	c.Details = make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		c.Details[k] = v
	}
	c.Details[key] = value
	return &c
}

// WithCause returns a copy of e wrapping cause.
func (e *QueryError) WithCause(cause error) *QueryError {
	c := *e
	c.Cause = cause
	return &c
}

func newQueryError(kind ErrorKind, code Code, msg string) *QueryError {
	return &QueryError{Kind: kind, Code: code, Message: msg}
}

func queryErrorf(kind ErrorKind, format string, args ...any) *QueryError {
	return &QueryError{Kind: kind, Code: CodeUnknownField, Message: fmt.Sprintf(format, args...)}
}

// NewValidateError builds a ValidateError with a specific Code.
func NewValidateError(code Code, msg string) *QueryError {
	return newQueryError(ErrValidate, code, msg)
}

// NewPlanError builds a PlanError with a specific Code.
func NewPlanError(code Code, msg string) *QueryError {
	return newQueryError(ErrPlan, code, msg)
}

// NewCursorPlanError builds a CursorPlanError with a specific Code.
func NewCursorPlanError(code Code, msg string) *QueryError {
	return newQueryError(ErrCursorPlan, code, msg)
}

// NewIntentError builds an IntentError with a specific Code.
func NewIntentError(code Code, msg string) *QueryError {
	return newQueryError(ErrIntent, code, msg)
}

// NewInternalError builds an InternalError with a specific Code. Internal
// errors indicate an invariant the kernel itself is supposed to guarantee
// was violated; they are never expected in normal operation.
func NewInternalError(code Code, msg string) *QueryError {
	return newQueryError(ErrInternal, code, msg)
}

// IsKind reports whether err is a *QueryError of the given Kind.
func IsKind(err error, kind ErrorKind) bool {
	qe, ok := err.(*QueryError)
	return ok && qe.Kind == kind
}

// IsCode reports whether err is a *QueryError carrying the given Code.
func IsCode(err error, code Code) bool {
	qe, ok := err.(*QueryError)
	return ok && qe.Code == code
}
