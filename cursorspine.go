package icydb

// CursorSpine is the other half of WindowCursorContract: it decides
// whether a candidate row lies strictly past a continuation token's
// boundary tuple in the scan's current direction, independent of the
// Window's skip/remaining bookkeeping (window.go).
type CursorSpine struct {
	boundary  CursorBoundary
	direction CursorDirection
	active    bool
}

// NewCursorSpine builds a spine from a decoded (and already validated)
// boundary. A nil/empty boundary means "resume from the very start" and
// Admit always returns true.
func NewCursorSpine(boundary CursorBoundary, direction CursorDirection) *CursorSpine {
	return &CursorSpine{boundary: boundary, direction: direction, active: len(boundary) > 0}
}

// Admit reports whether row (given as field -> Value for exactly the
// boundary's fields) lies strictly past the boundary tuple in the scan
// direction. Rows equal to the boundary tuple are never re-admitted: the
// boundary marks the last row the caller already saw.
func (s *CursorSpine) Admit(row map[string]Value) (bool, error) {
	if !s.active {
		return true, nil
	}
	cmp, err := s.compareToBoundary(row)
	if err != nil {
		return false, err
	}
	if s.direction == CursorForward {
		return cmp > 0, nil
	}
	return cmp < 0, nil
}

// compareToBoundary lexicographically compares row's projection onto the
// boundary's fields against the boundary tuple itself, under
// CanonicalCompare.
func (s *CursorSpine) compareToBoundary(row map[string]Value) (int, error) {
	for _, slot := range s.boundary {
		v, ok := row[slot.Field]
		if !ok {
			return 0, NewInternalError(CodeInvariantViolation, "cursor spine row missing boundary field "+slot.Field)
		}
		if c := CanonicalCompare(v, slot.Value); c != 0 {
			return c, nil
		}
	}
	return 0, nil
}
