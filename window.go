package icydb

// Window tracks the offset/limit bookkeeping of a single page: how many
// already-passed-the-cursor rows still need to be skipped before the page
// starts, and how many more rows the page may still emit. It knows nothing
// about cursor boundaries; CursorSpine (cursorspine.go) owns that half of
// WindowCursorContract (spec §3, §4.4.4). Splitting the two lets each be
// tested independently, matching original_source's separation between
// executor/window.rs and executor/cursor/spine.rs.
type Window struct {
	skip      int
	remaining int
	unbounded bool
}

// NewWindow builds a Window that skips initialOffset admitted rows, then
// emits up to pageSize rows. pageSize <= 0 means unbounded (used by
// non-paginated terminals like execute_all under a caller-enforced scan
// budget rather than a page size).
func NewWindow(initialOffset, pageSize int) *Window {
	if pageSize <= 0 {
		return &Window{skip: initialOffset, unbounded: true}
	}
	return &Window{skip: initialOffset, remaining: pageSize}
}

// Admit reports whether the current row (already past the cursor spine)
// counts toward the emitted page, consuming either a skip slot or a
// remaining-capacity slot. Call Full() after a false return to distinguish
// "still skipping" from "page full".
func (w *Window) Admit() bool {
	if w.skip > 0 {
		w.skip--
		return false
	}
	if w.unbounded {
		return true
	}
	if w.remaining == 0 {
		return false
	}
	w.remaining--
	return true
}

// Full reports whether the page has emitted its full capacity and the scan
// may stop (the executor still needs one more admitted-but-unconsumed row
// to build the "has more" / next-cursor signal, per spec's L+1 trick).
func (w *Window) Full() bool {
	return !w.unbounded && w.skip == 0 && w.remaining == 0
}
