package grid

import "log/slog"

// PageWriter is the part of a Binder the reconciler needs.
type PageWriter interface {
	State() TableState
	SetPageIndex(i int)
	Commit() bool
}

// Reconciler moves the current page back into range when filtering shrinks
// the number of pages.
type Reconciler struct {
	w          PageWriter
	correcting bool
}

// NewReconciler creates a reconciler writing through w.
func NewReconciler(w PageWriter) *Reconciler {
	return &Reconciler{w: w}
}

// EnsurePageInRange navigates to the last valid page when the current page
// index is past effectivePageCount. An empty result (count 0) leaves the
// page untouched. Calls made while the corrective write is in progress are
// ignored, so a navigator that re-evaluates synchronously cannot loop.
// Reports whether a navigation was issued.
func (r *Reconciler) EnsurePageInRange(effectivePageCount int) bool {
	if r.correcting || effectivePageCount <= 0 {
		return false
	}
	idx := r.w.State().Pagination.PageIndex
	if idx < effectivePageCount {
		return false
	}

	r.correcting = true
	defer func() { r.correcting = false }()

	last := effectivePageCount - 1
	r.w.SetPageIndex(last)
	moved := r.w.Commit()
	if moved {
		slog.Debug("grid: page out of range, corrected",
			"page_index", idx,
			"page_count", effectivePageCount,
			"corrected_to", last,
		)
	}
	return moved
}
