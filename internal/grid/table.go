package grid

import "errors"

// ErrFacetsNotReady is returned by Column.FacetedUniqueValues when the
// engine has not computed unique values for the column.
var ErrFacetsNotReady = errors.New("grid: faceted values not ready")

// Table is the slice of a tabular engine the grid controls depend on.
type Table interface {
	State() TableState
	PageCount() int
	Column(id string) (Column, bool)
	FilteredSelectedRowCount() int
}

// Column exposes per-column derived data.
type Column interface {
	// FacetedUniqueValues maps each distinct value to its occurrence count
	// in the row set filtered by every other active filter.
	FacetedUniqueValues() (map[string]int, error)
}

// Linker renders the link a staged change would navigate to.
type Linker func(fn func(tx *Tx)) string

// FilterCommitter writes column filters through to the URL.
// Satisfied by *Binder.
type FilterCommitter interface {
	ColumnFilter(id string) (FilterValue, bool)
	SetColumnFilter(id string, v FilterValue)
	Commit() bool
}

// StateWriter is a FilterCommitter that can also reset the global search.
// Satisfied by *Binder.
type StateWriter interface {
	FilterCommitter
	SetGlobalFilter(s string)
	ResetColumnFilters()
}
