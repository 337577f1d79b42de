// Package grid holds the table-state and filtering model shared by every
// console data grid.
//
// The URL query string is the source of truth for shareable state
// (pagination, global search, column filters). A [Binder] decodes it into a
// [TableState] and writes changes back as a single history-replacing
// navigation. Row selection, sorting and column visibility are owned by the
// table instance and never reach the URL.
package grid

import (
	"strings"
	"time"
)

// Pagination is the zero-based page position of a table.
type Pagination struct {
	PageIndex int
	PageSize  int
}

// FilterValue is the value of a single column filter.
// Implementations: Text, Values, DateRange.
type FilterValue interface {
	IsEmpty() bool
	filterValue()
}

// Text is a free-text or single scalar filter.
type Text string

func (t Text) IsEmpty() bool { return strings.TrimSpace(string(t)) == "" }
func (Text) filterValue()    {}

// Values is a multi-select filter, matched as OR-of-equality.
type Values []string

func (v Values) IsEmpty() bool { return len(v) == 0 }
func (Values) filterValue()    {}

// Contains reports whether s is one of the selected values.
func (v Values) Contains(s string) bool {
	for _, x := range v {
		if x == s {
			return true
		}
	}
	return false
}

// DateRange is an inclusive day range. To is optional; a range without To
// covers the From day only.
type DateRange struct {
	From  time.Time
	To    time.Time
	HasTo bool
}

func (r DateRange) IsEmpty() bool { return r.From.IsZero() }
func (DateRange) filterValue()    {}

// Start returns the first instant of the range (start of the From day).
func (r DateRange) Start() time.Time {
	return startOfDay(r.From)
}

// End returns the last instant of the range (end of the To day, or of the
// From day when To is unset).
func (r DateRange) End() time.Time {
	if r.HasTo && !r.To.IsZero() {
		return endOfDay(r.To)
	}
	return endOfDay(r.From)
}

// Contains reports whether t falls within the range, boundaries included.
func (r DateRange) Contains(t time.Time) bool {
	if r.IsEmpty() || t.IsZero() {
		return false
	}
	return !t.Before(r.Start()) && !t.After(r.End())
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// ColumnFilter binds a filter value to a column.
type ColumnFilter struct {
	ID    string
	Value FilterValue
}

// ColumnFilters is an ordered list holding at most one entry per column.
type ColumnFilters []ColumnFilter

// Get returns the filter value for a column.
func (cf ColumnFilters) Get(id string) (FilterValue, bool) {
	for _, f := range cf {
		if f.ID == id {
			return f.Value, true
		}
	}
	return nil, false
}

// With returns a copy where the column's entry is replaced in place (or
// appended). An empty or nil value removes the entry.
func (cf ColumnFilters) With(id string, v FilterValue) ColumnFilters {
	if v == nil || v.IsEmpty() {
		return cf.Without(id)
	}
	out := make(ColumnFilters, 0, len(cf)+1)
	replaced := false
	for _, f := range cf {
		if f.ID == id {
			out = append(out, ColumnFilter{ID: id, Value: v})
			replaced = true
			continue
		}
		out = append(out, f)
	}
	if !replaced {
		out = append(out, ColumnFilter{ID: id, Value: v})
	}
	return out
}

// Without returns a copy with the column's entry removed.
func (cf ColumnFilters) Without(id string) ColumnFilters {
	out := make(ColumnFilters, 0, len(cf))
	for _, f := range cf {
		if f.ID != id {
			out = append(out, f)
		}
	}
	return out
}

// TableState is the URL-bound part of a table's state.
type TableState struct {
	Pagination    Pagination
	GlobalFilter  string
	ColumnFilters ColumnFilters
}

// IsFiltered reports whether a global search or any column filter is active.
func (s TableState) IsFiltered() bool {
	return strings.TrimSpace(s.GlobalFilter) != "" || len(s.ColumnFilters) > 0
}

// SelectionSet is the set of selected row ids, in selection order.
// The zero value is empty and ready to use.
type SelectionSet struct {
	ids   []string
	index map[string]struct{}
}

// Has reports whether id is selected.
func (s *SelectionSet) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Set selects or deselects id.
func (s *SelectionSet) Set(id string, selected bool) {
	if selected {
		if s.Has(id) {
			return
		}
		if s.index == nil {
			s.index = make(map[string]struct{})
		}
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
		return
	}
	if !s.Has(id) {
		return
	}
	delete(s.index, id)
	for i, x := range s.ids {
		if x == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
}

// Toggle flips the selection of id and returns the new state.
func (s *SelectionSet) Toggle(id string) bool {
	next := !s.Has(id)
	s.Set(id, next)
	return next
}

// IDs returns the selected ids in selection order.
func (s *SelectionSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of selected rows.
func (s *SelectionSet) Len() int { return len(s.ids) }

// Clear deselects every row.
func (s *SelectionSet) Clear() {
	s.ids = nil
	s.index = nil
}
