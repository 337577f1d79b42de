// Package engine is an in-memory tabular engine: it filters, searches,
// facets, sorts, pages and tracks selection over a slice of rows, driven by
// a grid.TableState.
package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/console/internal/grid"
	"github.com/shopspring/decimal"
)

// Row is one record. ID must be unique within a table.
type Row struct {
	ID     string
	Values map[string]any
}

// Get returns the value of a column.
func (r Row) Get(id string) any {
	return r.Values[id]
}

// FilterFunc reports whether a cell passes a column filter.
type FilterFunc func(cell any, v grid.FilterValue) bool

// ColumnDef declares a column.
type ColumnDef struct {
	ID     string
	Header string

	// Accessor extracts the cell value; defaults to Row.Values[ID].
	Accessor func(Row) any
	// Filter overrides the default filter function.
	Filter FilterFunc

	Searchable bool // included in the global filter
	Faceted    bool // unique values are computed for this column
	Sortable   bool
}

func (c ColumnDef) value(r Row) any {
	if c.Accessor != nil {
		return c.Accessor(r)
	}
	return r.Values[c.ID]
}

func (c ColumnDef) label() string {
	if c.Header != "" {
		return c.Header
	}
	return c.ID
}

// Sort is one sort level.
type Sort struct {
	ColumnID string
	Desc     bool
}

// Header is one rendered column header.
type Header struct {
	ColumnID string
	Label    string
	Sortable bool
	Sorted   string // "", "asc" or "desc"
}

// HeaderGroup is one header row.
type HeaderGroup struct {
	Headers []Header
}

// Table is the engine handle. It is owned by one table instance and is not
// safe for concurrent use.
type Table struct {
	rows      []Row
	cols      []ColumnDef
	state     grid.TableState
	sorting   []Sort
	hidden    map[string]bool
	selection grid.SelectionSet
}

// New creates a table over rows. The initial state shows the first page of
// grid.DefaultPageSize rows.
func New(rows []Row, cols []ColumnDef) *Table {
	return &Table{
		rows:   rows,
		cols:   cols,
		hidden: make(map[string]bool),
		state: grid.TableState{
			Pagination: grid.Pagination{PageSize: grid.DefaultPageSize},
		},
	}
}

// SetData replaces the rows. Selection is kept for ids still present.
func (t *Table) SetData(rows []Row) {
	t.rows = rows
	present := make(map[string]bool, len(rows))
	for _, r := range rows {
		present[r.ID] = true
	}
	for _, id := range t.selection.IDs() {
		if !present[id] {
			t.selection.Set(id, false)
		}
	}
}

// State returns the current state.
func (t *Table) State() grid.TableState { return t.state }

// SetState replaces the URL-bound state.
func (t *Table) SetState(st grid.TableState) {
	if st.Pagination.PageSize <= 0 {
		st.Pagination.PageSize = grid.DefaultPageSize
	}
	t.state = st
}

// SetPageIndex moves to a page.
func (t *Table) SetPageIndex(i int) {
	t.state.Pagination.PageIndex = max(i, 0)
}

// SetSorting replaces the local sort order.
func (t *Table) SetSorting(s ...Sort) { t.sorting = s }

// Sorting returns the local sort order.
func (t *Table) Sorting() []Sort { return t.sorting }

// SetColumnVisibility shows or hides a column.
func (t *Table) SetColumnVisibility(id string, visible bool) {
	if visible {
		delete(t.hidden, id)
	} else {
		t.hidden[id] = true
	}
}

// VisibleColumns returns the columns that are not hidden.
func (t *Table) VisibleColumns() []ColumnDef {
	var out []ColumnDef
	for _, c := range t.cols {
		if !t.hidden[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// HeaderGroups returns a single header row for the visible columns.
func (t *Table) HeaderGroups() []HeaderGroup {
	var g HeaderGroup
	for _, c := range t.VisibleColumns() {
		h := Header{ColumnID: c.ID, Label: c.label(), Sortable: c.Sortable}
		for _, s := range t.sorting {
			if s.ColumnID == c.ID {
				h.Sorted = "asc"
				if s.Desc {
					h.Sorted = "desc"
				}
			}
		}
		g.Headers = append(g.Headers, h)
	}
	return []HeaderGroup{g}
}

func (t *Table) column(id string) (ColumnDef, bool) {
	for _, c := range t.cols {
		if c.ID == id {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// filterRows applies the global filter and every column filter except skip.
func (t *Table) filterRows(skip string) []Row {
	query := grid.Fold(strings.TrimSpace(t.state.GlobalFilter))
	searchCols := t.searchColumns()

	var out []Row
	for _, r := range t.rows {
		if query != "" && !t.matchesGlobal(r, searchCols, query) {
			continue
		}
		if !t.matchesColumns(r, skip) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (t *Table) searchColumns() []ColumnDef {
	var out []ColumnDef
	for _, c := range t.cols {
		if c.Searchable {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return t.cols
	}
	return out
}

func (t *Table) matchesGlobal(r Row, cols []ColumnDef, folded string) bool {
	for _, c := range cols {
		if strings.Contains(grid.Fold(CellString(c.value(r))), folded) {
			return true
		}
	}
	return false
}

func (t *Table) matchesColumns(r Row, skip string) bool {
	for _, f := range t.state.ColumnFilters {
		if f.ID == skip {
			continue
		}
		c, ok := t.column(f.ID)
		if !ok {
			continue
		}
		fn := c.Filter
		if fn == nil {
			fn = DefaultFilter
		}
		if !fn(c.value(r), f.Value) {
			return false
		}
	}
	return true
}

// FilteredRowModel returns every row passing the filters, sorted.
func (t *Table) FilteredRowModel() []Row {
	rows := t.filterRows("")
	t.sortRows(rows)
	return rows
}

// RowModel returns the rows of the current page.
func (t *Table) RowModel() []Row {
	rows := t.FilteredRowModel()
	size := t.state.Pagination.PageSize
	start := t.state.Pagination.PageIndex * size
	if start >= len(rows) {
		return nil
	}
	end := min(start+size, len(rows))
	return rows[start:end]
}

// RowCount returns the number of filtered rows.
func (t *Table) RowCount() int {
	return len(t.filterRows(""))
}

// PageCount returns the number of pages of filtered rows; 0 when nothing
// matches.
func (t *Table) PageCount() int {
	size := t.state.Pagination.PageSize
	if size <= 0 {
		return 0
	}
	n := t.RowCount()
	return (n + size - 1) / size
}

// Column returns a handle to a column's derived data.
func (t *Table) Column(id string) (grid.Column, bool) {
	c, ok := t.column(id)
	if !ok {
		return nil, false
	}
	return columnHandle{t: t, def: c}, true
}

type columnHandle struct {
	t   *Table
	def ColumnDef
}

// FacetedUniqueValues counts distinct values over the rows that pass every
// other filter, so sibling filters narrow the counts.
func (c columnHandle) FacetedUniqueValues() (map[string]int, error) {
	if !c.def.Faceted {
		return nil, fmt.Errorf("column %s: %w", c.def.ID, grid.ErrFacetsNotReady)
	}
	counts := make(map[string]int)
	for _, r := range c.t.filterRows(c.def.ID) {
		switch v := c.def.value(r).(type) {
		case []string:
			for _, s := range v {
				counts[s]++
			}
		default:
			if s := CellString(v); s != "" {
				counts[s]++
			}
		}
	}
	return counts, nil
}

// ToggleRowSelected selects or deselects a row.
func (t *Table) ToggleRowSelected(id string, selected bool) {
	t.selection.Set(id, selected)
}

// IsRowSelected reports whether a row is selected.
func (t *Table) IsRowSelected(id string) bool {
	return t.selection.Has(id)
}

// ToggleAllPageRowsSelected selects or deselects every row on the page.
func (t *Table) ToggleAllPageRowsSelected(selected bool) {
	for _, r := range t.RowModel() {
		t.selection.Set(r.ID, selected)
	}
}

// ResetRowSelection clears the selection.
func (t *Table) ResetRowSelection() { t.selection.Clear() }

// Selection returns the table's selection set.
func (t *Table) Selection() *grid.SelectionSet { return &t.selection }

// FilteredSelectedRowModel returns selected rows that pass the filters.
func (t *Table) FilteredSelectedRowModel() []Row {
	var out []Row
	for _, r := range t.FilteredRowModel() {
		if t.selection.Has(r.ID) {
			out = append(out, r)
		}
	}
	return out
}

// FilteredSelectedRowCount returns len(FilteredSelectedRowModel()).
func (t *Table) FilteredSelectedRowCount() int {
	return len(t.FilteredSelectedRowModel())
}

func (t *Table) sortRows(rows []Row) {
	if len(t.sorting) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, s := range t.sorting {
			c, ok := t.column(s.ColumnID)
			if !ok {
				continue
			}
			cmp := compare(c.value(rows[i]), c.value(rows[j]))
			if cmp == 0 {
				continue
			}
			if s.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// DefaultFilter matches multi-select values by equality (any element for
// list cells), text by case-insensitive substring and date ranges by
// inclusive day bounds.
func DefaultFilter(cell any, v grid.FilterValue) bool {
	switch fv := v.(type) {
	case grid.Values:
		if list, ok := cell.([]string); ok {
			for _, s := range list {
				if fv.Contains(s) {
					return true
				}
			}
			return false
		}
		return fv.Contains(CellString(cell))
	case grid.Text:
		needle := grid.Fold(strings.TrimSpace(string(fv)))
		return strings.Contains(grid.Fold(CellString(cell)), needle)
	case grid.DateRange:
		t, ok := cellTime(cell)
		return ok && fv.Contains(t)
	}
	return true
}

// CellString renders a cell value as plain text.
func CellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return grid.FormatDate(val)
	case decimal.Decimal:
		return val.StringFixed(2)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func cellTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, !val.IsZero()
	case string:
		t, err := grid.ParseDate(val)
		return t, err == nil
	}
	return time.Time{}, false
}

func compare(a, b any) int {
	switch x := a.(type) {
	case int:
		if y, ok := b.(int); ok {
			return cmpOrdered(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmpOrdered(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmpOrdered(x, y)
		}
	case decimal.Decimal:
		if y, ok := b.(decimal.Decimal); ok {
			return x.Cmp(y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(grid.Fold(CellString(a)), grid.Fold(CellString(b)))
}

func cmpOrdered[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
