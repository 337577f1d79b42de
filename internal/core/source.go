package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/console/internal/grid"
	"github.com/JonMunkholm/console/internal/grid/engine"
)

// ErrInvalidRevision is returned when a revise value is not allowed for the
// column.
var ErrInvalidRevision = errors.New("invalid value for column")

// Query is one fetch request for a feature grid.
type Query struct {
	PageIndex int
	PageSize  int
	Search    string
	Filters   grid.ColumnFilters
	Sorts     []SortSpec

	// Selected lists selected row ids; the source reports how many of them
	// pass the filters.
	Selected []string
}

// QueryFromState builds a query from the URL-bound grid state.
func QueryFromState(st grid.TableState) Query {
	return Query{
		PageIndex: st.Pagination.PageIndex,
		PageSize:  st.Pagination.PageSize,
		Search:    st.GlobalFilter,
		Filters:   st.ColumnFilters,
	}
}

// Page is one page of rows plus the derived counts the grid needs.
type Page struct {
	Rows  []engine.Row
	Total int

	// Facets maps a faceted column to value counts over the rows that pass
	// every other filter. Columns missing here have no facets.
	Facets map[string]map[string]int

	// SelectedMatching counts Query.Selected ids that pass the filters.
	SelectedMatching int
}

// PageCount returns the number of pages of size pageSize; 0 when empty.
func (p *Page) PageCount(pageSize int) int {
	if p == nil || pageSize <= 0 {
		return 0
	}
	return (p.Total + pageSize - 1) / pageSize
}

// Source fetches and mutates the rows behind feature grids.
type Source interface {
	Fetch(ctx context.Context, f Feature, q Query) (*Page, error)
	Delete(ctx context.Context, f Feature, ids []string) (int, error)
	Revise(ctx context.Context, f Feature, ids []string, column, value string) (int, error)
}

// PageTable adapts a fetched page to grid.Table.
type PageTable struct {
	state grid.TableState
	page  *Page
}

// NewPageTable wraps page for state. page may be nil.
func NewPageTable(state grid.TableState, page *Page) *PageTable {
	if page == nil {
		page = &Page{}
	}
	return &PageTable{state: state, page: page}
}

func (t *PageTable) State() grid.TableState { return t.state }

func (t *PageTable) PageCount() int {
	return t.page.PageCount(t.state.Pagination.PageSize)
}

func (t *PageTable) FilteredSelectedRowCount() int { return t.page.SelectedMatching }

// Rows returns the page's rows.
func (t *PageTable) Rows() []engine.Row { return t.page.Rows }

// Total returns the number of rows passing the filters.
func (t *PageTable) Total() int { return t.page.Total }

func (t *PageTable) Column(id string) (grid.Column, bool) {
	return pageColumn{id: id, facets: t.page.Facets[id]}, true
}

type pageColumn struct {
	id     string
	facets map[string]int
}

func (c pageColumn) FacetedUniqueValues() (map[string]int, error) {
	if c.facets == nil {
		return nil, fmt.Errorf("column %s: %w", c.id, grid.ErrFacetsNotReady)
	}
	return c.facets, nil
}

// validateRevision checks that column may be revised to value.
func validateRevision(f Feature, column, value string) (ColumnSpec, error) {
	col, ok := f.Column(column)
	if !ok {
		return ColumnSpec{}, fmt.Errorf("%w: unknown column %q", ErrInvalidRevision, column)
	}
	var allowed []string
	if fs, ok := f.Filter(column); ok {
		allowed = fs.Values()
	}
	if rv := f.Revise; rv != nil && rv.Column == column && len(rv.Options) > 0 {
		allowed = allowed[:0:0]
		for _, o := range rv.Options {
			allowed = append(allowed, o.Value)
		}
	}
	for _, a := range f.Actions {
		if a.Kind == ActionSet && a.Column == column && a.Value == value {
			return col, nil
		}
	}
	if len(allowed) > 0 && !grid.Values(allowed).Contains(value) {
		return ColumnSpec{}, fmt.Errorf("%w: %q for %s", ErrInvalidRevision, value, column)
	}
	if _, err := parseCell(col.Type, value); err != nil {
		return ColumnSpec{}, fmt.Errorf("%w: %v", ErrInvalidRevision, err)
	}
	return col, nil
}
