package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/JonMunkholm/console/internal/grid"
	"github.com/JonMunkholm/console/internal/grid/engine"
	"github.com/shopspring/decimal"
)

// MemorySource keeps each feature's rows in memory and evaluates queries
// with the in-memory grid engine. Used for demos and tests, and whenever no
// database is configured.
type MemorySource struct {
	mu   sync.RWMutex
	rows map[string][]engine.Row
}

// NewMemorySource creates an empty source.
func NewMemorySource() *MemorySource {
	return &MemorySource{rows: make(map[string][]engine.Row)}
}

// NewSeededMemorySource creates a source with deterministic rows for every
// feature.
func NewSeededMemorySource(features []Feature, seed uint64) *MemorySource {
	s := NewMemorySource()
	for _, f := range features {
		s.rows[f.Key] = SeedRows(f, f.SeedRows, seed)
	}
	return s
}

// Put replaces a feature's rows.
func (s *MemorySource) Put(featureKey string, rows []engine.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[featureKey] = rows
}

// Len returns a feature's row count.
func (s *MemorySource) Len(featureKey string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows[featureKey])
}

// Columns converts a feature's column specs to engine columns.
func Columns(f Feature) []engine.ColumnDef {
	cols := make([]engine.ColumnDef, len(f.Columns))
	for i, c := range f.Columns {
		cols[i] = engine.ColumnDef{
			ID:         c.ID,
			Header:     c.Label,
			Searchable: c.Searchable,
			Faceted:    c.Faceted,
			Sortable:   c.Sortable,
		}
	}
	return cols
}

func (s *MemorySource) Fetch(ctx context.Context, f Feature, q Query) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	rows := append([]engine.Row(nil), s.rows[f.Key]...)
	s.mu.RUnlock()

	t := engine.New(rows, Columns(f))
	t.SetState(grid.TableState{
		Pagination:    grid.Pagination{PageIndex: q.PageIndex, PageSize: q.PageSize},
		GlobalFilter:  q.Search,
		ColumnFilters: q.Filters,
	})
	sorts := make([]engine.Sort, len(q.Sorts))
	for i, so := range q.Sorts {
		sorts[i] = engine.Sort{ColumnID: so.Column, Desc: so.Desc()}
	}
	t.SetSorting(sorts...)
	for _, id := range q.Selected {
		t.ToggleRowSelected(id, true)
	}

	page := &Page{
		Rows:             t.RowModel(),
		Total:            t.RowCount(),
		Facets:           make(map[string]map[string]int),
		SelectedMatching: t.FilteredSelectedRowCount(),
	}
	for _, fs := range f.Filters {
		col, ok := t.Column(fs.Column)
		if !ok {
			continue
		}
		facets, err := col.FacetedUniqueValues()
		if err != nil {
			continue
		}
		page.Facets[fs.Column] = facets
	}
	return page, nil
}

func (s *MemorySource) Delete(ctx context.Context, f Feature, ids []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rows[f.Key]
	kept := rows[:0:0]
	for _, r := range rows {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	s.rows[f.Key] = kept
	return len(rows) - len(kept), nil
}

func (s *MemorySource) Revise(ctx context.Context, f Feature, ids []string, column, value string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	col, err := validateRevision(f, column, value)
	if err != nil {
		return 0, err
	}
	v, err := parseCell(col.Type, value)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRevision, err)
	}

	target := make(map[string]bool, len(ids))
	for _, id := range ids {
		target[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rows[f.Key]
	next := make([]engine.Row, len(rows))
	n := 0
	for i, r := range rows {
		if !target[r.ID] {
			next[i] = r
			continue
		}
		// copy so pages already handed out stay unchanged
		vals := make(map[string]any, len(r.Values))
		for k, x := range r.Values {
			vals[k] = x
		}
		vals[column] = v
		next[i] = engine.Row{ID: r.ID, Values: vals}
		n++
	}
	s.rows[f.Key] = next
	return n, nil
}

// parseCell converts user input to a cell value of the given type.
func parseCell(t ColumnType, s string) (any, error) {
	switch t {
	case ColumnDate:
		d, err := grid.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q", s)
		}
		return d, nil
	case ColumnMoney:
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", s)
		}
		return d, nil
	case ColumnNumber:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", s)
		}
		return n, nil
	case ColumnTags:
		var tags []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				tags = append(tags, p)
			}
		}
		return tags, nil
	}
	return s, nil
}
