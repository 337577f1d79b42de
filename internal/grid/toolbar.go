package grid

import (
	"errors"
	"log/slog"
)

// FilterConfig declares one faceted filter of a toolbar.
type FilterConfig struct {
	ColumnID        string
	Title           string
	Options         []Option
	Categories      []CategoryItem
	UseCategoryTree bool
	Single          bool
}

// DateRangeConfig declares the toolbar's date-range picker. When ColumnID
// is empty the range is held by the toolbar instance only.
type DateRangeConfig struct {
	ColumnID string
	Title    string
}

// BulkReviseConfig declares the toolbar's bulk-revise button.
type BulkReviseConfig struct {
	Label    string
	ActionID string
}

// ToolbarConfig is a feature's declarative toolbar.
type ToolbarConfig struct {
	// SearchKey binds the search box to a column; empty binds it to the
	// table's global filter.
	SearchKey         string
	SearchPlaceholder string
	Filters           []FilterConfig
	DateRange         *DateRangeConfig
	BulkRevise        *BulkReviseConfig
}

// SearchView is the render model of the search box.
type SearchView struct {
	ColumnID    string
	Global      bool
	Value       string
	Placeholder string
}

// DateRangeView is the render model of the date-range picker.
type DateRangeView struct {
	ColumnID  string
	Title     string
	From      string
	To        string
	Active    bool
	ClearHref string
}

// BulkReviseView is the render model of the bulk-revise button.
type BulkReviseView struct {
	Label    string
	ActionID string
	Enabled  bool
}

// ToolbarView is the render model of a whole toolbar row.
type ToolbarView struct {
	Search     SearchView
	Filters    []FacetedFilterView
	DateRange  *DateRangeView
	BulkRevise *BulkReviseView
	ShowReset  bool
	ResetHref  string
}

// Toolbar composes search, faceted filters, date range, bulk revise and
// reset into one row.
type Toolbar struct {
	cfg        ToolbarConfig
	localRange DateRange

	// OnFilterChange runs after every committed filter change made through
	// the toolbar or its filters.
	OnFilterChange func()
}

// NewToolbar creates a toolbar for cfg.
func NewToolbar(cfg ToolbarConfig) *Toolbar {
	return &Toolbar{cfg: cfg}
}

// Config returns the toolbar's configuration.
func (t *Toolbar) Config() ToolbarConfig { return t.cfg }

// FacetedFilter returns the flat filter declared for a column.
func (t *Toolbar) FacetedFilter(id string) (FacetedFilter, bool) {
	for _, fc := range t.cfg.Filters {
		if fc.ColumnID == id && !fc.UseCategoryTree {
			return FacetedFilter{
				ColumnID:       fc.ColumnID,
				Title:          fc.Title,
				Options:        fc.Options,
				Single:         fc.Single,
				OnFilterChange: t.OnFilterChange,
			}, true
		}
	}
	return FacetedFilter{}, false
}

// TreeFilter returns the tree filter declared for a column.
func (t *Toolbar) TreeFilter(id string) (TreeFilter, bool) {
	for _, fc := range t.cfg.Filters {
		if fc.ColumnID == id && fc.UseCategoryTree {
			return TreeFilter{
				ColumnID:       fc.ColumnID,
				Title:          fc.Title,
				Categories:     fc.Categories,
				OnFilterChange: t.OnFilterChange,
			}, true
		}
	}
	return TreeFilter{}, false
}

// DateRange returns the active date range, whether column-bound or local.
func (t *Toolbar) DateRange(st TableState) DateRange {
	dr := t.cfg.DateRange
	if dr == nil {
		return DateRange{}
	}
	if dr.ColumnID == "" {
		return t.localRange
	}
	if v, ok := st.ColumnFilters.Get(dr.ColumnID); ok {
		if r, ok := v.(DateRange); ok {
			return r
		}
	}
	return DateRange{}
}

// IsFiltered reports whether the reset action should be offered.
func (t *Toolbar) IsFiltered(st TableState) bool {
	return st.IsFiltered() || !t.DateRange(st).IsEmpty()
}

// View builds the toolbar's render model. searches holds the text typed in
// each filter's search-within-options box, keyed by column id.
func (t *Toolbar) View(table Table, link Linker, searches map[string]string) ToolbarView {
	st := table.State()
	v := ToolbarView{
		Search: t.searchView(st),
	}

	for _, fc := range t.cfg.Filters {
		facets, ok := columnFacets(table, fc.ColumnID)
		if !ok {
			continue
		}
		if fc.UseCategoryTree {
			f, _ := t.TreeFilter(fc.ColumnID)
			v.Filters = append(v.Filters, f.View(st, facets, searches[fc.ColumnID], link))
		} else {
			f, _ := t.FacetedFilter(fc.ColumnID)
			v.Filters = append(v.Filters, f.View(st, facets, searches[fc.ColumnID], link))
		}
	}

	if dr := t.cfg.DateRange; dr != nil {
		r := t.DateRange(st)
		drv := &DateRangeView{
			ColumnID: dr.ColumnID,
			Title:    dr.Title,
			From:     FormatDate(r.From),
			Active:   !r.IsEmpty(),
		}
		if r.HasTo {
			drv.To = FormatDate(r.To)
		}
		if drv.Active && dr.ColumnID != "" && link != nil {
			col := dr.ColumnID
			drv.ClearHref = link(func(tx *Tx) { tx.SetColumnFilter(col, nil) })
		}
		v.DateRange = drv
	}

	if br := t.cfg.BulkRevise; br != nil {
		v.BulkRevise = &BulkReviseView{
			Label:    br.Label,
			ActionID: br.ActionID,
			Enabled:  table.FilteredSelectedRowCount() > 0,
		}
	}

	v.ShowReset = t.IsFiltered(st)
	if v.ShowReset && link != nil {
		v.ResetHref = link(resetLink)
	}
	return v
}

func (t *Toolbar) searchView(st TableState) SearchView {
	sv := SearchView{
		ColumnID:    t.cfg.SearchKey,
		Global:      t.cfg.SearchKey == "",
		Placeholder: t.cfg.SearchPlaceholder,
	}
	if sv.Global {
		sv.Value = st.GlobalFilter
		return sv
	}
	if val, ok := st.ColumnFilters.Get(t.cfg.SearchKey); ok {
		if txt, ok := val.(Text); ok {
			sv.Value = string(txt)
		}
	}
	return sv
}

// columnFacets reads a column's facets. Columns that are missing or not yet
// faceted are skipped rather than failing the toolbar.
func columnFacets(table Table, id string) (facets map[string]int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("grid: facet computation panicked, filter omitted", "column", id, "panic", r)
			facets, ok = nil, false
		}
	}()
	col, found := table.Column(id)
	if !found {
		slog.Debug("grid: filter column not found, filter omitted", "column", id)
		return nil, false
	}
	facets, err := col.FacetedUniqueValues()
	if err != nil {
		if !errors.Is(err, ErrFacetsNotReady) {
			slog.Debug("grid: facet error, filter omitted", "column", id, "error", err)
		}
		return nil, false
	}
	return facets, true
}

func resetLink(tx *Tx) {
	tx.ResetColumnFilters()
	tx.SetGlobalFilter("")
}

// SetSearch writes the search box's text and commits.
func (t *Toolbar) SetSearch(w StateWriter, text string) {
	if t.cfg.SearchKey == "" {
		w.SetGlobalFilter(text)
	} else {
		w.SetColumnFilter(t.cfg.SearchKey, Text(text))
	}
	w.Commit()
	t.changed()
}

// SetDateRange writes the picked range. A column-bound range becomes that
// column's filter; otherwise it is kept on the toolbar.
func (t *Toolbar) SetDateRange(w FilterCommitter, r DateRange) {
	dr := t.cfg.DateRange
	if dr == nil {
		return
	}
	if dr.ColumnID == "" {
		t.localRange = r
	} else {
		w.SetColumnFilter(dr.ColumnID, r)
		w.Commit()
	}
	t.changed()
}

// Reset clears every column filter, the global search and the date range in
// one commit.
func (t *Toolbar) Reset(w StateWriter) {
	w.ResetColumnFilters()
	w.SetGlobalFilter("")
	t.localRange = DateRange{}
	w.Commit()
	t.changed()
}

func (t *Toolbar) changed() {
	if t.OnFilterChange != nil {
		t.OnFilterChange()
	}
}
