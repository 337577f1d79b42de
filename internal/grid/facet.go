package grid

import (
	"strings"

	"golang.org/x/text/cases"
)

// Option is one selectable value of a faceted filter.
type Option struct {
	Label string `toml:"label"`
	Value string `toml:"value"`
	Icon  string `toml:"icon"`
}

// CategoryItem is a node of a hierarchical filter.
type CategoryItem struct {
	Label    string         `toml:"label"`
	Value    string         `toml:"value"`
	Children []CategoryItem `toml:"children"`
}

// Closure returns the node's value followed by every descendant's value.
func (c CategoryItem) Closure() []string {
	out := []string{c.Value}
	for _, ch := range c.Children {
		out = append(out, ch.Closure()...)
	}
	return out
}

// FlatCategory is a CategoryItem positioned in a flattened forest.
type FlatCategory struct {
	CategoryItem
	Depth int
}

// FlattenCategories returns every node of the forest in pre-order.
func FlattenCategories(items []CategoryItem) []FlatCategory {
	var out []FlatCategory
	var walk func(items []CategoryItem, depth int)
	walk = func(items []CategoryItem, depth int) {
		for _, it := range items {
			out = append(out, FlatCategory{CategoryItem: it, Depth: depth})
			walk(it.Children, depth+1)
		}
	}
	walk(items, 0)
	return out
}

// OptionView is a rendered option row.
type OptionView struct {
	Option
	Depth    int
	Selected bool
	Count    int
	HasCount bool
	Href     string
}

// FacetedFilterView is the render model of a flat or tree filter.
type FacetedFilterView struct {
	ColumnID      string
	Title         string
	Tree          bool
	Single        bool
	Search        string
	Options       []OptionView
	SelectedCount int
	Summary       []string
	ShowClear     bool
	ClearHref     string
}

// summaryLimit is the number of selected labels shown inline on the trigger
// before collapsing to a count.
const summaryLimit = 2

// selectedValues reads a filter value as a multi-select list.
func selectedValues(v FilterValue, ok bool) Values {
	if !ok || v == nil {
		return nil
	}
	switch val := v.(type) {
	case Values:
		return val
	case Text:
		if val.IsEmpty() {
			return nil
		}
		return Values{string(val)}
	}
	return nil
}

// toggleValue toggles membership. In single-select mode the selected value
// is cleared when picked again and replaced wholesale otherwise.
func toggleValue(cur Values, value string, single bool) Values {
	if single {
		if cur.Contains(value) {
			return nil
		}
		return Values{value}
	}
	if cur.Contains(value) {
		next := make(Values, 0, len(cur)-1)
		for _, v := range cur {
			if v != value {
				next = append(next, v)
			}
		}
		return next
	}
	next := make(Values, 0, len(cur)+1)
	next = append(next, cur...)
	return append(next, value)
}

// FacetedFilter is a flat list of options for one column.
type FacetedFilter struct {
	ColumnID string
	Title    string
	Options  []Option
	Single   bool

	// OnFilterChange runs once per Select/Clear, after the commit.
	OnFilterChange func()
}

// Selected returns the column's current selection.
func (f FacetedFilter) Selected(st TableState) Values {
	return selectedValues(st.ColumnFilters.Get(f.ColumnID))
}

// Next returns the column's value after value is picked.
func (f FacetedFilter) Next(cur Values, value string) Values {
	return toggleValue(cur, value, f.Single)
}

// Select picks value and commits.
func (f FacetedFilter) Select(w FilterCommitter, value string) {
	next := f.Next(selectedValues(w.ColumnFilter(f.ColumnID)), value)
	commitFilter(w, f.ColumnID, next, f.OnFilterChange)
}

// Clear removes the column's filter and commits.
func (f FacetedFilter) Clear(w FilterCommitter) {
	commitFilter(w, f.ColumnID, nil, f.OnFilterChange)
}

func commitFilter(w FilterCommitter, id string, v Values, onChange func()) {
	if len(v) == 0 {
		w.SetColumnFilter(id, nil)
	} else {
		w.SetColumnFilter(id, v)
	}
	w.Commit()
	if onChange != nil {
		onChange()
	}
}

// View builds the render model. facets may be nil; search narrows the
// option list by label.
func (f FacetedFilter) View(st TableState, facets map[string]int, search string, link Linker) FacetedFilterView {
	sel := f.Selected(st)
	v := FacetedFilterView{
		ColumnID:      f.ColumnID,
		Title:         f.Title,
		Single:        f.Single,
		Search:        search,
		SelectedCount: len(sel),
		ShowClear:     len(sel) > 0,
	}
	for _, o := range f.Options {
		if sel.Contains(o.Value) {
			v.Summary = append(v.Summary, o.Label)
		}
		if !matchesSearch(o.Label, search) {
			continue
		}
		ov := OptionView{Option: o, Selected: sel.Contains(o.Value)}
		if n, ok := facets[o.Value]; ok {
			ov.Count, ov.HasCount = n, true
		}
		if link != nil {
			ov.Href = link(toggleLink(f.ColumnID, o.Value, f.Single))
		}
		v.Options = append(v.Options, ov)
	}
	v.Summary = collapseSummary(v.Summary, v.SelectedCount)
	if link != nil && v.ShowClear {
		v.ClearHref = link(clearLink(f.ColumnID))
	}
	return v
}

// TreeFilter is a hierarchical filter. Picking a node toggles that node's
// own value only; parents and children are independent.
type TreeFilter struct {
	ColumnID   string
	Title      string
	Categories []CategoryItem

	OnFilterChange func()
}

// Selected returns the column's current selection.
func (f TreeFilter) Selected(st TableState) Values {
	return selectedValues(st.ColumnFilters.Get(f.ColumnID))
}

// SelectedCount counts the nodes of the flattened forest that are selected.
func (f TreeFilter) SelectedCount(st TableState) int {
	sel := f.Selected(st)
	n := 0
	for _, c := range FlattenCategories(f.Categories) {
		if sel.Contains(c.Value) {
			n++
		}
	}
	return n
}

// Select toggles value and commits.
func (f TreeFilter) Select(w FilterCommitter, value string) {
	next := toggleValue(selectedValues(w.ColumnFilter(f.ColumnID)), value, false)
	commitFilter(w, f.ColumnID, next, f.OnFilterChange)
}

// Clear removes the column's filter and commits.
func (f TreeFilter) Clear(w FilterCommitter) {
	commitFilter(w, f.ColumnID, nil, f.OnFilterChange)
}

// View builds the render model. A node's count is the sum of the facet
// counts over its closure.
func (f TreeFilter) View(st TableState, facets map[string]int, search string, link Linker) FacetedFilterView {
	sel := f.Selected(st)
	v := FacetedFilterView{
		ColumnID:      f.ColumnID,
		Title:         f.Title,
		Tree:          true,
		Search:        search,
		SelectedCount: f.SelectedCount(st),
	}
	v.ShowClear = v.SelectedCount > 0
	for _, c := range FlattenCategories(f.Categories) {
		if sel.Contains(c.Value) {
			v.Summary = append(v.Summary, c.Label)
		}
		if !matchesSearch(c.Label, search) {
			continue
		}
		ov := OptionView{
			Option:   Option{Label: c.Label, Value: c.Value},
			Depth:    c.Depth,
			Selected: sel.Contains(c.Value),
		}
		if facets != nil {
			for _, val := range c.Closure() {
				if n, ok := facets[val]; ok {
					ov.Count += n
					ov.HasCount = true
				}
			}
		}
		if link != nil {
			ov.Href = link(toggleLink(f.ColumnID, c.Value, false))
		}
		v.Options = append(v.Options, ov)
	}
	v.Summary = collapseSummary(v.Summary, v.SelectedCount)
	if link != nil && v.ShowClear {
		v.ClearHref = link(clearLink(f.ColumnID))
	}
	return v
}

func toggleLink(id, value string, single bool) func(tx *Tx) {
	return func(tx *Tx) {
		next := toggleValue(selectedValues(tx.ColumnFilter(id)), value, single)
		if len(next) == 0 {
			tx.SetColumnFilter(id, nil)
			return
		}
		tx.SetColumnFilter(id, next)
	}
}

func clearLink(id string) func(tx *Tx) {
	return func(tx *Tx) { tx.SetColumnFilter(id, nil) }
}

func collapseSummary(labels []string, selected int) []string {
	if selected > summaryLimit {
		return nil
	}
	return labels
}

// matchesSearch reports whether label contains search, ignoring case.
func matchesSearch(label, search string) bool {
	search = strings.TrimSpace(search)
	if search == "" {
		return true
	}
	return strings.Contains(Fold(label), Fold(search))
}

// Fold case-folds s for case-insensitive comparison. A Caser is stateful,
// so one is created per call.
func Fold(s string) string {
	return cases.Fold().String(s)
}
