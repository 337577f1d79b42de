package grid

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeColumn struct {
	facets map[string]int
	err    error
	panics bool
}

func (c fakeColumn) FacetedUniqueValues() (map[string]int, error) {
	if c.panics {
		panic("facets exploded")
	}
	return c.facets, c.err
}

type fakeTable struct {
	state    TableState
	pages    int
	columns  map[string]fakeColumn
	selected int
}

func (t fakeTable) State() TableState             { return t.state }
func (t fakeTable) PageCount() int                { return t.pages }
func (t fakeTable) FilteredSelectedRowCount() int { return t.selected }

func (t fakeTable) Column(id string) (Column, bool) {
	c, ok := t.columns[id]
	if !ok {
		return nil, false
	}
	return c, true
}

func toolbarConfig() ToolbarConfig {
	return ToolbarConfig{
		SearchPlaceholder: "Search orders",
		Filters: []FilterConfig{
			{ColumnID: "status", Title: "Status", Options: statusOptions()},
			{ColumnID: "category", Title: "Category", Categories: categoryForest(), UseCategoryTree: true},
			{ColumnID: "region", Title: "Region"},
			{ColumnID: "channel", Title: "Channel"},
		},
		DateRange:  &DateRangeConfig{ColumnID: "created", Title: "Created"},
		BulkRevise: &BulkReviseConfig{Label: "Revise", ActionID: "revise"},
	}
}

func TestToolbar_ViewOmitsUnavailableFilters(t *testing.T) {
	table := fakeTable{
		columns: map[string]fakeColumn{
			"status":   {facets: map[string]int{"pending": 1}},
			"category": {err: ErrFacetsNotReady},
			"region":   {panics: true},
			// channel missing entirely
		},
	}
	v := NewToolbar(toolbarConfig()).View(table, nil, nil)

	require.Len(t, v.Filters, 1)
	assert.Equal(t, "status", v.Filters[0].ColumnID)
	assert.True(t, v.Search.Global)
	assert.Equal(t, "Search orders", v.Search.Placeholder)
	assert.False(t, v.ShowReset)
	require.NotNil(t, v.BulkRevise)
	assert.False(t, v.BulkRevise.Enabled)
}

func TestToolbar_ViewOtherFacetErrorIsOmitted(t *testing.T) {
	table := fakeTable{columns: map[string]fakeColumn{
		"status": {err: errors.New("boom")},
	}}
	v := NewToolbar(toolbarConfig()).View(table, nil, nil)
	assert.Empty(t, v.Filters)
}

func TestToolbar_BulkReviseEnabledBySelection(t *testing.T) {
	v := NewToolbar(toolbarConfig()).View(fakeTable{selected: 2}, nil, nil)
	require.NotNil(t, v.BulkRevise)
	assert.True(t, v.BulkRevise.Enabled)
}

func TestToolbar_ResetClearsEverythingInOneCommit(t *testing.T) {
	nav := &recordingNav{}
	b := NewBinder(testBinderConfig(), mustQuery(t, "status=a&q=bob&filter=x&created=2024-01-01&tab=keep"), nav)
	tb := NewToolbar(toolbarConfig())
	var changes int
	tb.OnFilterChange = func() { changes++ }

	table := fakeTable{state: b.State()}
	v := tb.View(table, linkFor(b), nil)
	require.True(t, v.ShowReset)
	assert.Equal(t, "?tab=keep", v.ResetHref)

	tb.Reset(b)

	require.Len(t, nav.calls, 1)
	assert.Equal(t, url.Values{"tab": {"keep"}}, nav.calls[0])
	assert.Equal(t, 1, changes)
	assert.False(t, tb.IsFiltered(b.State()))
}

func TestToolbar_SearchBoundToColumn(t *testing.T) {
	cfg := toolbarConfig()
	cfg.SearchKey = "name"
	tb := NewToolbar(cfg)
	b := NewBinder(testBinderConfig(), url.Values{}, nil)

	tb.SetSearch(b, "ann")
	assert.Equal(t, "ann", b.Query().Get("q"))

	v := tb.View(fakeTable{state: b.State()}, nil, nil)
	assert.False(t, v.Search.Global)
	assert.Equal(t, "ann", v.Search.Value)
}

func TestToolbar_SearchGlobal(t *testing.T) {
	tb := NewToolbar(toolbarConfig())
	b := NewBinder(testBinderConfig(), url.Values{}, nil)

	tb.SetSearch(b, "acme")
	assert.Equal(t, "acme", b.State().GlobalFilter)
	assert.True(t, tb.IsFiltered(b.State()))
}

func TestToolbar_DateRangeBoundToColumn(t *testing.T) {
	tb := NewToolbar(toolbarConfig())
	b := NewBinder(testBinderConfig(), url.Values{}, nil)
	r := DateRange{From: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}

	tb.SetDateRange(b, r)
	assert.Equal(t, "2024-02-01", b.Query().Get("created"))

	v := tb.View(fakeTable{state: b.State()}, linkFor(b), nil)
	require.NotNil(t, v.DateRange)
	assert.True(t, v.DateRange.Active)
	assert.Equal(t, "2024-02-01", v.DateRange.From)
	assert.Equal(t, "", v.DateRange.To)
	assert.Equal(t, "?", v.DateRange.ClearHref)
}

func TestToolbar_DateRangeWithoutColumnIsLocal(t *testing.T) {
	cfg := toolbarConfig()
	cfg.DateRange = &DateRangeConfig{Title: "Period"}
	tb := NewToolbar(cfg)
	nav := &recordingNav{}
	b := NewBinder(testBinderConfig(), url.Values{}, nav)

	tb.SetDateRange(b, DateRange{From: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})
	assert.Empty(t, nav.calls, "local range never touches the URL")
	assert.True(t, tb.IsFiltered(b.State()))

	tb.Reset(b)
	assert.True(t, tb.DateRange(b.State()).IsEmpty())
}

func TestToolbar_FilterAccessors(t *testing.T) {
	tb := NewToolbar(toolbarConfig())

	_, ok := tb.FacetedFilter("status")
	assert.True(t, ok)
	_, ok = tb.FacetedFilter("category")
	assert.False(t, ok, "category is a tree filter")

	tf, ok := tb.TreeFilter("category")
	require.True(t, ok)
	assert.Len(t, tf.Categories, 2)
}
