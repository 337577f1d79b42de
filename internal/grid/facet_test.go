package grid

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusOptions() []Option {
	return []Option{
		{Label: "Pending", Value: "pending"},
		{Label: "Shipped", Value: "shipped"},
		{Label: "Delivered", Value: "delivered"},
	}
}

func categoryForest() []CategoryItem {
	return []CategoryItem{
		{Label: "Apparel", Value: "a", Children: []CategoryItem{
			{Label: "Shirts", Value: "a1"},
			{Label: "Hats", Value: "a2"},
		}},
		{Label: "Bags", Value: "b"},
	}
}

func linkFor(b *Binder) Linker {
	return b.Href
}

func TestFacetedFilter_MultiSelectToggles(t *testing.T) {
	b := NewBinder(testBinderConfig(), url.Values{}, nil)
	f := FacetedFilter{ColumnID: "status", Options: statusOptions()}

	f.Select(b, "pending")
	f.Select(b, "shipped")
	assert.Equal(t, Values{"pending", "shipped"}, f.Selected(b.State()))

	f.Select(b, "pending")
	assert.Equal(t, Values{"shipped"}, f.Selected(b.State()))

	f.Select(b, "shipped")
	_, ok := b.State().ColumnFilters.Get("status")
	assert.False(t, ok, "deselecting the last value removes the filter")
}

func TestFacetedFilter_SingleSelectIsExclusive(t *testing.T) {
	b := NewBinder(testBinderConfig(), mustQuery(t, "status=pending"), nil)
	f := FacetedFilter{ColumnID: "status", Options: statusOptions(), Single: true}

	f.Select(b, "shipped")
	assert.Equal(t, Values{"shipped"}, f.Selected(b.State()))

	f.Select(b, "shipped")
	assert.Empty(t, f.Selected(b.State()))
}

func TestFacetedFilter_OnFilterChangeFiresOnceAfterCommit(t *testing.T) {
	nav := &recordingNav{}
	b := NewBinder(testBinderConfig(), url.Values{}, nav)

	var fired, navsAtFire int
	f := FacetedFilter{ColumnID: "status", OnFilterChange: func() {
		fired++
		navsAtFire = len(nav.calls)
	}}

	f.Select(b, "pending")
	assert.Equal(t, 1, fired)
	assert.Equal(t, 1, navsAtFire)

	f.Clear(b)
	assert.Equal(t, 2, fired)
	assert.Len(t, nav.calls, 2)
}

func TestFacetedFilter_View(t *testing.T) {
	b := NewBinder(testBinderConfig(), mustQuery(t, "status=pending"), nil)
	f := FacetedFilter{ColumnID: "status", Title: "Status", Options: statusOptions()}
	facets := map[string]int{"pending": 4, "shipped": 2}

	v := f.View(b.State(), facets, "", linkFor(b))

	require.Len(t, v.Options, 3)
	assert.True(t, v.Options[0].Selected)
	assert.Equal(t, 4, v.Options[0].Count)
	assert.True(t, v.Options[1].HasCount)
	assert.False(t, v.Options[2].HasCount, "no facet entry, no count")
	assert.Equal(t, 1, v.SelectedCount)
	assert.Equal(t, []string{"Pending"}, v.Summary)
	assert.True(t, v.ShowClear)
	assert.Equal(t, "?", v.ClearHref)
	assert.Equal(t, "?status=pending%2Cshipped", v.Options[1].Href)
}

func TestFacetedFilter_ViewSearchAndSummaryCollapse(t *testing.T) {
	b := NewBinder(testBinderConfig(), mustQuery(t, "status=pending,shipped,delivered"), nil)
	f := FacetedFilter{ColumnID: "status", Options: statusOptions()}

	v := f.View(b.State(), nil, "SHIP", nil)
	require.Len(t, v.Options, 1)
	assert.Equal(t, "shipped", v.Options[0].Value)
	assert.Equal(t, 3, v.SelectedCount)
	assert.Nil(t, v.Summary, "more than two selected collapses to a count")
	assert.Empty(t, v.ClearHref)
}

func TestTreeFilter_ChildSelectionDoesNotCascade(t *testing.T) {
	b := NewBinder(testBinderConfig(), url.Values{}, nil)
	f := TreeFilter{ColumnID: "status", Categories: categoryForest()}

	f.Select(b, "a1")
	st := b.State()

	assert.Equal(t, Values{"a1"}, f.Selected(st))
	assert.Equal(t, 1, f.SelectedCount(st))

	v := f.View(st, nil, "", nil)
	require.Len(t, v.Options, 4)
	assert.Equal(t, "a", v.Options[0].Value)
	assert.False(t, v.Options[0].Selected)
	assert.Equal(t, 1, v.Options[1].Depth)
	assert.True(t, v.Options[1].Selected)
}

func TestTreeFilter_CountsSumOverSubtree(t *testing.T) {
	f := TreeFilter{ColumnID: "status", Categories: categoryForest()}
	facets := map[string]int{"a1": 3, "a2": 2, "b": 7}

	v := f.View(TableState{}, facets, "", nil)
	counts := map[string]int{}
	for _, o := range v.Options {
		counts[o.Value] = o.Count
	}
	assert.Equal(t, map[string]int{"a": 5, "a1": 3, "a2": 2, "b": 7}, counts)
}

func TestTreeFilter_SelectedCountIgnoresUnknownValues(t *testing.T) {
	f := TreeFilter{ColumnID: "status", Categories: categoryForest()}
	st := TableState{ColumnFilters: ColumnFilters{{ID: "status", Value: Values{"a", "zz"}}}}
	assert.Equal(t, 1, f.SelectedCount(st))
}

func TestFlattenCategories_PreOrder(t *testing.T) {
	var got []string
	for _, c := range FlattenCategories(categoryForest()) {
		got = append(got, c.Value)
	}
	assert.Equal(t, []string{"a", "a1", "a2", "b"}, got)
	assert.Equal(t, []string{"a", "a1", "a2"}, categoryForest()[0].Closure())
}

func TestFold(t *testing.T) {
	assert.Equal(t, Fold("STRASSE"), Fold("strasse"))
	assert.True(t, matchesSearch("Delivered", "  liv "))
	assert.True(t, matchesSearch("anything", ""))
}
