package grid

import "strconv"

// PageItem is one entry of the page-number strip. Ellipsis items carry no
// page.
type PageItem struct {
	Label    string
	Index    int
	Current  bool
	Ellipsis bool
	Href     string
}

// PageSizeChoice is one entry of the rows-per-page selector.
type PageSizeChoice struct {
	Size     int
	Selected bool
	Href     string
}

// PagerView is the render model of the pagination footer.
type PagerView struct {
	PageIndex int
	PageCount int
	Label     string

	HasPrev   bool
	HasNext   bool
	FirstHref string
	PrevHref  string
	NextHref  string
	LastHref  string

	Items     []PageItem
	PageSizes []PageSizeChoice
}

// Pager renders page-number controls from the reconciled page count.
type Pager struct {
	// Siblings is the number of pages shown on each side of the current
	// one. Zero means 1.
	Siblings  int
	PageSizes []int
}

// DefaultPageSizes are offered when a Pager has none configured.
var DefaultPageSizes = []int{10, 20, 30, 50}

// View builds the footer. pageCount 0 renders a single, current page 1.
func (p Pager) View(st TableState, pageCount int, link Linker) PagerView {
	idx := st.Pagination.PageIndex
	count := max(pageCount, 1)
	if idx >= count {
		idx = count - 1
	}

	v := PagerView{
		PageIndex: idx,
		PageCount: pageCount,
		Label:     "Page " + strconv.Itoa(idx+1) + " of " + strconv.Itoa(count),
		HasPrev:   idx > 0,
		HasNext:   idx < count-1,
	}
	href := func(i int) string {
		if link == nil {
			return ""
		}
		return link(func(tx *Tx) { tx.SetPageIndex(i) })
	}
	if v.HasPrev {
		v.FirstHref = href(0)
		v.PrevHref = href(idx - 1)
	}
	if v.HasNext {
		v.NextHref = href(idx + 1)
		v.LastHref = href(count - 1)
	}

	for _, i := range pageWindow(idx, count, max(p.Siblings, 1)) {
		if i < 0 {
			v.Items = append(v.Items, PageItem{Label: "…", Ellipsis: true})
			continue
		}
		v.Items = append(v.Items, PageItem{
			Label:   strconv.Itoa(i + 1),
			Index:   i,
			Current: i == idx,
			Href:    href(i),
		})
	}

	sizes := p.PageSizes
	if len(sizes) == 0 {
		sizes = DefaultPageSizes
	}
	for _, n := range sizes {
		c := PageSizeChoice{Size: n, Selected: n == st.Pagination.PageSize}
		if link != nil {
			size := n
			c.Href = link(func(tx *Tx) {
				tx.SetPageSize(size)
				tx.SetPageIndex(0)
			})
		}
		v.PageSizes = append(v.PageSizes, c)
	}
	return v
}

// pageWindow returns the page indexes to show; -1 marks an ellipsis. The
// first and last pages are always present.
func pageWindow(current, count, siblings int) []int {
	// first + last + current + siblings on both sides + two ellipses
	if slots := 2*siblings + 5; count <= slots {
		out := make([]int, count)
		for i := range out {
			out[i] = i
		}
		return out
	}

	lo := max(current-siblings, 1)
	hi := min(current+siblings, count-2)

	out := []int{0}
	if lo > 1 {
		out = append(out, -1)
	}
	for i := lo; i <= hi; i++ {
		out = append(out, i)
	}
	if hi < count-2 {
		out = append(out, -1)
	}
	return append(out, count-1)
}
