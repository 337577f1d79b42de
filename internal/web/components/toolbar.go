package components

import (
	"context"
	"strconv"

	"github.com/JonMunkholm/console/internal/grid"
	"github.com/a-h/templ"
)

// Toolbar renders search, faceted filters, the date range, bulk revise and
// reset.
func Toolbar(g Grid) templ.Component {
	return component(func(ctx context.Context, h *html) {
		t := g.Toolbar
		h.raw(`<div class="toolbar">`)

		h.postForm(g.ActionURL("search"), "search")
		h.open("input", "type", "search", "name", "q", "value", t.Search.Value,
			"placeholder", placeholder(t.Search), "aria-label", "Search",
			"hx-trigger", "input changed delay:300ms, search")
		h.url("hx-post", g.ActionURL("search"))
		h.raw("></form>")

		for _, f := range t.Filters {
			h.child(ctx, FacetedFilter(g, f))
		}
		if t.DateRange != nil {
			h.child(ctx, DateRangePicker(g, *t.DateRange))
		}
		if t.ShowReset {
			h.postForm(g.ActionURL("reset"), "inline")
			h.raw(`<button type="submit" class="btn ghost">Reset ✕</button></form>`)
		}
		if rv := g.Revise; rv != nil && t.BulkRevise != nil {
			h.child(ctx, reviseForm(g, *rv, t.BulkRevise.Enabled))
		}
		h.raw("</div>")
	})
}

func placeholder(s grid.SearchView) string {
	if s.Placeholder != "" {
		return s.Placeholder
	}
	return "Filter..."
}

// FacetedFilter renders one flat or tree filter as a popover. The popover
// is swapped on its own while the user searches its options.
func FacetedFilter(g Grid, f grid.FacetedFilterView) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.open("details", "class", "popover facet", "id", "facet-"+f.ColumnID)
		h.flag("open", f.Search != "")
		h.raw(`><summary class="btn outline">`)
		h.text(f.Title)
		if f.SelectedCount > 0 {
			h.raw(`<span class="sep"></span>`)
			if len(f.Summary) == 0 {
				h.raw(`<span class="badge">`)
				h.int(f.SelectedCount)
				h.raw(" selected</span>")
			}
			for _, label := range f.Summary {
				h.raw(`<span class="badge">`)
				h.text(label)
				h.raw("</span>")
			}
		}
		h.raw(`</summary><div class="popover-body">`)

		h.open("input", "type", "search", "name", "search", "value", f.Search,
			"placeholder", f.Title, "aria-label", "Search "+f.Title,
			"hx-trigger", "input changed delay:200ms",
			"hx-target", "#facet-"+f.ColumnID, "hx-sync", "this:replace")
		h.url("hx-get", g.ActionURL("facet", f.ColumnID))
		h.raw(">")

		h.postForm(g.ActionURL("filter", f.ColumnID), "options")
		if len(f.Options) == 0 {
			h.raw(`<p class="muted">No results found.</p>`)
		}
		for _, o := range f.Options {
			h.open("button", "type", "submit", "name", "value", "value", o.Value, "class", "option")
			if f.Tree {
				h.attr("style", "padding-left:"+strconv.Itoa(8+o.Depth*16)+"px")
			}
			h.raw(">")
			h.raw(optionGlyph(o.Selected, f.Single))
			if o.Icon != "" {
				h.open("span", "class", "icon icon-"+o.Icon, "aria-hidden", "true")
				h.raw("></span>")
			}
			h.raw(`<span class="label">`)
			h.text(o.Label)
			h.raw("</span>")
			if o.HasCount {
				h.raw(`<span class="count">`)
				h.int(o.Count)
				h.raw("</span>")
			}
			h.raw("</button>")
		}
		if f.ShowClear {
			h.raw(`<button type="submit" name="clear" value="1" class="option clear">Clear filters</button>`)
		}
		h.raw("</form></div></details>")
	})
}

func optionGlyph(selected, single bool) string {
	switch {
	case single && selected:
		return "◉ "
	case single:
		return "○ "
	}
	return checkGlyph(selected) + " "
}

// DateRangePicker renders the from/to form.
func DateRangePicker(g Grid, d grid.DateRangeView) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.postForm(g.ActionURL("range"), "date-range")
		title := d.Title
		if title == "" {
			title = "Date"
		}
		h.raw("<label>")
		h.text(title)
		h.raw("</label>")
		h.open("input", "type", "date", "name", "from", "value", d.From, "aria-label", title+" from")
		h.raw("><span>–</span>")
		h.open("input", "type", "date", "name", "to", "value", d.To, "aria-label", title+" to")
		h.raw(`><button type="submit" class="btn outline">Apply</button>`)
		if d.Active {
			h.raw(`<button type="submit" name="clear" value="1" class="btn ghost" title="Clear dates">✕</button>`)
		}
		h.raw("</form>")
	})
}

func reviseForm(g Grid, rv ReviseForm, enabled bool) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.postForm(g.ActionURL("revise"), "revise")
		h.raw("<label>")
		h.text(rv.Label)
		h.raw("</label>")
		if len(rv.Options) > 0 {
			h.open("select", "name", "value", "aria-label", rv.Label)
			h.flag("disabled", !enabled)
			h.raw(">")
			for _, o := range rv.Options {
				h.open("option", "value", o.Value)
				h.raw(">")
				h.text(o.Label)
				h.raw("</option>")
			}
			h.raw("</select>")
		} else {
			h.open("input", "type", "text", "name", "value", "aria-label", rv.Label)
			h.flag("disabled", !enabled)
			h.raw(">")
		}
		h.raw(`<button type="submit" class="btn"`)
		h.flag("disabled", !enabled)
		h.raw(">Apply</button></form>")
	})
}
