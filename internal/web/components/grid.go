package components

import (
	"context"
	"strconv"

	"github.com/JonMunkholm/console/internal/core"
	"github.com/a-h/templ"
)

// GridPage renders a feature grid as a full page.
func GridPage(g Grid) templ.Component {
	return Layout(g.Title, component(func(ctx context.Context, h *html) {
		h.child(ctx, GridView(g))
		if len(g.Toasts) > 0 {
			h.raw(`<div class="toasts-inline">`)
			h.child(ctx, Toasts(g.Toasts))
			h.raw("</div>")
		}
	}))
}

// GridView is the swappable grid partial. Every control inside targets it,
// and a newer request replaces one still in flight.
func GridView(g Grid) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.open("section", "id", "grid", "class", "grid",
			"hx-target", "this", "hx-swap", "outerHTML", "hx-sync", "this:replace")
		h.raw(`><div class="grid-head"><h1>`)
		h.text(g.Title)
		h.raw("</h1>")
		if g.Description != "" {
			h.raw(`<p class="muted">`)
			h.text(g.Description)
			h.raw("</p>")
		}
		h.raw("</div>")

		h.child(ctx, Toolbar(g))
		if g.LoadFailed {
			h.raw(`<p class="notice">Showing the last loaded rows. The latest request failed.</p>`)
		}
		h.child(ctx, DataTable(g))
		h.child(ctx, Pager(g))
		h.child(ctx, BulkPanel(g))
		h.raw("</section>")
	})
}

// DataTable renders the rows with sort headers and selection checkboxes.
func DataTable(g Grid) templ.Component {
	return component(func(ctx context.Context, h *html) {
		cols := g.VisibleColumns()

		h.raw(`<div class="table-wrap"><table class="data"><thead><tr><th class="select">`)
		h.postForm(g.ActionURL("select"), "inline")
		h.open("input", "type", "hidden", "name", "op", "value", "page")
		h.raw(">")
		h.open("button", "type", "submit", "name", "selected", "value", strconv.FormatBool(!g.PageSelected),
			"class", "check", "title", "Select page", "aria-pressed", strconv.FormatBool(g.PageSelected))
		h.raw(">")
		h.raw(checkGlyph(g.PageSelected))
		h.raw("</button></form></th>")

		for _, c := range cols {
			cls := "col"
			if c.Numeric {
				cls += " num"
			}
			h.open("th", "class", cls, "scope", "col")
			if c.Sort != "" {
				h.attr("aria-sort", map[string]string{"asc": "ascending", "desc": "descending"}[c.Sort])
			}
			h.raw(">")
			if !c.Sortable {
				h.text(c.Label)
				h.raw("</th>")
				continue
			}
			h.postForm(g.ActionURL("sort", c.ID), "inline")
			h.raw(`<button type="submit" class="sort">`)
			h.text(c.Label)
			h.raw(sortGlyph(c.Sort))
			h.raw("</button></form></th>")
		}
		h.raw(`<th class="menu">`)
		h.child(ctx, columnMenu(g))
		h.raw("</th></tr></thead><tbody>")

		if len(g.Rows) == 0 {
			h.raw("<tr>")
			h.open("td", "colspan", strconv.Itoa(len(cols)+2), "class", "empty")
			h.raw(">No results.</td></tr>")
		}
		for _, r := range g.Rows {
			h.open("tr", "id", "row-"+r.ID)
			if r.Selected {
				h.attr("class", "selected")
			}
			h.raw(`><td class="select">`)
			h.postForm(g.ActionURL("select"), "inline")
			h.open("input", "type", "hidden", "name", "id", "value", r.ID)
			h.raw(">")
			h.open("button", "type", "submit", "name", "selected", "value", strconv.FormatBool(!r.Selected),
				"class", "check", "aria-pressed", strconv.FormatBool(r.Selected))
			h.raw(">")
			h.raw(checkGlyph(r.Selected))
			h.raw("</button></form></td>")
			for i, cell := range r.Cells {
				if i < len(cols) && cols[i].Numeric {
					h.raw(`<td class="num">`)
				} else {
					h.raw("<td>")
				}
				h.text(cell)
				h.raw("</td>")
			}
			h.raw("<td></td></tr>")
		}
		h.raw("</tbody></table></div>")
	})
}

func columnMenu(g Grid) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<details class="popover right"><summary title="Columns">Columns</summary><div class="popover-body">`)
		for _, c := range g.Columns {
			h.postForm(g.ActionURL("columns", c.ID), "menu-item")
			h.raw(`<button type="submit">`)
			h.raw(checkGlyph(!c.Hidden))
			h.raw(" ")
			h.text(c.Label)
			h.raw("</button></form>")
		}
		h.raw("</div></details>")
	})
}

// Pager renders the pagination footer.
func Pager(g Grid) templ.Component {
	return component(func(ctx context.Context, h *html) {
		p := g.Pager
		h.raw(`<footer class="pager"><span class="muted">`)
		if g.Bulk.Count > 0 {
			h.int(g.Bulk.Count)
			h.raw(" of ")
			h.int(g.Total)
			h.raw(" row(s) selected.")
		} else {
			h.int(g.Total)
			h.raw(" row(s)")
		}
		h.raw(`</span><div class="sizes"><span>Rows per page</span>`)
		for _, s := range p.PageSizes {
			cls := "size"
			if s.Selected {
				cls += " current"
			}
			h.navLink(s.Href, cls, strconv.Itoa(s.Size), s.Selected)
		}
		h.raw(`</div><span class="page-label">`)
		h.text(p.Label)
		h.raw(`</span><nav class="pages" aria-label="Pagination">`)
		h.navLink(p.FirstHref, "page first", "«", !p.HasPrev)
		h.navLink(p.PrevHref, "page prev", "‹", !p.HasPrev)
		for _, it := range p.Items {
			switch {
			case it.Ellipsis:
				h.raw(`<span class="page ellipsis">…</span>`)
			case it.Current:
				h.raw(`<span class="page current" aria-current="page">`)
				h.text(it.Label)
				h.raw("</span>")
			default:
				h.navLink(it.Href, "page", it.Label, false)
			}
		}
		h.navLink(p.NextHref, "page next", "›", !p.HasNext)
		h.navLink(p.LastHref, "page last", "»", !p.HasNext)
		h.raw("</nav></footer>")
	})
}

// BulkPanel renders the floating action panel and, when an action awaits
// confirmation, its dialog.
func BulkPanel(g Grid) templ.Component {
	return component(func(ctx context.Context, h *html) {
		b := g.Bulk
		if !b.Visible && b.Confirm == nil {
			return
		}
		h.raw(`<div class="bulk-panel" role="toolbar" aria-label="Bulk actions"><span class="count">`)
		h.int(b.Count)
		h.raw(" selected</span>")
		h.postForm(g.ActionURL("select"), "inline")
		h.raw(`<input type="hidden" name="op" value="clear"><button type="submit" class="ghost" title="Clear selection">✕</button></form>`)
		for _, a := range b.Actions {
			if a.ID == core.ReviseActionID {
				continue
			}
			cls := "btn"
			if a.Destructive {
				cls += " danger"
			}
			h.postForm(g.ActionURL("bulk", a.ID), "inline")
			h.open("button", "type", "submit", "class", cls, "title", a.Tooltip)
			h.flag("disabled", a.Disabled)
			h.raw(">")
			if a.Icon != "" {
				h.open("span", "class", "icon icon-"+a.Icon, "aria-hidden", "true")
				h.raw("></span>")
			}
			h.text(a.Label)
			h.raw("</button></form>")
		}
		h.raw("</div>")

		if c := b.Confirm; c != nil {
			h.raw(`<div class="dialog-backdrop"><div class="dialog" role="alertdialog" aria-modal="true"><h2>`)
			h.text(c.Label)
			h.raw("?</h2><p>This will affect ")
			h.int(c.Count)
			if c.Count == 1 {
				h.raw(" row")
			} else {
				h.raw(" rows")
			}
			h.raw(`. This cannot be undone.</p><div class="dialog-actions">`)
			h.postForm(g.ActionURL("cancel"), "inline")
			h.raw(`<button type="submit" class="btn ghost">Cancel</button></form>`)
			h.postForm(g.ActionURL("confirm"), "inline")
			h.raw(`<button type="submit" class="btn danger">Continue</button></form>`)
			h.raw("</div></div></div>")
		}
	})
}

func checkGlyph(on bool) string {
	if on {
		return "☑"
	}
	return "☐"
}

func sortGlyph(dir string) string {
	switch dir {
	case "asc":
		return " ↑"
	case "desc":
		return " ↓"
	}
	return " ↕"
}
