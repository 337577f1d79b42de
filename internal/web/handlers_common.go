package web

// handlers_common.go holds the request pipeline shared by every grid
// handler: bind the URL, load, reconcile, build the view model, render.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/console/internal/core"
	"github.com/JonMunkholm/console/internal/grid"
	"github.com/JonMunkholm/console/internal/logging"
	"github.com/JonMunkholm/console/internal/web/components"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// navigator records the binder's history replacement. The handler turns
// it into an HX-Replace-Url header or a redirect.
type navigator struct {
	query    url.Values
	replaced bool
}

func (n *navigator) Replace(q url.Values) {
	n.query = q
	n.replaced = true
}

// gridRequest is one request against a feature grid.
type gridRequest struct {
	feature core.Feature
	inst    *core.Instance
	binder  *grid.Binder
	nav     *navigator
	htmx    bool
}

func featurePath(key string) string { return "/f/" + url.PathEscape(key) }

// gridRequest resolves the feature and the session's instance and binds
// the request's query. It writes the error response itself when it fails.
func (s *Server) gridRequest(w http.ResponseWriter, r *http.Request, query url.Values) (*gridRequest, bool) {
	f, err := core.Lookup(chi.URLParam(r, "feature"))
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return nil, false
	}
	nav := &navigator{}
	return &gridRequest{
		feature: f,
		inst:    s.instances.Get(core.SessionFromContext(r.Context()), f),
		binder:  grid.NewBinder(f.BinderConfig(s.cfg.Grid.DefaultPageSize, s.cfg.Grid.MaxPageSize), query, nav),
		nav:     nav,
		htmx:    isHTMX(r),
	}, true
}

// url is the grid page for the binder's current query.
func (gr *gridRequest) url() string {
	q := gr.binder.Query().Encode()
	if q == "" {
		return featurePath(gr.feature.Key)
	}
	return featurePath(gr.feature.Key) + "?" + q
}

func (gr *gridRequest) link(fn func(tx *grid.Tx)) string {
	return featurePath(gr.feature.Key) + gr.binder.Href(fn)
}

// load fetches the page for the current state. When the page index is past
// the last page it issues one corrective navigation and fetches again.
func (gr *gridRequest) load(ctx context.Context) (*core.PageTable, error) {
	st := gr.binder.State()
	page, err := gr.inst.Loader.Load(ctx, gr.inst.Query(st))
	if errors.Is(err, core.ErrSuperseded) {
		return nil, err
	}
	table := core.NewPageTable(st, page)
	if err != nil {
		return table, err
	}

	if grid.NewReconciler(gr.binder).EnsurePageInRange(table.PageCount()) {
		st = gr.binder.State()
		page, err = gr.inst.Loader.Load(ctx, gr.inst.Query(st))
		if errors.Is(err, core.ErrSuperseded) {
			return nil, err
		}
		table = core.NewPageTable(st, page)
	}
	return table, err
}

// finish ends a grid request that changed state. Plain form posts are
// redirected to the grid page; HTMX requests get the grid re-rendered.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, gr *gridRequest) {
	if !gr.htmx {
		http.Redirect(w, r, gr.url(), http.StatusSeeOther)
		return
	}
	s.renderGrid(w, r, gr)
}

// renderGrid loads and renders the grid, as a partial for HTMX and as a
// full page otherwise.
func (s *Server) renderGrid(w http.ResponseWriter, r *http.Request, gr *gridRequest) {
	ctx := r.Context()

	table, err := gr.load(ctx)
	if errors.Is(err, core.ErrSuperseded) {
		// a newer request for this grid owns the response
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		msg := core.MapError(err)
		gr.inst.Notify(grid.Notification{Level: grid.LevelError, Title: "Couldn't load rows", Message: msg.Message})
	}

	if gr.nav.replaced && !gr.htmx {
		http.Redirect(w, r, gr.url(), http.StatusSeeOther)
		return
	}

	g := s.gridModel(gr, table, nil)
	g.LoadFailed = err != nil && len(g.Rows) > 0

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Vary", "HX-Request")
	if gr.htmx {
		if gr.nav.replaced {
			w.Header().Set("HX-Replace-Url", gr.url())
		}
		setToasts(w, r, gr.inst.DrainNotifications())
		components.GridView(g).Render(ctx, w)
		return
	}
	g.Toasts = gr.inst.DrainNotifications()
	components.GridPage(g).Render(ctx, w)
}

// gridModel builds the view model. searches holds the text typed in each
// filter's option search, keyed by column.
func (s *Server) gridModel(gr *gridRequest, table *core.PageTable, searches map[string]string) components.Grid {
	f, inst := gr.feature, gr.inst
	st := table.State()

	g := components.Grid{
		Key:         f.Key,
		Title:       f.Label,
		Description: f.Description,
		Path:        featurePath(f.Key),
		Query:       gr.binder.Query().Encode(),
		Total:       table.Total(),
		Bulk:        inst.Bulk.View(),
	}

	inst.UseToolbar(func(t *grid.Toolbar) {
		g.Toolbar = t.View(table, gr.link, searches)
	})

	sorting := inst.Sorting()
	for _, c := range f.Columns {
		col := components.Column{
			ID:       c.ID,
			Label:    c.Label,
			Sortable: c.Sortable,
			Numeric:  c.Type == core.ColumnMoney || c.Type == core.ColumnNumber,
			Hidden:   inst.IsHidden(c.ID),
		}
		for _, so := range sorting {
			if so.Column == c.ID {
				col.Sort = "asc"
				if so.Desc() {
					col.Sort = "desc"
				}
			}
		}
		g.Columns = append(g.Columns, col)
	}

	visible := inst.VisibleColumns()
	g.PageSelected = len(table.Rows()) > 0
	for _, row := range table.Rows() {
		rv := components.Row{ID: row.ID, Selected: inst.Bulk.IsSelected(row.ID)}
		for _, c := range visible {
			rv.Cells = append(rv.Cells, formatCell(c, row.Get(c.ID)))
		}
		g.PageSelected = g.PageSelected && rv.Selected
		g.Rows = append(g.Rows, rv)
	}

	g.Pager = grid.Pager{PageSizes: s.pageSizes(gr.binder.Config())}.View(st, table.PageCount(), gr.link)

	if rv := f.Revise; rv != nil {
		opts := rv.Options
		if len(opts) == 0 {
			if fs, ok := f.Filter(rv.Column); ok && !fs.Tree() {
				opts = fs.Options
			}
		}
		g.Revise = &components.ReviseForm{
			Label:   rv.Label,
			Column:  rv.Column,
			Options: opts,
			Enabled: g.Toolbar.BulkRevise != nil && g.Toolbar.BulkRevise.Enabled,
		}
	}
	return g
}

// pageSizes returns the rows-per-page choices: the stock sizes up to the
// maximum, plus the grid's default.
func (s *Server) pageSizes(cfg grid.BinderConfig) []int {
	var sizes []int
	for _, n := range grid.DefaultPageSizes {
		if n <= cfg.Pagination.MaxPageSize {
			sizes = append(sizes, n)
		}
	}
	if d := cfg.Pagination.DefaultPageSize; !slices.Contains(sizes, d) {
		sizes = append(sizes, d)
		slices.Sort(sizes)
	}
	return sizes
}

// toastTrigger is the HX-Trigger payload app.js listens for.
type toastTrigger struct {
	ShowToast struct {
		Toasts []grid.Notification `json:"toasts"`
	} `json:"showToast"`
}

// setToasts sends notifications in the HX-Trigger header.
func setToasts(w http.ResponseWriter, r *http.Request, notes []grid.Notification) {
	if len(notes) == 0 {
		return
	}
	var t toastTrigger
	t.ShowToast.Toasts = notes
	b, err := json.Marshal(t)
	if err != nil {
		logging.FromContext(r.Context()).Error("encode toasts", "error", err)
		return
	}
	w.Header().Set("HX-Trigger", string(b))
}

// formatCell renders a cell value for display.
func formatCell(c core.ColumnSpec, v any) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case decimal.Decimal:
		return val.StringFixed(2)

	case time.Time:
		if val.IsZero() {
			return ""
		}
		if c.Type == core.ColumnDate {
			return val.Format("2006-01-02 15:04")
		}
		return val.Format(time.RFC3339)

	case []string:
		return strings.Join(val, ", ")

	case int64:
		return strconv.FormatInt(val, 10)

	case int:
		return strconv.Itoa(val)

	case bool:
		if val {
			return "Yes"
		}
		return "No"

	case string:
		return val

	default:
		return fmt.Sprintf("%v", v)
	}
}

// formBool parses a form checkbox value; anything unparsable is fallback.
func formBool(s string, fallback bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return b
}
