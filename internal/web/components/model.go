package components

import (
	"net/url"
	"strings"

	"github.com/JonMunkholm/console/internal/grid"
)

// FeatureCard is one feature tile on the dashboard.
type FeatureCard struct {
	Key         string
	Label       string
	Description string
	Href        string
}

// FeatureGroup is a titled row of feature tiles.
type FeatureGroup struct {
	Name     string
	Features []FeatureCard
}

// Column is one header of the data table.
type Column struct {
	ID       string
	Label    string
	Sortable bool
	Sort     string // "asc", "desc" or ""
	Numeric  bool
	Hidden   bool
}

// Row is one rendered table row.
type Row struct {
	ID       string
	Selected bool
	Cells    []string
}

// ReviseForm is the bulk-revise form under the toolbar.
type ReviseForm struct {
	Label   string
	Column  string
	Options []grid.Option
	Enabled bool
}

// Grid is everything the grid partial renders.
type Grid struct {
	Key         string
	Title       string
	Description string
	Path        string // "/f/{key}"
	Query       string // current encoded query string, without "?"

	Toolbar      grid.ToolbarView
	Columns      []Column // every column, hidden ones included
	Rows         []Row
	Total        int
	PageSelected bool
	Pager        grid.PagerView
	Bulk         grid.BulkPanelView
	Revise       *ReviseForm
	LoadFailed   bool

	// Toasts are rendered inline on full page loads. HTMX responses carry
	// them in the HX-Trigger header instead.
	Toasts []grid.Notification
}

// ActionURL returns the endpoint for an action on this grid, carrying the
// current query so the handler sees the same state.
func (g Grid) ActionURL(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	u := g.Path + "/" + strings.Join(escaped, "/")
	if g.Query != "" {
		u += "?" + g.Query
	}
	return u
}

// Self returns the grid page URL for the current state.
func (g Grid) Self() string {
	if g.Query == "" {
		return g.Path
	}
	return g.Path + "?" + g.Query
}

// VisibleColumns returns the columns that are shown.
func (g Grid) VisibleColumns() []Column {
	var out []Column
	for _, c := range g.Columns {
		if !c.Hidden {
			out = append(out, c)
		}
	}
	return out
}
