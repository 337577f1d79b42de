package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/console/internal/grid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// ColumnType is the data type of a feature column.
type ColumnType string

const (
	ColumnText   ColumnType = "text"
	ColumnEnum   ColumnType = "enum"
	ColumnTags   ColumnType = "tags" // text[]; filters match any element
	ColumnDate   ColumnType = "date"
	ColumnMoney  ColumnType = "money"
	ColumnNumber ColumnType = "number"
)

// ColumnSpec declares one column of a feature grid.
type ColumnSpec struct {
	ID         string     `toml:"id"`
	Label      string     `toml:"label"`
	DBColumn   string     `toml:"db_column"` // defaults to ID
	Type       ColumnType `toml:"type"`
	Searchable bool       `toml:"searchable"`
	Faceted    bool       `toml:"faceted"`
	Sortable   bool       `toml:"sortable"`
	Hidden     bool       `toml:"hidden"` // hidden by default, can be shown
}

// Column returns the database column name.
func (c ColumnSpec) Column() string {
	if c.DBColumn != "" {
		return c.DBColumn
	}
	return c.ID
}

// SearchSpec configures the toolbar's search box.
type SearchSpec struct {
	// Column binds the search box to a column filter; empty means the global
	// filter.
	Column      string `toml:"column"`
	Placeholder string `toml:"placeholder"`
}

// FilterSpec declares one faceted filter of the toolbar.
type FilterSpec struct {
	Column     string              `toml:"column"`
	Title      string              `toml:"title"`
	Single     bool                `toml:"single"`
	Options    []grid.Option       `toml:"options"`
	Categories []grid.CategoryItem `toml:"categories"`
}

// Tree reports whether the filter is hierarchical.
func (f FilterSpec) Tree() bool { return len(f.Categories) > 0 }

// Values returns every value the filter can select, in display order.
func (f FilterSpec) Values() []string {
	if f.Tree() {
		flat := grid.FlattenCategories(f.Categories)
		out := make([]string, len(flat))
		for i, c := range flat {
			out[i] = c.Value
		}
		return out
	}
	out := make([]string, len(f.Options))
	for i, o := range f.Options {
		out[i] = o.Value
	}
	return out
}

// DateRangeSpec declares the toolbar's date-range picker.
type DateRangeSpec struct {
	Column string `toml:"column"` // empty keeps the range on the instance
	Title  string `toml:"title"`
}

// ActionKind selects what a bulk action does.
type ActionKind string

const (
	ActionDelete ActionKind = "delete" // delete the selected rows
	ActionSet    ActionKind = "set"    // set Column to Value on the selected rows
)

// ActionSpec declares a bulk action.
type ActionSpec struct {
	ID          string     `toml:"id"`
	Label       string     `toml:"label"`
	Icon        string     `toml:"icon"`
	Tooltip     string     `toml:"tooltip"`
	Kind        ActionKind `toml:"kind"`
	Column      string     `toml:"column"`
	Value       string     `toml:"value"`
	Destructive bool       `toml:"destructive"`
}

// ReviseSpec declares the bulk-revise form: one column the user may set on
// every selected row.
type ReviseSpec struct {
	Label   string        `toml:"label"`
	Column  string        `toml:"column"`
	Options []grid.Option `toml:"options"` // empty allows free input
}

// ReviseActionID is the action id of the bulk-revise button.
const ReviseActionID = "revise"

// SortSpec represents a single sort column and direction.
type SortSpec struct {
	Column string // Column id
	Dir    string // "asc" or "desc"
}

// Desc reports whether the sort is descending.
func (s SortSpec) Desc() bool { return strings.EqualFold(s.Dir, "desc") }

// Feature is one console screen backed by a data grid.
type Feature struct {
	Key         string `toml:"key"`
	Group       string `toml:"group"`
	Label       string `toml:"label"`
	Description string `toml:"description"`
	Table       string `toml:"table"`
	IDColumn    string `toml:"id_column"`
	PageSize    int    `toml:"page_size"`
	SeedRows    int    `toml:"seed_rows"`

	Search    SearchSpec     `toml:"search"`
	Columns   []ColumnSpec   `toml:"columns"`
	Filters   []FilterSpec   `toml:"filters"`
	DateRange *DateRangeSpec `toml:"date_range"`
	Actions   []ActionSpec   `toml:"actions"`
	Revise    *ReviseSpec    `toml:"revise"`
}

// IDCol returns the database id column.
func (f Feature) IDCol() string {
	if f.IDColumn != "" {
		return f.IDColumn
	}
	return "id"
}

// Column returns the column with the given id.
func (f Feature) Column(id string) (ColumnSpec, bool) {
	for _, c := range f.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// Filter returns the toolbar filter for a column.
func (f Feature) Filter(column string) (FilterSpec, bool) {
	for _, fs := range f.Filters {
		if fs.Column == column {
			return fs, true
		}
	}
	return FilterSpec{}, false
}

// Action returns the bulk action with the given id.
func (f Feature) Action(id string) (ActionSpec, bool) {
	for _, a := range f.Actions {
		if a.ID == id {
			return a, true
		}
	}
	return ActionSpec{}, false
}

// BinderConfig derives the URL binding of the feature's grid.
func (f Feature) BinderConfig(defaultPageSize, maxPageSize int) grid.BinderConfig {
	size := f.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	cfg := grid.BinderConfig{
		Pagination: grid.PaginationConfig{
			DefaultPageSize: size,
			MaxPageSize:     maxPageSize,
		},
		GlobalFilter: grid.GlobalFilterConfig{
			Enabled: f.Search.Column == "",
			Trim:    true,
		},
	}
	if f.Search.Column != "" {
		cfg.ColumnFilters = append(cfg.ColumnFilters, grid.ColumnFilterConfig{
			ColumnID:  f.Search.Column,
			SearchKey: "q",
			Type:      grid.FilterScalar,
		})
	}
	for _, fs := range f.Filters {
		cfg.ColumnFilters = append(cfg.ColumnFilters, grid.ColumnFilterConfig{
			ColumnID: fs.Column,
			Type:     grid.FilterArray,
		})
	}
	if dr := f.DateRange; dr != nil && dr.Column != "" {
		cfg.ColumnFilters = append(cfg.ColumnFilters, grid.ColumnFilterConfig{
			ColumnID: dr.Column,
			Type:     grid.FilterRange,
		})
	}
	return cfg.Normalize()
}

// ToolbarConfig derives the feature's toolbar.
func (f Feature) ToolbarConfig() grid.ToolbarConfig {
	tc := grid.ToolbarConfig{
		SearchKey:         f.Search.Column,
		SearchPlaceholder: f.Search.Placeholder,
	}
	for _, fs := range f.Filters {
		tc.Filters = append(tc.Filters, grid.FilterConfig{
			ColumnID:        fs.Column,
			Title:           fs.Title,
			Options:         fs.Options,
			Categories:      fs.Categories,
			UseCategoryTree: fs.Tree(),
			Single:          fs.Single,
		})
	}
	if dr := f.DateRange; dr != nil {
		tc.DateRange = &grid.DateRangeConfig{ColumnID: dr.Column, Title: dr.Title}
	}
	if rv := f.Revise; rv != nil {
		tc.BulkRevise = &grid.BulkReviseConfig{Label: rv.Label, ActionID: ReviseActionID}
	}
	return tc
}

// Validate checks the feature's internal references.
func (f Feature) Validate() error {
	var errs []string
	if f.Key == "" {
		errs = append(errs, "key is required")
	}
	if f.Table == "" {
		errs = append(errs, "table is required")
	}
	if len(f.Columns) == 0 {
		errs = append(errs, "at least one column is required")
	}

	seen := make(map[string]bool)
	for _, c := range f.Columns {
		if seen[c.ID] {
			errs = append(errs, fmt.Sprintf("duplicate column %q", c.ID))
		}
		seen[c.ID] = true
		switch c.Type {
		case ColumnText, ColumnEnum, ColumnTags, ColumnDate, ColumnMoney, ColumnNumber:
		default:
			errs = append(errs, fmt.Sprintf("column %q: unknown type %q", c.ID, c.Type))
		}
	}

	ref := func(what, id string) {
		if id != "" && !seen[id] {
			errs = append(errs, fmt.Sprintf("%s references unknown column %q", what, id))
		}
	}
	ref("search", f.Search.Column)
	for _, fs := range f.Filters {
		ref("filter", fs.Column)
		if len(fs.Options) > 0 && len(fs.Categories) > 0 {
			errs = append(errs, fmt.Sprintf("filter %q: options and categories are exclusive", fs.Column))
		}
	}
	if f.DateRange != nil {
		ref("date_range", f.DateRange.Column)
		if c, ok := f.Column(f.DateRange.Column); ok && c.Type != ColumnDate {
			errs = append(errs, fmt.Sprintf("date_range column %q is not a date", c.ID))
		}
	}
	for _, a := range f.Actions {
		switch a.Kind {
		case ActionDelete:
		case ActionSet:
			ref("action "+a.ID, a.Column)
			if a.Column == "" {
				errs = append(errs, fmt.Sprintf("action %q: set requires a column", a.ID))
			}
		default:
			errs = append(errs, fmt.Sprintf("action %q: unknown kind %q", a.ID, a.Kind))
		}
		if a.ID == ReviseActionID {
			errs = append(errs, fmt.Sprintf("action id %q is reserved", a.ID))
		}
	}
	if f.Revise != nil {
		ref("revise", f.Revise.Column)
	}

	if len(errs) > 0 {
		return fmt.Errorf("feature %s: %s", f.Key, strings.Join(errs, "; "))
	}
	return nil
}
