package grid

import (
	"log/slog"
	"net/url"
	"strconv"
	"strings"
)

// FilterType selects how a column filter is encoded in the URL.
type FilterType string

const (
	FilterArray  FilterType = "array"  // comma-joined multi-select
	FilterScalar FilterType = "scalar" // single text value
	FilterRange  FilterType = "range"  // from[,to] date range
)

// Default query keys.
const (
	DefaultPageKey         = "page"
	DefaultPageSizeKey     = "pageSize"
	DefaultGlobalFilterKey = "filter"
	DefaultPageSize        = 10
	DefaultMaxPageSize     = 100
)

// PaginationConfig controls how pagination maps to the URL.
type PaginationConfig struct {
	PageKey          string
	PageSizeKey      string
	DefaultPageIndex int // zero-based
	DefaultPageSize  int
	MaxPageSize      int
}

// GlobalFilterConfig binds the table's global search to a query key.
type GlobalFilterConfig struct {
	Enabled bool
	Key     string
	Trim    bool
}

// ColumnFilterConfig binds one column filter to a query key.
type ColumnFilterConfig struct {
	ColumnID  string
	SearchKey string // defaults to ColumnID
	Type      FilterType
}

// BinderConfig enumerates the URL-bound parts of a table's state.
type BinderConfig struct {
	Pagination    PaginationConfig
	GlobalFilter  GlobalFilterConfig
	ColumnFilters []ColumnFilterConfig
}

// Normalize fills unset keys and sizes with their defaults.
func (c BinderConfig) Normalize() BinderConfig {
	if c.Pagination.PageKey == "" {
		c.Pagination.PageKey = DefaultPageKey
	}
	if c.Pagination.PageSizeKey == "" {
		c.Pagination.PageSizeKey = DefaultPageSizeKey
	}
	if c.Pagination.DefaultPageSize <= 0 {
		c.Pagination.DefaultPageSize = DefaultPageSize
	}
	if c.Pagination.MaxPageSize < c.Pagination.DefaultPageSize {
		c.Pagination.MaxPageSize = max(DefaultMaxPageSize, c.Pagination.DefaultPageSize)
	}
	if c.Pagination.DefaultPageIndex < 0 {
		c.Pagination.DefaultPageIndex = 0
	}
	if c.GlobalFilter.Enabled && c.GlobalFilter.Key == "" {
		c.GlobalFilter.Key = DefaultGlobalFilterKey
	}
	cols := make([]ColumnFilterConfig, len(c.ColumnFilters))
	for i, cf := range c.ColumnFilters {
		if cf.SearchKey == "" {
			cf.SearchKey = cf.ColumnID
		}
		if cf.Type == "" {
			cf.Type = FilterArray
		}
		cols[i] = cf
	}
	c.ColumnFilters = cols
	return c
}

// ColumnFilter returns the configuration for a column.
func (c BinderConfig) ColumnFilter(id string) (ColumnFilterConfig, bool) {
	for _, cf := range c.ColumnFilters {
		if cf.ColumnID == id {
			return cf, true
		}
	}
	return ColumnFilterConfig{}, false
}

// Navigator applies a new query string by replacing the current history
// entry. It must never push a new entry.
type Navigator interface {
	Replace(query url.Values)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(query url.Values)

func (f NavigatorFunc) Replace(query url.Values) { f(query) }

// Binder derives TableState from a query string and writes changes back.
//
// Setters stage changes; Commit applies everything staged as one navigation.
// A Binder is owned by a single table instance and is not safe for
// concurrent use.
type Binder struct {
	cfg         BinderConfig
	query       url.Values
	nav         Navigator
	pending     *Tx
	navigations int
}

// NewBinder creates a binder over the given query. nav may be nil when the
// binder is only used to read state and build links.
func NewBinder(cfg BinderConfig, query url.Values, nav Navigator) *Binder {
	return &Binder{
		cfg:   cfg.Normalize(),
		query: cloneValues(query),
		nav:   nav,
	}
}

// Config returns the normalized configuration.
func (b *Binder) Config() BinderConfig { return b.cfg }

// Query returns a copy of the current query, including foreign keys.
func (b *Binder) Query() url.Values { return cloneValues(b.query) }

// Navigations returns how many navigations this binder has issued.
func (b *Binder) Navigations() int { return b.navigations }

// State decodes the current query. Staged, uncommitted changes are not
// included.
func (b *Binder) State() TableState {
	return b.decode(b.query)
}

// Pending reports whether uncommitted changes are staged.
func (b *Binder) Pending() bool { return b.pending != nil }

func (b *Binder) decode(q url.Values) TableState {
	p := b.cfg.Pagination
	st := TableState{
		Pagination: Pagination{
			PageIndex: DecodePage(q, p.PageKey, p.DefaultPageIndex),
			PageSize:  DecodeInt(q, p.PageSizeKey, p.DefaultPageSize, 1, p.MaxPageSize),
		},
	}
	if g := b.cfg.GlobalFilter; g.Enabled {
		st.GlobalFilter = DecodeText(q, g.Key, "")
		if g.Trim {
			st.GlobalFilter = strings.TrimSpace(st.GlobalFilter)
		}
	}
	for _, cf := range b.cfg.ColumnFilters {
		switch cf.Type {
		case FilterScalar:
			if v := DecodeText(q, cf.SearchKey, ""); v != "" {
				st.ColumnFilters = st.ColumnFilters.With(cf.ColumnID, Text(v))
			}
		case FilterRange:
			if r, ok := DecodeDateRange(q, cf.SearchKey); ok {
				st.ColumnFilters = st.ColumnFilters.With(cf.ColumnID, r)
			}
		default:
			if vs := DecodeList(q, cf.SearchKey); len(vs) > 0 {
				st.ColumnFilters = st.ColumnFilters.With(cf.ColumnID, Values(vs))
			}
		}
	}
	return st
}

func (b *Binder) tx() *Tx {
	if b.pending == nil {
		b.pending = newTx(b.State())
	}
	return b.pending
}

// SetPageIndex stages a zero-based page index.
func (b *Binder) SetPageIndex(i int) { b.tx().SetPageIndex(i) }

// SetPageSize stages a page size.
func (b *Binder) SetPageSize(n int) { b.tx().SetPageSize(n) }

// SetPagination stages both page index and size.
func (b *Binder) SetPagination(p Pagination) { b.tx().SetPagination(p) }

// SetGlobalFilter stages the global search text.
func (b *Binder) SetGlobalFilter(s string) { b.tx().SetGlobalFilter(s) }

// SetColumnFilter stages a column filter. Empty values remove the filter.
func (b *Binder) SetColumnFilter(id string, v FilterValue) { b.tx().SetColumnFilter(id, v) }

// ColumnFilter returns the column's value including staged changes.
func (b *Binder) ColumnFilter(id string) (FilterValue, bool) {
	if b.pending != nil {
		return b.pending.state.ColumnFilters.Get(id)
	}
	return b.State().ColumnFilters.Get(id)
}

// ResetColumnFilters stages removal of every column filter.
func (b *Binder) ResetColumnFilters() { b.tx().ResetColumnFilters() }

// Update stages fn's changes on top of anything already staged and commits
// once.
func (b *Binder) Update(fn func(tx *Tx)) bool {
	fn(b.tx())
	return b.Commit()
}

// Commit applies staged changes as a single navigation. It returns false
// when nothing was staged or the resulting query is unchanged.
func (b *Binder) Commit() bool {
	if b.pending == nil {
		return false
	}
	tx := b.pending
	b.pending = nil

	next := b.encode(tx)
	if next.Encode() == b.query.Encode() {
		return false
	}
	b.query = next
	b.navigations++
	slog.Debug("grid: replace query", "query", next.Encode())
	if b.nav != nil {
		b.nav.Replace(cloneValues(next))
	}
	return true
}

// Discard drops staged changes.
func (b *Binder) Discard() { b.pending = nil }

// Preview returns the query fn's changes would produce, without staging or
// navigating. Used to build links for rendered controls.
func (b *Binder) Preview(fn func(tx *Tx)) url.Values {
	tx := newTx(b.State())
	fn(tx)
	return b.encode(tx)
}

// Href renders Preview as a relative link. It satisfies Linker.
func (b *Binder) Href(fn func(tx *Tx)) string {
	return "?" + b.Preview(fn).Encode()
}

// encode merges a transaction's touched fields into a copy of the current
// query. Untouched and undeclared keys are preserved verbatim; defaults are
// elided.
func (b *Binder) encode(tx *Tx) url.Values {
	q := cloneValues(b.query)
	st := tx.state

	if tx.pagination {
		p := b.cfg.Pagination
		if st.Pagination.PageIndex == p.DefaultPageIndex {
			q.Del(p.PageKey)
		} else {
			q.Set(p.PageKey, EncodePage(st.Pagination.PageIndex))
		}
		if st.Pagination.PageSize == p.DefaultPageSize {
			q.Del(p.PageSizeKey)
		} else {
			q.Set(p.PageSizeKey, strconv.Itoa(st.Pagination.PageSize))
		}
	}

	if g := b.cfg.GlobalFilter; tx.global && g.Enabled {
		v := st.GlobalFilter
		if g.Trim {
			v = strings.TrimSpace(v)
		}
		setOrDel(q, g.Key, v, v != "")
	}

	for _, cf := range b.cfg.ColumnFilters {
		if !tx.resetColumns && !tx.columns[cf.ColumnID] {
			continue
		}
		v, ok := st.ColumnFilters.Get(cf.ColumnID)
		if !ok {
			q.Del(cf.SearchKey)
			continue
		}
		s, keep := encodeFilterValue(cf.Type, v)
		setOrDel(q, cf.SearchKey, s, keep)
	}
	return q
}

func encodeFilterValue(t FilterType, v FilterValue) (string, bool) {
	switch val := v.(type) {
	case Values:
		if t == FilterScalar {
			if len(val) == 0 {
				return "", false
			}
			return EncodeText(val[0])
		}
		return EncodeList(val)
	case Text:
		if t == FilterArray {
			return EncodeList([]string{string(val)})
		}
		return EncodeText(strings.TrimSpace(string(val)))
	case DateRange:
		return EncodeDateRange(val)
	}
	return "", false
}

func setOrDel(q url.Values, key, v string, keep bool) {
	if keep {
		q.Set(key, v)
	} else {
		q.Del(key)
	}
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, vs := range q {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// Tx is a set of staged state changes.
type Tx struct {
	state        TableState
	pagination   bool
	global       bool
	resetColumns bool
	columns      map[string]bool
}

func newTx(st TableState) *Tx {
	return &Tx{state: st, columns: make(map[string]bool)}
}

// State returns the staged state.
func (tx *Tx) State() TableState { return tx.state }

func (tx *Tx) SetPageIndex(i int) {
	if i < 0 {
		i = 0
	}
	tx.state.Pagination.PageIndex = i
	tx.pagination = true
}

func (tx *Tx) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	tx.state.Pagination.PageSize = n
	tx.pagination = true
}

func (tx *Tx) SetPagination(p Pagination) {
	tx.SetPageIndex(p.PageIndex)
	tx.SetPageSize(p.PageSize)
}

func (tx *Tx) SetGlobalFilter(s string) {
	tx.state.GlobalFilter = s
	tx.global = true
}

func (tx *Tx) SetColumnFilter(id string, v FilterValue) {
	tx.state.ColumnFilters = tx.state.ColumnFilters.With(id, v)
	tx.columns[id] = true
}

// ColumnFilter returns the staged value for a column.
func (tx *Tx) ColumnFilter(id string) (FilterValue, bool) {
	return tx.state.ColumnFilters.Get(id)
}

func (tx *Tx) ResetColumnFilters() {
	tx.state.ColumnFilters = nil
	tx.resetColumns = true
}
