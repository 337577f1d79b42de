package core

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder accumulates AND-ed SQL conditions with positional arguments.
// Empty values are skipped so callers can add optional filters
// unconditionally.
type WhereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

// NewWhereBuilder creates an empty builder whose first placeholder is $1.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

func (wb *WhereBuilder) arg(v any) string {
	wb.args = append(wb.args, v)
	p := fmt.Sprintf("$%d", wb.argIndex)
	wb.argIndex++
	return p
}

// Add adds "column = value". Empty values are skipped.
func (wb *WhereBuilder) Add(column, value string) {
	if value == "" {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = %s", quoteIdentifier(column), wb.arg(value)))
}

// AddAny adds "column = ANY(values)". An empty list is skipped.
func (wb *WhereBuilder) AddAny(column string, values []string) {
	if len(values) == 0 {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = ANY(%s)", quoteIdentifier(column), wb.arg(values)))
}

// AddOverlap adds "array_column && values" for array columns.
func (wb *WhereBuilder) AddOverlap(column string, values []string) {
	if len(values) == 0 {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s && %s::text[]", quoteIdentifier(column), wb.arg(values)))
}

// AddContains adds a case-insensitive substring match.
func (wb *WhereBuilder) AddContains(column, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s ILIKE %s", quoteIdentifier(column), wb.arg("%"+escapeLike(value)+"%")))
}

// AddSearch adds one OR group matching query against every searchable text
// column. All columns share a single placeholder.
func (wb *WhereBuilder) AddSearch(query string, columns []ColumnSpec) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}
	var cols []string
	for _, c := range columns {
		if !c.Searchable {
			continue
		}
		switch c.Type {
		case ColumnText, ColumnEnum:
			cols = append(cols, quoteIdentifier(c.Column()))
		}
	}
	if len(cols) == 0 {
		return
	}
	p := wb.arg("%" + escapeLike(query) + "%")
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c + " ILIKE " + p
	}
	wb.conditions = append(wb.conditions, "("+strings.Join(parts, " OR ")+")")
}

// AddTimestampRange adds inclusive bounds. Zero times are skipped.
func (wb *WhereBuilder) AddTimestampRange(column string, start, end time.Time) {
	col := quoteIdentifier(column)
	if !start.IsZero() {
		wb.conditions = append(wb.conditions, fmt.Sprintf("%s >= %s", col, wb.arg(start)))
	}
	if !end.IsZero() {
		wb.conditions = append(wb.conditions, fmt.Sprintf("%s <= %s", col, wb.arg(end)))
	}
}

// NextArgIndex returns the number of the next placeholder, for clauses
// appended after the WHERE (LIMIT, OFFSET).
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// Build returns " WHERE ..." (with a leading space) and its arguments, or
// "" and nil when no condition was added.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

// quoteIdentifier quotes a SQL identifier, doubling embedded quotes.
func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// quoteColumns quotes every identifier.
func quoteColumns(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdentifier(c)
	}
	return out
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
