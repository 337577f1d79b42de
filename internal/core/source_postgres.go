package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/console/internal/grid"
	"github.com/JonMunkholm/console/internal/grid/engine"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// BatchDBTX is a DBTX that can pipeline queries.
// Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type BatchDBTX interface {
	DBTX
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresSource serves feature grids from PostgreSQL. Each feature maps to
// one table; column ids map to columns through ColumnSpec.Column.
type PostgresSource struct {
	db BatchDBTX
}

// NewPostgresSource creates a source over db (usually a *pgxpool.Pool).
func NewPostgresSource(db BatchDBTX) *PostgresSource {
	return &PostgresSource{db: db}
}

// Fetch pipelines the page, total, facet and selection queries in one batch.
func (s *PostgresSource) Fetch(ctx context.Context, f Feature, q Query) (*Page, error) {
	batch := &pgx.Batch{}

	sql, args := buildCountSQL(f, q)
	batch.Queue(sql, args...)

	sql, args = buildSelectSQL(f, q)
	batch.Queue(sql, args...)

	var facetCols []string
	for _, fs := range f.Filters {
		col, ok := f.Column(fs.Column)
		if !ok || !col.Faceted {
			continue
		}
		sql, args = buildFacetSQL(f, q, col)
		batch.Queue(sql, args...)
		facetCols = append(facetCols, col.ID)
	}

	if len(q.Selected) > 0 {
		sql, args = buildSelectedSQL(f, q)
		batch.Queue(sql, args...)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()

	page := &Page{Facets: make(map[string]map[string]int, len(facetCols))}

	var total int64
	if err := br.QueryRow().Scan(&total); err != nil {
		return nil, fmt.Errorf("count %s: %w", f.Table, err)
	}
	page.Total = int(total)

	rows, err := br.Query()
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", f.Table, err)
	}
	page.Rows, err = scanRows(rows, f)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", f.Table, err)
	}

	for _, id := range facetCols {
		counts, err := scanFacets(br)
		if err != nil {
			return nil, fmt.Errorf("facets %s.%s: %w", f.Table, id, err)
		}
		page.Facets[id] = counts
	}

	if len(q.Selected) > 0 {
		var n int64
		if err := br.QueryRow().Scan(&n); err != nil {
			return nil, fmt.Errorf("selected %s: %w", f.Table, err)
		}
		page.SelectedMatching = int(n)
	}
	return page, nil
}

func (s *PostgresSource) Delete(ctx context.Context, f Feature, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s::text = ANY($1)", quoteTable(f.Table), quoteIdentifier(f.IDCol()))
	tag, err := s.db.Exec(ctx, sql, ids)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", f.Table, err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresSource) Revise(ctx context.Context, f Feature, ids []string, column, value string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	col, err := validateRevision(f, column, value)
	if err != nil {
		return 0, err
	}
	v, err := parseCell(col.Type, value)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRevision, err)
	}
	if d, ok := v.(decimal.Decimal); ok {
		v = d.String()
	}

	sql := fmt.Sprintf("UPDATE %s SET %s = $1::%s WHERE %s::text = ANY($2)",
		quoteTable(f.Table), quoteIdentifier(col.Column()), sqlType(col.Type), quoteIdentifier(f.IDCol()))
	tag, err := s.db.Exec(ctx, sql, v, ids)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", f.Table, err)
	}
	return int(tag.RowsAffected()), nil
}

// whereFor builds the filter clause. skip omits one column's filter, for
// facet counts.
func whereFor(f Feature, q Query, skip string) *WhereBuilder {
	wb := NewWhereBuilder()
	wb.AddSearch(q.Search, f.Columns)
	for _, cf := range q.Filters {
		if cf.ID == skip {
			continue
		}
		col, ok := f.Column(cf.ID)
		if !ok {
			continue
		}
		switch v := cf.Value.(type) {
		case grid.Values:
			if col.Type == ColumnTags {
				wb.AddOverlap(col.Column(), v)
			} else {
				wb.AddAny(col.Column(), v)
			}
		case grid.Text:
			wb.AddContains(col.Column(), string(v))
		case grid.DateRange:
			if !v.IsEmpty() {
				wb.AddTimestampRange(col.Column(), v.Start(), v.End())
			}
		}
	}
	return wb
}

func buildCountSQL(f Feature, q Query) (string, []any) {
	where, args := whereFor(f, q, "").Build()
	return "SELECT count(*) FROM " + quoteTable(f.Table) + where, args
}

func buildSelectSQL(f Feature, q Query) (string, []any) {
	wb := whereFor(f, q, "")
	where, args := wb.Build()

	exprs := []string{quoteIdentifier(f.IDCol()) + "::text"}
	for _, c := range f.Columns {
		exprs = append(exprs, quoteIdentifier(c.Column())+"::"+sqlType(c.Type))
	}

	var order []string
	for _, so := range q.Sorts {
		col, ok := f.Column(so.Column)
		if !ok || !col.Sortable {
			continue
		}
		dir := "ASC"
		if so.Desc() {
			dir = "DESC"
		}
		order = append(order, quoteIdentifier(col.Column())+" "+dir)
	}
	order = append(order, quoteIdentifier(f.IDCol()))

	size := max(q.PageSize, 1)
	n := wb.NextArgIndex()
	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		strings.Join(exprs, ", "), quoteTable(f.Table), where, strings.Join(order, ", "), n, n+1)
	return sql, append(args, size, max(q.PageIndex, 0)*size)
}

func buildFacetSQL(f Feature, q Query, col ColumnSpec) (string, []any) {
	where, args := whereFor(f, q, col.ID).Build()
	if col.Type == ColumnTags {
		return fmt.Sprintf("SELECT facet_value, count(*) FROM %s CROSS JOIN LATERAL unnest(%s) AS facet(facet_value)%s GROUP BY 1",
			quoteTable(f.Table), quoteIdentifier(col.Column()), where), args
	}
	return fmt.Sprintf("SELECT %s::text, count(*) FROM %s%s GROUP BY 1",
		quoteIdentifier(col.Column()), quoteTable(f.Table), where), args
}

func buildSelectedSQL(f Feature, q Query) (string, []any) {
	wb := whereFor(f, q, "")
	where, args := wb.Build()
	cond := fmt.Sprintf("%s::text = ANY($%d)", quoteIdentifier(f.IDCol()), wb.NextArgIndex())
	if where == "" {
		where = " WHERE " + cond
	} else {
		where += " AND " + cond
	}
	return "SELECT count(*) FROM " + quoteTable(f.Table) + where, append(args, q.Selected)
}

func sqlType(t ColumnType) string {
	switch t {
	case ColumnTags:
		return "text[]"
	case ColumnDate:
		return "timestamptz"
	case ColumnMoney:
		return "numeric"
	case ColumnNumber:
		return "bigint"
	}
	return "text"
}

// quoteTable quotes each part of a possibly schema-qualified name.
func quoteTable(name string) string {
	return strings.Join(quoteColumns(strings.Split(name, ".")), ".")
}

func scanRows(rows pgx.Rows, f Feature) ([]engine.Row, error) {
	defer rows.Close()

	var out []engine.Row
	for rows.Next() {
		var id string
		holders := make([]any, len(f.Columns))
		dest := make([]any, 0, len(f.Columns)+1)
		dest = append(dest, &id)
		for i, c := range f.Columns {
			switch c.Type {
			case ColumnTags:
				holders[i] = new([]string)
			case ColumnDate:
				holders[i] = new(pgtype.Timestamptz)
			case ColumnMoney:
				holders[i] = new(decimal.NullDecimal)
			case ColumnNumber:
				holders[i] = new(pgtype.Int8)
			default:
				holders[i] = new(pgtype.Text)
			}
			dest = append(dest, holders[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		vals := make(map[string]any, len(f.Columns))
		for i, c := range f.Columns {
			vals[c.ID] = cellValue(holders[i])
		}
		out = append(out, engine.Row{ID: id, Values: vals})
	}
	return out, rows.Err()
}

func cellValue(h any) any {
	switch v := h.(type) {
	case *[]string:
		return *v
	case *pgtype.Timestamptz:
		if v.Valid {
			return v.Time
		}
	case *decimal.NullDecimal:
		if v.Valid {
			return v.Decimal
		}
	case *pgtype.Int8:
		if v.Valid {
			return v.Int64
		}
	case *pgtype.Text:
		if v.Valid {
			return v.String
		}
	}
	return nil
}

func scanFacets(br pgx.BatchResults) (map[string]int, error) {
	rows, err := br.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			value pgtype.Text
			n     int64
		)
		if err := rows.Scan(&value, &n); err != nil {
			return nil, err
		}
		if value.Valid && value.String != "" {
			counts[value.String] = int(n)
		}
	}
	return counts, rows.Err()
}
