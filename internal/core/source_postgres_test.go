package core

import (
	"testing"

	"github.com/JonMunkholm/console/internal/grid"
)

// ============================================================================
// SQL Builders
// ============================================================================

func filteredQuery() Query {
	return Query{
		PageIndex: 1,
		PageSize:  2,
		Search:    "acme",
		Filters: grid.ColumnFilters{
			{ID: "status", Value: grid.Values{"pending", "shipped"}},
			{ID: "tags", Value: grid.Values{"rush"}},
		},
		Sorts: []SortSpec{
			{Column: "total", Dir: "desc"},
			{Column: "tags", Dir: "asc"}, // not sortable, ignored
		},
	}
}

func TestBuildCountSQL_NoFilters(t *testing.T) {
	sql, args := buildCountSQL(testFeature(), Query{PageSize: 10})

	if sql != `SELECT count(*) FROM "orders"` {
		t.Errorf("unexpected sql %q", sql)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}
}

func TestBuildSelectSQL(t *testing.T) {
	sql, args := buildSelectSQL(testFeature(), filteredQuery())

	expected := `SELECT "id"::text, "order_no"::text, "status"::text, "tags"::text[], "total"::numeric, "created_at"::timestamptz` +
		` FROM "orders"` +
		` WHERE ("order_no" ILIKE $1) AND "status" = ANY($2) AND "tags" && $3::text[]` +
		` ORDER BY "total" DESC, "id" LIMIT $4 OFFSET $5`
	if sql != expected {
		t.Errorf("sql mismatch\n got: %s\nwant: %s", sql, expected)
	}

	if len(args) != 5 {
		t.Fatalf("expected 5 args, got %d", len(args))
	}
	if args[3] != 2 || args[4] != 2 {
		t.Errorf("limit/offset = %v/%v, want 2/2", args[3], args[4])
	}
}

func TestBuildSelectSQL_DateRange(t *testing.T) {
	q := Query{PageSize: 10, Filters: grid.ColumnFilters{
		{ID: "created_at", Value: grid.DateRange{From: day(2024, 3, 1)}},
	}}

	sql, args := buildSelectSQL(testFeature(), q)

	want := ` WHERE "created_at" >= $1 AND "created_at" <= $2 ORDER BY "id" LIMIT $3 OFFSET $4`
	if len(sql) < len(want) || sql[len(sql)-len(want):] != want {
		t.Errorf("unexpected sql %q", sql)
	}
	if len(args) != 4 {
		t.Errorf("expected 4 args, got %d", len(args))
	}
}

func TestBuildFacetSQL_ExcludesOwnFilter(t *testing.T) {
	f := testFeature()
	q := filteredQuery()

	status, _ := f.Column("status")
	sql, args := buildFacetSQL(f, q, status)
	expected := `SELECT "status"::text, count(*) FROM "orders" WHERE ("order_no" ILIKE $1) AND "tags" && $2::text[] GROUP BY 1`
	if sql != expected {
		t.Errorf("status facet sql\n got: %s\nwant: %s", sql, expected)
	}
	if len(args) != 2 {
		t.Errorf("expected 2 args, got %d", len(args))
	}

	tags, _ := f.Column("tags")
	sql, _ = buildFacetSQL(f, q, tags)
	expected = `SELECT facet_value, count(*) FROM "orders" CROSS JOIN LATERAL unnest("tags") AS facet(facet_value) WHERE ("order_no" ILIKE $1) AND "status" = ANY($2) GROUP BY 1`
	if sql != expected {
		t.Errorf("tags facet sql\n got: %s\nwant: %s", sql, expected)
	}
}

func TestBuildSelectedSQL(t *testing.T) {
	f := testFeature()

	t.Run("appends to the filter clause", func(t *testing.T) {
		q := filteredQuery()
		q.Selected = []string{"o1", "o2"}

		sql, args := buildSelectedSQL(f, q)
		expected := `SELECT count(*) FROM "orders" WHERE ("order_no" ILIKE $1) AND "status" = ANY($2) AND "tags" && $3::text[] AND "id"::text = ANY($4)`
		if sql != expected {
			t.Errorf("sql mismatch\n got: %s\nwant: %s", sql, expected)
		}
		if len(args) != 4 {
			t.Errorf("expected 4 args, got %d", len(args))
		}
	})

	t.Run("starts the clause when unfiltered", func(t *testing.T) {
		sql, _ := buildSelectedSQL(f, Query{Selected: []string{"o1"}})
		if sql != `SELECT count(*) FROM "orders" WHERE "id"::text = ANY($1)` {
			t.Errorf("unexpected sql %q", sql)
		}
	})
}

func TestWhereFor_ColumnBoundSearch(t *testing.T) {
	f := testFeature()
	f.Search = SearchSpec{Column: "order_no"}
	q := Query{Filters: grid.ColumnFilters{{ID: "order_no", Value: grid.Text("A-")}}}

	where, args := whereFor(f, q, "").Build()

	if where != ` WHERE "order_no" ILIKE $1` {
		t.Errorf("unexpected clause %q", where)
	}
	if args[0] != "%A-%" {
		t.Errorf("unexpected pattern %v", args[0])
	}
}

func TestSQLType(t *testing.T) {
	tests := map[ColumnType]string{
		ColumnText:   "text",
		ColumnEnum:   "text",
		ColumnTags:   "text[]",
		ColumnDate:   "timestamptz",
		ColumnMoney:  "numeric",
		ColumnNumber: "bigint",
	}
	for typ, want := range tests {
		if got := sqlType(typ); got != want {
			t.Errorf("sqlType(%s) = %q, want %q", typ, got, want)
		}
	}
}
