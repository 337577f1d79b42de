package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JonMunkholm/console/internal/config"
	"github.com/JonMunkholm/console/internal/core"
	"github.com/JonMunkholm/console/internal/grid"
	"github.com/JonMunkholm/console/internal/grid/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSession = "6f1c2a9e-4b7d-4c1e-9a51-0d5b8f3e2a10"

func testFeature() core.Feature {
	return core.Feature{
		Key:      "orders",
		Group:    "Orders",
		Label:    "Orders",
		Table:    "orders",
		PageSize: 2,
		Columns: []core.ColumnSpec{
			{ID: "order_no", Label: "Order", Type: core.ColumnText, Searchable: true, Sortable: true},
			{ID: "status", Label: "Status", Type: core.ColumnEnum, Faceted: true},
			{ID: "total", Label: "Total", Type: core.ColumnMoney, Sortable: true},
			{ID: "created_at", Label: "Created", Type: core.ColumnDate},
		},
		Filters: []core.FilterSpec{{
			Column: "status",
			Title:  "Status",
			Options: []grid.Option{
				{Label: "Pending", Value: "pending"},
				{Label: "Shipped", Value: "shipped"},
			},
		}},
		DateRange: &core.DateRangeSpec{Column: "created_at", Title: "Created"},
		Actions: []core.ActionSpec{
			{ID: "delete", Label: "Delete", Kind: core.ActionDelete, Destructive: true},
			{ID: "ship", Label: "Ship", Kind: core.ActionSet, Column: "status", Value: "shipped"},
		},
		Revise: &core.ReviseSpec{Label: "Set status", Column: "status"},
	}
}

func testRows() []engine.Row {
	row := func(id, no, status, total string, day int) engine.Row {
		return engine.Row{ID: id, Values: map[string]any{
			"order_no":   no,
			"status":     status,
			"total":      decimal.RequireFromString(total),
			"created_at": time.Date(2024, 6, day, 12, 0, 0, 0, time.UTC),
		}}
	}
	return []engine.Row{
		row("o1", "SO-1001", "pending", "40.00", 1),
		row("o2", "SO-1002", "pending", "25.50", 2),
		row("o3", "SO-1003", "pending", "9.99", 3),
		row("o4", "SO-1004", "shipped", "120.00", 4),
		row("o5", "SO-1005", "shipped", "64.10", 5),
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Grid:     config.GridConfig{DefaultPageSize: 10, MaxPageSize: 100},
		Session:  config.SessionConfig{CookieName: "sid", TTL: time.Minute},
		Fetch:    config.FetchConfig{Timeout: time.Second},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

type testServer struct {
	srv *Server
	src *core.MemorySource
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	core.Clear()
	core.Register(testFeature())
	t.Cleanup(core.Clear)

	src := core.NewMemorySource()
	src.Put("orders", testRows())
	instances := core.NewInstances(src, core.NewActionLimiter(2, time.Second), time.Minute, time.Second)
	return &testServer{srv: NewServer(cfg, instances), src: src}
}

// flakySource fails every fetch while fail is set.
type flakySource struct {
	*core.MemorySource
	fail atomic.Bool
}

func (s *flakySource) Fetch(ctx context.Context, f core.Feature, q core.Query) (*core.Page, error) {
	if s.fail.Load() {
		return nil, errors.New("db down")
	}
	return s.MemorySource.Fetch(ctx, f, q)
}

func newFlakyTestServer(t *testing.T) (*testServer, *flakySource) {
	t.Helper()
	ts := newTestServer(t, testConfig())
	flaky := &flakySource{MemorySource: ts.src}
	instances := core.NewInstances(flaky, core.NewActionLimiter(2, time.Second), time.Minute, time.Second)
	ts.srv = NewServer(testConfig(), instances)
	return ts, flaky
}

// do sends a request in the test session. form is posted when non-nil.
func (ts *testServer) do(method, target string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.AddCookie(&http.Cookie{Name: "sid", Value: testSession})
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) count(t *testing.T, filters grid.ColumnFilters) int {
	t.Helper()
	page, err := ts.src.Fetch(context.Background(), testFeature(), core.Query{PageSize: 10, Filters: filters})
	require.NoError(t, err)
	return page.Total
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodGet, "/healthz", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 1, body.Features)
	assert.Equal(t, 2, body.Bulk.MaxConcurrent)
}

func TestDashboard(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodGet, "/", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/f/orders"`)
	assert.Contains(t, rec.Body.String(), "<h2>Orders</h2>")
}

func TestSessionCookieIssued(t *testing.T) {
	ts := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/f/orders", nil)
	rec := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// a valid cookie is kept
	rec = ts.do(http.MethodGet, "/f/orders", nil, false)
	assert.Empty(t, rec.Result().Cookies())
}

func TestGrid_UnknownFeature(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodGet, "/f/nope", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unknown console page")
}

func TestGrid_FullPage(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodGet, "/f/orders", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "<!DOCTYPE html>"))
	assert.Contains(t, body, `id="row-o1"`)
	assert.Contains(t, body, `id="row-o2"`)
	assert.NotContains(t, body, `id="row-o3"`)
	assert.Contains(t, body, "Page 1 of 3")
	assert.Contains(t, body, "40.00")
}

func TestGrid_PartialForHTMX(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodGet, "/f/orders?page=2", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `<section id="grid"`))
	assert.Contains(t, body, `id="row-o3"`)
	assert.Empty(t, rec.Header().Get("HX-Replace-Url"))
}

func TestGrid_OutOfRangePageRedirects(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodGet, "/f/orders?page=10", nil, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/f/orders?page=3", rec.Header().Get("Location"))
}

func TestGrid_OutOfRangePageReplacesURL(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodGet, "/f/orders?page=10", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/f/orders?page=3", rec.Header().Get("HX-Replace-Url"))
	assert.Contains(t, rec.Body.String(), `id="row-o5"`)
}

func TestFilter_HTMX(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodPost, "/f/orders/filter/status", url.Values{"value": {"shipped"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/f/orders?status=shipped", rec.Header().Get("HX-Replace-Url"))

	body := rec.Body.String()
	assert.Contains(t, body, `id="row-o4"`)
	assert.Contains(t, body, `id="row-o5"`)
	assert.NotContains(t, body, `id="row-o1"`)
}

func TestFilter_FormPostRedirects(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodPost, "/f/orders/filter/status?status=shipped", url.Values{"value": {"pending"}}, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/f/orders?status=shipped%2Cpending", rec.Header().Get("Location"))
}

func TestFilter_Clear(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodPost, "/f/orders/filter/status?status=shipped", url.Values{"clear": {"1"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/f/orders", rec.Header().Get("HX-Replace-Url"))
}

func TestFilter_UnknownColumn(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodPost, "/f/orders/filter/total", url.Values{"value": {"1"}}, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFilter_CorrectsPageAfterShrinking(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodPost, "/f/orders/filter/status?page=3", url.Values{"value": {"shipped"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/f/orders?status=shipped", rec.Header().Get("HX-Replace-Url"))
	assert.Contains(t, rec.Body.String(), `id="row-o4"`)
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodPost, "/f/orders/search", url.Values{"q": {"1003"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/f/orders?filter=1003", rec.Header().Get("HX-Replace-Url"))

	body := rec.Body.String()
	assert.Contains(t, body, `id="row-o3"`)
	assert.NotContains(t, body, `id="row-o1"`)
}

func TestDateRange(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodPost, "/f/orders/range", url.Values{"from": {"2024-06-02"}, "to": {"2024-06-03"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/f/orders?created_at=2024-06-02%2C2024-06-03", rec.Header().Get("HX-Replace-Url"))

	body := rec.Body.String()
	assert.Contains(t, body, `id="row-o2"`)
	assert.Contains(t, body, `id="row-o3"`)
	assert.NotContains(t, body, `id="row-o1"`)
}

func TestDateRange_Invalid(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodPost, "/f/orders/range", url.Values{"from": {"2024-13-01"}}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VAL001")
}

func TestReset(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodPost, "/f/orders/reset?status=shipped&filter=100&page=2", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/f/orders?page=2", rec.Header().Get("HX-Replace-Url"))
}

func TestSort(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodPost, "/f/orders/sort/total", url.Values{}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	// ascending by total: o3 (9.99), o2 (25.50)
	body := rec.Body.String()
	assert.Contains(t, body, `id="row-o3"`)
	assert.Contains(t, body, `id="row-o2"`)
	assert.NotContains(t, body, `id="row-o1"`)
	assert.Less(t, strings.Index(body, `id="row-o3"`), strings.Index(body, `id="row-o2"`))
	assert.Contains(t, body, `aria-sort="ascending"`)

	// sorting stays out of the URL
	assert.Empty(t, rec.Header().Get("HX-Replace-Url"))
}

func TestToggleColumn(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodPost, "/f/orders/columns/total", url.Values{}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "40.00")
}

func TestSelectAndConfirmDelete(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodPost, "/f/orders/select", url.Values{"id": {"o1"}, "selected": {"true"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1 selected")

	rec = ts.do(http.MethodPost, "/f/orders/bulk/delete", url.Values{}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alertdialog")
	assert.Equal(t, 5, ts.src.Len("orders"), "destructive action waits for confirmation")

	rec = ts.do(http.MethodPost, "/f/orders/confirm", url.Values{}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, ts.src.Len("orders"))
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "showToast")
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "1 row processed")
	assert.NotContains(t, rec.Body.String(), "alertdialog")
	assert.NotContains(t, rec.Body.String(), `class="bulk-panel"`)
}

func TestCancelConfirm(t *testing.T) {
	ts := newTestServer(t, testConfig())

	ts.do(http.MethodPost, "/f/orders/select", url.Values{"id": {"o1"}}, true)
	ts.do(http.MethodPost, "/f/orders/bulk/delete", url.Values{}, true)

	rec := ts.do(http.MethodPost, "/f/orders/cancel", url.Values{}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "alertdialog")
	assert.Contains(t, rec.Body.String(), "1 selected")
	assert.Equal(t, 5, ts.src.Len("orders"))
}

func TestSelectPage(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodPost, "/f/orders/select", url.Values{"op": {"page"}, "selected": {"true"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2 selected")

	rec = ts.do(http.MethodPost, "/f/orders/select", url.Values{"op": {"clear"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `class="bulk-panel"`)
}

func TestBulk_NonDestructiveRunsImmediately(t *testing.T) {
	ts := newTestServer(t, testConfig())

	ts.do(http.MethodPost, "/f/orders/select", url.Values{"id": {"o1"}, "selected": {"true"}}, true)
	rec := ts.do(http.MethodPost, "/f/orders/bulk/ship", url.Values{}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	shipped := grid.ColumnFilters{{ID: "status", Value: grid.Values{"shipped"}}}
	assert.Equal(t, 3, ts.count(t, shipped))
}

func TestBulk_EmptySelection(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodPost, "/f/orders/bulk/ship", url.Values{}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "No rows are selected")
}

func TestBulk_UnknownAction(t *testing.T) {
	ts := newTestServer(t, testConfig())

	ts.do(http.MethodPost, "/f/orders/select", url.Values{"id": {"o1"}}, true)
	rec := ts.do(http.MethodPost, "/f/orders/bulk/archive", url.Values{}, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulk_FormPostRedirectsWithConfirm(t *testing.T) {
	ts := newTestServer(t, testConfig())

	ts.do(http.MethodPost, "/f/orders/select?status=pending", url.Values{"id": {"o1"}}, false)
	rec := ts.do(http.MethodPost, "/f/orders/bulk/delete?status=pending", url.Values{}, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/f/orders?status=pending", rec.Header().Get("Location"))

	rec = ts.do(http.MethodGet, "/f/orders?status=pending", nil, false)
	assert.Contains(t, rec.Body.String(), "alertdialog")
}

func TestRevise(t *testing.T) {
	ts := newTestServer(t, testConfig())

	ts.do(http.MethodPost, "/f/orders/select", url.Values{"id": {"o1"}, "selected": {"true"}}, true)
	ts.do(http.MethodPost, "/f/orders/select", url.Values{"id": {"o2"}, "selected": {"true"}}, true)

	rec := ts.do(http.MethodPost, "/f/orders/revise", url.Values{"value": {"shipped"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "2 rows processed")

	shipped := grid.ColumnFilters{{ID: "status", Value: grid.Values{"shipped"}}}
	assert.Equal(t, 4, ts.count(t, shipped))
}

func TestRevise_RejectedValue(t *testing.T) {
	ts := newTestServer(t, testConfig())

	ts.do(http.MethodPost, "/f/orders/select", url.Values{"id": {"o1"}, "selected": {"true"}}, true)
	rec := ts.do(http.MethodPost, "/f/orders/revise", url.Values{"value": {"lost"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "That value is not allowed for this column")

	pending := grid.ColumnFilters{{ID: "status", Value: grid.Values{"pending"}}}
	assert.Equal(t, 3, ts.count(t, pending))
}

func TestFacetSearch(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodGet, "/f/orders/facet/status?search=ship", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `<details class="popover facet" id="facet-status" open`))
	assert.Contains(t, body, `<span class="label">Shipped</span>`)
	assert.NotContains(t, body, `<span class="label">Pending</span>`)
	// the option search stays out of the grid's action URLs
	assert.NotContains(t, body, "search=ship")
}

func TestAPIKeyRequiredForMutations(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	ts := newTestServer(t, cfg)

	rec := ts.do(http.MethodPost, "/f/orders/bulk/ship", url.Values{}, true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/f/orders/bulk/ship", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: testSession})
	req.Header.Set("HX-Request", "true")
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// reading the grid needs no key
	rec = ts.do(http.MethodGet, "/f/orders", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodGet, "/", nil, false)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://unpkg.com")
}

func TestStaticFiles(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodGet, "/static/app.js", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "showToast")
}

func TestAudit(t *testing.T) {
	ts := newTestServer(t, testConfig())

	ts.do(http.MethodPost, "/f/orders/select", url.Values{"id": {"o1"}, "selected": {"true"}}, true)
	ts.do(http.MethodPost, "/f/orders/bulk/ship", url.Values{}, true)

	rec := ts.do(http.MethodGet, "/audit?feature=orders", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body auditResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Entries, 1)
	e := body.Entries[0]
	assert.Equal(t, core.AuditBulkSet, e.Action)
	assert.Equal(t, "ship", e.ActionID)
	assert.Equal(t, testSession, e.SessionID)
	assert.Equal(t, []string{"o1"}, e.RowKeys)
	assert.Equal(t, 1, e.RowsAffected)

	rec = ts.do(http.MethodGet, "/audit?feature=wallet", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":[]}`, rec.Body.String())
}

func TestAudit_InvalidLimit(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(http.MethodGet, "/audit?limit=abc", nil, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulk_ConfirmDialogKeepsRowsWhenFetchFails(t *testing.T) {
	ts, flaky := newFlakyTestServer(t)

	rec := ts.do(http.MethodPost, "/f/orders/select", url.Values{"id": {"o1"}, "selected": {"true"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "SO-1001")

	flaky.fail.Store(true)
	rec = ts.do(http.MethodPost, "/f/orders/bulk/delete", url.Values{}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "alertdialog")
	assert.Contains(t, body, "SO-1001")
	assert.Contains(t, body, "Showing the last loaded rows")
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "Couldn't load rows")
}

func TestBulk_FailedRefetchAfterDeleteKeepsLastRows(t *testing.T) {
	ts, flaky := newFlakyTestServer(t)

	ts.do(http.MethodPost, "/f/orders/select", url.Values{"id": {"o1"}, "selected": {"true"}}, true)
	ts.do(http.MethodPost, "/f/orders/bulk/delete", url.Values{}, true)

	flaky.fail.Store(true)
	rec := ts.do(http.MethodPost, "/f/orders/confirm", url.Values{}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, ts.src.Len("orders"))

	body := rec.Body.String()
	assert.Contains(t, body, "SO-1002")
	assert.Contains(t, body, "Showing the last loaded rows")
}
