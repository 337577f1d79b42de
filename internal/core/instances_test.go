package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JonMunkholm/console/internal/grid"
)

func testInstances(src Source) *Instances {
	return NewInstances(src, NewActionLimiter(2, time.Second), time.Minute, time.Second)
}

// ============================================================================
// Instances store
// ============================================================================

func TestInstances_GetIsKeyedBySessionAndFeature(t *testing.T) {
	s := testInstances(testMemorySource())
	f := testFeature()

	a := s.Get("session-a", f)
	if s.Get("session-a", f) != a {
		t.Error("same session and feature returned a new instance")
	}
	if s.Get("session-b", f) == a {
		t.Error("different session shared an instance")
	}

	other := f
	other.Key = "other"
	if s.Get("session-a", other) == a {
		t.Error("different feature shared an instance")
	}
	if got := s.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}

func TestInstances_SweepRemovesIdle(t *testing.T) {
	s := testInstances(testMemorySource())
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return t0 }

	s.Get("session-a", testFeature())

	if n := s.Sweep(t0.Add(59 * time.Second)); n != 0 {
		t.Errorf("Sweep() before TTL removed %d", n)
	}
	if n := s.Sweep(t0.Add(time.Minute)); n != 1 {
		t.Errorf("Sweep() after TTL removed %d, want 1", n)
	}
	if got := s.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestInstances_SweepKeepsBusyInstances(t *testing.T) {
	s := testInstances(testMemorySource())
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return t0 }

	in := s.Get("session-a", testFeature())
	in.Bulk.SetSelected("o1", true)
	if needsConfirm, err := in.Bulk.Trigger(context.Background(), "delete"); err != nil || !needsConfirm {
		t.Fatalf("Trigger() = %v, %v", needsConfirm, err)
	}

	if n := s.Sweep(t0.Add(time.Hour)); n != 0 {
		t.Errorf("Sweep() removed an instance awaiting confirmation")
	}
}

// ============================================================================
// Bulk actions
// ============================================================================

func TestInstance_SetActionRevisesSelection(t *testing.T) {
	src := testMemorySource()
	in := testInstances(src).Get("s", testFeature())

	in.Bulk.SetSelected("o1", true)
	in.Bulk.SetSelected("o3", true)

	needsConfirm, err := in.Bulk.Trigger(context.Background(), "cancel")
	if err != nil || needsConfirm {
		t.Fatalf("Trigger() = %v, %v", needsConfirm, err)
	}

	page, err := src.Fetch(context.Background(), testFeature(), Query{PageSize: 10, Filters: grid.ColumnFilters{
		{ID: "status", Value: grid.Values{"cancelled"}},
	}})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if page.Total != 3 {
		t.Errorf("cancelled rows = %d, want 3", page.Total)
	}
	if in.Bulk.Count() != 0 {
		t.Error("selection not cleared after the action")
	}

	notes := in.DrainNotifications()
	if len(notes) != 1 || notes[0].Level != grid.LevelSuccess {
		t.Errorf("notifications = %+v, want one success", notes)
	}
	if len(in.DrainNotifications()) != 0 {
		t.Error("DrainNotifications() did not clear the queue")
	}
}

func TestInstance_DeleteWaitsForConfirm(t *testing.T) {
	src := testMemorySource()
	in := testInstances(src).Get("s", testFeature())
	in.Bulk.SetSelected("o2", true)

	needsConfirm, err := in.Bulk.Trigger(context.Background(), "delete")
	if err != nil || !needsConfirm {
		t.Fatalf("Trigger() = %v, %v", needsConfirm, err)
	}
	if got := src.Len("orders"); got != 5 {
		t.Fatalf("rows deleted before confirm: %d left", got)
	}

	if err := in.Bulk.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm() error: %v", err)
	}
	if got := src.Len("orders"); got != 4 {
		t.Errorf("Len() = %d, want 4", got)
	}
}

func TestInstance_Revise(t *testing.T) {
	src := testMemorySource()
	in := testInstances(src).Get("s", testFeature())

	in.Bulk.SetSelected("o1", true)
	if err := in.Revise(context.Background(), "shipped"); err != nil {
		t.Fatalf("Revise() error: %v", err)
	}

	page, _ := src.Fetch(context.Background(), testFeature(), Query{PageSize: 10, Filters: grid.ColumnFilters{
		{ID: "status", Value: grid.Values{"shipped"}},
	}})
	if page.Total != 3 {
		t.Errorf("shipped rows = %d, want 3", page.Total)
	}
}

func TestInstance_ReviseInvalidValueNotifies(t *testing.T) {
	in := testInstances(testMemorySource()).Get("s", testFeature())
	in.Bulk.SetSelected("o1", true)

	err := in.Revise(context.Background(), "lost")
	if !errors.Is(err, ErrInvalidRevision) {
		t.Fatalf("expected ErrInvalidRevision, got %v", err)
	}

	notes := in.DrainNotifications()
	if len(notes) != 1 || notes[0].Level != grid.LevelError {
		t.Errorf("notifications = %+v, want one error", notes)
	}
	if in.Bulk.Count() != 0 {
		t.Error("selection kept after a failed action")
	}
}

func TestInstance_ReviseWithoutReviseSpec(t *testing.T) {
	f := testFeature()
	f.Revise = nil
	in := testInstances(testMemorySource()).Get("s", f)
	in.Bulk.SetSelected("o1", true)

	if err := in.Revise(context.Background(), "shipped"); !errors.Is(err, grid.ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

// ============================================================================
// Local view state
// ============================================================================

func TestInstance_ToggleSortCycles(t *testing.T) {
	in := testInstances(testMemorySource()).Get("s", testFeature())

	want := []string{"asc", "desc", ""}
	for _, dir := range want {
		in.ToggleSort("total")
		got := in.Sorting()
		if dir == "" {
			if len(got) != 0 {
				t.Errorf("expected no sort, got %v", got)
			}
			continue
		}
		if len(got) != 1 || got[0].Column != "total" || got[0].Dir != dir {
			t.Errorf("Sorting() = %v, want total %s", got, dir)
		}
	}

	in.ToggleSort("tags")
	if got := in.Sorting(); len(got) != 0 {
		t.Errorf("non-sortable column was sorted: %v", got)
	}
}

func TestInstance_ColumnVisibility(t *testing.T) {
	f := testFeature()
	f.Columns[4].Hidden = true
	in := testInstances(testMemorySource()).Get("s", f)

	if !in.IsHidden("created_at") || len(in.VisibleColumns()) != 4 {
		t.Fatalf("hidden-by-default column is visible")
	}

	in.ToggleColumn("created_at")
	in.ToggleColumn("status")
	if in.IsHidden("created_at") || !in.IsHidden("status") {
		t.Errorf("ToggleColumn() did not flip visibility")
	}
}

func TestInstance_QueryCarriesSortAndSelection(t *testing.T) {
	in := testInstances(testMemorySource()).Get("s", testFeature())
	in.ToggleSort("total")
	in.Bulk.SetSelected("o4", true)

	st := grid.TableState{
		Pagination:   grid.Pagination{PageIndex: 1, PageSize: 20},
		GlobalFilter: "acme",
	}
	q := in.Query(st)

	if q.PageIndex != 1 || q.PageSize != 20 || q.Search != "acme" {
		t.Errorf("state not carried: %+v", q)
	}
	if len(q.Sorts) != 1 || q.Sorts[0].Column != "total" {
		t.Errorf("Sorts = %v", q.Sorts)
	}
	if len(q.Selected) != 1 || q.Selected[0] != "o4" {
		t.Errorf("Selected = %v", q.Selected)
	}
}

func TestInstance_NotificationQueueIsCapped(t *testing.T) {
	in := testInstances(testMemorySource()).Get("s", testFeature())
	for i := 0; i < maxNotifications+3; i++ {
		in.Notify(grid.Notification{Level: grid.LevelInfo, Title: "n"})
	}
	if got := len(in.DrainNotifications()); got != maxNotifications {
		t.Errorf("queued %d notifications, want %d", got, maxNotifications)
	}
}

func TestInstance_ToolbarLocalDateRange(t *testing.T) {
	f := testFeature()
	f.DateRange = &DateRangeSpec{Title: "Period"}
	in := testInstances(testMemorySource()).Get("s", f)

	r := grid.DateRange{From: day(2024, 3, 1)}
	in.UseToolbar(func(tb *grid.Toolbar) {
		b := grid.NewBinder(f.BinderConfig(10, 100), nil, nil)
		tb.SetDateRange(b, r)
	})

	var got grid.DateRange
	in.UseToolbar(func(tb *grid.Toolbar) { got = tb.DateRange(grid.TableState{}) })
	if !got.From.Equal(r.From) {
		t.Errorf("local range = %v, want %v", got, r)
	}
}
