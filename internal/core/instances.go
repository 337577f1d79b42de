package core

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/JonMunkholm/console/internal/grid"
)

// DefaultInstanceTTL is how long an untouched instance is kept.
const DefaultInstanceTTL = 30 * time.Minute

// maxNotifications caps the toasts queued for one instance.
const maxNotifications = 8

// Instance is one session's view of one feature grid. It holds everything
// that lives outside the URL: the row selection, sorting, hidden columns,
// the toolbar's local date range and queued notifications.
type Instance struct {
	Feature Feature
	Loader  *Loader
	Bulk    *grid.BulkPanel

	mu      sync.Mutex
	toolbar *grid.Toolbar
	sorting []SortSpec
	hidden  map[string]bool
	notes   []grid.Notification
}

func newInstance(f Feature, source Source, limiter *ActionLimiter, audit AuditLog, fetchTimeout time.Duration) *Instance {
	in := &Instance{
		Feature: f,
		Loader:  NewLoader(source, f, fetchTimeout),
		toolbar: grid.NewToolbar(f.ToolbarConfig()),
		hidden:  make(map[string]bool),
	}
	for _, c := range f.Columns {
		if c.Hidden {
			in.hidden[c.ID] = true
		}
	}
	in.toolbar.OnFilterChange = func() {
		slog.Debug("toolbar filter changed", "feature", f.Key)
	}
	in.Bulk = grid.NewBulkPanel(&grid.SelectionSet{}, in, bulkActions(f, source, limiter, audit)...)
	return in
}

// bulkActions builds the panel actions of a feature, plus the bulk-revise
// action when the feature declares one.
func bulkActions(f Feature, source Source, limiter *ActionLimiter, audit AuditLog) []grid.BulkAction {
	var out []grid.BulkAction
	for _, a := range f.Actions {
		run := func(ctx context.Context, ids []string) (int, error) {
			if a.Kind == ActionDelete {
				return source.Delete(ctx, f, ids)
			}
			return source.Revise(ctx, f, ids, a.Column, a.Value)
		}
		entry := func(ctx context.Context) AuditEntry {
			if a.Kind == ActionDelete {
				return newAuditEntry(ctx, f, AuditBulkDelete, a.ID)
			}
			e := newAuditEntry(ctx, f, AuditBulkSet, a.ID)
			e.ColumnName, e.NewValue = a.Column, a.Value
			return e
		}
		out = append(out, grid.BulkAction{
			ID:          a.ID,
			Label:       a.Label,
			Icon:        a.Icon,
			Tooltip:     a.Tooltip,
			Destructive: a.Destructive,
			Run:         limitedRun(limiter, audit, entry, run),
		})
	}

	if rv := f.Revise; rv != nil {
		run := func(ctx context.Context, ids []string) (int, error) {
			value, ok := ReviseValueFromContext(ctx)
			if !ok {
				return 0, fmt.Errorf("%w: no value picked", ErrInvalidRevision)
			}
			return source.Revise(ctx, f, ids, rv.Column, value)
		}
		entry := func(ctx context.Context) AuditEntry {
			e := newAuditEntry(ctx, f, AuditBulkRevise, ReviseActionID)
			e.ColumnName = rv.Column
			e.NewValue, _ = ReviseValueFromContext(ctx)
			return e
		}
		out = append(out, grid.BulkAction{
			ID:    ReviseActionID,
			Label: rv.Label,
			Run:   limitedRun(limiter, audit, entry, run),
		})
	}
	return out
}

// limitedRun runs a bulk action under the limiter and records it in the
// audit log, whether it succeeded or not.
func limitedRun(
	limiter *ActionLimiter,
	audit AuditLog,
	entry func(context.Context) AuditEntry,
	run func(context.Context, []string) (int, error),
) func(context.Context, []string) error {
	return func(ctx context.Context, ids []string) error {
		return limiter.Do(ctx, func(ctx context.Context) error {
			n, err := run(ctx, ids)

			e := entry(ctx)
			e.RowKeys = ids
			e.RowsAffected = n
			if err != nil {
				e.Error = err.Error()
			}
			if audit != nil {
				if aerr := audit.Record(context.WithoutCancel(ctx), e); aerr != nil {
					slog.Warn("failed to record audit entry", "feature", e.Feature, "action", e.ActionID, "error", aerr)
				}
			}

			if err != nil {
				slog.Error("bulk action error",
					"feature", e.Feature,
					"action", e.ActionID,
					"selected", len(ids),
					"error", err,
				)
				// the panel shows Error() to the user
				return NewUserError(err)
			}
			slog.Info("bulk action applied",
				"feature", e.Feature,
				"action", e.ActionID,
				"selected", len(ids),
				"affected", n,
			)
			return nil
		})
	}
}

// Notify queues a toast for the next response. Implements grid.Notifier.
func (in *Instance) Notify(n grid.Notification) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.notes = append(in.notes, n)
	if len(in.notes) > maxNotifications {
		in.notes = in.notes[len(in.notes)-maxNotifications:]
	}
}

// DrainNotifications returns and clears the queued toasts.
func (in *Instance) DrainNotifications() []grid.Notification {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := in.notes
	in.notes = nil
	return out
}

// UseToolbar runs fn with exclusive access to the toolbar.
func (in *Instance) UseToolbar(fn func(t *grid.Toolbar)) {
	in.mu.Lock()
	defer in.mu.Unlock()
	fn(in.toolbar)
}

// ToggleSort cycles a sortable column through ascending, descending and
// unsorted. Sorting is by one column at a time.
func (in *Instance) ToggleSort(column string) {
	col, ok := in.Feature.Column(column)
	if !ok || !col.Sortable {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()

	dir := "asc"
	if len(in.sorting) > 0 && in.sorting[0].Column == column {
		if in.sorting[0].Desc() {
			in.sorting = nil
			return
		}
		dir = "desc"
	}
	in.sorting = []SortSpec{{Column: column, Dir: dir}}
}

// Sorting returns the active sort.
func (in *Instance) Sorting() []SortSpec {
	in.mu.Lock()
	defer in.mu.Unlock()
	return slices.Clone(in.sorting)
}

// ToggleColumn shows or hides a column.
func (in *Instance) ToggleColumn(column string) {
	if _, ok := in.Feature.Column(column); !ok {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.hidden[column] = !in.hidden[column]
}

// VisibleColumns returns the feature's columns minus hidden ones.
func (in *Instance) VisibleColumns() []ColumnSpec {
	in.mu.Lock()
	defer in.mu.Unlock()
	var out []ColumnSpec
	for _, c := range in.Feature.Columns {
		if !in.hidden[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// IsHidden reports whether a column is hidden.
func (in *Instance) IsHidden(column string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.hidden[column]
}

// Query builds the fetch request for st, adding the instance's sort and
// selection.
func (in *Instance) Query(st grid.TableState) Query {
	q := QueryFromState(st)
	q.Sorts = in.Sorting()
	q.Selected = in.Bulk.SelectedIDs()
	return q
}

// Revise applies the bulk-revise action with value to the selection.
func (in *Instance) Revise(ctx context.Context, value string) error {
	if in.Feature.Revise == nil {
		return fmt.Errorf("%w: %s", grid.ErrUnknownAction, ReviseActionID)
	}
	_, err := in.Bulk.Trigger(ContextWithReviseValue(ctx, value), ReviseActionID)
	return err
}

type instanceKey struct {
	session string
	feature string
}

type instanceEntry struct {
	inst     *Instance
	lastSeen time.Time
}

// Instances holds the live grid instances keyed by session and feature.
// Idle instances are swept after the TTL.
type Instances struct {
	source       Source
	limiter      *ActionLimiter
	audit        AuditLog
	ttl          time.Duration
	fetchTimeout time.Duration

	mu    sync.Mutex
	items map[instanceKey]*instanceEntry
	now   func() time.Time
}

// NewInstances creates an instance store. A non-positive ttl selects
// DefaultInstanceTTL; a nil limiter gets the default limits. Bulk actions
// are audited in memory until SetAuditLog picks another log.
func NewInstances(source Source, limiter *ActionLimiter, ttl, fetchTimeout time.Duration) *Instances {
	if ttl <= 0 {
		ttl = DefaultInstanceTTL
	}
	if limiter == nil {
		limiter = NewActionLimiter(0, 0)
	}
	return &Instances{
		source:       source,
		limiter:      limiter,
		audit:        NewMemoryAuditLog(0),
		ttl:          ttl,
		fetchTimeout: fetchTimeout,
		items:        make(map[instanceKey]*instanceEntry),
		now:          time.Now,
	}
}

// Get returns the session's instance of f, creating it on first use.
func (s *Instances) Get(session string, f Feature) *Instance {
	key := instanceKey{session: session, feature: f.Key}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		e = &instanceEntry{inst: newInstance(f, s.source, s.limiter, s.audit, s.fetchTimeout)}
		s.items[key] = e
	}
	e.lastSeen = s.now()
	return e.inst
}

// Sweep removes instances idle since before now minus the TTL and returns
// how many were removed. Instances with a bulk action in progress are kept.
func (s *Instances) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.items {
		if now.Sub(e.lastSeen) < s.ttl || e.inst.Bulk.Busy() {
			continue
		}
		e.inst.Loader.Stop()
		delete(s.items, key)
		removed++
	}
	return removed
}

// Start sweeps idle instances until ctx is done.
func (s *Instances) Start(ctx context.Context) {
	interval := min(s.ttl/2, time.Minute)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := s.Sweep(now); n > 0 {
					slog.Debug("swept idle grid instances", "removed", n)
				}
			}
		}
	}()
}

// Len returns the number of live instances.
func (s *Instances) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// SetAuditLog replaces the audit log. Call it before serving requests.
func (s *Instances) SetAuditLog(log AuditLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = log
}

// AuditLog returns the log bulk actions are recorded in.
func (s *Instances) AuditLog() AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audit
}

// Limiter returns the shared bulk action limiter.
func (s *Instances) Limiter() *ActionLimiter { return s.limiter }
