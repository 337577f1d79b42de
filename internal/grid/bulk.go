package grid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrBulkBusy is returned when an action is triggered while another is
	// awaiting confirmation or still running.
	ErrBulkBusy = errors.New("grid: bulk action in progress")

	// ErrEmptySelection is returned when an action is triggered with no
	// rows selected.
	ErrEmptySelection = errors.New("grid: no rows selected")

	// ErrNoPendingAction is returned by Confirm when nothing awaits
	// confirmation.
	ErrNoPendingAction = errors.New("grid: no action awaiting confirmation")

	// ErrUnknownAction is returned for an action id the panel does not have.
	ErrUnknownAction = errors.New("grid: unknown bulk action")

	// ErrActionPanicked wraps a panic raised by an action handler.
	ErrActionPanicked = errors.New("grid: bulk action panicked")
)

// NotificationLevel classifies a toast.
type NotificationLevel string

const (
	LevelInfo    NotificationLevel = "info"
	LevelSuccess NotificationLevel = "success"
	LevelError   NotificationLevel = "error"
)

// Notification is a transient, non-fatal message for the user.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Title   string            `json:"title"`
	Message string            `json:"message,omitempty"`
}

// Notifier surfaces notifications.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Selection is the row selection a bulk panel acts on.
// Satisfied by *SelectionSet.
type Selection interface {
	Has(id string) bool
	Set(id string, selected bool)
	IDs() []string
	Len() int
	Clear()
}

// BulkAction is a batch operation over the selected rows.
type BulkAction struct {
	ID          string
	Label       string
	Icon        string
	Tooltip     string
	Destructive bool
	Run         func(ctx context.Context, ids []string) error
}

// BulkActionView is the render model of one action button.
type BulkActionView struct {
	ID          string
	Label       string
	Icon        string
	Tooltip     string
	Destructive bool
	Disabled    bool
}

// ConfirmView is the render model of an open confirmation dialog.
type ConfirmView struct {
	ActionID string
	Label    string
	Count    int
}

// BulkPanelView is the render model of the floating panel.
type BulkPanelView struct {
	Visible bool
	Count   int
	Actions []BulkActionView
	Confirm *ConfirmView
}

// BulkPanel runs batch actions over a selection. Destructive actions wait
// for Confirm. While an action awaits confirmation or runs, every trigger is
// disabled. Once an action resolves the selection is cleared, whatever the
// outcome.
type BulkPanel struct {
	mu         sync.Mutex
	sel        Selection
	notify     Notifier
	actions    []BulkAction
	confirming *BulkAction
	confirmIDs []string
	running    bool
}

// NewBulkPanel creates a panel over sel. notify may be nil.
func NewBulkPanel(sel Selection, notify Notifier, actions ...BulkAction) *BulkPanel {
	return &BulkPanel{sel: sel, notify: notify, actions: actions}
}

// Visible reports whether any row is selected.
func (p *BulkPanel) Visible() bool { return p.Count() > 0 }

// Count returns the number of selected rows.
func (p *BulkPanel) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sel.Len()
}

// SetSelected selects or deselects a row.
func (p *BulkPanel) SetSelected(id string, selected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sel.Set(id, selected)
}

// IsSelected reports whether a row is selected.
func (p *BulkPanel) IsSelected(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sel.Has(id)
}

// SelectedIDs returns the selected row ids.
func (p *BulkPanel) SelectedIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sel.IDs()
}

// ClearSelection deselects every row and closes any open confirmation.
func (p *BulkPanel) ClearSelection() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sel.Clear()
	p.confirming = nil
	p.confirmIDs = nil
}

// Busy reports whether a confirmation is open or an action is running.
func (p *BulkPanel) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busyLocked()
}

func (p *BulkPanel) busyLocked() bool {
	return p.confirming != nil || p.running
}

// Disabled reports whether the action's trigger is disabled.
func (p *BulkPanel) Disabled(id string) bool {
	return p.Busy()
}

// Pending returns the action awaiting confirmation.
func (p *BulkPanel) Pending() (BulkAction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.confirming == nil {
		return BulkAction{}, false
	}
	return *p.confirming, true
}

func (p *BulkPanel) action(id string) (BulkAction, bool) {
	for _, a := range p.actions {
		if a.ID == id {
			return a, true
		}
	}
	return BulkAction{}, false
}

// Trigger starts an action. Destructive actions open a confirmation and
// return needsConfirm=true without running; others run immediately.
func (p *BulkPanel) Trigger(ctx context.Context, id string) (needsConfirm bool, err error) {
	p.mu.Lock()
	if p.busyLocked() {
		p.mu.Unlock()
		return false, ErrBulkBusy
	}
	a, ok := p.action(id)
	if !ok {
		p.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrUnknownAction, id)
	}
	if p.sel.Len() == 0 {
		p.mu.Unlock()
		return false, ErrEmptySelection
	}
	ids := p.sel.IDs()
	if a.Destructive {
		p.confirming = &a
		p.confirmIDs = ids
		p.mu.Unlock()
		return true, nil
	}
	p.running = true
	p.mu.Unlock()

	return false, p.run(ctx, a, ids)
}

// Confirm runs the action awaiting confirmation.
func (p *BulkPanel) Confirm(ctx context.Context) error {
	p.mu.Lock()
	if p.confirming == nil {
		p.mu.Unlock()
		return ErrNoPendingAction
	}
	if p.running {
		p.mu.Unlock()
		return ErrBulkBusy
	}
	a, ids := *p.confirming, p.confirmIDs
	p.confirming, p.confirmIDs = nil, nil
	p.running = true
	p.mu.Unlock()

	return p.run(ctx, a, ids)
}

// Cancel closes the confirmation without running the action.
func (p *BulkPanel) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirming = nil
	p.confirmIDs = nil
}

func (p *BulkPanel) run(ctx context.Context, a BulkAction, ids []string) error {
	err := invoke(ctx, a, ids)

	p.mu.Lock()
	p.running = false
	p.sel.Clear()
	p.mu.Unlock()

	if err != nil {
		slog.Error("bulk action failed", "action", a.ID, "rows", len(ids), "error", err)
		p.send(Notification{Level: LevelError, Title: a.Label + " failed", Message: err.Error()})
		return fmt.Errorf("bulk %s: %w", a.ID, err)
	}
	p.send(Notification{
		Level:   LevelSuccess,
		Title:   a.Label,
		Message: fmt.Sprintf("%d %s processed", len(ids), plural(len(ids), "row", "rows")),
	})
	return nil
}

// invoke calls the action's handler, turning a panic into an error so the
// panel never stays busy.
func invoke(ctx context.Context, a BulkAction, ids []string) (err error) {
	if a.Run == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrActionPanicked, r)
		}
	}()
	return a.Run(ctx, ids)
}

func (p *BulkPanel) send(n Notification) {
	if p.notify != nil {
		p.notify.Notify(n)
	}
}

// View builds the panel's render model.
func (p *BulkPanel) View() BulkPanelView {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := BulkPanelView{Count: p.sel.Len()}
	v.Visible = v.Count > 0
	busy := p.busyLocked()
	for _, a := range p.actions {
		v.Actions = append(v.Actions, BulkActionView{
			ID:          a.ID,
			Label:       a.Label,
			Icon:        a.Icon,
			Tooltip:     a.Tooltip,
			Destructive: a.Destructive,
			Disabled:    busy,
		})
	}
	if p.confirming != nil {
		v.Confirm = &ConfirmView{
			ActionID: p.confirming.ID,
			Label:    p.confirming.Label,
			Count:    len(p.confirmIDs),
		}
	}
	return v
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
