package grid

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifications struct {
	mu  sync.Mutex
	got []Notification
}

func (n *notifications) Notify(x Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, x)
}

func (n *notifications) all() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.got...)
}

func selectRows(sel *SelectionSet, ids ...string) {
	for _, id := range ids {
		sel.Set(id, true)
	}
}

func TestBulkPanel_VisibleWithSelection(t *testing.T) {
	var sel SelectionSet
	p := NewBulkPanel(&sel, nil)
	assert.False(t, p.Visible())

	p.SetSelected("r1", true)
	assert.True(t, p.Visible())
	assert.Equal(t, 1, p.Count())
	assert.True(t, p.IsSelected("r1"))

	p.ClearSelection()
	assert.False(t, p.Visible())
}

func TestBulkPanel_NonDestructiveRunsImmediately(t *testing.T) {
	var sel SelectionSet
	selectRows(&sel, "r1", "r2")
	n := &notifications{}

	var ran []string
	p := NewBulkPanel(&sel, n, BulkAction{
		ID: "export", Label: "Export",
		Run: func(_ context.Context, ids []string) error {
			ran = ids
			return nil
		},
	})

	needsConfirm, err := p.Trigger(context.Background(), "export")
	require.NoError(t, err)
	assert.False(t, needsConfirm)
	assert.Equal(t, []string{"r1", "r2"}, ran)
	assert.Equal(t, 0, sel.Len(), "selection cleared after success")

	got := n.all()
	require.Len(t, got, 1)
	assert.Equal(t, LevelSuccess, got[0].Level)
	assert.Equal(t, "2 rows processed", got[0].Message)
}

func TestBulkPanel_DestructiveWaitsForConfirm(t *testing.T) {
	var sel SelectionSet
	selectRows(&sel, "r1", "r2", "r3")

	var ran []string
	p := NewBulkPanel(&sel, nil, BulkAction{
		ID: "delete", Label: "Delete", Destructive: true,
		Run: func(_ context.Context, ids []string) error {
			ran = ids
			return nil
		},
	})

	needsConfirm, err := p.Trigger(context.Background(), "delete")
	require.NoError(t, err)
	assert.True(t, needsConfirm)
	assert.Nil(t, ran)
	assert.True(t, p.Busy())
	assert.True(t, p.Disabled("delete"))

	v := p.View()
	require.NotNil(t, v.Confirm)
	assert.Equal(t, 3, v.Confirm.Count)
	assert.True(t, v.Actions[0].Disabled)

	_, err = p.Trigger(context.Background(), "delete")
	assert.ErrorIs(t, err, ErrBulkBusy)

	require.NoError(t, p.Confirm(context.Background()))
	assert.Equal(t, []string{"r1", "r2", "r3"}, ran)
	assert.False(t, p.Busy())
	assert.False(t, p.Visible())
}

func TestBulkPanel_CancelKeepsSelection(t *testing.T) {
	var sel SelectionSet
	selectRows(&sel, "r1")
	p := NewBulkPanel(&sel, nil, BulkAction{ID: "delete", Destructive: true})

	_, err := p.Trigger(context.Background(), "delete")
	require.NoError(t, err)

	p.Cancel()
	assert.False(t, p.Busy())
	assert.Equal(t, 1, p.Count())
	assert.ErrorIs(t, p.Confirm(context.Background()), ErrNoPendingAction)
}

func TestBulkPanel_FailureStillClearsSelection(t *testing.T) {
	var sel SelectionSet
	selectRows(&sel, "r1", "r2")
	n := &notifications{}
	boom := errors.New("db down")

	p := NewBulkPanel(&sel, n, BulkAction{
		ID: "archive", Label: "Archive",
		Run: func(context.Context, []string) error { return boom },
	})

	_, err := p.Trigger(context.Background(), "archive")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, sel.Len())

	got := n.all()
	require.Len(t, got, 1)
	assert.Equal(t, LevelError, got[0].Level)
	assert.Equal(t, "Archive failed", got[0].Title)
}

func TestBulkPanel_PanicReleasesPanel(t *testing.T) {
	var sel SelectionSet
	selectRows(&sel, "r1", "r2")
	n := &notifications{}
	calls := 0

	p := NewBulkPanel(&sel, n, BulkAction{
		ID: "archive", Label: "Archive",
		Run: func(context.Context, []string) error {
			calls++
			if calls == 1 {
				panic("nil map")
			}
			return nil
		},
	})

	_, err := p.Trigger(context.Background(), "archive")
	assert.ErrorIs(t, err, ErrActionPanicked)
	assert.Equal(t, 0, sel.Len())
	assert.False(t, p.Busy())

	got := n.all()
	require.Len(t, got, 1)
	assert.Equal(t, LevelError, got[0].Level)

	sel.Set("r1", true)
	_, err = p.Trigger(context.Background(), "archive")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestBulkPanel_TriggerErrors(t *testing.T) {
	var sel SelectionSet
	p := NewBulkPanel(&sel, nil, BulkAction{ID: "export"})

	_, err := p.Trigger(context.Background(), "export")
	assert.ErrorIs(t, err, ErrEmptySelection)

	sel.Set("r1", true)
	_, err = p.Trigger(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestBulkPanel_BusyWhileRunning(t *testing.T) {
	var sel SelectionSet
	selectRows(&sel, "r1")

	started := make(chan struct{})
	release := make(chan struct{})
	p := NewBulkPanel(&sel, nil, BulkAction{
		ID: "slow",
		Run: func(context.Context, []string) error {
			close(started)
			<-release
			return nil
		},
	})

	done := make(chan error, 1)
	go func() {
		_, err := p.Trigger(context.Background(), "slow")
		done <- err
	}()

	<-started
	assert.True(t, p.Busy())
	_, err := p.Trigger(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrBulkBusy)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, p.Busy())
}

func TestBulkPanel_ClearSelectionClosesConfirm(t *testing.T) {
	var sel SelectionSet
	selectRows(&sel, "r1", "r2")
	p := NewBulkPanel(&sel, nil, BulkAction{ID: "delete", Destructive: true})

	_, err := p.Trigger(context.Background(), "delete")
	require.NoError(t, err)

	p.ClearSelection()
	assert.False(t, p.Busy())
	assert.False(t, p.View().Visible)
	assert.Nil(t, p.View().Confirm)
}
