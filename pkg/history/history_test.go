package history_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/intentflow/internal/testutils"
	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/aretw0/intentflow/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHistory(t *testing.T, opts ...history.Option) (*history.History, *testutils.FakeClock) {
	t.Helper()
	clock := testutils.NewFakeClock()
	h := history.New(domain.NewSeedGraph(), append([]history.Option{history.WithClock(clock)}, opts...)...)
	t.Cleanup(h.Close)
	return h, clock
}

func TestBaseline(t *testing.T) {
	h, _ := newHistory(t)

	assert.Equal(t, 1, h.Depth())
	assert.Equal(t, history.StateIdle, h.State())

	_, ok := h.Undo()
	assert.False(t, ok, "undo at baseline is a no-op")
	_, ok = h.Redo()
	assert.False(t, ok)
	assert.Equal(t, 1, h.Depth())
}

func TestNotifyChange_Coalesces(t *testing.T) {
	h, clock := newHistory(t)

	// A burst of edits closer together than the window becomes one entry.
	for i := 0; i < 5; i++ {
		h.NotifyChange(testutils.GraphWith(fmt.Sprintf("n%d", i)))
		clock.Advance(500 * time.Millisecond)
	}
	assert.Equal(t, history.StatePending, h.State())
	assert.Equal(t, 1, h.Depth())
	assert.Equal(t, 1, clock.Active(), "only the latest timer stays armed")

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, history.StateIdle, h.State())
	assert.Equal(t, 2, h.Depth())

	head := h.Head()
	_, ok := head.Graph.Node("n4")
	assert.True(t, ok, "the last graph of the burst is recorded")
}

func TestNotifyChange_SeparateWindows(t *testing.T) {
	h, clock := newHistory(t)

	h.NotifyChange(testutils.GraphWith("a"))
	clock.Advance(history.DefaultDelay)
	h.NotifyChange(testutils.GraphWith("a", "b"))
	clock.Advance(history.DefaultDelay)

	assert.Equal(t, 3, h.Depth())
}

func TestNotifyChange_IgnoresHead(t *testing.T) {
	h, clock := newHistory(t)

	h.NotifyChange(domain.NewSeedGraph())
	assert.Equal(t, history.StateIdle, h.State())
	assert.Zero(t, clock.Active())

	t.Run("Reverted Within Window", func(t *testing.T) {
		h.NotifyChange(testutils.GraphWith("a"))
		h.NotifyChange(domain.NewSeedGraph())
		assert.Equal(t, history.StateIdle, h.State())

		clock.Advance(history.DefaultDelay)
		assert.Equal(t, 1, h.Depth())
	})
}

func TestUndoRedo(t *testing.T) {
	h, clock := newHistory(t)
	g1 := testutils.GraphWith("a")
	g2 := testutils.GraphWith("a", "b")

	h.NotifyChange(g1)
	clock.Advance(history.DefaultDelay)
	h.NotifyChange(g2)
	clock.Advance(history.DefaultDelay)

	got, ok := h.Undo()
	require.True(t, ok)
	assert.True(t, g1.Equal(got))

	got, ok = h.Undo()
	require.True(t, ok)
	assert.True(t, domain.NewSeedGraph().Equal(got))
	assert.Equal(t, 2, h.RedoDepth())

	got, ok = h.Redo()
	require.True(t, ok)
	assert.True(t, g1.Equal(got))

	got, ok = h.Redo()
	require.True(t, ok)
	assert.True(t, g2.Equal(got))

	_, ok = h.Redo()
	assert.False(t, ok)
}

func TestUndo_FlushesPending(t *testing.T) {
	h, clock := newHistory(t)

	h.NotifyChange(testutils.GraphWith("a"))
	require.Equal(t, history.StatePending, h.State())

	got, ok := h.Undo()
	require.True(t, ok, "a change inside the window is still undoable")
	assert.True(t, domain.NewSeedGraph().Equal(got))
	assert.Equal(t, 1, h.RedoDepth())

	// The stale timer must not record anything.
	clock.Advance(history.DefaultDelay)
	assert.Equal(t, 1, h.Depth())
	assert.Equal(t, 1, h.RedoDepth())
}

func TestNewChangeClearsRedo(t *testing.T) {
	h, clock := newHistory(t)

	h.NotifyChange(testutils.GraphWith("a"))
	clock.Advance(history.DefaultDelay)
	_, ok := h.Undo()
	require.True(t, ok)
	require.Equal(t, 1, h.RedoDepth())

	// Undo's own replacement is echoed back and changes nothing.
	h.NotifyChange(domain.NewSeedGraph())
	assert.Equal(t, 1, h.RedoDepth())

	h.NotifyChange(testutils.GraphWith("b"))
	assert.Zero(t, h.RedoDepth(), "redo is invalidated at notify time")

	_, ok = h.Redo()
	assert.False(t, ok)
}

func TestMaxDepth(t *testing.T) {
	h, clock := newHistory(t, history.WithMaxDepth(3))

	for i := 0; i < 5; i++ {
		h.NotifyChange(testutils.GraphWith(fmt.Sprintf("n%d", i)))
		clock.Advance(history.DefaultDelay)
	}
	assert.Equal(t, 3, h.Depth())

	steps := 0
	for {
		if _, ok := h.Undo(); !ok {
			break
		}
		steps++
	}
	assert.Equal(t, 2, steps, "oldest entries are dropped")
}

func TestMaxDepth_Unbounded(t *testing.T) {
	h, clock := newHistory(t, history.WithMaxDepth(0))

	for i := 0; i < history.DefaultMaxDepth+10; i++ {
		h.NotifyChange(testutils.GraphWith(fmt.Sprintf("n%d", i)))
		clock.Advance(history.DefaultDelay)
	}
	assert.Equal(t, history.DefaultMaxDepth+11, h.Depth())
}

func TestFlush(t *testing.T) {
	h, clock := newHistory(t)

	assert.False(t, h.Flush())
	h.NotifyChange(testutils.GraphWith("a"))
	assert.True(t, h.Flush())
	assert.Equal(t, 2, h.Depth())

	clock.Advance(history.DefaultDelay)
	assert.Equal(t, 2, h.Depth())
}

func TestClose_CancelsPending(t *testing.T) {
	h, clock := newHistory(t)

	h.NotifyChange(testutils.GraphWith("a"))
	h.Close()
	assert.Zero(t, clock.Active())

	clock.Advance(history.DefaultDelay)
	assert.Equal(t, 1, h.Depth())

	h.NotifyChange(testutils.GraphWith("b"))
	assert.Equal(t, history.StateIdle, h.State(), "closed history ignores changes")
}

func TestObserver(t *testing.T) {
	var events []domain.HistoryEvent
	h, clock := newHistory(t, history.WithObserver(func(ev domain.HistoryEvent) {
		events = append(events, ev)
	}))

	h.NotifyChange(testutils.GraphWith("a"))
	clock.Advance(history.DefaultDelay)
	h.Undo()
	h.Redo()

	require.Len(t, events, 3)
	assert.Equal(t, domain.EventCommit, events[0].Type)
	assert.Equal(t, 2, events[0].Depth)
	assert.Equal(t, 3, events[0].Nodes)
	assert.Equal(t, domain.EventUndo, events[1].Type)
	assert.Equal(t, 1, events[1].RedoDepth)
	assert.Equal(t, domain.EventRedo, events[2].Type)
}

func TestObserver_UndoInsideWindow(t *testing.T) {
	var events []domain.HistoryEvent
	h, _ := newHistory(t, history.WithObserver(func(ev domain.HistoryEvent) {
		events = append(events, ev)
	}))

	h.NotifyChange(testutils.GraphWith("a"))
	_, ok := h.Undo()
	require.True(t, ok)

	require.Len(t, events, 2)
	assert.Equal(t, domain.EventCommit, events[0].Type)
	assert.Equal(t, domain.EventUndo, events[1].Type)
}

func TestUndoRedoInverse(t *testing.T) {
	h, clock := newHistory(t, history.WithMaxDepth(0))
	states := []domain.Graph{domain.NewSeedGraph()}
	for i := 0; i < 10; i++ {
		ids := make([]string, 0, i+1)
		for j := 0; j <= i; j++ {
			ids = append(ids, fmt.Sprintf("n%d", j))
		}
		g := testutils.GraphWith(ids...)
		states = append(states, g)
		h.NotifyChange(g)
		clock.Advance(history.DefaultDelay)
	}

	for k := 1; k <= 10; k++ {
		for i := 0; i < k; i++ {
			_, ok := h.Undo()
			require.True(t, ok)
		}
		var last domain.Graph
		for i := 0; i < k; i++ {
			g, ok := h.Redo()
			require.True(t, ok)
			last = g
		}
		assert.True(t, states[10].Equal(last), "%d undos followed by %d redos", k, k)
	}
}

func TestRealClock(t *testing.T) {
	h := history.New(domain.NewSeedGraph(), history.WithDelay(50*time.Millisecond))
	defer h.Close()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.NotifyChange(testutils.GraphWith(fmt.Sprintf("n%d", i)))
		}(i)
	}
	wg.Wait()

	assert.Eventually(t, func() bool {
		return h.State() == history.StateIdle && h.Depth() >= 2
	}, time.Second, 5*time.Millisecond)
}
