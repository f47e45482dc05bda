package history

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/intentflow/internal/logging"
	"github.com/aretw0/intentflow/pkg/domain"
)

const (
	// DefaultDelay is the pause in editing after which a change is recorded.
	DefaultDelay = time.Second

	// DefaultMaxDepth caps the undo stack, baseline included.
	DefaultMaxDepth = 100
)

// State is the debounce state of a History.
type State int

const (
	// StateIdle means no change is waiting to be recorded.
	StateIdle State = iota
	// StatePending means a debounce timer is running.
	StatePending
)

func (s State) String() string {
	if s == StatePending {
		return "pending"
	}
	return "idle"
}

// Entry is one recorded graph state.
type Entry struct {
	Graph     domain.Graph
	Timestamp time.Time
}

// History records debounced graph snapshots and serves undo/redo.
// Safe for concurrent use; the debounce timer fires on its own goroutine.
type History struct {
	mu       sync.Mutex
	clock    Clock
	delay    time.Duration
	maxDepth int

	undo []Entry // undo[0] is the oldest kept entry, the last one is the head
	redo []Entry

	pending *domain.Graph
	timer   Timer
	gen     uint64 // incremented on every (re)arm; stale timers compare against it
	closed  bool

	observer func(domain.HistoryEvent)
	logger   *slog.Logger
}

// Option configures a History.
type Option func(*History)

// WithDelay sets the debounce window.
func WithDelay(d time.Duration) Option {
	return func(h *History) {
		h.delay = d
	}
}

// WithMaxDepth caps the number of undo entries. Zero means unbounded.
func WithMaxDepth(n int) Option {
	return func(h *History) {
		h.maxDepth = n
	}
}

// WithClock injects the time source and timer factory.
func WithClock(c Clock) Option {
	return func(h *History) {
		h.clock = c
	}
}

// WithObserver registers a callback for commits, undos and redos.
// It runs outside the history lock.
func WithObserver(fn func(domain.HistoryEvent)) Option {
	return func(h *History) {
		h.observer = fn
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *History) {
		h.logger = logger
	}
}

// New creates a History whose baseline is g, so the first recorded change is
// always undoable.
func New(g domain.Graph, opts ...Option) *History {
	h := &History{
		clock:    realClock{},
		delay:    DefaultDelay,
		maxDepth: DefaultMaxDepth,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.undo = []Entry{{Graph: g.Clone(), Timestamp: h.clock.Now()}}
	return h
}

// NotifyChange reports that the graph changed. The change is recorded once
// no further change arrives within the debounce window. A graph equal to the
// current head is ignored; any other change invalidates the redo stack.
func (h *History) NotifyChange(g domain.Graph) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	if g.Equal(h.head().Graph) {
		if h.pending != nil {
			// Edited back to the recorded state before the window closed.
			h.disarm()
			h.pending = nil
		}
		return
	}

	next := g.Clone()
	h.pending = &next
	h.redo = nil
	h.disarm()
	h.gen++
	gen := h.gen
	h.timer = h.clock.AfterFunc(h.delay, func() { h.fire(gen) })
}

// Undo steps back one entry and returns the graph to restore. A change still
// inside the debounce window is recorded first, so it is what gets undone.
// It returns false at the baseline.
func (h *History) Undo() (domain.Graph, bool) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return domain.Graph{}, false
	}
	var committed *domain.HistoryEvent
	if h.pending != nil {
		ev := h.commit()
		committed = &ev
	}
	if len(h.undo) <= 1 {
		h.mu.Unlock()
		if committed != nil {
			h.emit(*committed)
		}
		return domain.Graph{}, false
	}
	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, top)
	restored := h.head().Graph.Clone()
	ev := h.event(domain.EventUndo)
	h.mu.Unlock()

	if committed != nil {
		h.emit(*committed)
	}
	h.emit(ev)
	return restored, true
}

// Redo re-applies the most recently undone entry. It returns false when
// there is nothing to redo.
func (h *History) Redo() (domain.Graph, bool) {
	h.mu.Lock()
	if h.closed || len(h.redo) == 0 {
		h.mu.Unlock()
		return domain.Graph{}, false
	}
	entry := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.push(entry)
	restored := entry.Graph.Clone()
	ev := h.event(domain.EventRedo)
	h.mu.Unlock()

	h.emit(ev)
	return restored, true
}

// Flush records a pending change immediately. It reports whether there was one.
func (h *History) Flush() bool {
	h.mu.Lock()
	if h.closed || h.pending == nil {
		h.mu.Unlock()
		return false
	}
	ev := h.commit()
	h.mu.Unlock()

	h.emit(ev)
	return true
}

// Close cancels a pending timer. Later calls become no-ops.
func (h *History) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disarm()
	h.pending = nil
	h.closed = true
}

// State reports whether a change is waiting for the debounce window to close.
func (h *History) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending != nil {
		return StatePending
	}
	return StateIdle
}

// Depth returns the number of undo entries, baseline included.
func (h *History) Depth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo)
}

// RedoDepth returns the number of entries that can be redone.
func (h *History) RedoDepth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo)
}

// Head returns a copy of the most recent entry.
func (h *History) Head() Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	head := h.head()
	return Entry{Graph: head.Graph.Clone(), Timestamp: head.Timestamp}
}

func (h *History) fire(gen uint64) {
	h.mu.Lock()
	if h.closed || gen != h.gen || h.pending == nil {
		h.mu.Unlock()
		return
	}
	ev := h.commit()
	h.mu.Unlock()

	h.emit(ev)
}

// commit must be called with h.mu held.
func (h *History) commit() domain.HistoryEvent {
	h.disarm()
	h.push(Entry{Graph: *h.pending, Timestamp: h.clock.Now()})
	h.pending = nil
	h.logger.Debug("history entry recorded", "depth", len(h.undo))
	return h.event(domain.EventCommit)
}

// push must be called with h.mu held.
func (h *History) push(e Entry) {
	h.undo = append(h.undo, e)
	if h.maxDepth > 0 && len(h.undo) > h.maxDepth {
		h.undo = append([]Entry(nil), h.undo[len(h.undo)-h.maxDepth:]...)
	}
}

// disarm must be called with h.mu held.
func (h *History) disarm() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

func (h *History) head() Entry {
	return h.undo[len(h.undo)-1]
}

func (h *History) event(t domain.EventType) domain.HistoryEvent {
	head := h.head()
	return domain.HistoryEvent{
		EventBase: domain.EventBase{Timestamp: h.clock.Now(), Type: t},
		Depth:     len(h.undo),
		RedoDepth: len(h.redo),
		Nodes:     len(head.Graph.Nodes),
		Edges:     len(head.Graph.Edges),
	}
}

func (h *History) emit(ev domain.HistoryEvent) {
	if h.observer != nil {
		h.observer(ev)
	}
}
