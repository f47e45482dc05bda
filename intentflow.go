package intentflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/aretw0/intentflow/internal/logging"
	"github.com/aretw0/intentflow/pkg/codec"
	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/aretw0/intentflow/pkg/history"
	"github.com/aretw0/intentflow/pkg/operations"
	"github.com/aretw0/intentflow/pkg/ports"
	"github.com/aretw0/intentflow/pkg/store"
)

// Version is the release of the library and CLI. Overridden at build time
// with -ldflags "-X github.com/aretw0/intentflow.Version=...".
var Version = "0.1.0"

// ErrNoSnapshotStore is returned by Save and Open when no persistence
// collaborator was configured.
var ErrNoSnapshotStore = errors.New("no snapshot store configured")

// ErrClosed is returned by mutations after Close.
var ErrClosed = errors.New("editor closed")

// DefaultSnapshotName is used by Save when the bot has no name.
const DefaultSnapshotName = "untitled"

// Editor is the high-level entry point for one graph editing session.
// It owns the graph store, the operations layer and the undo history, and
// serializes composite operations (undo is a history pop plus a store
// replace) under its own lock. Safe for concurrent use.
type Editor struct {
	mu      sync.Mutex
	store   *store.Store
	ops     *operations.Operations
	history *history.History
	meta    domain.Metadata
	closed  bool

	snapshots    ports.SnapshotStore
	snapshotName string
	format       codec.Format
	hooks        domain.Hooks
	logger       *slog.Logger

	seed    *domain.Graph
	delay   time.Duration
	depth   int
	clock   history.Clock
	opsOpts []operations.Option
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithLogger sets a custom structured logger for the editor and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithDebounce sets how long editing must pause before a history entry is recorded.
func WithDebounce(d time.Duration) Option {
	return func(e *Editor) {
		e.delay = d
	}
}

// WithHistoryDepth caps the undo stack. Zero means unbounded.
func WithHistoryDepth(n int) Option {
	return func(e *Editor) {
		e.depth = n
	}
}

// WithClock injects the time source driving the debounce timer.
func WithClock(c history.Clock) Option {
	return func(e *Editor) {
		e.clock = c
	}
}

// WithSnapshotStore sets the persistence collaborator used by Save and Open.
func WithSnapshotStore(s ports.SnapshotStore) Option {
	return func(e *Editor) {
		e.snapshots = s
	}
}

// WithSnapshotName fixes the name Save writes under. By default the bot
// name is used.
func WithSnapshotName(name string) Option {
	return func(e *Editor) {
		e.snapshotName = name
	}
}

// WithFormat selects the encoding Save writes (default JSON).
func WithFormat(f codec.Format) Option {
	return func(e *Editor) {
		e.format = f
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.Hooks) Option {
	return func(e *Editor) {
		e.hooks = hooks
	}
}

// WithMetadata sets the initial bot metadata.
func WithMetadata(meta domain.Metadata) Option {
	return func(e *Editor) {
		e.meta = meta
	}
}

// WithSeed starts the session from g instead of the default greet/fallback
// graph. The protected nodes of g stay protected for the whole session.
func WithSeed(g domain.Graph) Option {
	return func(e *Editor) {
		c := g.Clone()
		e.seed = &c
	}
}

// WithOperationOptions forwards options to the operations layer (clock,
// random source for placement).
func WithOperationOptions(opts ...operations.Option) Option {
	return func(e *Editor) {
		e.opsOpts = append(e.opsOpts, opts...)
	}
}

// New initializes an Editor. The initial graph is the history baseline, so
// the first edit is always undoable.
func New(opts ...Option) (*Editor, error) {
	e := &Editor{
		format: codec.FormatJSON,
		delay:  history.DefaultDelay,
		depth:  history.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}

	seed := domain.NewSeedGraph()
	if e.seed != nil {
		seed = *e.seed
	}

	s, err := store.New(seed, store.WithLogger(e.logger))
	if err != nil {
		return nil, fmt.Errorf("invalid seed graph: %w", err)
	}
	e.store = s
	e.ops = operations.New(s, append([]operations.Option{operations.WithLogger(e.logger)}, e.opsOpts...)...)

	histOpts := []history.Option{
		history.WithDelay(e.delay),
		history.WithMaxDepth(e.depth),
		history.WithLogger(e.logger),
		history.WithObserver(e.onHistory),
	}
	if e.clock != nil {
		histOpts = append(histOpts, history.WithClock(e.clock))
	}
	e.history = history.New(s.Snapshot(), histOpts...)
	s.Subscribe(e.history.NotifyChange)

	e.logger.Debug("editor ready", "nodes", len(seed.Nodes), "edges", len(seed.Edges))
	return e, nil
}

// Graph returns a snapshot of the current graph for rendering.
func (e *Editor) Graph() domain.Graph {
	return e.store.Snapshot()
}

// Node returns a copy of the intent with the given id.
func (e *Editor) Node(id string) (domain.Node, bool) {
	return e.store.Node(id)
}

// Create adds a fresh empty intent.
func (e *Editor) Create() (domain.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.Node{}, ErrClosed
	}
	n, err := e.ops.Create()
	e.emitOp("create", n.ID, "", err)
	return n, err
}

// Update merges an edit into an intent.
func (e *Editor) Update(id string, patch domain.NodePatch) (domain.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.Node{}, ErrClosed
	}
	n, err := e.ops.Update(id, patch)
	e.emitOp("update", id, "", err)
	return n, err
}

// Move records a drag of an intent to pos.
func (e *Editor) Move(id string, pos domain.Position) (domain.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.Node{}, ErrClosed
	}
	n, err := e.ops.Move(id, pos)
	e.emitOp("move", id, "", err)
	return n, err
}

// Duplicate copies an intent into a new unprotected one.
func (e *Editor) Duplicate(id string) (domain.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.Node{}, ErrClosed
	}
	n, err := e.ops.Duplicate(id)
	e.emitOp("duplicate", n.ID, "", err)
	return n, err
}

// CanRemove reports whether an intent exists and may be deleted. Hosts only
// ask for confirmation when it returns true.
func (e *Editor) CanRemove(id string) bool {
	return e.ops.CanRemove(id)
}

// Remove deletes an unprotected intent and its transitions. Call it once the
// user affirmed. It returns false for protected or unknown intents.
func (e *Editor) Remove(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	removed := e.ops.Remove(id)
	if removed {
		e.emitOp("remove", id, "", nil)
	}
	return removed
}

// Connect adds a transition between two intents.
func (e *Editor) Connect(source, target string) (domain.Edge, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.Edge{}, ErrClosed
	}
	edge, err := e.ops.Connect(source, target)
	e.emitOp("connect", source, edge.ID, err)
	return edge, err
}

// Undo restores the previous recorded graph. It reports false at the baseline.
func (e *Editor) Undo() (bool, error) {
	return e.travel("undo", e.history.Undo)
}

// Redo re-applies the last undone graph. It reports false when there is
// nothing to redo.
func (e *Editor) Redo() (bool, error) {
	return e.travel("redo", e.history.Redo)
}

func (e *Editor) travel(op string, step func() (domain.Graph, bool)) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false, ErrClosed
	}
	g, ok := step()
	if !ok {
		return false, nil
	}
	// The store echoes the replacement back to history, which ignores it
	// because it equals the new head.
	if err := e.store.Replace(g); err != nil {
		e.emitOp(op, "", "", err)
		return false, fmt.Errorf("%s: %w", op, err)
	}
	e.emitOp(op, "", "", nil)
	return true, nil
}

// Flush records a pending history change immediately.
func (e *Editor) Flush() {
	e.history.Flush()
}

// History returns the undo and redo depths.
func (e *Editor) History() (undo, redo int) {
	return e.history.Depth(), e.history.RedoDepth()
}

// Metadata returns the bot metadata.
func (e *Editor) Metadata() domain.Metadata {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.meta
}

// SetMetadata replaces the bot metadata. Metadata is not part of history.
func (e *Editor) SetMetadata(meta domain.Metadata) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.meta = meta
}

// Export wraps the current graph and metadata in a versioned envelope.
func (e *Editor) Export() codec.Envelope {
	e.mu.Lock()
	meta := e.meta
	e.mu.Unlock()
	return codec.Export(meta, e.store.Snapshot(), e.now())
}

// ExportBytes encodes the current envelope in format f.
func (e *Editor) ExportBytes(f codec.Format) ([]byte, error) {
	return codec.Encode(e.Export(), f)
}

// Import replaces graph and metadata with a decoded snapshot. Nothing is
// applied unless the text parses, has the right shape and the graph passes
// the store's invariant checks. The import is recorded as one undoable step.
func (e *Editor) Import(data []byte, f codec.Format) error {
	env, err := codec.Decode(data, f)
	if err != nil {
		e.emitOp("import", "", "", err)
		return fmt.Errorf("import: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.history.Flush()
	if err := e.store.Replace(env.Graph()); err != nil {
		e.emitOp("import", "", "", err)
		return fmt.Errorf("import: %w", err)
	}
	e.meta = env.Metadata()
	e.history.Flush()
	e.emitOp("import", "", "", nil)
	e.logger.Info("snapshot imported", "name", env.Name, "nodes", len(env.Nodes), "edges", len(env.Edges))
	return nil
}

// Save writes the current envelope to the snapshot store. A change still
// inside the debounce window is recorded first.
func (e *Editor) Save(ctx context.Context) error {
	if e.snapshots == nil {
		return ErrNoSnapshotStore
	}
	e.history.Flush()
	data, err := e.ExportBytes(e.format)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	name := e.saveName()
	if err := e.snapshots.Save(ctx, name, data); err != nil {
		e.emitOp("save", "", "", err)
		return fmt.Errorf("save %q: %w", name, err)
	}
	e.emitOp("save", "", "", nil)
	e.logger.Info("snapshot saved", "name", name, "bytes", len(data))
	return nil
}

// Open imports the snapshot stored under name.
func (e *Editor) Open(ctx context.Context, name string) error {
	if e.snapshots == nil {
		return ErrNoSnapshotStore
	}
	data, err := e.snapshots.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}
	return e.Import(data, e.format)
}

// Close cancels the pending history timer. Mutations fail afterwards.
func (e *Editor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.history.Close()
	return nil
}

func (e *Editor) saveName() string {
	if e.snapshotName != "" {
		return e.snapshotName
	}
	if name := e.Metadata().Name; name != "" {
		return slug(name)
	}
	return DefaultSnapshotName
}

func (e *Editor) now() time.Time {
	if e.clock != nil {
		return e.clock.Now()
	}
	return time.Now()
}

func (e *Editor) onHistory(ev domain.HistoryEvent) {
	if e.hooks.OnHistory != nil {
		e.hooks.OnHistory(&ev)
	}
}

func (e *Editor) emitOp(op, nodeID, edgeID string, err error) {
	if e.hooks.OnOperation == nil {
		return
	}
	t := domain.EventOperation
	if op == "import" {
		t = domain.EventImport
	}
	e.hooks.OnOperation(&domain.OperationEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: t},
		Op:        op,
		NodeID:    nodeID,
		EdgeID:    edgeID,
		Err:       err,
	})
}

// slug turns a bot name into a file-safe snapshot name.
func slug(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			return unicode.ToLower(r)
		default:
			return '-'
		}
	}, strings.TrimSpace(name))
	s = strings.Trim(s, "-")
	if s == "" {
		return DefaultSnapshotName
	}
	return s
}
