package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/intentflow"
	"github.com/aretw0/intentflow/internal/logging"
	"github.com/aretw0/intentflow/pkg/codec"
	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/aretw0/intentflow/pkg/ports"
)

// ErrInvalidName is returned for an empty bot name.
var ErrInvalidName = errors.New("invalid bot name")

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates the editors of several bots sharing one snapshot
// store. It uses reference counting to garbage collect unused locks.
type Manager struct {
	snapshots ports.SnapshotStore
	format    codec.Format
	opts      []intentflow.Option
	hooksFor  func(bot string) domain.Hooks

	mu      sync.Mutex            // guards the maps and closed
	locks   map[string]*lockEntry // per-bot locks
	editors map[string]*intentflow.Editor
	closed  bool

	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager and the editors it opens.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithFormat selects the snapshot encoding (default JSON).
func WithFormat(f codec.Format) Option {
	return func(m *Manager) {
		m.format = f
	}
}

// WithEditorOptions forwards options to every editor the Manager opens.
func WithEditorOptions(opts ...intentflow.Option) Option {
	return func(m *Manager) {
		m.opts = append(m.opts, opts...)
	}
}

// WithHooksFor installs hooks built for each bot as it is opened.
func WithHooksFor(fn func(bot string) domain.Hooks) Option {
	return func(m *Manager) {
		m.hooksFor = fn
	}
}

// NewManager creates a Manager persisting to snapshots.
func NewManager(snapshots ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		snapshots: snapshots,
		format:    codec.FormatJSON,
		locks:     make(map[string]*lockEntry),
		editors:   make(map[string]*intentflow.Editor),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(name) after unlocking.
func (m *Manager) acquire(name string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[name]
	if !exists {
		entry = &lockEntry{}
		m.locks[name] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[name]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, name)
	}
}

// WithLock executes fn while holding the lock for the bot.
func (m *Manager) WithLock(ctx context.Context, name string, fn func(context.Context) error) error {
	entry := m.acquire(name)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(name)
	}()
	return fn(ctx)
}

// Get returns the editor of the bot, opening it on first use. A stored
// snapshot becomes the session baseline; an unknown bot starts from the
// default seed.
func (m *Manager) Get(ctx context.Context, name string) (*intentflow.Editor, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if ed, ok, err := m.lookup(name); ok || err != nil {
		return ed, err
	}

	var ed *intentflow.Editor
	err := m.WithLock(ctx, name, func(ctx context.Context) error {
		// Another caller may have opened it while we waited.
		if existing, ok, err := m.lookup(name); ok || err != nil {
			ed = existing
			return err
		}

		opened, err := m.open(ctx, name)
		if err != nil {
			return err
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed {
			_ = opened.Close()
			return intentflow.ErrClosed
		}
		m.editors[name] = opened
		ed = opened
		return nil
	})
	return ed, err
}

func (m *Manager) lookup(name string) (*intentflow.Editor, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, intentflow.ErrClosed
	}
	ed, ok := m.editors[name]
	return ed, ok, nil
}

func (m *Manager) open(ctx context.Context, name string) (*intentflow.Editor, error) {
	opts := append([]intentflow.Option{intentflow.WithLogger(m.logger)}, m.opts...)
	opts = append(opts,
		intentflow.WithSnapshotStore(m.snapshots),
		intentflow.WithSnapshotName(name),
		intentflow.WithFormat(m.format),
	)
	if m.hooksFor != nil {
		opts = append(opts, intentflow.WithHooks(m.hooksFor(name)))
	}

	data, err := m.snapshots.Load(ctx, name)
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		m.logger.Debug("bot not found, starting fresh", "bot", name)
		opts = append(opts, intentflow.WithMetadata(domain.Metadata{Name: name}))
	case err != nil:
		return nil, fmt.Errorf("failed to load bot %q: %w", name, err)
	default:
		env, err := codec.Decode(data, m.format)
		if err != nil {
			return nil, fmt.Errorf("failed to decode bot %q: %w", name, err)
		}
		opts = append(opts, intentflow.WithSeed(env.Graph()), intentflow.WithMetadata(env.Metadata()))
	}

	ed, err := intentflow.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open bot %q: %w", name, err)
	}
	m.logger.Info("bot opened", "bot", name, "nodes", len(ed.Graph().Nodes))
	return ed, nil
}

// Save persists the bot if it is open.
func (m *Manager) Save(ctx context.Context, name string) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		ed, ok, err := m.lookup(name)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("bot %q: %w", name, domain.ErrNotFound)
		}
		return ed.Save(ctx)
	})
}

// SaveAll persists every open bot. All failures are reported together.
func (m *Manager) SaveAll(ctx context.Context) error {
	var errs []error
	for _, name := range m.Open() {
		if err := m.Save(ctx, name); err != nil && !errors.Is(err, domain.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Delete closes the bot and removes its snapshot.
func (m *Manager) Delete(ctx context.Context, name string) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		m.mu.Lock()
		ed, ok := m.editors[name]
		delete(m.editors, name)
		m.mu.Unlock()
		if ok {
			_ = ed.Close()
		}
		return m.snapshots.Delete(ctx, name)
	})
}

// Open returns the names of the bots with a live editor, sorted.
func (m *Manager) Open() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.editors))
	for name := range m.editors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// List returns every known bot: stored snapshots and open editors, sorted.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	stored, err := m.snapshots.List(ctx)
	if err != nil {
		return nil, err
	}
	names := append(stored, m.Open()...)
	slices.Sort(names)
	return slices.Compact(names), nil
}

// Close closes every editor. The Manager rejects further use.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	var errs []error
	for name, ed := range m.editors {
		if err := ed.Close(); err != nil {
			errs = append(errs, fmt.Errorf("bot %q: %w", name, err))
		}
	}
	clear(m.editors)
	return errors.Join(errs...)
}
