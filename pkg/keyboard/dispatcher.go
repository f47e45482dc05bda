package keyboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/intentflow/internal/logging"
	"github.com/aretw0/intentflow/pkg/domain"
)

// Focus is where keyboard input is currently directed.
type Focus int

const (
	// FocusCanvas means chords act on the graph.
	FocusCanvas Focus = iota
	// FocusTextField means a text-entry field owns the keys.
	FocusTextField
)

// ParseFocus maps "canvas" and "text" to a Focus. The empty string means canvas.
func ParseFocus(s string) (Focus, error) {
	switch strings.ToLower(s) {
	case "", "canvas":
		return FocusCanvas, nil
	case "text", "text_field", "textfield":
		return FocusTextField, nil
	default:
		return FocusCanvas, fmt.Errorf("unknown focus %q", s)
	}
}

// Target is the editor surface the dispatcher drives.
type Target interface {
	CanRemove(id string) bool
	Remove(id string) bool
	Duplicate(id string) (domain.Node, error)
	Undo() (bool, error)
	Redo() (bool, error)
	Save(ctx context.Context) error
}

// Confirmer asks the user to affirm a deletion.
type Confirmer interface {
	Confirm(ctx context.Context, nodeID string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, nodeID string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, nodeID string) (bool, error) {
	return f(ctx, nodeID)
}

// Outcome describes what a dispatched chord did.
type Outcome struct {
	Action Action `json:"action"`
	// Handled is false when the chord was left to the focused widget, was
	// unbound, or had no selection to act on.
	Handled bool `json:"handled"`
	// Changed reports whether the graph was modified.
	Changed bool `json:"changed"`
	// NodeID is the selected node, or the new node for a duplicate.
	NodeID string `json:"nodeId,omitempty"`
	// AwaitingConfirmation is set when a deletion needs the host to confirm
	// and call ConfirmRemoval.
	AwaitingConfirmation bool `json:"awaitingConfirmation,omitempty"`
}

// Dispatcher translates chords into editor operations.
type Dispatcher struct {
	target    Target
	keys      KeyMap
	confirmer Confirmer
	logger    *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithKeyMap replaces the default bindings.
func WithKeyMap(k KeyMap) Option {
	return func(d *Dispatcher) {
		d.keys = k
	}
}

// WithConfirmer makes deletions block on c.
func WithConfirmer(c Confirmer) Option {
	return func(d *Dispatcher) {
		d.confirmer = c
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New creates a dispatcher driving t.
func New(t Target, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		target: t,
		keys:   DefaultKeyMap(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// KeyMap returns the active bindings.
func (d *Dispatcher) KeyMap() KeyMap {
	return d.keys
}

// Dispatch handles one chord. Nothing happens while a text field has focus
// or when no node is selected.
func (d *Dispatcher) Dispatch(ctx context.Context, chord fmt.Stringer, focus Focus, selected string) (Outcome, error) {
	action := d.keys.Lookup(chord)
	out := Outcome{Action: action, NodeID: selected}
	if action == ActionNone || focus == FocusTextField || selected == "" {
		return Outcome{Action: action}, nil
	}
	out.Handled = true
	d.logger.Debug("key dispatched", "chord", chord.String(), "op", action.String(), "node_id", selected)

	switch action {
	case ActionDelete:
		return d.remove(ctx, out)

	case ActionDuplicate:
		node, err := d.target.Duplicate(selected)
		if err != nil {
			return out, fmt.Errorf("duplicate: %w", err)
		}
		out.Changed = true
		out.NodeID = node.ID

	case ActionUndo:
		changed, err := d.target.Undo()
		if err != nil {
			return out, fmt.Errorf("undo: %w", err)
		}
		out.Changed = changed

	case ActionRedo:
		changed, err := d.target.Redo()
		if err != nil {
			return out, fmt.Errorf("redo: %w", err)
		}
		out.Changed = changed

	case ActionSave:
		if err := d.target.Save(ctx); err != nil {
			return out, fmt.Errorf("save: %w", err)
		}
	}
	return out, nil
}

// ConfirmRemoval completes a deletion the host confirmed asynchronously.
func (d *Dispatcher) ConfirmRemoval(id string) Outcome {
	removed := d.target.Remove(id)
	return Outcome{Action: ActionDelete, Handled: true, Changed: removed, NodeID: id}
}

func (d *Dispatcher) remove(ctx context.Context, out Outcome) (Outcome, error) {
	if !d.target.CanRemove(out.NodeID) {
		return out, nil
	}
	if d.confirmer == nil {
		out.AwaitingConfirmation = true
		return out, nil
	}
	ok, err := d.confirmer.Confirm(ctx, out.NodeID)
	if err != nil {
		return out, fmt.Errorf("confirm: %w", err)
	}
	if !ok {
		return out, nil
	}
	out.Changed = d.target.Remove(out.NodeID)
	return out, nil
}
