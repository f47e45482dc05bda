package keyboard

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
)

// Action is what a chord asks the editor to do.
type Action int

const (
	ActionNone Action = iota
	ActionDelete
	ActionDuplicate
	ActionUndo
	ActionRedo
	ActionSave
)

func (a Action) String() string {
	switch a {
	case ActionDelete:
		return "delete"
	case ActionDuplicate:
		return "duplicate"
	case ActionUndo:
		return "undo"
	case ActionRedo:
		return "redo"
	case ActionSave:
		return "save"
	default:
		return "none"
	}
}

// KeyMap binds chords to editor actions. It satisfies the bubbles help.KeyMap
// interface.
type KeyMap struct {
	Delete    key.Binding
	Duplicate key.Binding
	Undo      key.Binding
	Redo      key.Binding
	Save      key.Binding
}

// DefaultKeyMap returns the standard bindings. Both ctrl and cmd spellings
// are bound so hosts forwarding macOS chords match the same actions.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Delete: key.NewBinding(
			key.WithKeys("delete", "backspace"),
			key.WithHelp("del", "delete intent"),
		),
		Duplicate: key.NewBinding(
			key.WithKeys("ctrl+d", "cmd+d"),
			key.WithHelp("ctrl+d", "duplicate"),
		),
		Undo: key.NewBinding(
			key.WithKeys("ctrl+z", "cmd+z"),
			key.WithHelp("ctrl+z", "undo"),
		),
		Redo: key.NewBinding(
			key.WithKeys("ctrl+y", "ctrl+shift+z", "cmd+shift+z"),
			key.WithHelp("ctrl+y", "redo"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s", "cmd+s"),
			key.WithHelp("ctrl+s", "save"),
		),
	}
}

// Lookup returns the action bound to chord, or ActionNone.
func (k KeyMap) Lookup(chord fmt.Stringer) Action {
	switch {
	case key.Matches(chord, k.Delete):
		return ActionDelete
	case key.Matches(chord, k.Duplicate):
		return ActionDuplicate
	case key.Matches(chord, k.Undo):
		return ActionUndo
	case key.Matches(chord, k.Redo):
		return ActionRedo
	case key.Matches(chord, k.Save):
		return ActionSave
	default:
		return ActionNone
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Delete, k.Duplicate, k.Undo, k.Redo, k.Save}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Delete, k.Duplicate}, {k.Undo, k.Redo, k.Save}}
}

// Chord is a key chord spelled the way bubbletea spells them ("ctrl+z").
type Chord string

func (c Chord) String() string { return string(c) }
