package tui_test

import (
	"context"
	"testing"

	"github.com/aretw0/intentflow"
	"github.com/aretw0/intentflow/internal/presentation/tui"
	"github.com/aretw0/intentflow/internal/testutils"
	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/aretw0/intentflow/pkg/history"
	"github.com/aretw0/intentflow/pkg/keyboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tea "github.com/charmbracelet/bubbletea"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m tui.EditorModel, msgs ...tea.KeyMsg) tui.EditorModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(tui.EditorModel)
	}
	return m
}

func newModel(t *testing.T) (tui.EditorModel, *intentflow.Editor, *testutils.FakeClock) {
	t.Helper()
	clock := testutils.NewFakeClock()
	ed, err := intentflow.New(intentflow.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ed.Close() })
	return tui.NewEditorModel(context.Background(), ed), ed, clock
}

func TestEditorModel_Navigation(t *testing.T) {
	m, _, _ := newModel(t)
	assert.Equal(t, domain.GreetID, m.Selected())

	m = press(t, m, runes("j"))
	assert.Equal(t, domain.FallbackID, m.Selected())

	m = press(t, m, runes("j"))
	assert.Equal(t, domain.FallbackID, m.Selected(), "cursor stops at the last intent")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, domain.GreetID, m.Selected())
}

func TestEditorModel_Delete(t *testing.T) {
	m, ed, _ := newModel(t)

	t.Run("Protected", func(t *testing.T) {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
		assert.NotContains(t, m.View(), "Delete greet")
		assert.Len(t, ed.Graph().Nodes, 2)
	})

	m = press(t, m, runes("n"))
	created := m.Selected()
	require.NotEqual(t, domain.GreetID, created)
	require.Len(t, ed.Graph().Nodes, 3)

	t.Run("Declined", func(t *testing.T) {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyDelete})
		assert.Contains(t, m.View(), "Delete "+created)
		m = press(t, m, runes("n"))
		assert.Len(t, ed.Graph().Nodes, 3, "declining keeps the intent")
		assert.Equal(t, "kept "+created, m.Status())
	})

	t.Run("Confirmed", func(t *testing.T) {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyDelete}, runes("y"))
		_, ok := ed.Node(created)
		assert.False(t, ok)
		assert.Equal(t, "deleted "+created, m.Status())
	})
}

func TestEditorModel_RenameGuardsChords(t *testing.T) {
	m, ed, _ := newModel(t)
	m = press(t, m, runes("n"))
	id := m.Selected()

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, keyboard.FocusTextField, m.Focus())

	// Backspace edits the label instead of deleting the intent.
	m = press(t, m,
		tea.KeyMsg{Type: tea.KeyBackspace},
		tea.KeyMsg{Type: tea.KeyBackspace},
		tea.KeyMsg{Type: tea.KeyBackspace},
		tea.KeyMsg{Type: tea.KeyBackspace},
		tea.KeyMsg{Type: tea.KeyBackspace},
		tea.KeyMsg{Type: tea.KeyBackspace},
		runes("Order"),
	)
	_, ok := ed.Node(id)
	require.True(t, ok)
	assert.NotContains(t, m.View(), "Delete "+id)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, keyboard.FocusCanvas, m.Focus())
	n, _ := ed.Node(id)
	assert.Equal(t, "New Order", n.Label)

	t.Run("Escape Cancels", func(t *testing.T) {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter}, runes("zzz"), tea.KeyMsg{Type: tea.KeyEsc})
		assert.Equal(t, keyboard.FocusCanvas, m.Focus())
		n, _ := ed.Node(id)
		assert.Equal(t, "New Order", n.Label)
	})
}

func TestEditorModel_DuplicateUndoRedo(t *testing.T) {
	m, ed, clock := newModel(t)
	m = press(t, m, runes("n"))
	clock.Advance(history.DefaultDelay)
	original := m.Selected()

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	require.Len(t, ed.Graph().Nodes, 4)
	assert.NotEqual(t, original, m.Selected(), "the copy becomes the selection")
	clock.Advance(history.DefaultDelay)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlZ})
	assert.Len(t, ed.Graph().Nodes, 3)
	assert.Equal(t, "undo", m.Status())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Len(t, ed.Graph().Nodes, 4)
	assert.Equal(t, "redo", m.Status())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, "nothing to redo", m.Status())
}

func TestEditorModel_SaveWithoutStore(t *testing.T) {
	m, _, _ := newModel(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Contains(t, m.Status(), intentflow.ErrNoSnapshotStore.Error())
}

func TestEditorModel_Quit(t *testing.T) {
	m, _, _ := newModel(t)
	next, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}
