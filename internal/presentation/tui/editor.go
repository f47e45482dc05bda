package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/aretw0/intentflow/pkg/keyboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Session is the editor surface the terminal UI drives.
type Session interface {
	keyboard.Target
	Graph() domain.Graph
	Create() (domain.Node, error)
	Update(id string, patch domain.NodePatch) (domain.Node, error)
}

type navKeys struct {
	Up     key.Binding
	Down   key.Binding
	New    key.Binding
	Rename key.Binding
	Quit   key.Binding
}

func defaultNavKeys() navKeys {
	return navKeys{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		New:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new intent")),
		Rename: key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "rename")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// helpKeys merges navigation and editing bindings for the help bar.
type helpKeys struct {
	nav  navKeys
	edit keyboard.KeyMap
}

func (h helpKeys) ShortHelp() []key.Binding {
	return append([]key.Binding{h.nav.Up, h.nav.Down, h.nav.New, h.nav.Rename}, append(h.edit.ShortHelp(), h.nav.Quit)...)
}

func (h helpKeys) FullHelp() [][]key.Binding {
	return append([][]key.Binding{{h.nav.Up, h.nav.Down, h.nav.New, h.nav.Rename, h.nav.Quit}}, h.edit.FullHelp()...)
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a78bfa"))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#000")).Background(lipgloss.Color("#ffeb3b"))
	protectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7c3aed"))
	dimStyle       = lipgloss.NewStyle().Faint(true)
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#ea580c"))
)

// EditorModel is the bubbletea model of the terminal intent editor. Chords
// go through the keyboard dispatcher first, so while the rename field has
// focus keys like backspace edit text instead of deleting the intent.
//
// Single-threaded: use only from the bubbletea event loop.
type EditorModel struct {
	ctx        context.Context
	session    Session
	dispatcher *keyboard.Dispatcher
	nav        navKeys
	help       help.Model
	input      textinput.Model

	focus         keyboard.Focus
	cursor        int
	pendingDelete string
	status        string
	quitting      bool
}

// NewEditorModel creates the model. Deletions always ask for confirmation
// inside the UI.
func NewEditorModel(ctx context.Context, s Session, opts ...keyboard.Option) EditorModel {
	ti := textinput.New()
	ti.Prompt = "label> "
	ti.CharLimit = 120
	ti.Width = 40

	return EditorModel{
		ctx:        ctx,
		session:    s,
		dispatcher: keyboard.New(s, opts...),
		nav:        defaultNavKeys(),
		help:       help.New(),
		input:      ti,
	}
}

// Init implements tea.Model.
func (m EditorModel) Init() tea.Cmd {
	return nil
}

// Selected returns the id of the highlighted intent.
func (m EditorModel) Selected() string {
	nodes := m.session.Graph().Nodes
	if len(nodes) == 0 {
		return ""
	}
	return nodes[m.clamp(len(nodes))].ID
}

// Focus reports where keys are directed.
func (m EditorModel) Focus() keyboard.Focus {
	return m.focus
}

// Status returns the last status line.
func (m EditorModel) Status() string {
	return m.status
}

// Update implements tea.Model.
func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		if m.pendingDelete != "" {
			return m.handleConfirm(msg)
		}

		out, err := m.dispatcher.Dispatch(m.ctx, msg, m.focus, m.Selected())
		if err != nil {
			m.status = warnStyle.Render(err.Error())
			return m, nil
		}
		if out.Handled {
			m.applyOutcome(out)
			return m, nil
		}

		if m.focus == keyboard.FocusTextField {
			return m.handleText(msg)
		}
		return m.handleCanvas(msg)
	}
	return m, nil
}

func (m EditorModel) handleCanvas(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.session.Graph().Nodes)
	switch {
	case key.Matches(msg, m.nav.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.nav.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.nav.Down):
		if m.cursor < n-1 {
			m.cursor++
		}

	case key.Matches(msg, m.nav.New):
		node, err := m.session.Create()
		if err != nil {
			m.status = warnStyle.Render(err.Error())
			return m, nil
		}
		m.selectID(node.ID)
		m.status = "created " + node.ID

	case key.Matches(msg, m.nav.Rename):
		id := m.Selected()
		if id == "" {
			return m, nil
		}
		node, _ := m.session.Graph().Node(id)
		m.input.SetValue(node.Label)
		m.input.CursorEnd()
		m.focus = keyboard.FocusTextField
		return m, m.input.Focus()
	}
	return m, nil
}

func (m EditorModel) handleText(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		label := strings.TrimSpace(m.input.Value())
		if _, err := m.session.Update(m.Selected(), domain.NodePatch{Label: &label}); err != nil {
			m.status = warnStyle.Render(err.Error())
		} else {
			m.status = "renamed"
		}
		m.blur()
		return m, nil

	case tea.KeyEsc:
		m.blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m EditorModel) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.pendingDelete
	m.pendingDelete = ""
	switch msg.String() {
	case "y", "Y":
		if out := m.dispatcher.ConfirmRemoval(id); out.Changed {
			m.status = "deleted " + id
		}
	default:
		m.status = "kept " + id
	}
	return m, nil
}

func (m *EditorModel) applyOutcome(out keyboard.Outcome) {
	switch {
	case out.AwaitingConfirmation:
		m.pendingDelete = out.NodeID
	case out.Action == keyboard.ActionDelete && !out.Changed:
		m.status = "kept " + out.NodeID
	case out.Action == keyboard.ActionDuplicate:
		m.selectID(out.NodeID)
		m.status = "duplicated as " + out.NodeID
	case out.Action == keyboard.ActionSave:
		m.status = "saved"
	case !out.Changed:
		m.status = "nothing to " + out.Action.String()
	default:
		m.status = out.Action.String()
	}
}

func (m *EditorModel) blur() {
	m.input.Blur()
	m.focus = keyboard.FocusCanvas
}

func (m *EditorModel) selectID(id string) {
	for i, n := range m.session.Graph().Nodes {
		if n.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m EditorModel) clamp(n int) int {
	if m.cursor >= n {
		return n - 1
	}
	if m.cursor < 0 {
		return 0
	}
	return m.cursor
}

// View implements tea.Model.
func (m EditorModel) View() string {
	if m.quitting {
		return ""
	}

	g := m.session.Graph()
	var b strings.Builder
	b.WriteString(titleStyle.Render("intentflow"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d intents · %d transitions", len(g.Nodes), len(g.Edges))))
	b.WriteString("\n\n")

	sel := m.clamp(len(g.Nodes))
	for i, n := range g.Nodes {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		line := fmt.Sprintf("%-28s %2d phrases  %2d responses  → %d", label, len(n.TrainingPhrases), len(n.Responses), len(outgoing(g, n.ID)))
		if n.IsProtected {
			line = protectedStyle.Render("🔒 ") + line
		} else {
			line = "   " + line
		}
		if i == sel {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.pendingDelete != "":
		b.WriteString(warnStyle.Render(fmt.Sprintf("Delete %s and its transitions? (y/N)", m.pendingDelete)))
	case m.focus == keyboard.FocusTextField:
		b.WriteString(m.input.View())
	default:
		b.WriteString(dimStyle.Render(m.status))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(helpKeys{nav: m.nav, edit: m.dispatcher.KeyMap()}))
	return b.String()
}

func outgoing(g domain.Graph, id string) []domain.Edge {
	var out []domain.Edge
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}
