package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/object"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateObjects modelState = iota
	stateSpawn
)

type interactiveModel struct {
	err      error
	s        *session
	tail     *logTail
	input    textinput.Model
	status   string
	handles  []scriptbridge.Handle
	selected int
	state    modelState
}

func newInteractiveModel(s *session, tail *logTail) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "Demo.Spinner"
	ti.CharLimit = 128
	ti.Width = 40
	m := &interactiveModel{s: s, tail: tail, input: ti, state: stateObjects}
	s.bridge.Objects().Subscribe(m)
	m.refresh()
	return m
}

// OnObjectEvent keeps the object list in step with the registry.
func (m *interactiveModel) OnObjectEvent(object.Event) {
	m.refresh()
}

func (m *interactiveModel) refresh() {
	m.handles = m.s.bridge.Objects().Handles()
	if m.selected >= len(m.handles) {
		m.selected = max(0, len(m.handles)-1)
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.state == stateSpawn {
		switch key.String() {
		case "enter":
			name := strings.TrimSpace(m.input.Value())
			if name == "" {
				name = m.input.Placeholder
			}
			if h, err := m.s.Spawn(name); err != nil {
				m.err = err
			} else {
				m.err = nil
				m.status = fmt.Sprintf("spawned #%d %s", h, name)
			}
			m.input.Reset()
			m.input.Blur()
			m.state = stateObjects
			return m, nil
		case "esc":
			m.input.Reset()
			m.input.Blur()
			m.state = stateObjects
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	m.err = nil
	switch key.String() {
	case "ctrl+c", "q":
		m.s.bridge.Objects().Unsubscribe(m)
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.handles)-1 {
			m.selected++
		}

	case "t":
		m.s.Frame()
		m.status = fmt.Sprintf("frame %d", m.s.frame)

	case "s":
		m.state = stateSpawn
		return m, m.input.Focus()

	case "d":
		if h, ok := m.current(); ok {
			m.s.Destroy(h)
			m.status = fmt.Sprintf("destroyed #%d", h)
		}

	case "enter":
		if h, ok := m.current(); ok {
			m.status = fmt.Sprintf("#%d editor properties: %s", h, m.s.bridge.EditorProperties(h))
		}

	case "r":
		if err := m.s.Load(context.Background()); err != nil {
			m.err = err
		} else {
			m.status = fmt.Sprintf("reloaded, generation %d", m.s.bridge.Generation().Number)
		}
		m.refresh()
	}
	return m, nil
}

func (m *interactiveModel) current() (scriptbridge.Handle, bool) {
	if m.selected < 0 || m.selected >= len(m.handles) {
		return scriptbridge.NoObject, false
	}
	return m.handles[m.selected], true
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	gen := m.s.bridge.Generation()
	b.WriteString(titleStyle.Render("Script Bridge"))
	b.WriteString(" ")
	b.WriteString(m.s.cfg.Image)
	fmt.Fprintf(&b, "  %s gen %d", gen.Domain, gen.Number)
	if m.s.scene != "" {
		fmt.Fprintf(&b, "  scene %s", m.s.scene)
	}
	b.WriteString("\n\n")

	w := m.s.world
	fmt.Fprintf(&b, "World: %d mesh(es), %d sound(s), %d console command(s), %d camera shake(s)\n",
		len(w.meshes), len(w.sounds), len(w.console), w.shakes)
	b.WriteString("Types: ")
	b.WriteString(typeStyle.Render(m.s.bridge.ListWorldObjectTypeNames()))
	b.WriteString("\n\n")

	if len(m.handles) == 0 {
		b.WriteString("No live objects.\n")
	}
	for i, h := range m.handles {
		e, ok := m.s.bridge.Objects().Get(h)
		if !ok {
			continue
		}
		pos := m.s.bridge.GetVectorField(h, scriptbridge.FieldPosition)
		rot := m.s.bridge.GetVectorField(h, scriptbridge.FieldRotation)
		line := fmt.Sprintf("#%-3d %-24s pos %s rot %s", h, e.TypeName, pos, rot)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.state == stateSpawn {
		b.WriteString("Spawn type: ")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter spawn • esc back"))
		b.WriteString("\n")
	} else {
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n")
		} else if m.status != "" {
			b.WriteString(resultStyle.Render(m.status))
			b.WriteString("\n")
		}
		b.WriteString(helpStyle.Render("↑/↓ select • t tick • s spawn • d destroy • enter properties • r reload • q quit"))
		b.WriteString("\n")
	}

	if m.tail != nil {
		if lines := m.tail.Lines(); len(lines) > 0 {
			b.WriteString("\n")
			b.WriteString(helpStyle.Render(strings.Join(lines, "\n")))
		}
	}
	return b.String()
}

func runInteractive(s *session, tail *logTail) error {
	p := tea.NewProgram(newInteractiveModel(s, tail), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
