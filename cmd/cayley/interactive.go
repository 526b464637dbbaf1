package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/cayley/asm"
	"github.com/wippyai/cayley/erasure"
	"github.com/wippyai/cayley/interp"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	refStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err     error
	app     *app
	stack   *interp.Stack
	input   textinput.Model
	message string
	history []string
}

func newInteractiveModel(a *app) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "fill_i32_1 [3] 7"
	ti.Prompt = "> "
	ti.Width = 60
	ti.Focus()
	return &interactiveModel{
		app:   a,
		stack: interp.NewStack(),
		input: ti,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			m.history = append(m.history, line)
			if m.exec(line) {
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// exec runs one REPL line and reports whether the session should end.
// Lines starting with ":" are commands; everything else is assembled and
// run against the persistent stack.
func (m *interactiveModel) exec(line string) bool {
	m.err, m.message = nil, ""

	if cmd, ok := strings.CutPrefix(line, ":"); ok {
		fields := strings.Fields(cmd)
		if len(fields) == 0 {
			m.err = fmt.Errorf("empty command")
			return false
		}
		switch fields[0] {
		case "q", "quit":
			return true
		case "clear":
			m.stack.Reset()
			m.message = "stack cleared"
		case "pop":
			if _, err := m.stack.Pop(); err != nil {
				m.err = err
			}
		case "dup":
			top, ok := m.stack.Peek()
			if !ok {
				m.err = fmt.Errorf("stack is empty")
				break
			}
			m.stack.Push(top.Clone())
		case "kernel":
			if len(fields) != 2 {
				m.err = fmt.Errorf("usage: :kernel <op>")
				break
			}
			m.err = m.app.Kernel(m.stack, fields[1])
		case "ops":
			prefix := ""
			if len(fields) > 1 {
				prefix = fields[1]
			}
			var b strings.Builder
			m.app.List(&b, prefix)
			m.message = b.String()
		default:
			m.err = fmt.Errorf("unknown command %q", fields[0])
		}
		return false
	}

	code, err := asm.Assemble(m.app.rt, line)
	if err != nil {
		m.err = err
		return false
	}
	// Handlers consume what they pop, so the line runs on clones and the
	// stack only changes when every instruction succeeds.
	items := m.stack.Items()
	work := make([]*erasure.AnyArray, len(items))
	for i, a := range items {
		work[i] = a.Clone()
	}
	next := interp.NewStack(work...)
	if m.err = m.app.rt.Run(next, code); m.err == nil {
		m.stack = next
	}
	return false
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("cayley"))
	b.WriteString(fmt.Sprintf(" %d ops, stack depth %d\n\n", m.app.rt.Len(), m.stack.Len()))

	items := m.stack.Items()
	if len(items) == 0 {
		b.WriteString(helpStyle.Render("(empty stack)"))
		b.WriteString("\n")
	}
	for i, a := range items {
		b.WriteString(refStyle.Render(fmt.Sprintf("#%d", i)))
		b.WriteString(" ")
		b.WriteString(resultStyle.Render(m.app.printer.Format(a)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	} else if m.message != "" {
		b.WriteString(m.message)
		b.WriteString("\n\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(":kernel op • :pop • :dup • :clear • :ops [prefix] • esc quit"))
	return b.String()
}

func runInteractive(a *app) error {
	p := tea.NewProgram(newInteractiveModel(a), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
