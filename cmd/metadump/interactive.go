package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	metaruntime "github.com/typeforge/meta-runtime"
	"github.com/typeforge/meta-runtime/image"
	"github.com/typeforge/meta-runtime/validate"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F5FD7")).
			Padding(0, 1)

	addrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	symStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F5FD7"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateBrowse modelState = iota
	stateDump
)

type inspectModel struct {
	err      error
	snap     *image.Snapshot
	filename string
	filter   textinput.Model
	symbols  []image.Symbol
	visible  []image.Symbol
	selected int
	dump     string
	state    modelState
}

type loadedMsg struct {
	err  error
	snap *image.Snapshot
}

func newInspectModel(filename string) *inspectModel {
	filter := textinput.New()
	filter.Placeholder = "filter symbols"
	filter.Focus()
	return &inspectModel{
		filename: filename,
		filter:   filter,
		state:    stateBrowse,
	}
}

func (m *inspectModel) Init() tea.Cmd {
	return func() tea.Msg {
		snap, err := loadSnapshot(m.filename)
		return loadedMsg{snap: snap, err: err}
	}
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.snap = msg.snap
		m.symbols = msg.snap.Symbols()
		m.applyFilter()
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateBrowse:
			return m.updateBrowse(msg)
		case stateDump:
			switch msg.String() {
			case "esc", "q", "enter":
				m.state = stateBrowse
			}
			return m, nil
		}
	}
	return m, nil
}

func (m *inspectModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.applyFilter()
			return m, nil
		}
		return m, tea.Quit
	case "up":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case "down":
		if m.selected < len(m.visible)-1 {
			m.selected++
		}
		return m, nil
	case "enter":
		if m.selected < len(m.visible) {
			m.dump = m.renderDump(m.visible[m.selected])
			m.state = stateDump
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *inspectModel) applyFilter() {
	needle := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for _, sym := range m.symbols {
		if needle == "" || strings.Contains(strings.ToLower(sym.Name), needle) {
			m.visible = append(m.visible, sym)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = 0
	}
}

func (m *inspectModel) renderDump(sym image.Symbol) string {
	var b strings.Builder
	dumper := &validate.Dumper{
		Mem:     m.snap,
		Symbols: m.snap,
		Print: func(format string, args ...any) {
			fmt.Fprintf(&b, format, args...)
			b.WriteByte('\n')
		},
	}
	if err := dumper.DumpMetadata(metaruntime.Buffer{Addr: sym.Addr}, 0); err != nil {
		return errorStyle.Render(fmt.Sprintf("cannot dump %s: %v", sym.Name, err))
	}
	return b.String()
}

func (m *inspectModel) View() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	if m.snap == nil {
		return "Loading " + m.filename + "...\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("metadump: " + m.snap.Library))
	b.WriteString("\n\n")

	if m.state == stateDump {
		b.WriteString(m.dump)
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc: back"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	const window = 20
	start := 0
	if m.selected >= window {
		start = m.selected - window + 1
	}
	end := start + window
	if end > len(m.visible) {
		end = len(m.visible)
	}
	for i := start; i < end; i++ {
		sym := m.visible[i]
		line := fmt.Sprintf("%s  %s",
			addrStyle.Render(fmt.Sprintf("%#012x", uint64(sym.Addr))),
			symStyle.Render(sym.Name))
		if i == m.selected {
			line = selectedStyle.Render(fmt.Sprintf("%#012x  %s", uint64(sym.Addr), sym.Name))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.visible) == 0 {
		b.WriteString(helpStyle.Render("no symbols match"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: dump  up/down: select  esc: clear/quit"))
	b.WriteString("\n")
	return b.String()
}

func runInteractive(filename string) error {
	p := tea.NewProgram(newInspectModel(filename), tea.WithAltScreen())
	model, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := model.(*inspectModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
