// internal/tui/progress.go
// Package tui renders a live progress view for a running sweep.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TupleMsg reports one finished sweep tuple.
type TupleMsg struct {
	Completed   int
	Total       int
	Description string
}

// DoneMsg ends the progress view.
type DoneMsg struct{}

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
)

// Model is a minimal spinner-plus-counter view over sweep progress.
type Model struct {
	spinner   spinner.Model
	completed int
	total     int
	current   string
	finished  bool
}

// NewModel returns a progress model expecting total tuples.
func NewModel(total int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{spinner: s, total: total}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TupleMsg:
		m.completed = msg.Completed
		m.total = msg.Total
		m.current = msg.Description
		return m, nil
	case DoneMsg:
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m Model) View() string {
	if m.finished {
		return labelStyle.Render(fmt.Sprintf("Sweep complete (%d/%d tuples)", m.completed, m.total)) + "\n"
	}
	line := fmt.Sprintf("%s %s %s",
		m.spinner.View(),
		countStyle.Render(fmt.Sprintf("%d/%d", m.completed, m.total)),
		labelStyle.Render("tuples"))
	if m.current != "" {
		line += labelStyle.Render("  last: " + m.current)
	}
	return line + "\n"
}
