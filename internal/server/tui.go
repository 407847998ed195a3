// ABOUTME: Server TUI for displaying lyrics traffic
// ABOUTME: Real-time server status display using bubbletea
package server

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is the static part of the status display
type StatusInfo struct {
	Name   string
	Listen string
	Source string
}

// StatusTUI manages the server TUI
type StatusTUI struct {
	program  *tea.Program
	quitChan chan struct{} // Signal to stop the server
}

// tuiModel is the bubbletea model for server TUI
type tuiModel struct {
	info     StatusInfo
	stats    *Stats
	snapshot StatsSnapshot
	quitting bool
	quitChan chan struct{}
}

type tickMsg time.Time

// NewStatusTUI creates a new server TUI
func NewStatusTUI() *StatusTUI {
	return &StatusTUI{
		quitChan: make(chan struct{}, 1),
	}
}

func newTUIModel(info StatusInfo, stats *Stats, quitChan chan struct{}) tuiModel {
	return tuiModel{
		info:     info,
		stats:    stats,
		snapshot: stats.Snapshot(),
		quitChan: quitChan,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			// Signal the server to stop
			select {
			case m.quitChan <- struct{}{}:
			default:
			}
			return m, tea.Quit
		}

	case tickMsg:
		m.snapshot = m.stats.Snapshot()
		return m, tickEvery()
	}

	return m, nil
}

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down server...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		MarginBottom(1)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86"))

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250"))

	requestHeaderStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("220"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))

	var b strings.Builder

	b.WriteString(titleStyle.Render("Resonate Lyrics Server"))
	b.WriteString("\n\n")

	field := func(name, value string) {
		b.WriteString(headerStyle.Render(name + ": "))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	field("Server", m.info.Name)
	field("Listen", m.info.Listen)
	field("Store", m.info.Source)
	field("Uptime", m.snapshot.Uptime.Round(time.Second).String())
	field("Requests", fmt.Sprintf("%d (%d failed, %d saves)", m.snapshot.Total, m.snapshot.Failed, m.snapshot.Saves))
	b.WriteString("\n")

	b.WriteString(requestHeaderStyle.Render(fmt.Sprintf("Recent Requests (%d)", len(m.snapshot.Recent))))
	b.WriteString("\n\n")

	if len(m.snapshot.Recent) == 0 {
		b.WriteString(valueStyle.Render("  No requests yet"))
		b.WriteString("\n")
	} else {
		for _, r := range m.snapshot.Recent {
			line := fmt.Sprintf("  %s %-4s %-40s %d %s",
				r.Time.Format("15:04:05"), r.Method, r.Path, r.Status, r.Latency.Round(time.Microsecond))
			if r.Status >= 400 {
				b.WriteString(errorStyle.Render(line))
			} else {
				b.WriteString(valueStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press 'q' or Ctrl+C to quit"))

	return b.String()
}

// Start runs the TUI until the user quits or Stop is called
func (t *StatusTUI) Start(info StatusInfo, stats *Stats) error {
	t.program = tea.NewProgram(newTUIModel(info, stats, t.quitChan), tea.WithAltScreen())
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI
func (t *StatusTUI) Stop() {
	if t.program != nil {
		t.program.Quit()
	}
}

// QuitChan returns the channel that signals when user wants to quit
func (t *StatusTUI) QuitChan() <-chan struct{} {
	return t.quitChan
}
