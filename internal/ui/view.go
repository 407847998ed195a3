// ABOUTME: Rendering for the lyrics player TUI
// ABOUTME: Header, scrolling lyrics window, sync markers, status and help
package ui

import (
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lrc"
	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"
)

// rows taken by header, progress, status and help
const chromeHeight = 8

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	activeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	lineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("220"))

	upcomingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	markerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	modeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("86")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Goodbye\n"
	}
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch {
	case m.ctl.Mode() == lyrics.ModeEdit:
		b.WriteString(m.editor.View())
	case m.queueOpen:
		b.WriteString(strings.Join(m.renderQueue(max(m.height-chromeHeight, 1)), "\n"))
	default:
		b.WriteString(strings.Join(m.renderLyrics(max(m.height-chromeHeight, 1)), "\n"))
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) renderHeader() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Resonate Lyrics"))
	b.WriteString(" ")
	b.WriteString(modeStyle.Render(strings.ToUpper(m.ctl.Mode().String())))
	b.WriteString("\n")

	title := "No song"
	if m.hasSong {
		title = m.song.DisplayName()
	}
	icon := "⏸"
	if m.playing {
		icon = "▶"
	}
	b.WriteString(headerStyle.Render(icon + " "))
	b.WriteString(valueStyle.Render(truncate(title, m.width-2)))
	b.WriteString("\n")

	if m.queue != nil && m.queue.Len() > 0 {
		b.WriteString(lineStyle.Render(fmt.Sprintf("%d/%d  ", m.queue.Index()+1, m.queue.Len())))
	}
	b.WriteString(renderProgress(m.position, m.player.Duration(), max(m.width-40, 10)))
	b.WriteString(lineStyle.Render(fmt.Sprintf("  vol %d%%", volumePercent(m.player.Volume()))))

	return b.String()
}

// renderLyrics returns at most height rows of the lyrics pane
func (m Model) renderLyrics(height int) []string {
	switch m.screen.State() {
	case lyrics.DisplayLoading:
		return []string{lineStyle.Render("Loading lyrics...")}
	case lyrics.DisplayEmpty:
		if !m.hasSong {
			return []string{lineStyle.Render("Nothing queued")}
		}
		return []string{lineStyle.Render("No lyrics yet. Press e to add some.")}
	case lyrics.DisplayInstrumental:
		return []string{activeStyle.Render("♪ Instrumental ♪")}
	case lyrics.DisplayUnavailable:
		return []string{errorStyle.Render("Lyrics unavailable. Press r to retry.")}
	}

	if m.ctl.Mode() == lyrics.ModeSync {
		return m.renderSyncRows(height)
	}

	lines := m.screen.Lines()
	active := m.screen.Active()
	start, end := window(len(lines), active, height)

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		text := truncate(lines[i], m.width-4)
		if i == active {
			rows = append(rows, activeStyle.Render("▸ "+text))
		} else {
			rows = append(rows, lineStyle.Render("  "+text))
		}
	}
	return rows
}

// renderQueue lists the queue with the playing song and the selection marked
func (m Model) renderQueue(height int) []string {
	songs := m.queue.Songs()
	if len(songs) == 0 {
		return []string{lineStyle.Render("Queue is empty. Press a to scan for new files.")}
	}

	playing := m.queue.Index()
	start, end := window(len(songs), m.queueCursor, height)

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		prefix := "  "
		if i == playing {
			prefix = "♪ "
		}
		text := truncate(fmt.Sprintf("%s%d. %s", prefix, i+1, songs[i].DisplayName()), m.width-2)
		if i == m.queueCursor {
			rows = append(rows, cursorStyle.Render(text))
		} else {
			rows = append(rows, lineStyle.Render(text))
		}
	}
	return rows
}

// renderSyncRows shows the lead-in row and every line with its marker
func (m Model) renderSyncRows(height int) []string {
	session := m.ctl.Session()
	if session == nil {
		return nil
	}

	// row 0 is the lead-in
	total := session.Len() + 1
	cursor := m.screen.Cursor()
	upcoming := m.screen.Upcoming()
	start, end := window(total, cursor+1, height)

	rows := make([]string, 0, end-start)
	for row := start; row < end; row++ {
		index := row - 1

		stamp := "[--:--.--]"
		if marker, ok := session.Marker(index); ok {
			stamp = "[" + lrc.FormatTimestamp(marker.Time) + "]"
		}

		text := session.Line(index)
		if index == lrc.LeadIn {
			text = "♪ (lead-in)"
		}
		text = truncate(text, m.width-16)

		line := markerStyle.Render(stamp) + " "
		switch index {
		case cursor:
			line += cursorStyle.Render("▶ " + text)
		case upcoming:
			line += upcomingStyle.Render("  " + text)
		default:
			line += lineStyle.Render("  " + text)
		}
		rows = append(rows, line)
	}

	if session.PastEnd() {
		rows = append(rows, helpStyle.Render("All lines passed. Select a line to re-mark or ctrl+s to save."))
	}
	return rows
}

func (m Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return errorStyle.Render(truncate(m.status, m.width))
	}
	return valueStyle.Render(truncate(m.status, m.width))
}

func renderProgress(position, duration float64, width int) string {
	ratio := 0.0
	if duration > 0 {
		ratio = lo.Clamp(position/duration, 0, 1)
	}
	filled := int(ratio * float64(width))

	return fmt.Sprintf("%s %s %s",
		formatClock(position),
		strings.Repeat("█", filled)+strings.Repeat("░", width-filled),
		formatClock(duration))
}

func formatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// window returns the [start, end) rows to show so focus sits in the middle
func window(total, focus, height int) (int, int) {
	if height <= 0 || total <= height {
		return 0, total
	}
	focus = max(focus, 0)
	start := lo.Clamp(focus-height/2, 0, total-height)
	return start, start + height
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
