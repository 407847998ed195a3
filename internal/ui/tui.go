// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the events fed into it
package ui

import (
	"github.com/Resonate-Protocol/resonate-lyrics/internal/playback"
	tea "github.com/charmbracelet/bubbletea"
)

// NewProgram creates the TUI program on the alternate screen
func NewProgram(config Config, opts ...tea.ProgramOption) *tea.Program {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	return tea.NewProgram(NewModel(config), opts...)
}

// PlaybackMsg converts a playback watch event into a TUI message
func PlaybackMsg(ev playback.Event) tea.Msg {
	if ev.Kind == playback.EventEnded {
		return EndedMsg{}
	}
	return PositionMsg{Position: ev.Position}
}
