// ABOUTME: Render sink for the lyrics controller
// ABOUTME: Holds what the controller asked to display; the model draws it
package ui

import (
	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lrc"
	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
)

// Screen implements lyrics.View. It only records state and is read by
// Model.View on the same event loop.
type Screen struct {
	state    lyrics.DisplayState
	lines    []string
	active   int
	cursor   int
	upcoming int
	mode     lyrics.Mode
}

// NewScreen returns an empty screen in View mode
func NewScreen() *Screen {
	return &Screen{
		state:    lyrics.DisplayEmpty,
		active:   -1,
		cursor:   lrc.LeadIn,
		upcoming: lrc.LeadIn + 1,
		mode:     lyrics.ModeView,
	}
}

// ShowDocument replaces the displayed lines and clears the highlight
func (s *Screen) ShowDocument(state lyrics.DisplayState, lines []string) {
	s.state = state
	s.lines = lines
	s.active = -1
}

// SetActive highlights one line; -1 clears the highlight
func (s *Screen) SetActive(index int) {
	s.active = index
}

// SetSyncCursor records the line being marked and the one after it
func (s *Screen) SetSyncCursor(current, upcoming int) {
	s.cursor = current
	s.upcoming = upcoming
}

// SetMode records the controller's mode
func (s *Screen) SetMode(mode lyrics.Mode) {
	s.mode = mode
	if mode == lyrics.ModeSync {
		s.cursor = lrc.LeadIn
		s.upcoming = lrc.LeadIn + 1
	}
}

func (s *Screen) State() lyrics.DisplayState { return s.state }
func (s *Screen) Lines() []string            { return s.lines }
func (s *Screen) Active() int                { return s.active }
func (s *Screen) Cursor() int                { return s.cursor }
func (s *Screen) Upcoming() int              { return s.upcoming }
func (s *Screen) Mode() lyrics.Mode          { return s.mode }

var _ lyrics.View = (*Screen)(nil)
