// ABOUTME: Sync authoring session
// ABOUTME: Records playback timestamps for plain-text lines under a movable cursor
package lyrics

import (
	"sort"
	"strings"

	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lrc"
	"github.com/samber/lo"
)

// CursorUpdate tells the view which lines to style after a mark.
// An index equal to the session length means no line.
type CursorUpdate struct {
	Current  int
	Upcoming int
}

// Session holds the state of one timestamp authoring pass.
//
// The cursor starts on the lead-in (-1). Marking records the playback time for
// the line under the cursor and moves to the line after it. Once the cursor
// passes the last line it stays there until a line is selected again.
type Session struct {
	lines   []string
	cursor  int
	markers map[int]lrc.Marker
}

// NewSession starts authoring against plain text
func NewSession(plain string, instrumental bool) (*Session, error) {
	if instrumental {
		return nil, precondition("sync", "song is instrumental")
	}
	if strings.TrimSpace(plain) == "" {
		return nil, precondition("sync", "no lyrics text to sync")
	}

	return &Session{
		lines:   strings.Split(plain, "\n"),
		cursor:  lrc.LeadIn,
		markers: make(map[int]lrc.Marker),
	}, nil
}

// Len returns the number of plain-text lines
func (s *Session) Len() int {
	return len(s.lines)
}

// Cursor returns the line the next mark applies to
func (s *Session) Cursor() int {
	return s.cursor
}

// PastEnd reports whether every line up to the end has been passed
func (s *Session) PastEnd() bool {
	return s.cursor == len(s.lines)
}

// Line returns the text of line i; the lead-in has no text
func (s *Session) Line(i int) string {
	if i < 0 || i >= len(s.lines) {
		return ""
	}
	return s.lines[i]
}

// Marker returns the marker recorded for line i, if any
func (s *Session) Marker(i int) (lrc.Marker, bool) {
	m, ok := s.markers[i]
	return m, ok
}

// Markers returns all recorded markers ordered by line index
func (s *Session) Markers() []lrc.Marker {
	markers := lo.Values(s.markers)
	sort.Slice(markers, func(i, j int) bool {
		return markers[i].Index < markers[j].Index
	})
	return markers
}

// Select moves the cursor to any line, including one already marked
func (s *Session) Select(index int) error {
	if index < lrc.LeadIn || index >= len(s.lines) {
		return invalidState("select line", "line index out of range")
	}
	s.cursor = index
	return nil
}

// Mark records playbackTime for the line under the cursor and advances past it.
// The lead-in is always recorded at 0.
func (s *Session) Mark(playbackTime float64) (CursorUpdate, error) {
	if s.PastEnd() {
		return CursorUpdate{}, invalidState("mark line", "past the last line, select a line first")
	}

	marked := s.cursor
	t := playbackTime
	if marked == lrc.LeadIn || t < 0 {
		t = 0
	}

	s.markers[marked] = lrc.Marker{
		Index: marked,
		Time:  t,
		Text:  s.Line(marked),
	}

	s.cursor = lo.Clamp(marked+1, lrc.LeadIn, len(s.lines))

	return s.cursorUpdate(), nil
}

// Serialize renders the recorded markers as timed-lyrics text
func (s *Session) Serialize() (string, error) {
	if len(s.markers) == 0 {
		return "", precondition("commit sync", "no lines have been marked")
	}
	return lrc.Serialize(s.Markers()), nil
}

func (s *Session) cursorUpdate() CursorUpdate {
	return CursorUpdate{
		Current:  s.cursor,
		Upcoming: lo.Clamp(s.cursor+1, lrc.LeadIn, len(s.lines)),
	}
}
