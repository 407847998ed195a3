// ABOUTME: Lyrics view that also logs what is displayed
// ABOUTME: Lets the player follow along without a TUI
package app

import (
	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
	"github.com/sirupsen/logrus"
)

// logView forwards to another view and logs lyric lines as they activate
type logView struct {
	next  lyrics.View
	log   logrus.FieldLogger
	lines []string
}

func newLogView(next lyrics.View, logger logrus.FieldLogger) *logView {
	return &logView{next: next, log: logger}
}

func (v *logView) ShowDocument(state lyrics.DisplayState, lines []string) {
	v.lines = lines
	switch state {
	case lyrics.DisplayInstrumental:
		v.log.Info("♪ Instrumental")
	case lyrics.DisplayEmpty:
		v.log.Info("No lyrics for this song")
	case lyrics.DisplayUnavailable:
		v.log.Warn("Lyrics unavailable")
	case lyrics.DisplayPlain:
		v.log.WithField("lines", len(lines)).Info("Showing unsynced lyrics")
	}
	v.next.ShowDocument(state, lines)
}

func (v *logView) SetActive(index int) {
	if index >= 0 && index < len(v.lines) {
		v.log.Infof("♪ %s", v.lines[index])
	}
	v.next.SetActive(index)
}

func (v *logView) SetSyncCursor(current, upcoming int) {
	v.next.SetSyncCursor(current, upcoming)
}

func (v *logView) SetMode(mode lyrics.Mode) {
	v.next.SetMode(mode)
}
