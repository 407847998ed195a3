// ABOUTME: Lyrics document as loaded from the store
// ABOUTME: Raw text plus synced flag, with instrumental detection
package lyrics

import (
	"strings"

	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lrc"
	"github.com/samber/lo"
)

// InstrumentalMarker is the lyrics text that flags a song as instrumental
const InstrumentalMarker = "[instrumental]"

// Document is the lyrics of one song. It is replaced wholesale on every load.
type Document struct {
	SongID  string `json:"song_id"`
	RawText string `json:"lyrics"`
	Synced  bool   `json:"is_synced"`
}

// Instrumental reports whether the text is exactly the instrumental marker
func (d Document) Instrumental() bool {
	return strings.TrimSpace(d.RawText) == InstrumentalMarker
}

// Empty reports whether there is no displayable text
func (d Document) Empty() bool {
	return strings.TrimSpace(d.RawText) == ""
}

// Lines parses a synced document. Returns nil for plain documents or
// synced text without any timestamp tags.
func (d Document) Lines() []lrc.Line {
	if !d.Synced {
		return nil
	}
	return lrc.Parse(d.RawText)
}

// PlainText returns the text to author timestamps against. For synced
// documents this is the text of the parsed lines, without tags.
func (d Document) PlainText() string {
	if !d.Synced {
		return d.RawText
	}
	lines := d.Lines()
	if lines == nil {
		return d.RawText
	}
	texts := lo.Map(lines, func(l lrc.Line, _ int) string { return l.Text })
	// a leading blank line is the lead-in anchor, not lyrics
	if len(texts) > 0 && texts[0] == "" {
		texts = texts[1:]
	}
	return strings.Join(texts, "\n")
}
