// ABOUTME: Playback-driven line highlighting
// ABOUTME: Binary search for the active line and change-only effect emission
package lyrics

import (
	"math"
	"sort"

	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lrc"
)

// ActiveIndex returns the index of the last line starting at or before t,
// or -1 while still in the lead-in or when t is NaN. Among lines with equal
// times the later one wins. lines must be sorted by time.
func ActiveIndex(lines []lrc.Line, t float64) int {
	if math.IsNaN(t) {
		return -1
	}
	return sort.Search(len(lines), func(i int) bool {
		return lines[i].Time > t
	}) - 1
}

// Highlighter remembers the active line and reports only changes
type Highlighter struct {
	active   int
	onChange func(index int)
}

// NewHighlighter creates a highlighter with no active line.
// onChange receives the new index, -1 meaning deactivate.
func NewHighlighter(onChange func(index int)) *Highlighter {
	return &Highlighter{
		active:   -1,
		onChange: onChange,
	}
}

// Active returns the current active index
func (h *Highlighter) Active() int {
	return h.active
}

// Apply sets the active index. Returns true and emits one effect when it changed.
func (h *Highlighter) Apply(index int) bool {
	if index == h.active {
		return false
	}
	h.active = index
	if h.onChange != nil {
		h.onChange(index)
	}
	return true
}

// Reset drops the active line, e.g. when the document is replaced
func (h *Highlighter) Reset() {
	h.Apply(-1)
}
