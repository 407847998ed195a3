// ABOUTME: Timed-lyrics parser and serializer
// ABOUTME: Converts between LRC-style text and sorted timed lines
package lrc

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// LeadIn is the marker index of the synthetic line anchoring time zero
const LeadIn = -1

// Line is one timed lyric line
type Line struct {
	Time float64 // seconds from track start
	Text string
}

// Marker is a timestamp recorded for a plain-text line while authoring
type Marker struct {
	Index int // LeadIn or 0..N-1
	Time  float64
	Text  string
}

// maxMinutes keeps the millisecond total of a tag within int64
const maxMinutes = (math.MaxInt64/1000 - 60) / 60

var tagPattern = regexp.MustCompile(`^\[(\d+):(\d{1,2})(?:\.(\d{1,3}))?\](.*)$`)

// Parse converts timed-lyrics text into lines sorted by time.
// Lines without a leading timestamp tag are skipped. Returns nil when
// nothing matched so callers can tell "no synced data" from an empty song.
func Parse(text string) []Line {
	var lines []Line

	for _, physical := range strings.Split(text, "\n") {
		physical = strings.TrimSuffix(physical, "\r")

		m := tagPattern.FindStringSubmatch(physical)
		if m == nil {
			continue
		}

		minutes, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || minutes > maxMinutes {
			continue
		}
		seconds, _ := strconv.ParseInt(m[2], 10, 64)

		var millis int64
		if m[3] != "" {
			// right-pad: "5" -> 500, "05" -> 50, "005" -> 5
			millis, _ = strconv.ParseInt(m[3]+strings.Repeat("0", 3-len(m[3])), 10, 64)
		}

		total := (minutes*60+seconds)*1000 + millis
		lines = append(lines, Line{
			Time: float64(total) / 1000,
			Text: m[4],
		})
	}

	if len(lines) == 0 {
		return nil
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Time < lines[j].Time
	})

	return lines
}

// Serialize renders markers as timed-lyrics text, one line per marker,
// ordered by time. The lead-in marker is always written with empty text.
func Serialize(markers []Marker) string {
	sorted := make([]Marker, len(markers))
	copy(sorted, markers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})

	out := make([]string, 0, len(sorted))
	for _, m := range sorted {
		text := m.Text
		if m.Index == LeadIn {
			text = ""
		}
		out = append(out, fmt.Sprintf("[%s]%s", FormatTimestamp(m.Time), text))
	}

	return strings.Join(out, "\n")
}

// FormatTimestamp formats seconds as MM:SS.CC with truncated centiseconds
func FormatTimestamp(seconds float64) string {
	cs := Centiseconds(seconds)
	return fmt.Sprintf("%02d:%02d.%02d", cs/6000, (cs/100)%60, cs%100)
}

// Centiseconds truncates seconds to whole centiseconds. Negative, NaN and
// infinite input yield 0.
func Centiseconds(seconds float64) int64 {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	// 0.29*100 is 28.999999999999996 in float64, so readings within 1e-8s
	// below a centisecond boundary round up to it rather than truncating
	return int64(math.Floor(seconds*100 + 1e-6))
}

// Truncate returns seconds truncated to 1/100s, the precision Serialize keeps
func Truncate(seconds float64) float64 {
	return float64(Centiseconds(seconds)) / 100
}
