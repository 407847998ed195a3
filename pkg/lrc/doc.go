// ABOUTME: Timed-lyrics text format package
// ABOUTME: Parses and serializes [mm:ss.xx]text lyric lines
// Package lrc implements the line-oriented timed-lyrics format used for synced lyrics.
//
// Each physical line carries one leading timestamp tag followed by the lyric text:
//
//	[00:12.50]First line
//	[01:03.07]Second line
//
// Parse accepts [m:ss], [mm:ss.x], [mm:ss.xx] and [mm:ss.xxx] tags and drops any
// line without a tag. Serialize always writes [MM:SS.CC] with truncated centiseconds.
//
// Example:
//
//	lines := lrc.Parse(raw)
//	if lines == nil {
//	    // no synced data
//	}
//
//	text := lrc.Serialize([]lrc.Marker{
//	    {Index: lrc.LeadIn, Time: 0},
//	    {Index: 0, Time: 12.5, Text: "First line"},
//	})
package lrc
