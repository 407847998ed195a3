// ABOUTME: Playback position watcher
// ABOUTME: Polls a position source and reports changes and end of track
package playback

import (
	"context"
	"math"
	"time"
)

// Source is what Watch polls; *Player satisfies it
type Source interface {
	Position() float64
	Ended() bool
}

// EventKind distinguishes watch events
type EventKind int

const (
	EventPosition EventKind = iota
	EventEnded
)

// Event is a position change or the end of the track
type Event struct {
	Kind     EventKind
	Position float64
}

// Watch polls src every interval until ctx is done. fn is called when the
// position changed since the last poll, and once when the track ends.
func Watch(ctx context.Context, src Source, interval time.Duration, fn func(Event)) {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := math.NaN()
	endedSent := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pos := src.Position()
			if pos != last {
				last = pos
				fn(Event{Kind: EventPosition, Position: pos})
			}

			if src.Ended() {
				if !endedSent {
					endedSent = true
					fn(Event{Kind: EventEnded, Position: pos})
				}
			} else {
				endedSent = false
			}
		}
	}
}
