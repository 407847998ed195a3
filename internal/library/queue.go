// ABOUTME: Play queue
// ABOUTME: Ordered songs with a current position, next/previous and direct selection
package library

import (
	"sync"

	"github.com/samber/lo"
)

// Queue is an ordered list of songs with a current position.
// It is safe for concurrent use.
type Queue struct {
	mu      sync.RWMutex
	songs   []Song
	current int // -1 when nothing is selected
}

// NewQueue creates a queue positioned before the first song
func NewQueue(songs []Song) *Queue {
	return &Queue{
		songs:   append([]Song(nil), songs...),
		current: -1,
	}
}

// Len returns the number of queued songs
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.songs)
}

// Songs returns a copy of the queued songs
func (q *Queue) Songs() []Song {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]Song(nil), q.songs...)
}

// Index returns the current position, -1 if none
func (q *Queue) Index() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.current
}

// Current returns the current song
func (q *Queue) Current() (Song, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.current < 0 || q.current >= len(q.songs) {
		return Song{}, false
	}
	return q.songs[q.current], true
}

// Next advances to the following song. At the end of the queue it returns
// false and the position is unchanged.
func (q *Queue) Next() (Song, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current+1 >= len(q.songs) {
		return Song{}, false
	}
	q.current++
	return q.songs[q.current], true
}

// Previous moves back one song, staying on the first song at the start
func (q *Queue) Previous() (Song, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.songs) == 0 {
		return Song{}, false
	}
	if q.current > 0 {
		q.current--
	}
	if q.current < 0 {
		q.current = 0
	}
	return q.songs[q.current], true
}

// Select jumps to the song with id
func (q *Queue) Select(id string) (Song, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, idx, ok := lo.FindIndexOf(q.songs, func(s Song) bool { return s.ID == id })
	if !ok {
		return Song{}, false
	}
	q.current = idx
	return q.songs[idx], true
}

// Add appends songs to the end of the queue
func (q *Queue) Add(songs ...Song) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.songs = append(q.songs, songs...)
}

// Remove drops the song with id. Removing the current song leaves the
// position on the song that followed it.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, idx, ok := lo.FindIndexOf(q.songs, func(s Song) bool { return s.ID == id })
	if !ok {
		return false
	}
	q.songs = append(q.songs[:idx], q.songs[idx+1:]...)
	if idx < q.current {
		q.current--
	} else if idx == q.current && q.current >= len(q.songs) {
		q.current = len(q.songs) - 1
	}
	return true
}
