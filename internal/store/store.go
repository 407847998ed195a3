// ABOUTME: Lyrics persistence backends
// ABOUTME: Shared helpers for file, SQL, HTTP and cached stores
package store

import (
	"fmt"
	"regexp"

	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
)

var songIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidSongID reports whether id is safe to use as a file name or URL path segment
func ValidSongID(id string) bool {
	return songIDPattern.MatchString(id) && id != "." && id != ".."
}

func checkSongID(id string) error {
	if !ValidSongID(id) {
		return fmt.Errorf("invalid song id %q", id)
	}
	return nil
}

// Compile-time interface checks
var (
	_ lyrics.Store = (*FileStore)(nil)
	_ lyrics.Store = (*SQLStore)(nil)
	_ lyrics.Store = (*HTTPStore)(nil)
	_ lyrics.Store = (*Cached)(nil)
)
