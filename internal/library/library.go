// ABOUTME: Music library scanning
// ABOUTME: Walks a directory of MP3 and FLAC files and derives song metadata from paths
package library

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// songNamespace scopes song ids derived from library-relative paths
var songNamespace = uuid.MustParse("5b8d7f4e-2c0a-4f43-9d0e-3f6a1c2b7e90")

var (
	trackPattern        = regexp.MustCompile(`^(\d{1,3})\s*[-.]\s*`)
	instrumentalPattern = regexp.MustCompile(`(?i)\s*[\[(]instrumental[\])]\s*`)
)

// Song is one playable file
type Song struct {
	ID           string
	Title        string
	Artist       string
	Album        string
	Track        int
	Path         string // absolute path
	RelPath      string // slash-separated, relative to the library root
	Instrumental bool
}

// DisplayName returns "Artist - Title", or just the title
func (s Song) DisplayName() string {
	if s.Artist == "" {
		return s.Title
	}
	return s.Artist + " - " + s.Title
}

// SongID returns the stable id for a library-relative path
func SongID(relPath string) string {
	return uuid.NewSHA1(songNamespace, []byte(filepath.ToSlash(relPath))).String()
}

// Playable reports whether path has an extension the player can decode
func Playable(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".mp3" || ext == ".flac"
}

// Scan finds all playable files (.mp3, .flac) under dir, sorted by artist, album, track and title.
// Hidden files and directories are skipped.
func Scan(dir string) ([]Song, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve music directory: %w", err)
	}

	var songs []Song
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !Playable(path) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		songs = append(songs, songFromPath(path, filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	sort.SliceStable(songs, func(i, j int) bool {
		a, b := songs[i], songs[j]
		if a.Artist != b.Artist {
			return strings.ToLower(a.Artist) < strings.ToLower(b.Artist)
		}
		if a.Album != b.Album {
			return strings.ToLower(a.Album) < strings.ToLower(b.Album)
		}
		if a.Track != b.Track {
			return a.Track < b.Track
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})

	return songs, nil
}

// songFromPath derives metadata from "Artist/Album/NN - Artist - Title [instrumental].mp3"
// style paths. Every part except the title is optional.
func songFromPath(path, rel string) Song {
	song := Song{
		ID:      SongID(rel),
		Path:    path,
		RelPath: rel,
	}

	name := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))

	if instrumentalPattern.MatchString(name) {
		song.Instrumental = true
		name = instrumentalPattern.ReplaceAllString(name, " ")
	}
	name = strings.TrimSpace(name)

	if m := trackPattern.FindStringSubmatch(name); m != nil {
		song.Track, _ = strconv.Atoi(m[1])
		name = name[len(m[0]):]
	}

	if artist, title, ok := strings.Cut(name, " - "); ok {
		song.Artist = strings.TrimSpace(artist)
		name = title
	}
	song.Title = strings.TrimSpace(name)

	dirs := strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/")
	if dirs[0] == "." {
		dirs = nil
	}
	if len(dirs) >= 1 {
		song.Album = dirs[len(dirs)-1]
	}
	if song.Artist == "" && len(dirs) >= 2 {
		song.Artist = dirs[len(dirs)-2]
	}
	if song.Title == "" {
		song.Title = filepath.Base(rel)
	}

	return song
}
