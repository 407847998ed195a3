// ABOUTME: Directory-backed lyrics store
// ABOUTME: One .lrc or .txt file per song, atomic writes, fsnotify change watching
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const (
	syncedExt = ".lrc"
	plainExt  = ".txt"
)

// FileStore keeps lyrics as files in a directory. Synced lyrics are stored as
// <id>.lrc and plain lyrics as <id>.txt; saving one removes the other.
type FileStore struct {
	dir string
	log logrus.FieldLogger
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string, logger logrus.FieldLogger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lyrics directory: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &FileStore{
		dir: dir,
		log: logger.WithField("store", "file"),
	}, nil
}

// Dir returns the lyrics directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Fetch reads the song's lyrics file, preferring synced lyrics
func (s *FileStore) Fetch(ctx context.Context, songID string) (lyrics.Document, error) {
	if err := checkSongID(songID); err != nil {
		return lyrics.Document{}, err
	}

	for _, ext := range []string{syncedExt, plainExt} {
		data, err := os.ReadFile(s.path(songID, ext))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return lyrics.Document{}, fmt.Errorf("failed to read lyrics: %w", err)
		}

		return lyrics.Document{
			SongID:  songID,
			RawText: string(data),
			Synced:  ext == syncedExt,
		}, nil
	}

	return lyrics.Document{}, lyrics.ErrNotFound
}

// Save writes the lyrics atomically and removes the file of the other kind
func (s *FileStore) Save(ctx context.Context, songID, text string, synced bool) error {
	if err := checkSongID(songID); err != nil {
		return err
	}

	ext, stale := plainExt, syncedExt
	if synced {
		ext, stale = syncedExt, plainExt
	}

	tmp, err := os.CreateTemp(s.dir, "."+songID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write lyrics: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write lyrics: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(songID, ext)); err != nil {
		return fmt.Errorf("failed to replace lyrics file: %w", err)
	}

	if err := os.Remove(s.path(songID, stale)); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.WithError(err).WithField("song_id", songID).Warn("Failed to remove stale lyrics file")
	}

	s.log.WithFields(logrus.Fields{"song_id": songID, "synced": synced}).Debug("Lyrics written")
	return nil
}

// Watch reports songs whose lyrics files change on disk until ctx is done
func (s *FileStore) Watch(ctx context.Context, onChange func(songID string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if songID, ok := songIDFromPath(event.Name); ok {
				onChange(songID)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.WithError(err).Warn("Lyrics watch error")
		}
	}
}

func (s *FileStore) path(songID, ext string) string {
	return filepath.Join(s.dir, songID+ext)
}

// songIDFromPath maps a lyrics file name back to its song; temp files are skipped
func songIDFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return "", false
	}

	ext := filepath.Ext(name)
	if ext != syncedExt && ext != plainExt {
		return "", false
	}

	id := strings.TrimSuffix(name, ext)
	return id, ValidSongID(id)
}
