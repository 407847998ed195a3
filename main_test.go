// ABOUTME: Tests for the player CLI
// ABOUTME: Covers lyrics status detection and the library listing
package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Resonate-Protocol/resonate-lyrics/internal/config"
	"github.com/Resonate-Protocol/resonate-lyrics/internal/library"
	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
)

type stubStore struct {
	docs map[string]lyrics.Document
	err  error
}

func (s stubStore) Fetch(ctx context.Context, songID string) (lyrics.Document, error) {
	if s.err != nil {
		return lyrics.Document{}, s.err
	}
	doc, ok := s.docs[songID]
	if !ok {
		return lyrics.Document{}, lyrics.ErrNotFound
	}
	return doc, nil
}

func (s stubStore) Save(ctx context.Context, songID, text string, synced bool) error {
	return nil
}

func TestLyricsStatus(t *testing.T) {
	store := stubStore{docs: map[string]lyrics.Document{
		"synced": {RawText: "[00:01.00]Hi", Synced: true},
		"plain":  {RawText: "Hi"},
		"inst":   {RawText: "[instrumental]"},
		"blank":  {RawText: "  "},
	}}

	tests := []struct {
		song     library.Song
		expected string
	}{
		{library.Song{ID: "synced"}, statusSynced},
		{library.Song{ID: "plain"}, statusPlain},
		{library.Song{ID: "inst"}, statusInstrumental},
		{library.Song{ID: "blank"}, statusNone},
		{library.Song{ID: "missing"}, statusNone},
		{library.Song{ID: "plain", Instrumental: true}, statusInstrumental},
	}

	for _, tt := range tests {
		if got := lyricsStatus(context.Background(), store, tt.song); got != tt.expected {
			t.Errorf("%s: expected %s, got %s", tt.song.ID, tt.expected, got)
		}
	}

	broken := stubStore{err: errors.New("connection refused")}
	if got := lyricsStatus(context.Background(), broken, library.Song{ID: "x"}); got != statusError {
		t.Errorf("expected %s, got %s", statusError, got)
	}
}

func TestRunLibrary(t *testing.T) {
	music := t.TempDir()
	lyricsDir := t.TempDir()

	for _, name := range []string{"Band - Alpha.mp3", "Band - Beta.mp3"} {
		if err := os.WriteFile(filepath.Join(music, name), []byte("not audio"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	id := library.SongID("Band - Alpha.mp3")
	if err := os.WriteFile(filepath.Join(lyricsDir, id+".lrc"), []byte("[00:01.00]Hello"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.MusicDir = music
	cfg.LyricsDir = lyricsDir
	cfg.LogFile = filepath.Join(t.TempDir(), "test.log")
	cfg.ServerURL = ""
	cfg.Discover = false
	cfg.DatabaseURL = ""
	cfg.RedisURL = ""

	var out bytes.Buffer
	if err := runLibrary(context.Background(), &cfg, &out); err != nil {
		t.Fatalf("library failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Alpha", "Beta", "Band", statusSynced, statusNone, "2 songs"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, got)
		}
	}
}

func TestRunLibraryRequiresMusic(t *testing.T) {
	cfg := config.Default()
	cfg.MusicDir = ""

	if err := runLibrary(context.Background(), &cfg, &bytes.Buffer{}); err == nil {
		t.Error("expected error without a music directory")
	}
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"music", "lyrics-dir", "server", "db", "redis", "no-tui", "seek-step"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected flag --%s", name)
		}
	}

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	joined := strings.Join(names, ",")
	if !strings.Contains(joined, "play") || !strings.Contains(joined, "library") {
		t.Errorf("expected play and library subcommands, got %s", joined)
	}
}
