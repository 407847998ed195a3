// ABOUTME: Tests for the TUI model
// ABOUTME: Drives key presses and playback events through Update
package ui

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/Resonate-Protocol/resonate-lyrics/internal/library"
	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"
)

type memStore struct {
	mu    sync.Mutex
	docs  map[string]lyrics.Document
	saves []lyrics.Document
}

func (s *memStore) Fetch(ctx context.Context, songID string) (lyrics.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[songID]
	if !ok {
		return lyrics.Document{}, lyrics.ErrNotFound
	}
	return doc, nil
}

func (s *memStore) Save(ctx context.Context, songID, text string, synced bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := lyrics.Document{SongID: songID, RawText: text, Synced: synced}
	s.docs[songID] = doc
	s.saves = append(s.saves, doc)
	return nil
}

type fakePlayer struct {
	loaded   []string
	playing  bool
	position float64
	duration float64
	loadErr  error
	seeks    []float64
	volume   float64
}

func (p *fakePlayer) Load(path string) error {
	if p.loadErr != nil {
		return p.loadErr
	}
	p.loaded = append(p.loaded, path)
	p.position = 0
	return nil
}

func (p *fakePlayer) Play()             { p.playing = true }
func (p *fakePlayer) Toggle() bool      { p.playing = !p.playing; return p.playing }
func (p *fakePlayer) Playing() bool     { return p.playing }
func (p *fakePlayer) Position() float64 { return p.position }
func (p *fakePlayer) Duration() float64 { return p.duration }
func (p *fakePlayer) Volume() float64   { return p.volume }

func (p *fakePlayer) SetVolume(v float64) {
	p.volume = min(max(v, 0), 1)
}

func (p *fakePlayer) Seek(seconds float64) error {
	p.seeks = append(p.seeks, seconds)
	p.position = seconds
	return nil
}

type fixture struct {
	model  Model
	store  *memStore
	player *fakePlayer
	screen *Screen
	ctl    *lyrics.Controller
}

func newFixture(t *testing.T, docs map[string]lyrics.Document, songs ...library.Song) *fixture {
	t.Helper()

	logger, _ := test.NewNullLogger()
	store := &memStore{docs: docs}
	player := &fakePlayer{duration: 180, volume: 1}
	screen := NewScreen()
	ctl := lyrics.NewController(lyrics.ControllerConfig{
		Store:  store,
		Clock:  player,
		View:   screen,
		Logger: logger,
	})

	model := NewModel(Config{
		Controller: ctl,
		Screen:     screen,
		Player:     player,
		Queue:      library.NewQueue(songs),
		Logger:     logger,
	})

	f := &fixture{model: model, store: store, player: player, screen: screen, ctl: ctl}
	f.send(tea.WindowSizeMsg{Width: 80, Height: 30})
	f.run(model.Init())
	return f
}

// send delivers msg and follows every command it produces
func (f *fixture) send(msg tea.Msg) {
	next, cmd := f.model.Update(msg)
	f.model = next.(Model)
	f.run(cmd)
}

func (f *fixture) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case resultMsg, playSongMsg, rescanMsg:
		f.send(msg)
	}
}

func (f *fixture) key(s string) {
	switch s {
	case "enter":
		f.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		f.send(tea.KeyMsg{Type: tea.KeyEsc})
	case "ctrl+s":
		f.send(tea.KeyMsg{Type: tea.KeyCtrlS})
	case "up":
		f.send(tea.KeyMsg{Type: tea.KeyUp})
	case "down":
		f.send(tea.KeyMsg{Type: tea.KeyDown})
	case "right":
		f.send(tea.KeyMsg{Type: tea.KeyRight})
	case "left":
		f.send(tea.KeyMsg{Type: tea.KeyLeft})
	case "space":
		f.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	default:
		f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	}
}

func songs() []library.Song {
	return []library.Song{
		{ID: "song-a", Title: "First", Artist: "Band", Path: "/music/a.mp3"},
		{ID: "song-b", Title: "Second", Artist: "Band", Path: "/music/b.mp3"},
	}
}

func TestNewModel(t *testing.T) {
	model := NewModel(Config{Controller: lyrics.NewController(lyrics.ControllerConfig{}), Screen: NewScreen()})

	if model.seekStep != 5 {
		t.Errorf("expected default seek step 5, got %v", model.seekStep)
	}
	if model.hasSong {
		t.Error("expected no song initially")
	}
	if !model.keys.Edit.Enabled() || model.keys.Mark.Enabled() {
		t.Error("expected View mode bindings initially")
	}
}

func TestInitPlaysFirstSong(t *testing.T) {
	docs := map[string]lyrics.Document{
		"song-a": {RawText: "[00:01.00]Hello\n[00:05.00]World", Synced: true},
	}
	f := newFixture(t, docs, songs()...)

	if len(f.player.loaded) != 1 || f.player.loaded[0] != "/music/a.mp3" {
		t.Fatalf("expected first track loaded, got %v", f.player.loaded)
	}
	if !f.player.playing {
		t.Error("expected playback started")
	}
	if f.ctl.SongID() != "song-a" {
		t.Errorf("expected song-a selected, got %s", f.ctl.SongID())
	}
	if f.screen.State() != lyrics.DisplaySynced {
		t.Errorf("expected synced display, got %v", f.screen.State())
	}
	if len(f.screen.Lines()) != 2 {
		t.Errorf("expected 2 lines, got %d", len(f.screen.Lines()))
	}
}

func TestPositionHighlightsLine(t *testing.T) {
	docs := map[string]lyrics.Document{
		"song-a": {RawText: "[00:01.00]Hello\n[00:05.00]World", Synced: true},
	}
	f := newFixture(t, docs, songs()...)

	f.send(PositionMsg{Position: 7})
	if f.screen.Active() != 1 {
		t.Errorf("expected active line 1, got %d", f.screen.Active())
	}

	f.send(PositionMsg{Position: 0.5})
	if f.screen.Active() != -1 {
		t.Errorf("expected no active line, got %d", f.screen.Active())
	}

	if !strings.Contains(f.model.View(), "Hello") {
		t.Error("expected lyrics in view")
	}
}

func TestEndedAdvancesQueue(t *testing.T) {
	f := newFixture(t, map[string]lyrics.Document{}, songs()...)

	f.send(EndedMsg{})
	if f.ctl.SongID() != "song-b" {
		t.Errorf("expected song-b after track end, got %s", f.ctl.SongID())
	}

	f.send(EndedMsg{})
	if f.ctl.SongID() != "song-b" {
		t.Errorf("expected to stay on last song, got %s", f.ctl.SongID())
	}
	if f.model.status != "End of queue" {
		t.Errorf("expected end of queue status, got %q", f.model.status)
	}
}

func TestNextAndPreviousKeys(t *testing.T) {
	f := newFixture(t, map[string]lyrics.Document{}, songs()...)

	f.key("n")
	if f.ctl.SongID() != "song-b" {
		t.Errorf("expected song-b, got %s", f.ctl.SongID())
	}

	f.key("p")
	if f.ctl.SongID() != "song-a" {
		t.Errorf("expected song-a, got %s", f.ctl.SongID())
	}
	if len(f.player.loaded) != 3 {
		t.Errorf("expected 3 loads, got %d", len(f.player.loaded))
	}
}

func TestLoadFailureShowsStatus(t *testing.T) {
	logger, _ := test.NewNullLogger()
	player := &fakePlayer{loadErr: errors.New("bad frame")}
	screen := NewScreen()
	ctl := lyrics.NewController(lyrics.ControllerConfig{Store: &memStore{docs: map[string]lyrics.Document{}}, View: screen, Logger: logger})
	model := NewModel(Config{Controller: ctl, Screen: screen, Player: player, Queue: library.NewQueue(songs()), Logger: logger})

	next, _ := model.Update(playSongMsg{song: songs()[0]})
	m := next.(Model)

	if !m.statusErr || !strings.Contains(m.status, "bad frame") {
		t.Errorf("expected load error in status, got %q", m.status)
	}
	if ctl.SongID() != "song-a" {
		t.Error("expected lyrics to follow the selection even when audio fails")
	}
}

func TestSeekKeys(t *testing.T) {
	f := newFixture(t, map[string]lyrics.Document{}, songs()...)
	f.player.position = 2

	f.key("left")
	if f.player.position != 0 {
		t.Errorf("expected seek clamped to 0, got %v", f.player.position)
	}

	f.player.position = 178
	f.key("right")
	if f.player.position != 180 {
		t.Errorf("expected seek clamped to duration, got %v", f.player.position)
	}
}

func TestToggle(t *testing.T) {
	f := newFixture(t, map[string]lyrics.Document{}, songs()...)

	f.key("space")
	if f.player.playing || f.model.playing {
		t.Error("expected paused after toggle")
	}
}

func TestInstrumentalSongBlocksAuthoring(t *testing.T) {
	list := songs()
	list[0].Instrumental = true
	f := newFixture(t, map[string]lyrics.Document{"song-a": {RawText: "la la"}}, list...)

	if f.screen.State() != lyrics.DisplayInstrumental {
		t.Errorf("expected instrumental display, got %v", f.screen.State())
	}

	f.key("s")
	if f.ctl.Mode() != lyrics.ModeView {
		t.Errorf("expected View mode, got %v", f.ctl.Mode())
	}
	if !f.model.statusErr || !strings.Contains(f.model.status, "instrumental") {
		t.Errorf("expected instrumental status, got %q", f.model.status)
	}
}

func TestSyncFlow(t *testing.T) {
	docs := map[string]lyrics.Document{"song-a": {RawText: "Hello\nWorld"}}
	f := newFixture(t, docs, songs()...)

	f.key("s")
	if f.ctl.Mode() != lyrics.ModeSync {
		t.Fatalf("expected Sync mode, got %v", f.ctl.Mode())
	}
	if f.model.keys.Next.Enabled() {
		t.Error("expected next disabled while syncing")
	}

	f.player.position = 1.0
	f.key("enter") // lead-in
	f.player.position = 2.5
	f.key("enter")

	if !strings.Contains(f.model.View(), "[00:02.50]") {
		t.Error("expected marker timestamp in sync view")
	}

	f.player.position = 4.0
	f.key("enter")

	f.key("ctrl+s")

	if len(f.store.saves) != 1 {
		t.Fatalf("expected 1 save, got %d", len(f.store.saves))
	}
	saved := f.store.saves[0]
	expected := "[00:00.00]\n[00:02.50]Hello\n[00:04.00]World"
	if !saved.Synced || saved.RawText != expected {
		t.Errorf("expected synced %q, got %q (synced=%v)", expected, saved.RawText, saved.Synced)
	}
	if f.ctl.Mode() != lyrics.ModeView {
		t.Errorf("expected View mode after commit, got %v", f.ctl.Mode())
	}
	if f.screen.State() != lyrics.DisplaySynced {
		t.Errorf("expected synced display, got %v", f.screen.State())
	}
	if f.model.status != "Lyrics saved" {
		t.Errorf("expected saved status, got %q", f.model.status)
	}
}

func TestSyncCursorMovement(t *testing.T) {
	docs := map[string]lyrics.Document{"song-a": {RawText: "One\nTwo\nThree"}}
	f := newFixture(t, docs, songs()...)

	f.key("s")
	f.key("up")
	if f.screen.Cursor() != -1 {
		t.Errorf("expected cursor to stay on lead-in, got %d", f.screen.Cursor())
	}

	f.key("down")
	f.key("down")
	if f.screen.Cursor() != 1 {
		t.Errorf("expected cursor 1, got %d", f.screen.Cursor())
	}

	f.key("down")
	f.key("down")
	if f.screen.Cursor() != 2 {
		t.Errorf("expected cursor clamped to last line, got %d", f.screen.Cursor())
	}

	f.key("esc")
	if f.ctl.Mode() != lyrics.ModeView {
		t.Errorf("expected View mode after cancel, got %v", f.ctl.Mode())
	}
	if len(f.store.saves) != 0 {
		t.Error("expected nothing saved on cancel")
	}
}

func TestEditFlow(t *testing.T) {
	docs := map[string]lyrics.Document{"song-a": {RawText: "old words"}}
	f := newFixture(t, docs, songs()...)

	f.key("e")
	if f.ctl.Mode() != lyrics.ModeEdit {
		t.Fatalf("expected Edit mode, got %v", f.ctl.Mode())
	}
	if f.model.editor.Value() != "old words" {
		t.Errorf("expected editor seeded, got %q", f.model.editor.Value())
	}

	// typed keys go to the editor, not the player bindings
	f.key("q")
	if f.model.quitting {
		t.Fatal("expected q to be typed while editing")
	}

	f.model.editor.SetValue("new words\nsecond line")
	f.key("ctrl+s")

	if len(f.store.saves) != 1 {
		t.Fatalf("expected 1 save, got %d", len(f.store.saves))
	}
	if f.store.saves[0].Synced || f.store.saves[0].RawText != "new words\nsecond line" {
		t.Errorf("expected plain save, got %+v", f.store.saves[0])
	}
	if f.ctl.Mode() != lyrics.ModeView {
		t.Errorf("expected View mode after save, got %v", f.ctl.Mode())
	}
	if f.model.editor.Focused() {
		t.Error("expected editor blurred after save")
	}
}

func TestEditCancel(t *testing.T) {
	f := newFixture(t, map[string]lyrics.Document{}, songs()...)

	f.key("e")
	if f.ctl.Mode() != lyrics.ModeEdit {
		t.Fatalf("expected Edit mode for a song without lyrics, got %v", f.ctl.Mode())
	}

	f.key("esc")
	if f.ctl.Mode() != lyrics.ModeView {
		t.Errorf("expected View mode, got %v", f.ctl.Mode())
	}
	if f.model.status != "Edit cancelled" {
		t.Errorf("expected cancel status, got %q", f.model.status)
	}
}

func TestCopyLyrics(t *testing.T) {
	var copied string
	orig := clipboardWriteAll
	clipboardWriteAll = func(text string) error {
		copied = text
		return nil
	}
	defer func() { clipboardWriteAll = orig }()

	f := newFixture(t, map[string]lyrics.Document{"song-a": {RawText: "words"}}, songs()...)
	f.key("y")

	if copied != "words" {
		t.Errorf("expected lyrics copied, got %q", copied)
	}
}

func TestReloadMsg(t *testing.T) {
	docs := map[string]lyrics.Document{"song-a": {RawText: "before"}}
	f := newFixture(t, docs, songs()...)

	f.store.docs["song-a"] = lyrics.Document{RawText: "after"}

	f.send(ReloadMsg{SongID: "song-b"})
	if f.ctl.Document().RawText != "before" {
		t.Errorf("expected other song change ignored, got %q", f.ctl.Document().RawText)
	}

	f.send(ReloadMsg{SongID: "song-a"})
	if f.ctl.Document().RawText != "after" {
		t.Errorf("expected reload, got %q", f.ctl.Document().RawText)
	}
}

func TestStaleResultDropped(t *testing.T) {
	docs := map[string]lyrics.Document{
		"song-a": {RawText: "from a"},
		"song-b": {RawText: "from b"},
	}
	f := newFixture(t, docs, songs()...)

	// a fetch for song-a resolves after song-b was selected
	stale := f.ctl.Reload()
	f.key("n")
	f.send(resultMsg{result: stale(context.Background())})

	if f.ctl.Document().RawText != "from b" {
		t.Errorf("expected song-b document, got %q", f.ctl.Document().RawText)
	}
}

func TestQuit(t *testing.T) {
	f := newFixture(t, map[string]lyrics.Document{}, songs()...)

	next, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !next.(Model).quitting {
		t.Error("expected quitting")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected quit command")
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{&lyrics.PreconditionError{Op: "sync", Reason: "song is instrumental"}, "Can't sync: song is instrumental"},
		{&lyrics.InvalidStateError{Op: "edit", Reason: "already in sync mode"}, "Can't edit: already in sync mode"},
		{&lyrics.TransportError{Op: "save", SongID: "x", Err: errors.New("timeout")}, "Lyrics save failed: timeout"},
		{errors.New("plain"), "plain"},
	}

	for _, tt := range tests {
		if got := describeError(tt.err); got != tt.expected {
			t.Errorf("expected %q, got %q", tt.expected, got)
		}
	}
}

func TestVolumeKeys(t *testing.T) {
	f := newFixture(t, map[string]lyrics.Document{}, songs()...)

	f.key("-")
	f.key("-")
	if math.Abs(f.player.volume-0.8) > 1e-9 {
		t.Errorf("expected volume 0.8, got %v", f.player.volume)
	}
	if f.model.status != "Volume 80%" {
		t.Errorf("expected volume status, got %q", f.model.status)
	}

	f.key("=")
	f.key("+")
	f.key("+")
	if f.player.volume != 1 {
		t.Errorf("expected volume capped at 1, got %v", f.player.volume)
	}
	if !strings.Contains(f.model.View(), "vol 100%") {
		t.Error("expected volume in header")
	}
}

func TestQueuePaneSelectPlays(t *testing.T) {
	f := newFixture(t, map[string]lyrics.Document{}, songs()...)

	f.key("l")
	if !f.model.queueOpen {
		t.Fatal("expected queue pane open")
	}
	if f.model.keys.Edit.Enabled() || !f.model.keys.QueuePlay.Enabled() {
		t.Error("expected queue bindings while pane open")
	}
	view := f.model.View()
	if !strings.Contains(view, "1. Band - First") || !strings.Contains(view, "2. Band - Second") {
		t.Errorf("expected queued songs listed, got %q", view)
	}

	f.key("down")
	f.key("down")
	if f.model.queueCursor != 1 {
		t.Errorf("expected cursor clamped at 1, got %d", f.model.queueCursor)
	}

	f.key("enter")
	if f.model.queueOpen {
		t.Error("expected pane closed after play")
	}
	if f.ctl.SongID() != "song-b" {
		t.Errorf("expected song-b selected, got %s", f.ctl.SongID())
	}
	if f.model.queue.Index() != 1 {
		t.Errorf("expected queue position 1, got %d", f.model.queue.Index())
	}
	if last := f.player.loaded[len(f.player.loaded)-1]; last != "/music/b.mp3" {
		t.Errorf("expected b.mp3 loaded, got %s", last)
	}
}

func TestQueuePaneRemove(t *testing.T) {
	f := newFixture(t, map[string]lyrics.Document{}, songs()...)

	f.key("l")
	f.key("d")
	if !f.model.statusErr || f.model.queue.Len() != 2 {
		t.Errorf("expected playing song kept, got %d songs and status %q", f.model.queue.Len(), f.model.status)
	}

	f.key("down")
	f.key("d")
	if f.model.queue.Len() != 1 {
		t.Fatalf("expected 1 song left, got %d", f.model.queue.Len())
	}
	if f.model.queueCursor != 0 {
		t.Errorf("expected cursor moved back to 0, got %d", f.model.queueCursor)
	}

	f.key("esc")
	if f.model.queueOpen {
		t.Error("expected esc to close the pane")
	}
	if !f.model.keys.Edit.Enabled() {
		t.Error("expected View bindings after closing the pane")
	}
}

func TestQueuePaneRescanAddsNewSongs(t *testing.T) {
	f := newFixture(t, map[string]lyrics.Document{}, songs()...)
	f.model.rescan = func() ([]library.Song, error) {
		return append(songs(), library.Song{ID: "song-c", Title: "Third", Artist: "Band", Path: "/music/c.mp3"}), nil
	}

	f.key("l")
	f.key("a")
	if f.model.queue.Len() != 3 {
		t.Fatalf("expected 3 songs after rescan, got %d", f.model.queue.Len())
	}
	if f.model.status != "Added 1 songs" {
		t.Errorf("expected added status, got %q", f.model.status)
	}

	f.key("a")
	if f.model.queue.Len() != 3 || f.model.status != "No new songs" {
		t.Errorf("expected no duplicates, got %d songs and status %q", f.model.queue.Len(), f.model.status)
	}

	f.model.rescan = func() ([]library.Song, error) { return nil, errors.New("disk gone") }
	f.key("a")
	if !f.model.statusErr {
		t.Error("expected rescan error in status")
	}
}
