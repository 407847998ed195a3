// ABOUTME: Bubbletea model for the lyrics player TUI
// ABOUTME: Single event loop for keys, position events and store results
package ui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Resonate-Protocol/resonate-lyrics/internal/library"
	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lrc"
	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	taskTimeout = 15 * time.Second
	volumeStep  = 0.1
)

var clipboardWriteAll = clipboard.WriteAll

// Player is the playback surface driven by the TUI; *playback.Player satisfies it
type Player interface {
	Load(path string) error
	Play()
	Toggle() bool
	Playing() bool
	Seek(seconds float64) error
	Position() float64
	Duration() float64
	SetVolume(v float64)
	Volume() float64
}

// PositionMsg carries a playback position change
type PositionMsg struct {
	Position float64
}

// EndedMsg reports that the current track played to its end
type EndedMsg struct{}

// ReloadMsg asks for a song's lyrics to be refetched after an external change
type ReloadMsg struct {
	SongID string
}

// StatusMsg shows a line in the status bar
type StatusMsg struct {
	Text  string
	Error bool
}

type playSongMsg struct {
	song library.Song
}

type resultMsg struct {
	result lyrics.Result
}

type rescanMsg struct {
	songs []library.Song
	err   error
}

// Config holds the model's collaborators. Screen must be the controller's View.
type Config struct {
	Controller *lyrics.Controller
	Screen     *Screen
	Player     Player
	Queue      *library.Queue
	SeekStep   time.Duration
	Logger     logrus.FieldLogger

	// Rescan lists the music library again; new songs are appended to the queue
	Rescan func() ([]library.Song, error)

	// ExitAtEnd quits once the last song of the queue has finished
	ExitAtEnd bool
}

// Model represents the TUI state
type Model struct {
	ctl    *lyrics.Controller
	screen *Screen
	player Player
	queue  *library.Queue
	log    logrus.FieldLogger

	seekStep  float64
	exitAtEnd bool
	rescan    func() ([]library.Song, error)

	keys   keyMap
	help   help.Model
	editor textarea.Model

	song     library.Song
	hasSong  bool
	position float64
	playing  bool

	queueOpen   bool
	queueCursor int

	status    string
	statusErr bool

	width    int
	height   int
	quitting bool
}

// NewModel creates a new TUI model
func NewModel(config Config) Model {
	if config.SeekStep <= 0 {
		config.SeekStep = 5 * time.Second
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}

	editor := textarea.New()
	editor.Placeholder = "Type or paste lyrics, one line per row"
	editor.ShowLineNumbers = true
	editor.CharLimit = 0

	h := help.New()
	h.ShortSeparator = "  "
	h.Styles.ShortKey = helpStyle
	h.Styles.ShortDesc = helpStyle
	h.Styles.FullKey = helpStyle
	h.Styles.FullDesc = helpStyle

	return Model{
		ctl:       config.Controller,
		screen:    config.Screen,
		player:    config.Player,
		queue:     config.Queue,
		log:       config.Logger.WithField("component", "ui"),
		seekStep:  config.SeekStep.Seconds(),
		exitAtEnd: config.ExitAtEnd,
		rescan:    config.Rescan,
		keys:      newKeyMap(),
		help:      h,
		editor:    editor,
	}
}

// Init starts the current song of the queue
func (m Model) Init() tea.Cmd {
	song, ok := m.queue.Current()
	if !ok {
		song, ok = m.queue.Next()
	}
	if !ok {
		return nil
	}
	return func() tea.Msg { return playSongMsg{song: song} }
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		m, cmd = m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case PositionMsg:
		m.position = msg.Position
		m.playing = m.player.Playing()
		m.ctl.OnPosition(msg.Position)
	case EndedMsg:
		m, cmd = m.advance()
		if cmd == nil && m.exitAtEnd {
			m.log.Info("Reached end of queue")
			m, cmd = m.quit()
		}
	case playSongMsg:
		m, cmd = m.playSong(msg.song)
	case resultMsg:
		m, cmd = m.deliver(msg.result)
	case rescanMsg:
		m.addScanned(msg.songs, msg.err)
	case ReloadMsg:
		if msg.SongID == m.ctl.SongID() {
			m.log.WithField("song_id", msg.SongID).Info("Lyrics changed on disk, reloading")
			cmd = runTask(m.ctl.Reload())
		}
	case StatusMsg:
		m.setStatus(msg.Text, msg.Error)
	default:
		if m.ctl.Mode() == lyrics.ModeEdit {
			m.editor, cmd = m.editor.Update(msg)
		}
	}

	m.syncMode()
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if m.ctl.Mode() == lyrics.ModeEdit {
		return m.handleEditKey(msg)
	}
	if m.queueOpen {
		if next, cmd, ok := m.handleQueueKey(msg); ok {
			return next, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Toggle):
		m.playing = m.player.Toggle()
	case key.Matches(msg, m.keys.SeekBack):
		m.seek(-m.seekStep)
	case key.Matches(msg, m.keys.SeekForward):
		m.seek(m.seekStep)
	case key.Matches(msg, m.keys.VolumeUp):
		m.changeVolume(volumeStep)
	case key.Matches(msg, m.keys.VolumeDown):
		m.changeVolume(-volumeStep)
	case key.Matches(msg, m.keys.Queue):
		m.queueOpen = true
		m.queueCursor = max(m.queue.Index(), 0)
	case key.Matches(msg, m.keys.Next):
		return m.advance()
	case key.Matches(msg, m.keys.Previous):
		if song, ok := m.queue.Previous(); ok {
			return m.playSong(song)
		}
	case key.Matches(msg, m.keys.Edit):
		text, err := m.ctl.BeginEdit()
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.editor.SetValue(text)
		m.setStatus("Editing: ctrl+s saves, esc cancels", false)
		return m, m.editor.Focus()
	case key.Matches(msg, m.keys.Sync):
		if err := m.ctl.BeginSync(); err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus("Syncing: enter stamps the highlighted line", false)
	case key.Matches(msg, m.keys.Mark):
		if _, err := m.ctl.MarkLine(); err != nil {
			m.setError(err)
		}
	case key.Matches(msg, m.keys.Up):
		m.moveSyncCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveSyncCursor(1)
	case key.Matches(msg, m.keys.Save):
		task, err := m.ctl.CommitSync()
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus("Saving timestamps...", false)
		return m, runTask(task)
	case key.Matches(msg, m.keys.Cancel):
		m.ctl.CancelSync()
		m.setStatus("Sync cancelled", false)
	case key.Matches(msg, m.keys.Reload):
		m.setStatus("Reloading lyrics...", false)
		return m, runTask(m.ctl.Reload())
	case key.Matches(msg, m.keys.Copy):
		m.copyLyrics()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

// handleQueueKey handles keys that act on the queue pane. ok is false for
// keys that fall through to the normal bindings.
func (m Model) handleQueueKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	songs := m.queue.Songs()

	switch {
	case key.Matches(msg, m.keys.Queue), msg.String() == "esc":
		m.queueOpen = false
	case key.Matches(msg, m.keys.Up):
		m.queueCursor = max(m.queueCursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.queueCursor = min(m.queueCursor+1, max(len(songs)-1, 0))
	case key.Matches(msg, m.keys.QueuePlay):
		if m.queueCursor >= len(songs) {
			return m, nil, true
		}
		song, ok := m.queue.Select(songs[m.queueCursor].ID)
		if !ok {
			return m, nil, true
		}
		m.queueOpen = false
		next, cmd := m.playSong(song)
		return next, cmd, true
	case key.Matches(msg, m.keys.QueueRemove):
		if m.queueCursor >= len(songs) {
			return m, nil, true
		}
		song := songs[m.queueCursor]
		if m.hasSong && song.ID == m.song.ID {
			m.setStatus("Can't remove the playing song", true)
			return m, nil, true
		}
		if m.queue.Remove(song.ID) {
			m.log.WithField("song_id", song.ID).Info("Removed from queue")
			m.setStatus(fmt.Sprintf("Removed %s", song.DisplayName()), false)
		}
		m.queueCursor = min(m.queueCursor, max(m.queue.Len()-1, 0))
	case key.Matches(msg, m.keys.Rescan):
		if m.rescan == nil {
			m.setStatus("Rescan is not available", true)
			return m, nil, true
		}
		m.setStatus("Scanning library...", false)
		rescan := m.rescan
		return m, func() tea.Msg {
			songs, err := rescan()
			return rescanMsg{songs: songs, err: err}
		}, true
	default:
		return m, nil, false
	}
	return m, nil, true
}

// addScanned appends scanned songs that are not already queued
func (m *Model) addScanned(songs []library.Song, err error) {
	if err != nil {
		m.log.WithError(err).Warn("Library rescan failed")
		m.setStatus(fmt.Sprintf("Rescan failed: %v", err), true)
		return
	}

	queued := lo.SliceToMap(m.queue.Songs(), func(s library.Song) (string, struct{}) { return s.ID, struct{}{} })
	added := lo.Filter(songs, func(s library.Song, _ int) bool {
		_, ok := queued[s.ID]
		return !ok
	})
	if len(added) == 0 {
		m.setStatus("No new songs", false)
		return
	}
	m.queue.Add(added...)
	m.log.WithField("count", len(added)).Info("Added songs to queue")
	m.setStatus(fmt.Sprintf("Added %d songs", len(added)), false)
}

func (m Model) handleEditKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Save):
		task, err := m.ctl.SaveEdit(m.editor.Value())
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus("Saving lyrics...", false)
		return m, runTask(task)
	case key.Matches(msg, m.keys.Cancel):
		m.ctl.CancelEdit()
		m.setStatus("Edit cancelled", false)
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// playSong switches audio and lyrics to song
func (m Model) playSong(song library.Song) (Model, tea.Cmd) {
	m.song = song
	m.hasSong = true
	m.position = 0

	task := m.ctl.SelectSong(song.ID)
	m.ctl.SetInstrumental(song.Instrumental)

	if err := m.player.Load(song.Path); err != nil {
		m.log.WithError(err).WithField("path", song.Path).Warn("Failed to load track")
		m.playing = false
		m.setStatus(fmt.Sprintf("Can't play %s: %v", song.DisplayName(), err), true)
	} else {
		m.player.Play()
		m.playing = true
		m.setStatus("", false)
	}

	return m, runTask(task)
}

// advance moves to the next song, stopping at the end of the queue
func (m Model) advance() (Model, tea.Cmd) {
	song, ok := m.queue.Next()
	if !ok {
		m.playing = m.player.Playing()
		m.setStatus("End of queue", false)
		return m, nil
	}
	return m.playSong(song)
}

func (m Model) deliver(r lyrics.Result) (Model, tea.Cmd) {
	followUp, err := m.ctl.Deliver(r)
	if err != nil {
		m.setError(err)
	} else if save, ok := r.(lyrics.SaveResult); ok && save.Err == nil && save.SongID == m.ctl.SongID() {
		m.setStatus("Lyrics saved", false)
	} else if _, ok := r.(lyrics.LoadResult); ok && !m.statusErr && m.status == "Reloading lyrics..." {
		m.setStatus("", false)
	}
	return m, runTask(followUp)
}

func (m *Model) seek(delta float64) {
	if !m.hasSong {
		return
	}
	target := max(m.player.Position()+delta, 0)
	if d := m.player.Duration(); d > 0 && target > d {
		target = d
	}
	if err := m.player.Seek(target); err != nil {
		m.setError(err)
	}
}

func (m *Model) changeVolume(delta float64) {
	m.player.SetVolume(m.player.Volume() + delta)
	m.setStatus(fmt.Sprintf("Volume %d%%", volumePercent(m.player.Volume())), false)
}

func volumePercent(v float64) int {
	return int(math.Round(v * 100))
}

func (m *Model) moveSyncCursor(delta int) {
	session := m.ctl.Session()
	if session == nil {
		return
	}
	target := session.Cursor() + delta
	if target < lrc.LeadIn || target >= session.Len() {
		return
	}
	if err := m.ctl.SelectLine(target); err != nil {
		m.setError(err)
	}
}

func (m *Model) copyLyrics() {
	text := m.ctl.Document().RawText
	if text == "" {
		m.setStatus("Nothing to copy", false)
		return
	}
	if err := clipboardWriteAll(text); err != nil {
		m.setStatus(fmt.Sprintf("Failed to write to clipboard: %v", err), true)
		return
	}
	m.setStatus("Lyrics copied to clipboard", false)
}

func (m Model) quit() (Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
	m.editor.SetWidth(max(width-4, 10))
	m.editor.SetHeight(max(height-chromeHeight, 3))
}

// syncMode keeps bindings and the editor in step with the controller
func (m *Model) syncMode() {
	mode := m.ctl.Mode()
	if mode != lyrics.ModeView {
		m.queueOpen = false
	}
	m.keys.setMode(mode, m.queueOpen)
	if mode != lyrics.ModeEdit && m.editor.Focused() {
		m.editor.Blur()
		m.editor.Reset()
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) setError(err error) {
	m.setStatus(describeError(err), true)
}

// describeError turns controller errors into a status line
func describeError(err error) string {
	var pre *lyrics.PreconditionError
	var inv *lyrics.InvalidStateError
	var tr *lyrics.TransportError

	switch {
	case errors.As(err, &pre):
		return fmt.Sprintf("Can't %s: %s", pre.Op, pre.Reason)
	case errors.As(err, &inv):
		return fmt.Sprintf("Can't %s: %s", inv.Op, inv.Reason)
	case errors.As(err, &tr):
		return fmt.Sprintf("Lyrics %s failed: %v", tr.Op, tr.Err)
	}
	return err.Error()
}

// runTask runs store I/O off the event loop and feeds the result back
func runTask(task lyrics.Task) tea.Cmd {
	if task == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		defer cancel()
		return resultMsg{result: task(ctx)}
	}
}
