// ABOUTME: Lyrics mode controller
// ABOUTME: View/Edit/Sync state machine over the current song's lyrics document
package lyrics

import (
	"context"
	"errors"
	"strings"

	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lrc"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Mode is the controller state
type Mode int

const (
	ModeView Mode = iota
	ModeEdit
	ModeSync
)

func (m Mode) String() string {
	switch m {
	case ModeEdit:
		return "edit"
	case ModeSync:
		return "sync"
	default:
		return "view"
	}
}

// DisplayState tells the view what kind of content it is showing
type DisplayState int

const (
	DisplayEmpty DisplayState = iota
	DisplayLoading
	DisplayPlain
	DisplaySynced
	DisplayInstrumental
	DisplayUnavailable
)

// Store loads and saves lyrics documents
type Store interface {
	// Fetch returns the document for songID, or ErrNotFound
	Fetch(ctx context.Context, songID string) (Document, error)

	// Save replaces the lyrics of songID
	Save(ctx context.Context, songID, text string, synced bool) error
}

// Clock is the playback position source
type Clock interface {
	// Position returns the current playback position in seconds
	Position() float64
}

// View receives render effects from the controller
type View interface {
	// ShowDocument replaces the displayed lines
	ShowDocument(state DisplayState, lines []string)

	// SetActive marks one displayed line as active; -1 deactivates
	SetActive(index int)

	// SetSyncCursor styles the line being marked and the one after it
	SetSyncCursor(current, upcoming int)

	// SetMode reports a mode change
	SetMode(mode Mode)
}

// Result is the outcome of a Task, fed back through Controller.Deliver
type Result interface {
	resultSongID() string
}

// LoadResult is the outcome of a fetch
type LoadResult struct {
	SongID   string
	Document Document
	Err      error

	// Seq orders fetches; only the most recently issued one is applied
	Seq uint64
}

func (r LoadResult) resultSongID() string { return r.SongID }

// SaveResult is the outcome of a save
type SaveResult struct {
	SongID string
	Mode   Mode // mode the save was issued from
	Text   string
	Synced bool
	Err    error
}

func (r SaveResult) resultSongID() string { return r.SongID }

// Task is deferred store I/O. Run it off the event loop.
type Task func(ctx context.Context) Result

// ControllerConfig holds controller dependencies
type ControllerConfig struct {
	Store  Store
	Clock  Clock
	View   View
	Logger logrus.FieldLogger
}

// Controller owns the displayed lyrics document and the View/Edit/Sync state.
// It is not safe for concurrent use; call it from a single event loop.
type Controller struct {
	store Store
	clock Clock
	view  View
	log   logrus.FieldLogger

	mode   Mode
	songID string

	doc          Document
	lines        []lrc.Line
	loaded       bool
	unavailable  bool
	instrumental bool // from the document text
	flagged      bool // from song metadata

	highlight *Highlighter
	session   *Session
	editText  string
	saving    bool
	loadSeq   uint64
}

// NewController creates a controller in View mode with an empty document
func NewController(config ControllerConfig) *Controller {
	if config.View == nil {
		config.View = nopView{}
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}

	c := &Controller{
		store: config.Store,
		clock: config.Clock,
		view:  config.View,
		log:   config.Logger.WithField("component", "lyrics"),
		mode:  ModeView,
	}
	c.highlight = NewHighlighter(func(index int) {
		c.view.SetActive(index)
	})

	return c
}

// Mode returns the current mode
func (c *Controller) Mode() Mode { return c.mode }

// SongID returns the selected song
func (c *Controller) SongID() string { return c.songID }

// Document returns the loaded document
func (c *Controller) Document() Document { return c.doc }

// Lines returns the parsed lines of a synced document
func (c *Controller) Lines() []lrc.Line { return c.lines }

// Loaded reports whether a load for the selected song has completed
func (c *Controller) Loaded() bool { return c.loaded }

// Unavailable reports whether the last load failed
func (c *Controller) Unavailable() bool { return c.unavailable }

// Instrumental reports whether the song is instrumental
func (c *Controller) Instrumental() bool { return c.instrumental || c.flagged }

// Session returns the active sync session, nil outside Sync mode
func (c *Controller) Session() *Session { return c.session }

// EditText returns the edit buffer
func (c *Controller) EditText() string { return c.editText }

// Saving reports whether a save is in flight
func (c *Controller) Saving() bool { return c.saving }

// Active returns the highlighted line index
func (c *Controller) Active() int { return c.highlight.Active() }

// SelectSong switches to another song. Any edit buffer or sync session is
// discarded. The returned task fetches the new document.
func (c *Controller) SelectSong(songID string) Task {
	c.log.WithField("song_id", songID).Debug("Selecting song")

	c.resetToView()
	c.songID = songID
	c.doc = Document{SongID: songID}
	c.lines = nil
	c.loaded = false
	c.unavailable = false
	c.instrumental = false
	c.flagged = false
	c.highlight.Reset()
	c.view.ShowDocument(DisplayLoading, nil)

	return c.fetchTask(songID)
}

// Reload refetches the current song's document. Returns nil with no song selected.
func (c *Controller) Reload() Task {
	if c.songID == "" {
		return nil
	}
	return c.fetchTask(c.songID)
}

// SetInstrumental applies the song's instrumental flag from outside the
// lyrics text. Setting it forces View mode.
func (c *Controller) SetInstrumental(flag bool) {
	c.flagged = flag
	if !c.Instrumental() {
		if c.mode == ModeView {
			c.render()
		}
		return
	}
	c.resetToView()
	c.render()
}

// Deliver applies a task result. It may return a follow-up task (a reload
// after a save) and the error to surface to the user.
func (c *Controller) Deliver(r Result) (Task, error) {
	if r == nil {
		return nil, nil
	}

	if r.resultSongID() != c.songID {
		c.log.WithFields(logrus.Fields{
			"song_id":  r.resultSongID(),
			"selected": c.songID,
		}).Debug("Dropping stale result")
		return nil, nil
	}

	switch r := r.(type) {
	case LoadResult:
		if r.Seq != c.loadSeq {
			c.log.WithFields(logrus.Fields{
				"song_id": r.SongID,
				"seq":     r.Seq,
				"latest":  c.loadSeq,
			}).Debug("Dropping superseded load")
			return nil, nil
		}
		return nil, c.applyLoad(r)
	case SaveResult:
		return c.applySave(r)
	}

	return nil, nil
}

// OnPosition handles a playback position event. Seeks are handled the same
// way as small steps: the active line is recomputed from scratch.
func (c *Controller) OnPosition(t float64) {
	if c.mode != ModeView || c.lines == nil || c.Instrumental() {
		return
	}
	c.highlight.Apply(ActiveIndex(c.lines, t))
}

// BeginEdit enters Edit mode and returns the text to seed the editor with
func (c *Controller) BeginEdit() (string, error) {
	if c.mode != ModeView {
		return "", invalidState("edit", "already in "+c.mode.String()+" mode")
	}
	if err := c.authoringAllowed("edit"); err != nil {
		return "", err
	}

	c.editText = c.doc.RawText
	c.setMode(ModeEdit)
	return c.editText, nil
}

// SaveEdit persists text as plain lyrics. Edit mode is kept until the save succeeds.
func (c *Controller) SaveEdit(text string) (Task, error) {
	if c.mode != ModeEdit {
		return nil, invalidState("save", "not editing")
	}
	if c.saving {
		return nil, invalidState("save", "save already in progress")
	}

	c.editText = text
	c.saving = true
	return c.saveTask(text, false, ModeEdit), nil
}

// CancelEdit discards the edit buffer
func (c *Controller) CancelEdit() {
	if c.mode != ModeEdit {
		return
	}
	c.resetToView()
	c.render()
}

// BeginSync starts a timestamp authoring session over the document's text
func (c *Controller) BeginSync() error {
	if c.mode != ModeView {
		return invalidState("sync", "already in "+c.mode.String()+" mode")
	}
	if err := c.authoringAllowed("sync"); err != nil {
		return err
	}
	if c.unavailable {
		return precondition("sync", "lyrics are unavailable")
	}

	session, err := NewSession(c.doc.PlainText(), c.Instrumental())
	if err != nil {
		return err
	}

	c.session = session
	c.setMode(ModeSync)
	c.view.SetSyncCursor(session.Cursor(), session.Cursor()+1)
	return nil
}

// SelectLine moves the sync cursor
func (c *Controller) SelectLine(index int) error {
	if c.mode != ModeSync {
		return invalidState("select line", "not syncing")
	}
	if err := c.session.Select(index); err != nil {
		return err
	}
	c.view.SetSyncCursor(index, lo.Clamp(index+1, lrc.LeadIn, c.session.Len()))
	return nil
}

// MarkLine stamps the line under the cursor with the clock's position
func (c *Controller) MarkLine() (CursorUpdate, error) {
	if c.mode != ModeSync {
		return CursorUpdate{}, invalidState("mark line", "not syncing")
	}
	if c.saving {
		return CursorUpdate{}, invalidState("mark line", "commit in progress")
	}

	update, err := c.session.Mark(c.position())
	if err != nil {
		return CursorUpdate{}, err
	}

	c.view.SetSyncCursor(update.Current, update.Upcoming)
	return update, nil
}

// CommitSync saves the session's markers as synced lyrics. The session is
// kept until the save succeeds so a failure loses no work.
func (c *Controller) CommitSync() (Task, error) {
	if c.mode != ModeSync {
		return nil, invalidState("commit sync", "not syncing")
	}
	if c.saving {
		return nil, invalidState("commit sync", "commit already in progress")
	}

	text, err := c.session.Serialize()
	if err != nil {
		return nil, err
	}

	c.saving = true
	return c.saveTask(text, true, ModeSync), nil
}

// CancelSync discards the session
func (c *Controller) CancelSync() {
	if c.mode != ModeSync {
		return
	}
	c.resetToView()
	c.render()
}

func (c *Controller) applyLoad(r LoadResult) error {
	logger := c.log.WithField("song_id", r.SongID)

	if r.Err != nil && !errors.Is(r.Err, ErrNotFound) {
		logger.WithError(r.Err).Warn("Lyrics fetch failed")

		c.doc = Document{SongID: r.SongID}
		c.lines = nil
		c.loaded = true
		c.unavailable = true
		c.instrumental = false
		if c.mode == ModeView {
			c.render()
		}
		return &TransportError{Op: "fetch", SongID: r.SongID, Err: r.Err}
	}

	doc := r.Document
	if r.Err != nil {
		doc = Document{}
	}
	doc.SongID = r.SongID

	c.doc = doc
	c.lines = doc.Lines()
	c.loaded = true
	c.unavailable = false
	c.instrumental = doc.Instrumental()

	logger.WithFields(logrus.Fields{
		"synced":       c.lines != nil,
		"instrumental": c.instrumental,
	}).Debug("Lyrics loaded")

	if c.Instrumental() {
		c.resetToView()
	}
	if c.mode == ModeView {
		c.render()
	}
	return nil
}

func (c *Controller) applySave(r SaveResult) (Task, error) {
	pending := c.saving && c.mode == r.Mode
	logger := c.log.WithFields(logrus.Fields{"song_id": r.SongID, "mode": r.Mode.String()})

	if r.Err != nil {
		logger.WithError(r.Err).Warn("Lyrics save failed")
		if !pending {
			return nil, nil
		}
		c.saving = false
		return nil, &TransportError{Op: "save", SongID: r.SongID, Err: r.Err}
	}

	logger.Info("Lyrics saved")

	if pending {
		c.doc = Document{SongID: r.SongID, RawText: r.Text, Synced: r.Synced}
		c.lines = c.doc.Lines()
		c.instrumental = c.doc.Instrumental()
		c.unavailable = false
		c.resetToView()
		c.render()
	}

	return c.fetchTask(r.SongID), nil
}

func (c *Controller) authoringAllowed(op string) error {
	if c.songID == "" {
		return precondition(op, "no song selected")
	}
	if !c.loaded {
		return precondition(op, "lyrics are still loading")
	}
	if c.Instrumental() {
		return precondition(op, "song is instrumental")
	}
	return nil
}

// render redraws the document and re-derives the active line
func (c *Controller) render() {
	c.highlight.Reset()

	switch {
	case c.Instrumental():
		c.view.ShowDocument(DisplayInstrumental, nil)
		return
	case !c.loaded:
		c.view.ShowDocument(DisplayLoading, nil)
		return
	case c.unavailable:
		c.view.ShowDocument(DisplayUnavailable, nil)
		return
	case c.lines != nil:
		c.view.ShowDocument(DisplaySynced, lo.Map(c.lines, func(l lrc.Line, _ int) string {
			return l.Text
		}))
	case c.doc.Empty():
		c.view.ShowDocument(DisplayEmpty, nil)
		return
	default:
		c.view.ShowDocument(DisplayPlain, strings.Split(c.doc.RawText, "\n"))
		return
	}

	c.OnPosition(c.position())
}

func (c *Controller) resetToView() {
	c.session = nil
	c.editText = ""
	c.saving = false
	if c.mode != ModeView {
		c.setMode(ModeView)
	}
}

func (c *Controller) setMode(mode Mode) {
	c.mode = mode
	if mode != ModeView {
		c.highlight.Reset()
	}
	c.log.WithFields(logrus.Fields{"song_id": c.songID, "mode": mode.String()}).Debug("Mode changed")
	c.view.SetMode(mode)
}

func (c *Controller) position() float64 {
	if c.clock == nil {
		return 0
	}
	return c.clock.Position()
}

func (c *Controller) fetchTask(songID string) Task {
	c.loadSeq++
	seq := c.loadSeq
	store := c.store
	return func(ctx context.Context) Result {
		if store == nil {
			return LoadResult{SongID: songID, Err: ErrNotFound, Seq: seq}
		}
		doc, err := store.Fetch(ctx, songID)
		return LoadResult{SongID: songID, Document: doc, Err: err, Seq: seq}
	}
}

func (c *Controller) saveTask(text string, synced bool, mode Mode) Task {
	store := c.store
	songID := c.songID
	return func(ctx context.Context) Result {
		var err error
		if store == nil {
			err = errors.New("no lyrics store configured")
		} else {
			err = store.Save(ctx, songID, text, synced)
		}
		return SaveResult{SongID: songID, Mode: mode, Text: text, Synced: synced, Err: err}
	}
}

type nopView struct{}

func (nopView) ShowDocument(DisplayState, []string) {}
func (nopView) SetActive(int)                       {}
func (nopView) SetSyncCursor(int, int)              {}
func (nopView) SetMode(Mode)                        {}
