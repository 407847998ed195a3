// ABOUTME: Main player application orchestration
// ABOUTME: Wires library, playback, lyrics store, controller and TUI
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/resonate-lyrics/internal/config"
	"github.com/Resonate-Protocol/resonate-lyrics/internal/library"
	"github.com/Resonate-Protocol/resonate-lyrics/internal/playback"
	"github.com/Resonate-Protocol/resonate-lyrics/internal/ui"
	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// ErrEmptyLibrary is returned when the music directory has no playable files
var ErrEmptyLibrary = errors.New("no playable audio files found")

// Player represents the main player application
type Player struct {
	config config.Config
	log    logrus.FieldLogger

	songs  []library.Song
	stores *Stores
	audio  *playback.Player
}

// New creates a new player
func New(cfg config.Config, logger logrus.FieldLogger) *Player {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Player{
		config: cfg,
		log:    logger,
	}
}

// Run scans the library, opens the store and audio device, and runs the
// TUI until the user quits or ctx is cancelled
func (p *Player) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	songs, err := library.Scan(p.config.MusicDir)
	if err != nil {
		return err
	}
	if len(songs) == 0 {
		return fmt.Errorf("%w in %s", ErrEmptyLibrary, p.config.MusicDir)
	}
	p.songs = songs
	p.log.WithField("songs", len(songs)).Info("Library scanned")

	stores, err := OpenStore(ctx, p.config, p.log)
	if err != nil {
		return err
	}
	p.stores = stores
	defer p.closeStores()

	audio, err := playback.NewPlayer(playback.PlayerConfig{
		SampleRate: p.config.SampleRate,
		Logger:     p.log,
	})
	if err != nil {
		return err
	}
	p.audio = audio
	defer p.audio.Close()

	program := p.newProgram()

	go playback.Watch(ctx, p.audio, p.config.PositionInterval, func(ev playback.Event) {
		program.Send(ui.PlaybackMsg(ev))
	})

	if p.stores.Files != nil {
		go func() {
			err := p.stores.WatchFiles(ctx, func(songID string) {
				program.Send(ui.ReloadMsg{SongID: songID})
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				p.log.WithError(err).Warn("Lyrics directory watch stopped")
			}
		}()
	}

	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	p.log.Info("Player stopped")
	return nil
}

func (p *Player) newProgram() *tea.Program {
	screen := ui.NewScreen()

	var view lyrics.View = screen
	var opts []tea.ProgramOption
	if p.config.NoTUI {
		view = newLogView(screen, p.log)
		opts = append(opts, tea.WithoutRenderer(), tea.WithInput(nil), tea.WithOutput(io.Discard))
		p.log.Info("TUI disabled - following lyrics in the log")
	}

	controller := lyrics.NewController(lyrics.ControllerConfig{
		Store:  p.stores.Store,
		Clock:  p.audio,
		View:   view,
		Logger: p.log,
	})

	return ui.NewProgram(ui.Config{
		Controller: controller,
		Screen:     screen,
		Player:     p.audio,
		Queue:      library.NewQueue(p.songs),
		SeekStep:   p.config.SeekStep,
		Logger:     p.log,
		ExitAtEnd:  p.config.NoTUI,
		Rescan: func() ([]library.Song, error) {
			return library.Scan(p.config.MusicDir)
		},
	}, opts...)
}

func (p *Player) closeStores() {
	if err := p.stores.Close(); err != nil {
		p.log.WithError(err).Warn("Error closing lyrics store")
	}
}

var _ ui.Player = (*playback.Player)(nil)
