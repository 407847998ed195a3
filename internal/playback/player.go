// ABOUTME: Local MP3 and FLAC playback on oto
// ABOUTME: Load, play, pause, seek and report the playback position of one track
package playback

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/go-mp3"
	"github.com/sirupsen/logrus"
)

// DefaultSampleRate is the output rate when none is configured
const DefaultSampleRate = 44100

// oto allows one context per process
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoRate int
	otoErr  error
)

func sharedContext(sampleRate int, bufferSize time.Duration) (*oto.Context, int, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   bufferSize,
		}

		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready

		otoCtx = ctx
		otoRate = sampleRate
	})
	return otoCtx, otoRate, otoErr
}

// PlayerConfig holds player configuration
type PlayerConfig struct {
	SampleRate int
	BufferSize time.Duration
	Logger     logrus.FieldLogger
}

// Player plays one MP3 or FLAC track at a time
type Player struct {
	mu     sync.Mutex
	ctx    *oto.Context
	rate   int
	log    logrus.FieldLogger
	file   *os.File
	stream *stream
	player *oto.Player
	length int64 // output bytes in the track
	volume float64
}

// NewPlayer opens the audio device
func NewPlayer(config PlayerConfig) (*Player, error) {
	if config.SampleRate <= 0 {
		config.SampleRate = DefaultSampleRate
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 100 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}

	ctx, rate, err := sharedContext(config.SampleRate, config.BufferSize)
	if err != nil {
		return nil, err
	}

	logger := config.Logger.WithField("component", "playback")
	if rate != config.SampleRate {
		logger.WithFields(logrus.Fields{
			"requested": config.SampleRate,
			"active":    rate,
		}).Warn("Audio output already initialized at a different rate, reusing it")
	}

	return &Player{
		ctx:    ctx,
		rate:   rate,
		log:    logger,
		volume: 1,
	}, nil
}

// Load opens path and prepares it for playback, paused at 0
func (p *Player) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	dec, err := openDecoder(path, f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.closeTrack()

	p.file = f
	p.stream = newStream(dec, dec.SampleRate(), p.rate)
	p.player = p.ctx.NewPlayer(p.stream)
	p.player.SetVolume(p.volume)
	p.length = dec.Length() / bytesPerFrame * int64(p.rate) / int64(dec.SampleRate()) * bytesPerFrame

	p.log.WithFields(logrus.Fields{
		"path":        path,
		"sample_rate": dec.SampleRate(),
		"duration":    p.durationLocked(),
	}).Info("Track loaded")
	return nil
}

// decoder is a seekable source of 16-bit stereo PCM
type decoder interface {
	io.ReadSeeker
	SampleRate() int
	Length() int64
}

func openDecoder(path string, f *os.File) (decoder, error) {
	if strings.EqualFold(filepath.Ext(path), ".flac") {
		return newFLACDecoder(f)
	}
	return mp3.NewDecoder(f)
}

// Play starts or resumes playback
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player != nil {
		p.player.Play()
	}
}

// Pause pauses playback, keeping the position
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player != nil {
		p.player.Pause()
	}
}

// Toggle flips between playing and paused and returns the new state
func (p *Player) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return false
	}
	if p.player.IsPlaying() {
		p.player.Pause()
		return false
	}
	p.player.Play()
	return true
}

// Playing reports whether audio is playing
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.player != nil && p.player.IsPlaying()
}

// Seek jumps to seconds, clamped to the track
func (p *Player) Seek(seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return errors.New("no track loaded")
	}

	offset := clampOffset(secondsToOffset(seconds, p.rate), p.length)
	if _, err := p.player.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek failed: %w", err)
	}
	return nil
}

// SetVolume sets the output gain, clamped to [0, 1]. It carries across Load.
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = clampVolume(v)
	if p.player != nil {
		p.player.SetVolume(p.volume)
	}
}

// Volume returns the output gain
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Position returns the playback position in seconds: bytes handed to the
// device minus what it still has buffered.
func (p *Player) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return 0
	}
	return position(p.stream.delivered(), int64(p.player.BufferedSize()), p.rate)
}

// Duration returns the track length in seconds
func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.durationLocked()
}

func (p *Player) durationLocked() float64 {
	return float64(p.length) / float64(p.rate*bytesPerFrame)
}

// Ended reports whether the track played to its end
func (p *Player) Ended() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return false
	}
	return p.stream.exhausted() && p.player.BufferedSize() == 0 && !p.player.IsPlaying()
}

// Close releases the current track. The audio device stays open for the process.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeTrack()
}

func (p *Player) closeTrack() error {
	var err error
	if p.player != nil {
		p.player.Pause()
		p.player.Close()
		p.player = nil
	}
	if p.file != nil {
		err = p.file.Close()
		p.file = nil
	}
	p.stream = nil
	p.length = 0
	return err
}

func secondsToOffset(seconds float64, rate int) int64 {
	if seconds <= 0 {
		return 0
	}
	return int64(seconds*float64(rate)) * bytesPerFrame
}

func clampOffset(offset, length int64) int64 {
	if offset < 0 {
		return 0
	}
	if length > 0 && offset > length {
		return length - length%bytesPerFrame
	}
	return offset
}

func clampVolume(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func position(delivered, buffered int64, rate int) float64 {
	played := delivered - buffered
	if played <= 0 || rate <= 0 {
		return 0
	}
	return float64(played) / float64(rate*bytesPerFrame)
}
