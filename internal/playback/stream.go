// ABOUTME: Seekable PCM stream feeding the audio output
// ABOUTME: Counts delivered bytes for position tracking and resamples to the output rate
package playback

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"
)

// bytesPerFrame is 16-bit little-endian stereo, the only layout go-mp3 produces
const bytesPerFrame = 4

// stream adapts decoded PCM at srcRate to the output rate. It tracks how many
// output bytes have been handed to the audio player so the playback position
// can be derived without timers.
type stream struct {
	src     io.ReadSeeker
	srcRate int
	outRate int

	resampler *resampler // nil when rates match
	chunk     []byte
	pending   []byte

	offset atomic.Int64 // output bytes delivered
	eof    atomic.Bool
}

func newStream(src io.ReadSeeker, srcRate, outRate int) *stream {
	s := &stream{
		src:     src,
		srcRate: srcRate,
		outRate: outRate,
		chunk:   make([]byte, 4096*bytesPerFrame),
	}
	if srcRate != outRate {
		s.resampler = newResampler(srcRate, outRate)
	}
	return s
}

// Read implements io.Reader
func (s *stream) Read(p []byte) (int, error) {
	if s.resampler == nil {
		n, err := s.src.Read(p)
		s.offset.Add(int64(n))
		if err == io.EOF {
			s.eof.Store(true)
		}
		return n, err
	}

	for len(s.pending) == 0 {
		n, err := io.ReadFull(s.src, s.chunk)
		n -= n % bytesPerFrame
		if n > 0 {
			s.pending = s.resampler.process(s.chunk[:n], s.pending[:0])
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			if len(s.pending) == 0 {
				s.eof.Store(true)
				return 0, io.EOF
			}
			break
		}
		if err != nil {
			return 0, err
		}
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	s.offset.Add(int64(n))
	return n, nil
}

// Seek implements io.Seeker in output bytes. The audio player calls it and
// drops its own buffer.
func (s *stream) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += s.offset.Load()
	default:
		return 0, fmt.Errorf("unsupported seek whence %d", whence)
	}
	if offset < 0 {
		offset = 0
	}
	offset -= offset % bytesPerFrame

	frame := offset / bytesPerFrame
	srcFrame := frame * int64(s.srcRate) / int64(s.outRate)
	if _, err := s.src.Seek(srcFrame*bytesPerFrame, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to seek decoder: %w", err)
	}

	if s.resampler != nil {
		s.resampler.reset()
	}
	s.pending = nil
	s.offset.Store(offset)
	s.eof.Store(false)
	return offset, nil
}

// delivered returns the output bytes handed to the player so far
func (s *stream) delivered() int64 {
	return s.offset.Load()
}

func (s *stream) exhausted() bool {
	return s.eof.Load()
}

// resampler converts interleaved stereo int16 PCM with linear interpolation.
// The last input frame is carried across calls so chunk boundaries are seamless.
type resampler struct {
	ratio   float64 // input frames per output frame
	pos     float64 // position of the next output frame, relative to prev
	prev    [2]int16
	hasPrev bool
}

func newResampler(inputRate, outputRate int) *resampler {
	return &resampler{
		ratio: float64(inputRate) / float64(outputRate),
	}
}

func (r *resampler) reset() {
	r.pos = 0
	r.hasPrev = false
}

// process appends the resampled output for in (whole frames) to out
func (r *resampler) process(in []byte, out []byte) []byte {
	frames := make([][2]int16, 0, len(in)/bytesPerFrame+1)
	if r.hasPrev {
		frames = append(frames, r.prev)
	}
	for i := 0; i+bytesPerFrame <= len(in); i += bytesPerFrame {
		frames = append(frames, [2]int16{
			int16(binary.LittleEndian.Uint16(in[i:])),
			int16(binary.LittleEndian.Uint16(in[i+2:])),
		})
	}
	if len(frames) == 0 {
		return out
	}

	var buf [bytesPerFrame]byte
	for {
		idx := int(r.pos)
		if idx+1 >= len(frames) {
			break
		}
		frac := r.pos - float64(idx)
		a, b := frames[idx], frames[idx+1]
		for ch := 0; ch < 2; ch++ {
			v := float64(a[ch])*(1-frac) + float64(b[ch])*frac
			binary.LittleEndian.PutUint16(buf[ch*2:], uint16(int16(v)))
		}
		out = append(out, buf[:]...)
		r.pos += r.ratio
	}

	// keep the last frame as the origin of the next chunk
	r.pos -= float64(len(frames) - 1)
	r.prev = frames[len(frames)-1]
	r.hasPrev = true
	return out
}
