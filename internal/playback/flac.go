// ABOUTME: FLAC decoding for playback
// ABOUTME: Presents a FLAC stream as seekable 16-bit stereo PCM like go-mp3 does
package playback

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

// flacDecoder decodes frames on demand. Samples are converted to 16-bit;
// mono is duplicated to both channels and channels past the second are dropped.
type flacDecoder struct {
	stream     *flac.Stream
	sampleRate int
	channels   int
	bitDepth   int
	nSamples   int64

	pending []byte
	pos     int64 // output bytes
}

func newFLACDecoder(rs io.ReadSeeker) (*flacDecoder, error) {
	stream, err := flac.NewSeek(rs)
	if err != nil {
		return nil, err
	}

	info := stream.Info
	if info.NChannels == 0 {
		return nil, errors.New("flac stream has no channels")
	}

	return &flacDecoder{
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
		nSamples:   int64(info.NSamples),
	}, nil
}

// SampleRate returns the source sample rate
func (d *flacDecoder) SampleRate() int {
	return d.sampleRate
}

// Length returns the decoded size in bytes
func (d *flacDecoder) Length() int64 {
	return d.nSamples * bytesPerFrame
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	for len(d.pending) == 0 {
		f, err := d.stream.ParseNext()
		if err != nil {
			return 0, err
		}
		d.pending = d.convert(f)
	}

	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	d.pos += int64(n)
	return n, nil
}

// Seek positions the decoder at a byte offset of the decoded PCM
func (d *flacDecoder) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = d.pos + offset
	case io.SeekEnd:
		target = d.Length() + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if target < 0 {
		return 0, errors.New("negative seek position")
	}

	sample := target / bytesPerFrame
	if sample >= d.nSamples && d.nSamples > 0 {
		sample = d.nSamples - 1
	}

	start, err := d.stream.Seek(uint64(sample))
	if err != nil {
		return 0, fmt.Errorf("flac seek failed: %w", err)
	}

	// the stream lands on the start of the frame holding sample
	d.pending = nil
	skip := (sample - int64(start)) * bytesPerFrame
	for skip > 0 {
		f, err := d.stream.ParseNext()
		if err != nil {
			return 0, err
		}
		buf := d.convert(f)
		if int64(len(buf)) <= skip {
			skip -= int64(len(buf))
			continue
		}
		d.pending = buf[skip:]
		skip = 0
	}

	d.pos = sample * bytesPerFrame
	return d.pos, nil
}

func (d *flacDecoder) convert(f *frame.Frame) []byte {
	n := int(f.BlockSize)
	out := make([]byte, n*bytesPerFrame)

	left := f.Subframes[0].Samples
	right := left
	if d.channels > 1 {
		right = f.Subframes[1].Samples
	}

	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(out[i*4:], uint16(to16(left[i], d.bitDepth)))
		binary.LittleEndian.PutUint16(out[i*4+2:], uint16(to16(right[i], d.bitDepth)))
	}
	return out
}

// to16 scales a sample of the given bit depth to 16 bits
func to16(sample int32, bitDepth int) int16 {
	switch {
	case bitDepth > 16:
		return int16(sample >> (bitDepth - 16))
	case bitDepth < 16 && bitDepth > 0:
		return int16(sample << (16 - bitDepth))
	}
	return int16(sample)
}
