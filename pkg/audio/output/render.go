// ABOUTME: Per-format frame renderers
// ABOUTME: Dispatch table from sample format to a generic little-endian writer
package output

import (
	"fmt"

	"github.com/Resonate-Protocol/metronome-go/pkg/audio"
)

// Renderer fills a device buffer with whole frames. A trailing partial
// frame is zeroed.
type Renderer func(out []byte)

var renderers = map[audio.SampleFormat]func(Config, Source) Renderer{
	audio.FormatU8:  renderLE[uint8],
	audio.FormatS8:  renderLE[int8],
	audio.FormatS16: renderLE[int16],
	audio.FormatU16: renderLE[uint16],
	audio.FormatS24: renderS24,
	audio.FormatS32: renderLE[int32],
	audio.FormatU32: renderLE[uint32],
	audio.FormatS64: renderLE[int64],
	audio.FormatU64: renderLE[uint64],
	audio.FormatF32: renderLE[float32],
	audio.FormatF64: renderLE[float64],
}

// NewRenderer selects the renderer for cfg.Format
func NewRenderer(cfg Config, src Source) (Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	newRenderer, ok := renderers[cfg.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, cfg.Format)
	}
	return newRenderer(cfg, src), nil
}

func renderLE[T audio.Sample](cfg Config, src Source) Renderer {
	rate := cfg.SampleRate
	channels := cfg.Channels
	size := cfg.Format.Size()
	frameSize := cfg.FrameSize()

	return func(out []byte) {
		frames := len(out) / frameSize
		for f := 0; f < frames; f++ {
			s := audio.FromFloat[T](src.Next(rate))
			base := f * frameSize
			for ch := 0; ch < channels; ch++ {
				audio.PutSample(out[base+ch*size:], s)
			}
		}
		clear(out[frames*frameSize:])
	}
}

// renderS24 packs 3-byte little-endian samples
func renderS24(cfg Config, src Source) Renderer {
	rate := cfg.SampleRate
	channels := cfg.Channels
	frameSize := cfg.FrameSize()

	return func(out []byte) {
		frames := len(out) / frameSize
		for f := 0; f < frames; f++ {
			s := audio.To24Bit(src.Next(rate))
			base := f * frameSize
			for ch := 0; ch < channels; ch++ {
				audio.Put24(out[base+ch*3:], s)
			}
		}
		clear(out[frames*frameSize:])
	}
}

// Fill writes frames into a typed interleaved buffer, for callback APIs
// that hand out native sample slices
func Fill[T audio.Sample](src Source, out []T, rate, channels int) {
	frames := len(out) / channels
	for f := 0; f < frames; f++ {
		s := audio.FromFloat[T](src.Next(rate))
		for ch := 0; ch < channels; ch++ {
			out[f*channels+ch] = s
		}
	}
	clear(out[frames*channels:])
}
