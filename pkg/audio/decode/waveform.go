// ABOUTME: Normalized waveform type and decoder dispatch
// ABOUTME: Defines Waveform, decode errors and the file extension switch
package decode

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Resonate-Protocol/metronome-go/pkg/audio"
)

var (
	// ErrUnsupportedBitDepth is returned for integer sources that are not 16, 24 or 32-bit
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")

	// ErrUnsupportedFormat is returned for containers or sample encodings the decoder cannot read
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// Waveform is a decoded source with samples normalized to [-1.0, 1.0]
type Waveform struct {
	Samples    []float64 // interleaved when Channels > 1
	Channels   int
	SampleRate int
	BitDepth   int  // source bit depth
	Float      bool // source was IEEE float
}

// Frames returns the number of sample frames
func (w *Waveform) Frames() int {
	if w.Channels <= 0 {
		return len(w.Samples)
	}
	return len(w.Samples) / w.Channels
}

// Duration returns the playing time at the source sample rate
func (w *Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(w.Frames()) * time.Second / time.Duration(w.SampleRate)
}

// File decodes a waveform from disk, choosing the decoder by extension
func File(path string) (*Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sample file: %w", err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))

	var w *Waveform
	switch ext {
	case ".wav", ".wave":
		w, err = WAV(f)
	case ".flac":
		w, err = FLAC(f)
	case ".mp3":
		w, err = MP3(f)
	default:
		return nil, fmt.Errorf("%w: %s (supported: .wav, .flac, .mp3)", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}

	return w, nil
}

// intFullScale returns the divisor for integer samples of the given width
func intFullScale(bitDepth int) (float64, error) {
	switch bitDepth {
	case 16:
		return math.MaxInt16, nil
	case 24:
		return audio.Max24Bit, nil
	case 32:
		return math.MaxInt32, nil
	default:
		return 0, fmt.Errorf("%w: %d (supported: 16, 24, 32)", ErrUnsupportedBitDepth, bitDepth)
	}
}

// normalize divides an integer sample by full scale. The most negative
// integer lands just below -1 and is pinned to -1.
func normalize(sample int64, fullScale float64) float64 {
	v := float64(sample) / fullScale
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
