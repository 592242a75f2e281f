// ABOUTME: Audio output interface definition
// ABOUTME: Stream config, sample source contract and backend selection
package output

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/metronome-go/pkg/audio"
)

var (
	// ErrUnsupportedFormat is returned when a backend cannot play the requested sample format
	ErrUnsupportedFormat = errors.New("unsupported sample format")

	// ErrNotOpen is returned when starting or pausing an output that was never opened
	ErrNotOpen = errors.New("output not open")
)

// DefaultBufferFrames is used when Config.BufferFrames is zero
const DefaultBufferFrames = 512

// Config describes the negotiated stream
type Config struct {
	SampleRate   int
	Channels     int
	Format       audio.SampleFormat
	BufferFrames int // period size hint, 0 for DefaultBufferFrames
}

// Validate checks the stream parameters
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", c.Channels)
	}
	if c.Format.Size() == 0 {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, c.Format)
	}
	if c.BufferFrames < 0 {
		return fmt.Errorf("invalid buffer size: %d", c.BufferFrames)
	}
	return nil
}

// FrameSize returns bytes per interleaved frame
func (c Config) FrameSize() int {
	return c.Format.Size() * c.Channels
}

func (c Config) bufferFrames() int {
	if c.BufferFrames == 0 {
		return DefaultBufferFrames
	}
	return c.BufferFrames
}

func (c Config) String() string {
	return fmt.Sprintf("%dHz, %d channels, %s", c.SampleRate, c.Channels, c.Format)
}

// Source produces one mono sample per output frame.
// Next is called from the audio callback and must not block.
type Source interface {
	Next(outputRate int) float64
}

// Output represents an audio output device
type Output interface {
	// Formats lists the sample formats the backend can open
	Formats() []audio.SampleFormat

	// Open negotiates the stream and binds src to the device callback
	Open(cfg Config, src Source) error

	// Start begins (or resumes) pulling frames from the source
	Start() error

	// Pause stops pulling frames without releasing the device
	Pause() error

	// Close releases output resources
	Close() error
}

// Backends lists the names accepted by New
func Backends() []string {
	return []string{"malgo", "oto", "portaudio", "null"}
}

// New creates an output by backend name
func New(name string) (Output, error) {
	switch name {
	case "", "malgo":
		return NewMalgo(), nil
	case "oto":
		return NewOto(), nil
	case "portaudio":
		return NewPortAudio(), nil
	case "null":
		return NewNull(), nil
	default:
		return nil, fmt.Errorf("unknown output backend: %q (available: %v)", name, Backends())
	}
}

// Supports reports whether o can open format f
func Supports(o Output, f audio.SampleFormat) bool {
	for _, supported := range o.Formats() {
		if supported == f {
			return true
		}
	}
	return false
}

// Negotiate returns preferred if o supports it, otherwise the backend's
// first listed format
func Negotiate(o Output, preferred audio.SampleFormat) audio.SampleFormat {
	if Supports(o, preferred) {
		return preferred
	}
	formats := o.Formats()
	if len(formats) == 0 {
		return audio.FormatUnknown
	}
	return formats[0]
}

// checkFormat validates cfg against the formats a backend lists
func checkFormat(o Output, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !Supports(o, cfg.Format) {
		return fmt.Errorf("%w: %s (supported: %v)", ErrUnsupportedFormat, cfg.Format, o.Formats())
	}
	return nil
}
