// ABOUTME: Playback engine for the click sample
// ABOUTME: Per-frame playhead advance, beat wraparound and non-blocking tick delivery
package sampler

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	log "github.com/golang/glog"

	"github.com/Resonate-Protocol/metronome-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/metronome-go/pkg/param"
)

//go:embed assets/click.wav
var defaultClick []byte

// Event is a notification sent from the audio thread
type Event int

const (
	// Tick marks a beat boundary
	Tick Event = iota
)

func (e Event) String() string {
	switch e {
	case Tick:
		return "tick"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Sampler plays a sample once per beat
type Sampler struct {
	samples    []float64
	sampleRate int
	channels   int

	params *param.Set
	ticks  chan<- Event

	playhead    float64
	wasPlaying  bool
	tickOnStart bool

	dropped atomic.Uint64
}

// New creates a sampler using the built-in click
func New(params *param.Set, ticks chan<- Event) (*Sampler, error) {
	return FromReader(bytes.NewReader(defaultClick), params, ticks)
}

// FromPath creates a sampler from a WAV, FLAC or MP3 file
func FromPath(path string, params *param.Set, ticks chan<- Event) (*Sampler, error) {
	w, err := decode.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load sample: %w", err)
	}
	return FromWaveform(w, params, ticks)
}

// FromReader creates a sampler from WAV data
func FromReader(r io.ReadSeeker, params *param.Set, ticks chan<- Event) (*Sampler, error) {
	w, err := decode.WAV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load sample: %w", err)
	}
	return FromWaveform(w, params, ticks)
}

// FromWaveform creates a sampler from an already decoded waveform.
// ticks may be nil, in which case beat boundaries are not reported.
func FromWaveform(w *decode.Waveform, params *param.Set, ticks chan<- Event) (*Sampler, error) {
	if params == nil {
		return nil, fmt.Errorf("parameter set is required")
	}
	if w.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", w.SampleRate)
	}

	channels := w.Channels
	if channels <= 0 {
		channels = 1
	}
	if channels > 1 {
		log.Warningf("Sample has %d channels; playing interleaved data as mono", channels)
	}

	log.Infof("Loaded click: %d samples, %dHz, %d-bit, %d channels (%v)",
		len(w.Samples), w.SampleRate, w.BitDepth, channels, w.Duration())

	return &Sampler{
		samples:    w.Samples,
		sampleRate: w.SampleRate,
		channels:   channels,
		params:     params,
		ticks:      ticks,
	}, nil
}

// Next renders one output frame and advances the playhead.
//
// Stopped frames are silent and leave the playhead in place. Stopping
// rewinds to the start of the click; starting resumes where the playhead is.
func (s *Sampler) Next(outputRate int) float64 {
	playing := s.params.Playing.Load()

	if playing && !s.wasPlaying {
		s.wasPlaying = true
		if s.tickOnStart {
			s.SendTick()
		}
	} else if !playing && s.wasPlaying {
		s.wasPlaying = false
		s.playhead = 0
	}

	if !playing {
		return 0
	}

	var out float64
	idx := int(math.Round(s.playhead))
	if idx >= 0 && idx < len(s.samples) {
		out = s.samples[idx] * s.params.Volume.Load()
	}

	inc := float64(s.sampleRate) / float64(outputRate)
	cycle := s.CycleLength()

	if s.playhead+inc < cycle {
		s.playhead += inc
	} else {
		s.playhead = s.playhead + inc - cycle
		s.SendTick()
	}

	return out
}

// TickOnStart makes Next send a Tick on the first playing frame after a
// stop, so the click onset is reported along with every later beat. Call
// before the first Next.
func (s *Sampler) TickOnStart(enabled bool) {
	s.tickOnStart = enabled
}

// SendTick delivers a Tick without blocking. A send that would block is
// counted as dropped. Without a channel it does nothing.
func (s *Sampler) SendTick() {
	if s.ticks == nil {
		return
	}
	select {
	case s.ticks <- Tick:
	default:
		s.dropped.Add(1)
	}
}

// DroppedTicks returns the number of ticks that could not be delivered
func (s *Sampler) DroppedTicks() uint64 {
	return s.dropped.Load()
}

// CycleLength returns one beat in source sample-rate units at the current tempo
func (s *Sampler) CycleLength() float64 {
	return float64(s.sampleRate) * 60 / s.params.Tempo.Load()
}

// Playhead returns the current fractional position. Only safe from the
// goroutine calling Next.
func (s *Sampler) Playhead() float64 {
	return s.playhead
}

// SampleRate returns the source sample rate
func (s *Sampler) SampleRate() int {
	return s.sampleRate
}

// Channels returns the source channel count
func (s *Sampler) Channels() int {
	return s.channels
}

// Len returns the number of source samples
func (s *Sampler) Len() int {
	return len(s.samples)
}

// Params returns the shared parameter set
func (s *Sampler) Params() *param.Set {
	return s.params
}
