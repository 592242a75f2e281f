// ABOUTME: Metronome lifecycle and parameter control
// ABOUTME: Opens the output, clamps control input and reports status
package metronome

import (
	"fmt"
	"math"
	"sync"

	log "github.com/golang/glog"

	"github.com/Resonate-Protocol/metronome-go/pkg/audio"
	"github.com/Resonate-Protocol/metronome-go/pkg/audio/output"
	"github.com/Resonate-Protocol/metronome-go/pkg/param"
	"github.com/Resonate-Protocol/metronome-go/pkg/sampler"
)

// Recommended parameter ranges, enforced by the Set/Adjust methods
const (
	MinTempo     = 20.0
	MaxTempo     = 200.0
	DefaultTempo = 120.0

	MinVolume     = 0.0
	MaxVolume     = 1.0
	DefaultVolume = 1.0

	MinBeats     = 2
	MaxBeats     = 12
	DefaultBeats = 4
)

// Step sizes for the Adjust methods driven by key presses
const (
	TempoStep  = 1.0
	VolumeStep = 0.1
)

// Config holds metronome configuration
type Config struct {
	// Tempo in BPM (default: 120)
	Tempo float64

	// Volume 0.0-1.0 (default: 1.0)
	Volume float64

	// Muted starts at volume 0
	Muted bool

	// Beats per bar (default: 4)
	Beats int

	// Playing starts the click immediately
	Playing bool

	// SamplePath is a WAV, FLAC or MP3 click; empty uses the built-in click
	SamplePath string

	// Output is the audio backend (default: malgo)
	Output output.Output

	// Stream parameters (defaults: 48000Hz, 2 channels, f32 or the backend's first format)
	SampleRate   int
	Channels     int
	Format       audio.SampleFormat
	BufferFrames int

	// TickBuffer is the tick channel capacity (default: 64)
	TickBuffer int

	// OnStateChange is called after a control method changes a parameter
	OnStateChange func(Status)
}

// Status is a snapshot of the metronome parameters
type Status struct {
	Tempo        float64
	Volume       float64
	Playing      bool
	Beat         int
	Beats        int
	DroppedTicks uint64
	Output       string
}

// Metronome renders a click track to an audio output
type Metronome struct {
	config    Config
	params    *param.Set
	sampler   *sampler.Sampler
	ticks     chan sampler.Event
	bar       *Bar
	output    output.Output
	outConfig output.Config

	mu sync.Mutex
}

// New creates a metronome and opens its output. Audio does not flow until Start.
func New(config Config) (*Metronome, error) {
	if config.Tempo == 0 {
		config.Tempo = DefaultTempo
	}
	if config.Muted {
		config.Volume = 0
	} else if config.Volume == 0 {
		config.Volume = DefaultVolume
	}
	if config.Beats == 0 {
		config.Beats = DefaultBeats
	}
	if config.TickBuffer == 0 {
		config.TickBuffer = 64
	}
	if config.SampleRate == 0 {
		config.SampleRate = 48000
	}
	if config.Channels == 0 {
		config.Channels = 2
	}
	if config.Format == audio.FormatUnknown {
		config.Format = audio.FormatF32
	}
	if config.Output == nil {
		config.Output = output.NewMalgo()
	}

	params := param.NewSet(clampTempo(config.Tempo), clampVolume(config.Volume), config.Playing)
	ticks := make(chan sampler.Event, config.TickBuffer)

	var s *sampler.Sampler
	var err error
	if config.SamplePath != "" {
		s, err = sampler.FromPath(config.SamplePath, params, ticks)
	} else {
		s, err = sampler.New(params, ticks)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}

	outConfig := output.Config{
		SampleRate:   config.SampleRate,
		Channels:     config.Channels,
		Format:       output.Negotiate(config.Output, config.Format),
		BufferFrames: config.BufferFrames,
	}
	if outConfig.Format != config.Format {
		log.Warningf("Output does not support %s, using %s", config.Format, outConfig.Format)
	}

	s.TickOnStart(true)
	if err := config.Output.Open(outConfig, s); err != nil {
		return nil, fmt.Errorf("failed to open output: %w", err)
	}

	log.Infof("Metronome ready: %s, %s", params, outConfig)

	return &Metronome{
		config:    config,
		params:    params,
		sampler:   s,
		ticks:     ticks,
		bar:       NewBar(config.Beats),
		output:    config.Output,
		outConfig: outConfig,
	}, nil
}

// Start starts the audio stream
func (m *Metronome) Start() error {
	if err := m.output.Start(); err != nil {
		return fmt.Errorf("failed to start output: %w", err)
	}
	return nil
}

// Pause suspends the audio stream. The playhead keeps its position.
func (m *Metronome) Pause() error {
	if err := m.output.Pause(); err != nil {
		return fmt.Errorf("failed to pause output: %w", err)
	}
	return nil
}

// Resume restarts a paused stream
func (m *Metronome) Resume() error {
	return m.Start()
}

// Close releases the audio output. Ticks is not closed.
func (m *Metronome) Close() error {
	if d := m.sampler.DroppedTicks(); d > 0 {
		log.Infof("Ticks dropped during session: %d", d)
	}
	return m.output.Close()
}

// Params returns the shared parameter set
func (m *Metronome) Params() *param.Set {
	return m.params
}

// Ticks returns the channel the audio callback reports beats on
func (m *Metronome) Ticks() <-chan sampler.Event {
	return m.ticks
}

// Bar returns the beat counter
func (m *Metronome) Bar() *Bar {
	return m.bar
}

// OutputConfig returns the negotiated stream parameters
func (m *Metronome) OutputConfig() output.Config {
	return m.outConfig
}

// DroppedTicks returns how many ticks the audio callback could not deliver
func (m *Metronome) DroppedTicks() uint64 {
	return m.sampler.DroppedTicks()
}

// SetTempo stores a clamped tempo and returns it
func (m *Metronome) SetTempo(bpm float64) float64 {
	m.mu.Lock()
	bpm = clampTempo(bpm)
	m.params.Tempo.Store(bpm)
	m.mu.Unlock()

	m.notifyStateChange()
	return bpm
}

// AdjustTempo adds delta BPM to the current tempo
func (m *Metronome) AdjustTempo(delta float64) float64 {
	m.mu.Lock()
	bpm := clampTempo(m.params.Tempo.Load() + delta)
	m.params.Tempo.Store(bpm)
	m.mu.Unlock()

	m.notifyStateChange()
	return bpm
}

// SetVolume stores a clamped volume and returns it
func (m *Metronome) SetVolume(volume float64) float64 {
	m.mu.Lock()
	volume = clampVolume(volume)
	m.params.Volume.Store(volume)
	m.mu.Unlock()

	m.notifyStateChange()
	return volume
}

// AdjustVolume adds delta to the current volume
func (m *Metronome) AdjustVolume(delta float64) float64 {
	m.mu.Lock()
	volume := clampVolume(m.params.Volume.Load() + delta)
	m.params.Volume.Store(volume)
	m.mu.Unlock()

	m.notifyStateChange()
	return volume
}

// SetBeats changes the bar length
func (m *Metronome) SetBeats(beats int) int {
	beats = m.bar.SetBeats(beats)
	m.notifyStateChange()
	return beats
}

// AdjustBeats adds delta to the bar length
func (m *Metronome) AdjustBeats(delta int) int {
	m.mu.Lock()
	_, beats := m.bar.Position()
	beats = m.bar.SetBeats(beats + delta)
	m.mu.Unlock()

	m.notifyStateChange()
	return beats
}

// SetPlaying starts or stops the click. Stopping resets the bar.
func (m *Metronome) SetPlaying(playing bool) {
	m.mu.Lock()
	m.params.Playing.Store(playing)
	if !playing {
		m.bar.Reset()
	}
	m.mu.Unlock()

	m.notifyStateChange()
}

// Toggle flips the playing state and returns the new value
func (m *Metronome) Toggle() bool {
	m.mu.Lock()
	playing := !m.params.Playing.Load()
	m.params.Playing.Store(playing)
	if !playing {
		m.bar.Reset()
	}
	m.mu.Unlock()

	m.notifyStateChange()
	return playing
}

// Status returns the current parameters
func (m *Metronome) Status() Status {
	beat, beats := m.bar.Position()
	return Status{
		Tempo:        m.params.Tempo.Load(),
		Volume:       m.params.Volume.Load(),
		Playing:      m.params.Playing.Load(),
		Beat:         beat,
		Beats:        beats,
		DroppedTicks: m.sampler.DroppedTicks(),
		Output:       m.outConfig.String(),
	}
}

func (m *Metronome) notifyStateChange() {
	if m.config.OnStateChange != nil {
		m.config.OnStateChange(m.Status())
	}
}

func clampTempo(bpm float64) float64 {
	if math.IsNaN(bpm) {
		return DefaultTempo
	}
	return math.Min(math.Max(bpm, MinTempo), MaxTempo)
}

// clampVolume also rounds to hundredths so repeated steps stay on the grid
func clampVolume(volume float64) float64 {
	if math.IsNaN(volume) {
		return DefaultVolume
	}
	return math.Round(math.Min(math.Max(volume, MinVolume), MaxVolume)*100) / 100
}
