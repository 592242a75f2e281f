//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Typed PortAudio callbacks filled from the source through Fill
package output

import (
	"fmt"
	"sync"

	log "github.com/golang/glog"

	"github.com/Resonate-Protocol/metronome-go/pkg/audio"
	"github.com/gordonklaus/portaudio"
)

// PortAudio output implementation
type PortAudio struct {
	stream  *portaudio.Stream
	started bool
	mu      sync.Mutex
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() Output {
	return &PortAudio{}
}

// Formats lists the buffer types the PortAudio binding accepts
func (p *PortAudio) Formats() []audio.SampleFormat {
	return []audio.SampleFormat{
		audio.FormatF32, audio.FormatS16, audio.FormatS32, audio.FormatS8, audio.FormatU8,
	}
}

// Open initializes PortAudio and opens the default output stream
func (p *PortAudio) Open(cfg Config, src Source) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := checkFormat(p, cfg); err != nil {
		return err
	}

	if p.stream != nil {
		p.closeStream()
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	var callback any
	switch cfg.Format {
	case audio.FormatF32:
		callback = fillCallback[float32](src, cfg)
	case audio.FormatS16:
		callback = fillCallback[int16](src, cfg)
	case audio.FormatS32:
		callback = fillCallback[int32](src, cfg)
	case audio.FormatS8:
		callback = fillCallback[int8](src, cfg)
	case audio.FormatU8:
		callback = fillCallback[uint8](src, cfg)
	}

	stream, err := portaudio.OpenDefaultStream(0, cfg.Channels, float64(cfg.SampleRate), cfg.bufferFrames(), callback)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	p.stream = stream
	log.Infof("Audio output initialized: %s (portaudio)", cfg)
	return nil
}

func fillCallback[T audio.Sample](src Source, cfg Config) func([]T) {
	rate, channels := cfg.SampleRate, cfg.Channels
	return func(out []T) {
		Fill(src, out, rate, channels)
	}
}

// Start starts the stream
func (p *PortAudio) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return ErrNotOpen
	}
	if p.started {
		return nil
	}
	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}
	p.started = true
	return nil
}

// Pause stops the stream
func (p *PortAudio) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return ErrNotOpen
	}
	if !p.started {
		return nil
	}
	if err := p.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop stream: %w", err)
	}
	p.started = false
	return nil
}

// Close releases resources
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}
	p.closeStream()
	return nil
}

// closeStream stops and closes the stream (must hold p.mu)
func (p *PortAudio) closeStream() {
	if p.started {
		if err := p.stream.Stop(); err != nil {
			log.Warningf("portaudio stop error: %v", err)
		}
		p.started = false
	}
	if err := p.stream.Close(); err != nil {
		log.Warningf("portaudio close error: %v", err)
	}
	if err := portaudio.Terminate(); err != nil {
		log.Warningf("portaudio terminate error: %v", err)
	}
	p.stream = nil
}
