//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"errors"

	"github.com/Resonate-Protocol/metronome-go/pkg/audio"
)

var errPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio output implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() Output {
	return &PortAudio{}
}

// Formats returns nothing; the stub cannot play
func (p *PortAudio) Formats() []audio.SampleFormat {
	return nil
}

// Open always fails
func (p *PortAudio) Open(cfg Config, src Source) error {
	return errPortAudioDisabled
}

// Start always fails
func (p *PortAudio) Start() error {
	return errPortAudioDisabled
}

// Pause always fails
func (p *PortAudio) Pause() error {
	return errPortAudioDisabled
}

// Close is a no-op
func (p *PortAudio) Close() error {
	return nil
}
