// ABOUTME: Shared metronome parameter set
// ABOUTME: Tempo, volume and playing flag read by the audio callback every frame
package param

import (
	"fmt"
	"sync/atomic"
)

// Set holds the parameters the sampler observes while rendering.
//
// Bounds are not enforced here; writers clamp before storing.
type Set struct {
	// Tempo in beats per minute
	Tempo Float64

	// Volume multiplier, nominally 0.0-1.0
	Volume Float64

	// Playing gates sample output
	Playing atomic.Bool
}

// NewSet creates a parameter set with initial values
func NewSet(tempo, volume float64, playing bool) *Set {
	s := &Set{}
	s.Tempo.Store(tempo)
	s.Volume.Store(volume)
	s.Playing.Store(playing)
	return s
}

// String renders the current values for logging
func (s *Set) String() string {
	return fmt.Sprintf("tempo=%.1f volume=%.2f playing=%v",
		s.Tempo.Load(), s.Volume.Load(), s.Playing.Load())
}
