// ABOUTME: Lock-free parameter package shared between control and audio goroutines
// ABOUTME: Provides atomic float cells and the metronome parameter set
// Package param provides lock-free parameters for real-time audio.
//
// Floats are stored as their IEEE-754 bit pattern inside an atomic integer of
// the same width, so a Load never observes a partially written value:
//   - Float64: backed by atomic.Uint64
//   - Float32: backed by atomic.Uint32
//
// Set bundles the three values the click engine reads on every frame. Fields
// are independent; there is no transaction spanning more than one of them.
//
// Example:
//
//	params := param.NewSet(120, 0.8, false)
//	params.Playing.Store(true)   // from a UI goroutine
//	bpm := params.Tempo.Load()   // from the audio callback
package param
