// ABOUTME: High-level metronome API
// ABOUTME: Wires the click sampler, the shared parameters and an audio output
// Package metronome provides a ready-to-run click track.
//
// A Metronome owns the parameter set, the sampler, the tick channel and the
// audio output. Control surfaces call the Set/Adjust methods, which clamp
// to the recommended ranges before storing. Consumers read Ticks and advance
// the Bar to follow the downbeat.
//
// Example:
//
//	m, err := metronome.New(metronome.Config{Tempo: 96, Playing: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//	m.Start()
//	for range m.Ticks() {
//	    beat, beats := m.Bar().Advance()
//	    fmt.Printf("%d/%d\n", beat, beats)
//	}
//
// Export renders the same click offline into a WAV file.
package metronome
