// ABOUTME: Click sampler package
// ABOUTME: Fractional playhead that replays a click once per beat and reports ticks
// Package sampler renders a click sample at a live tempo.
//
// A Sampler owns a normalized sample buffer and a fractional playhead counted
// in source sample-rate units. Every output frame it reads the shared
// param.Set, emits the nearest source sample scaled by volume, advances the
// playhead and wraps at one beat. Each wrap sends a Tick without blocking.
//
// The sampler is single-owner: Next is called only from the audio callback.
// Parameters are changed from other goroutines through the param.Set.
//
// Example:
//
//	params := param.NewSet(120, 1.0, true)
//	ticks := make(chan sampler.Event, 64)
//	s, err := sampler.New(params, ticks)
//	for i := range buf {
//		buf[i] = s.Next(48000)
//	}
package sampler
