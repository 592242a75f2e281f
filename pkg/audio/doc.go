// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines output sample formats and float-to-sample conversion
// Package audio provides fundamental audio types and utilities.
//
// This package defines core types used throughout the metronome library:
//   - SampleFormat: the numeric representation negotiated with an output device
//   - Sample: a type constraint over every Go numeric type a device may use
//
// It also provides conversions from the engine's float64 values:
//   - FromFloat: clamp, scale and saturate into any Sample type
//   - PutSample: encode a Sample as little-endian bytes
//   - Put24 / Int24: packed 24-bit helpers
//
// Example:
//
//	s := audio.FromFloat[int16](0.5) // 16384
//	audio.PutSample(buf, s)
package audio
