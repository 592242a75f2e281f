// ABOUTME: Waveform decoder package for click samples
// ABOUTME: Decodes WAV, FLAC and MP3 sources into normalized float64 samples
// Package decode turns a source waveform into normalized float64 samples.
//
// Supports: WAV (16/24/32-bit integer, 32/64-bit float), FLAC (16/24/32-bit),
// MP3 (decoded as 16-bit).
//
// Integer samples are divided by the positive maximum of their width
// (32767 for 16-bit, not 32768). Float samples are copied through unscaled.
// Any other integer width fails with ErrUnsupportedBitDepth.
//
// Channels are not split: a multi-channel source stays interleaved.
//
// Example:
//
//	w, err := decode.File("click.wav")
//	fmt.Println(w.SampleRate, w.Channels, len(w.Samples))
package decode
