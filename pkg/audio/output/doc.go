// ABOUTME: Audio output package for rendering a sample source to a device
// ABOUTME: Provides the Output interface, format dispatch and device backends
// Package output drives an audio device from a per-frame Source.
//
// The sample format is negotiated once when the output is opened. A renderer
// for that format is chosen from a table and then runs unchanged in every
// device callback: one Source.Next call per frame, converted and written to
// every channel of the frame.
//
// Backends: Malgo (miniaudio, default), Oto, PortAudio (build with
// -tags portaudio), and Writer for raw PCM to any io.Writer.
//
// Example:
//
//	out, _ := output.New("malgo")
//	cfg := output.Config{SampleRate: 48000, Channels: 2, Format: audio.FormatF32}
//	if err := out.Open(cfg, src); err != nil {
//		log.Fatal(err)
//	}
//	out.Start()
//	defer out.Close()
package output
