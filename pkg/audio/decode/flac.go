// ABOUTME: FLAC waveform decoder
// ABOUTME: Decodes a whole FLAC stream into normalized samples using mewkiz/flac
package decode

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

// FLAC decodes an entire FLAC stream
func FLAC(r io.Reader) (*Waveform, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)

	fullScale, err := intFullScale(bitDepth)
	if err != nil {
		return nil, err
	}

	samples := make([]float64, 0, int(info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}

		// Interleave subframes
		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, normalize(int64(frame.Subframes[ch].Samples[i]), fullScale))
			}
		}
	}

	return &Waveform{
		Samples:    samples,
		Channels:   channels,
		SampleRate: int(info.SampleRate),
		BitDepth:   bitDepth,
	}, nil
}
