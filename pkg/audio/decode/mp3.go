// ABOUTME: MP3 waveform decoder
// ABOUTME: Decodes MP3 to 16-bit stereo PCM with go-mp3, then normalizes
package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/hajimehoshi/go-mp3"
)

// MP3 decodes an entire MP3 stream. go-mp3 always produces 16-bit
// little-endian stereo.
func MP3(r io.Reader) (*Waveform, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	numSamples := len(data) / 2
	samples := make([]float64, numSamples)
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = normalize(int64(sample16), math.MaxInt16)
	}

	return &Waveform{
		Samples:    samples,
		Channels:   2,
		SampleRate: decoder.SampleRate(),
		BitDepth:   16,
	}, nil
}
