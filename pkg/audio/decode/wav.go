// ABOUTME: WAV waveform decoder
// ABOUTME: Reads RIFF/WAVE integer and float PCM using go-audio/wav
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

// Bytes 2..15 of the KSDATAFORMAT_SUBTYPE GUIDs; bytes 0..1 hold the format tag
var wavSubFormatTail = []byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}

// WAV decodes a RIFF/WAVE stream
func WAV(r io.ReadSeeker) (*Waveform, error) {
	d, err := openWAV(r)
	if err != nil {
		return nil, err
	}

	format := d.WavAudioFormat
	if format == wavFormatExtensible {
		// go-audio drops the extension, so read the sub-format and start over
		if format, err = extensibleSubFormat(r); err != nil {
			return nil, err
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind WAV: %w", err)
		}
		if d, err = openWAV(r); err != nil {
			return nil, err
		}
	}

	w := &Waveform{
		Channels:   int(d.NumChans),
		SampleRate: int(d.SampleRate),
		BitDepth:   int(d.BitDepth),
	}

	switch format {
	case wavFormatPCM:
		samples, err := decodeWAVInt(d)
		if err != nil {
			return nil, err
		}
		w.Samples = samples
	case wavFormatFloat:
		samples, err := decodeWAVFloat(d)
		if err != nil {
			return nil, err
		}
		w.Samples = samples
		w.Float = true
	default:
		return nil, fmt.Errorf("%w: WAV format tag %d", ErrUnsupportedFormat, format)
	}

	return w, nil
}

func openWAV(r io.ReadSeeker) (*wav.Decoder, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("invalid WAV file: %w", err)
		}
		return nil, fmt.Errorf("invalid WAV file")
	}
	return d, nil
}

// extensibleSubFormat returns the format tag embedded in the sub-format
// GUID of a WAVE_FORMAT_EXTENSIBLE fmt chunk
func extensibleSubFormat(r io.ReadSeeker) (uint16, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to rewind WAV: %w", err)
	}

	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return 0, fmt.Errorf("invalid WAV file: %w", err)
	}

	for {
		chunk, err := p.NextChunk()
		if err != nil {
			return 0, fmt.Errorf("fmt chunk not found: %w", err)
		}
		if chunk.ID != riff.FmtID {
			chunk.Drain()
			continue
		}

		// 16 byte base header, cbSize, valid bits, channel mask, GUID
		if chunk.Size < 40 {
			return 0, fmt.Errorf("%w: extensible fmt chunk of %d bytes", ErrUnsupportedFormat, chunk.Size)
		}
		raw := make([]byte, 40)
		if _, err := io.ReadFull(chunk, raw); err != nil {
			return 0, fmt.Errorf("failed to read fmt chunk: %w", err)
		}

		guid := raw[24:40]
		if !bytes.Equal(guid[2:], wavSubFormatTail) {
			return 0, fmt.Errorf("%w: extensible sub-format %x", ErrUnsupportedFormat, guid)
		}
		return binary.LittleEndian.Uint16(guid[:2]), nil
	}
}

func decodeWAVInt(d *wav.Decoder) ([]float64, error) {
	fullScale, err := intFullScale(int(d.BitDepth))
	if err != nil {
		return nil, err
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}

	samples := make([]float64, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = normalize(int64(s), fullScale)
	}
	return samples, nil
}

func decodeWAVFloat(d *wav.Decoder) ([]float64, error) {
	bitDepth := int(d.BitDepth)
	if bitDepth != 32 && bitDepth != 64 {
		return nil, fmt.Errorf("%w: %d-bit float (supported: 32, 64)", ErrUnsupportedBitDepth, bitDepth)
	}

	if err := d.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to find PCM data: %w", err)
	}

	raw := make([]byte, d.PCMSize)
	n, err := io.ReadFull(d.PCMChunk, raw)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}
	raw = raw[:n]

	size := bitDepth / 8
	samples := make([]float64, len(raw)/size)
	for i := range samples {
		b := raw[i*size:]
		if size == 4 {
			samples[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		} else {
			samples[i] = math.Float64frombits(binary.LittleEndian.Uint64(b))
		}
	}
	return samples, nil
}
