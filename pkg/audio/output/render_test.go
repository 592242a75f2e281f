// ABOUTME: Tests for format dispatch and frame rendering
// ABOUTME: Verifies mono replication, byte layout and partial-frame handling
package output

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Resonate-Protocol/metronome-go/pkg/audio"
)

// sequence returns its values in order, then zeros
type sequence struct {
	values []float64
	calls  int
	rates  []int
}

func (s *sequence) Next(outputRate int) float64 {
	s.rates = append(s.rates, outputRate)
	s.calls++
	if s.calls > len(s.values) {
		return 0
	}
	return s.values[s.calls-1]
}

// constant always returns v
type constant float64

func (c constant) Next(int) float64 { return float64(c) }

func TestNewRendererEveryFormat(t *testing.T) {
	for _, f := range audio.Formats() {
		t.Run(f.String(), func(t *testing.T) {
			cfg := Config{SampleRate: 48000, Channels: 2, Format: f}
			render, err := NewRenderer(cfg, constant(0.5))
			if err != nil {
				t.Fatalf("failed to create renderer: %v", err)
			}

			buf := make([]byte, 4*cfg.FrameSize())
			render(buf)
		})
	}
}

func TestNewRendererUnsupported(t *testing.T) {
	_, err := NewRenderer(Config{SampleRate: 48000, Channels: 2, Format: audio.FormatUnknown}, constant(0))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{SampleRate: 44100, Channels: 2, Format: audio.FormatS16}, false},
		{"zero rate", Config{SampleRate: 0, Channels: 2, Format: audio.FormatS16}, true},
		{"zero channels", Config{SampleRate: 44100, Channels: 0, Format: audio.FormatS16}, true},
		{"unknown format", Config{SampleRate: 44100, Channels: 2}, true},
		{"negative buffer", Config{SampleRate: 44100, Channels: 2, Format: audio.FormatS16, BufferFrames: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRenderS16ReplicatesChannels(t *testing.T) {
	src := &sequence{values: []float64{0.5, -1, 1}}
	cfg := Config{SampleRate: 44100, Channels: 2, Format: audio.FormatS16}

	render, err := NewRenderer(cfg, src)
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}

	buf := make([]byte, 3*cfg.FrameSize())
	render(buf)

	if src.calls != 3 {
		t.Errorf("expected one Next per frame (3), got %d", src.calls)
	}
	for _, r := range src.rates {
		if r != 44100 {
			t.Errorf("expected output rate 44100, got %d", r)
		}
	}

	expected := []int16{16384, 16384, -32768, -32768, 32767, 32767}
	for i, want := range expected {
		got := int16(binary.LittleEndian.Uint16(buf[i*2:]))
		if got != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestRenderF32(t *testing.T) {
	cfg := Config{SampleRate: 48000, Channels: 1, Format: audio.FormatF32}
	render, _ := NewRenderer(cfg, &sequence{values: []float64{0.25, -0.75}})

	buf := make([]byte, 8)
	render(buf)

	expected := []float32{0.25, -0.75}
	for i, want := range expected {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		if got != want {
			t.Errorf("sample %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestRenderU8(t *testing.T) {
	cfg := Config{SampleRate: 48000, Channels: 1, Format: audio.FormatU8}
	render, _ := NewRenderer(cfg, &sequence{values: []float64{-1, 0, 1}})

	buf := make([]byte, 3)
	render(buf)

	expected := []byte{0, 128, 255}
	for i, want := range expected {
		if buf[i] != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, buf[i])
		}
	}
}

func TestRenderS24Packed(t *testing.T) {
	cfg := Config{SampleRate: 48000, Channels: 2, Format: audio.FormatS24}
	render, _ := NewRenderer(cfg, &sequence{values: []float64{1, -1}})

	buf := make([]byte, 2*cfg.FrameSize())
	render(buf)

	expected := []int32{audio.Max24Bit, audio.Max24Bit, audio.Min24Bit, audio.Min24Bit}
	for i, want := range expected {
		got := audio.Int24(buf[i*3:])
		if got != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestRenderPartialFrameZeroed(t *testing.T) {
	src := &sequence{values: []float64{1, 1, 1}}
	cfg := Config{SampleRate: 48000, Channels: 2, Format: audio.FormatS16}
	render, _ := NewRenderer(cfg, src)

	buf := make([]byte, cfg.FrameSize()+3)
	for i := range buf {
		buf[i] = 0xAA
	}
	render(buf)

	if src.calls != 1 {
		t.Errorf("expected 1 frame rendered, got %d", src.calls)
	}
	for i := cfg.FrameSize(); i < len(buf); i++ {
		if buf[i] != 0 {
			t.Errorf("byte %d: expected 0 in partial frame, got %#x", i, buf[i])
		}
	}
}

func TestRenderSilenceOverwritesStaleData(t *testing.T) {
	cfg := Config{SampleRate: 48000, Channels: 1, Format: audio.FormatS16}
	render, _ := NewRenderer(cfg, constant(0))

	buf := []byte{0xFF, 0x7F, 0xFF, 0x7F}
	render(buf)

	for i, b := range buf {
		if b != 0 {
			t.Errorf("byte %d: expected silence, got %#x", i, b)
		}
	}
}

func TestFill(t *testing.T) {
	src := &sequence{values: []float64{0.5, -0.5}}
	out := []float32{9, 9, 9, 9, 9}

	Fill(src, out, 44100, 2)

	expected := []float32{0.5, 0.5, -0.5, -0.5, 0}
	for i, want := range expected {
		if out[i] != want {
			t.Errorf("sample %d: expected %v, got %v", i, want, out[i])
		}
	}
}

func TestFillInt16(t *testing.T) {
	out := make([]int16, 4)
	Fill(constant(1), out, 44100, 1)

	for i, s := range out {
		if s != math.MaxInt16 {
			t.Errorf("sample %d: expected %d, got %d", i, math.MaxInt16, s)
		}
	}
}
