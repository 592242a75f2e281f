// ABOUTME: Tests for float to sample conversion
// ABOUTME: Verifies scaling, saturation and unsigned offsets for every sample type
package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func TestFromFloatSigned(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected int16
	}{
		{"zero", 0, 0},
		{"half", 0.5, 16384},
		{"negative half", -0.5, -16384},
		{"full scale saturates", 1.0, math.MaxInt16},
		{"negative full scale", -1.0, math.MinInt16},
		{"above range clamps", 3.0, math.MaxInt16},
		{"below range clamps", -3.0, math.MinInt16},
		{"truncates toward zero", 0.99999, 32767},
		{"nan is silence", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FromFloat[int16](tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestFromFloatUnsigned8(t *testing.T) {
	tests := []struct {
		input    float64
		expected uint8
	}{
		{-1.0, 0},
		{0, 128},
		{1.0, 255},
		{0.5, 192},
		{-0.5, 64},
	}

	for _, tt := range tests {
		result := FromFloat[uint8](tt.input)
		if result != tt.expected {
			t.Errorf("FromFloat[uint8](%v): expected %d, got %d", tt.input, tt.expected, result)
		}
	}
}

func TestFromFloatWideTypes(t *testing.T) {
	if got := FromFloat[int64](1.0); got != math.MaxInt64 {
		t.Errorf("int64 full scale: expected %d, got %d", int64(math.MaxInt64), got)
	}
	if got := FromFloat[int64](-1.0); got != math.MinInt64 {
		t.Errorf("int64 negative full scale: expected %d, got %d", int64(math.MinInt64), got)
	}
	if got := FromFloat[uint64](1.0); got != math.MaxUint64 {
		t.Errorf("uint64 full scale: expected %d, got %d", uint64(math.MaxUint64), got)
	}
	if got := FromFloat[uint64](-1.0); got != 0 {
		t.Errorf("uint64 negative full scale: expected 0, got %d", got)
	}
	if got := FromFloat[uint64](0); got != 1<<63 {
		t.Errorf("uint64 zero: expected midpoint, got %d", got)
	}
	if got := FromFloat[int32](1.0); got != math.MaxInt32 {
		t.Errorf("int32 full scale: expected %d, got %d", math.MaxInt32, got)
	}
	if got := FromFloat[uint16](0); got != 32768 {
		t.Errorf("uint16 zero: expected 32768, got %d", got)
	}
	if got := FromFloat[uint32](1.0); got != math.MaxUint32 {
		t.Errorf("uint32 full scale: expected %d, got %d", uint32(math.MaxUint32), got)
	}
	if got := FromFloat[int8](-1.0); got != math.MinInt8 {
		t.Errorf("int8 negative full scale: expected %d, got %d", math.MinInt8, got)
	}
}

func TestFromFloatFloats(t *testing.T) {
	if got := FromFloat[float32](0.25); got != 0.25 {
		t.Errorf("float32: expected 0.25, got %v", got)
	}
	if got := FromFloat[float64](-0.75); got != -0.75 {
		t.Errorf("float64: expected -0.75, got %v", got)
	}
}

func TestTo24Bit(t *testing.T) {
	if got := To24Bit(1.0); got != Max24Bit {
		t.Errorf("expected %d, got %d", Max24Bit, got)
	}
	if got := To24Bit(-1.0); got != Min24Bit {
		t.Errorf("expected %d, got %d", Min24Bit, got)
	}
}

func TestPacked24(t *testing.T) {
	tests := []struct {
		name   string
		sample int32
		bytes  []byte
	}{
		{"zero", 0, []byte{0, 0, 0}},
		{"positive", 0x123456, []byte{0x56, 0x34, 0x12}},
		{"minus one", -1, []byte{0xFF, 0xFF, 0xFF}},
		{"max", Max24Bit, []byte{0xFF, 0xFF, 0x7F}},
		{"min", Min24Bit, []byte{0x00, 0x00, 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, 3)
			Put24(buf, tt.sample)
			if !bytes.Equal(buf, tt.bytes) {
				t.Errorf("Put24: expected %x, got %x", tt.bytes, buf)
			}
			if got := Int24(tt.bytes); got != tt.sample {
				t.Errorf("Int24: expected %d, got %d", tt.sample, got)
			}
		})
	}
}

func TestPacked24HalfScale(t *testing.T) {
	buf := make([]byte, 3)
	Put24(buf, To24Bit(0.5))
	if got := Int24(buf); got != 1<<22 {
		t.Errorf("expected %d, got %d", 1<<22, got)
	}
}

func TestPutSample(t *testing.T) {
	buf := make([]byte, 8)

	PutSample(buf, int16(-2))
	if got := int16(binary.LittleEndian.Uint16(buf)); got != -2 {
		t.Errorf("int16: expected -2, got %d", got)
	}

	PutSample(buf, float32(0.5))
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf)); got != 0.5 {
		t.Errorf("float32: expected 0.5, got %v", got)
	}

	PutSample(buf, float64(-0.125))
	if got := math.Float64frombits(binary.LittleEndian.Uint64(buf)); got != -0.125 {
		t.Errorf("float64: expected -0.125, got %v", got)
	}

	PutSample(buf, uint8(200))
	if buf[0] != 200 {
		t.Errorf("uint8: expected 200, got %d", buf[0])
	}

	PutSample(buf, int64(-1))
	if got := binary.LittleEndian.Uint64(buf); got != math.MaxUint64 {
		t.Errorf("int64: expected all bits set, got %x", got)
	}
}
