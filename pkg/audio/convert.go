// ABOUTME: Float to device sample conversion
// ABOUTME: Generic saturating conversion and little-endian encoding for every sample type
package audio

import (
	"encoding/binary"
	"math"
)

// Sample is any numeric type an output device may consume
type Sample interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64
}

// FromFloat converts a value in [-1.0, 1.0] to T.
//
// Signed integers scale by 2^(bits-1), truncate toward zero and saturate at
// the positive maximum. Unsigned integers are the signed value offset by
// 2^(bits-1). Floats pass through. Input outside [-1, 1] is clamped first for
// the integer types.
func FromFloat[T Sample](v float64) T {
	var out T
	switch p := any(&out).(type) {
	case *int8:
		*p = int8(scaleSigned(v, 8))
	case *int16:
		*p = int16(scaleSigned(v, 16))
	case *int32:
		*p = int32(scaleSigned(v, 32))
	case *int64:
		*p = scaleSigned(v, 64)
	case *uint8:
		*p = uint8(scaleUnsigned(v, 8))
	case *uint16:
		*p = uint16(scaleUnsigned(v, 16))
	case *uint32:
		*p = uint32(scaleUnsigned(v, 32))
	case *uint64:
		*p = scaleUnsigned(v, 64)
	case *float32:
		*p = float32(v)
	case *float64:
		*p = v
	}
	return out
}

// Signed 24-bit range
const (
	Max24Bit = 1<<23 - 1
	Min24Bit = -1 << 23
)

// To24Bit converts a value in [-1.0, 1.0] to the 24-bit signed range
func To24Bit(v float64) int32 {
	return int32(scaleSigned(v, 24))
}

// Put24 writes the low 24 bits of s into b[0:3], little-endian
func Put24(b []byte, s int32) {
	_ = b[2]
	b[0] = byte(s)
	b[1] = byte(s >> 8)
	b[2] = byte(s >> 16)
}

// Int24 reads a sign-extended little-endian 24-bit sample from b[0:3]
func Int24(b []byte) int32 {
	_ = b[2]
	return int32(uint32(b[0])<<8|uint32(b[1])<<16|uint32(b[2])<<24) >> 8
}

// PutSample writes s into b as little-endian bytes. b must hold at least
// the size of T.
func PutSample[T Sample](b []byte, s T) {
	switch v := any(s).(type) {
	case int8:
		b[0] = byte(v)
	case uint8:
		b[0] = v
	case int16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case uint16:
		binary.LittleEndian.PutUint16(b, v)
	case int32:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case uint32:
		binary.LittleEndian.PutUint32(b, v)
	case int64:
		binary.LittleEndian.PutUint64(b, uint64(v))
	case uint64:
		binary.LittleEndian.PutUint64(b, v)
	case float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	case float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	}
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}

// scaleSigned maps [-1, 1] onto the signed range of the given width
func scaleSigned(v float64, bits uint) int64 {
	scale := math.Ldexp(1, int(bits-1))
	x := clampUnit(v) * scale
	if x >= scale {
		return math.MaxInt64 >> (64 - bits)
	}
	return int64(x)
}

// scaleUnsigned maps [-1, 1] onto [0, 2^bits - 1]
func scaleUnsigned(v float64, bits uint) uint64 {
	mask := uint64(math.MaxUint64) >> (64 - bits)
	return (uint64(scaleSigned(v, bits)) + 1<<(bits-1)) & mask
}
