// ABOUTME: Output sample format enumeration
// ABOUTME: Names, sizes and parsing for negotiated device sample formats
package audio

import (
	"fmt"
	"strings"
)

// SampleFormat is the numeric representation of one output sample
type SampleFormat int

const (
	FormatUnknown SampleFormat = iota
	FormatU8
	FormatS8
	FormatS16
	FormatU16
	FormatS24 // packed, 3 bytes
	FormatS32
	FormatU32
	FormatS64
	FormatU64
	FormatF32
	FormatF64
)

var formatNames = map[SampleFormat]string{
	FormatU8:  "u8",
	FormatS8:  "s8",
	FormatS16: "s16",
	FormatU16: "u16",
	FormatS24: "s24",
	FormatS32: "s32",
	FormatU32: "u32",
	FormatS64: "s64",
	FormatU64: "u64",
	FormatF32: "f32",
	FormatF64: "f64",
}

// String returns the short lowercase name (e.g. "s16")
func (f SampleFormat) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(f))
}

// Size returns the number of bytes per sample, or 0 for unknown formats
func (f SampleFormat) Size() int {
	switch f {
	case FormatU8, FormatS8:
		return 1
	case FormatS16, FormatU16:
		return 2
	case FormatS24:
		return 3
	case FormatS32, FormatU32, FormatF32:
		return 4
	case FormatS64, FormatU64, FormatF64:
		return 8
	default:
		return 0
	}
}

// Formats lists every known format in declaration order
func Formats() []SampleFormat {
	return []SampleFormat{
		FormatU8, FormatS8, FormatS16, FormatU16, FormatS24,
		FormatS32, FormatU32, FormatS64, FormatU64, FormatF32, FormatF64,
	}
}

// ParseSampleFormat parses a format name as produced by String.
// "i16" style aliases are accepted for the signed formats.
func ParseSampleFormat(s string) (SampleFormat, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(name, "i") {
		name = "s" + name[1:]
	}
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unknown sample format: %q", s)
}
