// ABOUTME: Atomic floating point cells
// ABOUTME: Stores float bit patterns in native atomic integers
package param

import (
	"math"
	"sync/atomic"
)

// Float64 is a float64 that can be loaded and stored concurrently
type Float64 struct {
	bits atomic.Uint64
}

// NewFloat64 creates a cell holding v
func NewFloat64(v float64) *Float64 {
	f := &Float64{}
	f.Store(v)
	return f
}

// Load returns the most recently stored value
func (f *Float64) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Store replaces the value
func (f *Float64) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

// Float32 is a float32 that can be loaded and stored concurrently
type Float32 struct {
	bits atomic.Uint32
}

// NewFloat32 creates a cell holding v
func NewFloat32(v float32) *Float32 {
	f := &Float32{}
	f.Store(v)
	return f
}

// Load returns the most recently stored value
func (f *Float32) Load() float32 {
	return math.Float32frombits(f.bits.Load())
}

// Store replaces the value
func (f *Float32) Store(v float32) {
	f.bits.Store(math.Float32bits(v))
}
