// ABOUTME: Bar and beat counter
// ABOUTME: Advances the beat position on each tick, wrapping at the bar length
package metronome

import "sync"

// Bar counts beats within a bar. Beat 0 means no tick since the last reset.
type Bar struct {
	mu    sync.Mutex
	beat  int
	beats int
}

// NewBar creates a counter with the given bar length (clamped)
func NewBar(beats int) *Bar {
	return &Bar{beats: clampBeats(beats)}
}

// Advance moves to the next beat and returns the new position
func (b *Bar) Advance() (beat, beats int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.beat = b.beat%b.beats + 1
	return b.beat, b.beats
}

// Position returns the current beat and bar length
func (b *Bar) Position() (beat, beats int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.beat, b.beats
}

// SetBeats changes the bar length and returns the stored value
func (b *Bar) SetBeats(beats int) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.beats = clampBeats(beats)
	if b.beat > b.beats {
		b.beat = b.beats
	}
	return b.beats
}

// Reset returns to the start of the bar
func (b *Bar) Reset() {
	b.mu.Lock()
	b.beat = 0
	b.mu.Unlock()
}

func clampBeats(beats int) int {
	return min(max(beats, MinBeats), MaxBeats)
}
