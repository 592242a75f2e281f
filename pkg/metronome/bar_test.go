// ABOUTME: Tests for the bar and beat counter
// ABOUTME: Checks wrap-around, clamping, shrinking and reset
package metronome

import "testing"

func TestBarAdvance(t *testing.T) {
	b := NewBar(3)

	expected := []int{1, 2, 3, 1, 2, 3, 1}
	for i, want := range expected {
		beat, beats := b.Advance()
		if beat != want {
			t.Errorf("tick %d: expected beat %d, got %d", i, want, beat)
		}
		if beats != 3 {
			t.Errorf("tick %d: expected 3 beats, got %d", i, beats)
		}
	}
}

func TestBarClamp(t *testing.T) {
	tests := []struct {
		in       int
		expected int
	}{
		{0, MinBeats},
		{1, MinBeats},
		{2, 2},
		{7, 7},
		{12, 12},
		{13, MaxBeats},
		{-5, MinBeats},
	}

	for _, tt := range tests {
		b := NewBar(tt.in)
		if _, beats := b.Position(); beats != tt.expected {
			t.Errorf("NewBar(%d): expected %d beats, got %d", tt.in, tt.expected, beats)
		}
		if got := b.SetBeats(tt.in); got != tt.expected {
			t.Errorf("SetBeats(%d): expected %d, got %d", tt.in, tt.expected, got)
		}
	}
}

func TestBarShrinkKeepsBeatInRange(t *testing.T) {
	b := NewBar(6)
	for i := 0; i < 5; i++ {
		b.Advance()
	}

	b.SetBeats(3)
	if beat, _ := b.Position(); beat != 3 {
		t.Errorf("expected beat 3 after shrinking, got %d", beat)
	}
	if beat, _ := b.Advance(); beat != 1 {
		t.Errorf("expected wrap to 1, got %d", beat)
	}
}

func TestBarReset(t *testing.T) {
	b := NewBar(4)
	b.Advance()
	b.Advance()
	b.Reset()

	if beat, _ := b.Position(); beat != 0 {
		t.Errorf("expected beat 0 after reset, got %d", beat)
	}
	if beat, _ := b.Advance(); beat != 1 {
		t.Errorf("expected first tick after reset to be beat 1, got %d", beat)
	}
}
