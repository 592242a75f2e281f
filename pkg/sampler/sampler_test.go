// ABOUTME: Tests for the click sampler
// ABOUTME: Verifies tick timing, tempo changes, play/stop edges and tick delivery
package sampler

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/Resonate-Protocol/metronome-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/metronome-go/pkg/param"
)

func newTestSampler(t *testing.T, samples []float64, sampleRate int, params *param.Set, ticks chan<- Event) *Sampler {
	t.Helper()

	s, err := FromWaveform(&decode.Waveform{
		Samples:    samples,
		Channels:   1,
		SampleRate: sampleRate,
		BitDepth:   16,
	}, params, ticks)
	if err != nil {
		t.Fatalf("failed to create sampler: %v", err)
	}
	return s
}

// run calls Next n times and returns how many ticks arrived
func run(s *Sampler, ticks chan Event, outputRate, n int) int {
	count := 0
	for i := 0; i < n; i++ {
		s.Next(outputRate)
		select {
		case <-ticks:
			count++
		default:
		}
	}
	return count
}

func TestNewUsesEmbeddedClick(t *testing.T) {
	s, err := New(param.NewSet(120, 1, false), nil)
	if err != nil {
		t.Fatalf("failed to create sampler: %v", err)
	}

	if s.SampleRate() != 44100 {
		t.Errorf("expected sample rate 44100, got %d", s.SampleRate())
	}
	if s.Channels() != 1 {
		t.Errorf("expected 1 channel, got %d", s.Channels())
	}
	if s.Len() == 0 {
		t.Error("expected embedded click to have samples")
	}
}

func TestFromPathMissingFile(t *testing.T) {
	_, err := FromPath(filepath.Join(t.TempDir(), "nope.wav"), param.NewSet(120, 1, true), nil)
	if err == nil {
		t.Fatal("expected error for missing sample file")
	}
}

func TestFromWaveformRequiresParams(t *testing.T) {
	_, err := FromWaveform(&decode.Waveform{SampleRate: 44100, Channels: 1}, nil, nil)
	if err == nil {
		t.Fatal("expected error without parameter set")
	}
}

func TestTickEveryBeat(t *testing.T) {
	params := param.NewSet(120, 1, true)
	ticks := make(chan Event, 8)
	s := newTestSampler(t, make([]float64, 100), 44100, params, ticks)

	if got := s.CycleLength(); got != 22050 {
		t.Fatalf("expected cycle length 22050, got %v", got)
	}

	if n := run(s, ticks, 44100, 22049); n != 0 {
		t.Errorf("expected no tick before frame 22050, got %d", n)
	}
	if n := run(s, ticks, 44100, 1); n != 1 {
		t.Errorf("expected tick on frame 22050, got %d", n)
	}
	if s.Playhead() != 0 {
		t.Errorf("expected playhead 0 after wrap, got %v", s.Playhead())
	}
	if n := run(s, ticks, 44100, 22050); n != 1 {
		t.Errorf("expected one tick per 22050 frames, got %d", n)
	}
}

func TestTickCountMatchesCycles(t *testing.T) {
	tests := []struct {
		name       string
		sourceRate int
		outputRate int
		tempo      float64
		frames     int
	}{
		{"same rate", 44100, 44100, 120, 100000},
		{"upsample", 44100, 48000, 100, 100000},
		{"downsample", 48000, 44100, 90, 200000},
		{"fast tempo", 44100, 44100, 200, 50000},
		{"slow tempo", 22050, 44100, 20, 300000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := param.NewSet(tt.tempo, 1, true)
			ticks := make(chan Event, 1)
			s := newTestSampler(t, make([]float64, 10), tt.sourceRate, params, ticks)

			inc := float64(tt.sourceRate) / float64(tt.outputRate)
			cycle := float64(tt.sourceRate) * 60 / tt.tempo
			total := float64(tt.frames) * inc

			expectedTicks := int(math.Floor(total / cycle))
			if got := run(s, ticks, tt.outputRate, tt.frames); got != expectedTicks {
				t.Errorf("expected %d ticks, got %d", expectedTicks, got)
			}

			expectedPlayhead := math.Mod(total, cycle)
			if math.Abs(s.Playhead()-expectedPlayhead) > 1e-3 {
				t.Errorf("expected playhead %v, got %v", expectedPlayhead, s.Playhead())
			}
			if s.Playhead() < 0 || s.Playhead() >= cycle {
				t.Errorf("playhead %v outside [0, %v)", s.Playhead(), cycle)
			}
		})
	}
}

func TestTempoChangeIsProspective(t *testing.T) {
	params := param.NewSet(120, 1, true)
	ticks := make(chan Event, 8)
	s := newTestSampler(t, make([]float64, 100), 44100, params, ticks)

	run(s, ticks, 44100, 10000)
	if s.Playhead() != 10000 {
		t.Fatalf("expected playhead 10000, got %v", s.Playhead())
	}

	params.Tempo.Store(60)

	// 120 BPM would have wrapped after 12050 more frames
	if n := run(s, ticks, 44100, 34099); n != 0 {
		t.Errorf("expected no tick before reaching 44100, got %d", n)
	}
	if n := run(s, ticks, 44100, 1); n != 1 {
		t.Errorf("expected tick at 44100, got %d", n)
	}
}

func TestTempoIncreasePastPlayheadWraps(t *testing.T) {
	params := param.NewSet(60, 1, true)
	ticks := make(chan Event, 8)
	s := newTestSampler(t, make([]float64, 10), 44100, params, ticks)

	run(s, ticks, 44100, 30000)
	params.Tempo.Store(120)

	if n := run(s, ticks, 44100, 1); n != 1 {
		t.Errorf("expected immediate tick when playhead passes the new cycle, got %d", n)
	}
}

func TestStopResetsPlayhead(t *testing.T) {
	params := param.NewSet(120, 1, true)
	s := newTestSampler(t, []float64{0.5, 0.25, 0.125}, 44100, params, nil)

	for i := 0; i < 100; i++ {
		s.Next(44100)
	}
	if s.Playhead() != 100 {
		t.Fatalf("expected playhead 100, got %v", s.Playhead())
	}

	params.Playing.Store(false)
	if v := s.Next(44100); v != 0 {
		t.Errorf("expected silence while stopped, got %v", v)
	}
	if s.Playhead() != 0 {
		t.Errorf("expected playhead reset on stop, got %v", s.Playhead())
	}

	for i := 0; i < 50; i++ {
		if v := s.Next(44100); v != 0 {
			t.Fatalf("expected silence while stopped, got %v", v)
		}
	}
	if s.Playhead() != 0 {
		t.Errorf("expected stopped playhead to stay at 0, got %v", s.Playhead())
	}

	params.Playing.Store(true)
	if v := s.Next(44100); v != 0.5 {
		t.Errorf("expected first sample after restart, got %v", v)
	}
}

func TestTickOnStart(t *testing.T) {
	params := param.NewSet(120, 1, false)
	ticks := make(chan Event, 1)
	s := newTestSampler(t, []float64{0.5, 0.25, 0.125}, 44100, params, ticks)
	s.TickOnStart(true)

	for i := 0; i < 5; i++ {
		params.Playing.Store(false)
		if v := s.Next(44100); v != 0 {
			t.Fatalf("round %d: expected silence while stopped, got %v", i, v)
		}
		select {
		case <-ticks:
			t.Fatalf("round %d: unexpected tick on a stopped frame", i)
		default:
		}

		params.Playing.Store(true)
		if v := s.Next(44100); v != 0.5 {
			t.Fatalf("round %d: expected onset sample, got %v", i, v)
		}
		select {
		case <-ticks:
		default:
			t.Fatalf("round %d: expected tick on the onset frame", i)
		}

		// Later frames of the same beat stay quiet
		if n := run(s, ticks, 44100, 10); n != 0 {
			t.Fatalf("round %d: expected no ticks mid-beat, got %d", i, n)
		}
	}
}

func TestNoTickOnStartByDefault(t *testing.T) {
	params := param.NewSet(120, 1, false)
	ticks := make(chan Event, 1)
	s := newTestSampler(t, []float64{0.5}, 44100, params, ticks)

	params.Playing.Store(true)
	if n := run(s, ticks, 44100, 10); n != 0 {
		t.Errorf("expected no tick on start, got %d", n)
	}
}

func TestStartResumesFromPlayhead(t *testing.T) {
	params := param.NewSet(120, 1, false)
	s := newTestSampler(t, []float64{0.5, 0.25}, 44100, params, nil)

	s.Next(44100)
	if s.Playhead() != 0 {
		t.Errorf("expected no advance while stopped, got %v", s.Playhead())
	}

	params.Playing.Store(true)
	s.Next(44100)
	if s.Playhead() != 1 {
		t.Errorf("expected playhead 1 after first playing frame, got %v", s.Playhead())
	}
}

func TestVolumeScaling(t *testing.T) {
	tests := []struct {
		name     string
		volume   float64
		sample   float64
		expected float64
	}{
		{"full", 1, 0.5, 0.5},
		{"half", 0.5, 0.5, 0.25},
		{"mute", 0, -1, 0},
		{"negative sample", 0.5, -1, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := param.NewSet(120, tt.volume, true)
			s := newTestSampler(t, []float64{tt.sample}, 44100, params, nil)

			if got := s.Next(44100); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestPastEndOfSampleIsSilent(t *testing.T) {
	params := param.NewSet(120, 1, true)
	s := newTestSampler(t, []float64{1, 1, 1}, 44100, params, nil)

	for i := 0; i < 3; i++ {
		if v := s.Next(44100); v != 1 {
			t.Errorf("frame %d: expected 1, got %v", i, v)
		}
	}
	for i := 3; i < 1000; i++ {
		if v := s.Next(44100); v != 0 {
			t.Fatalf("frame %d: expected silence past end of sample, got %v", i, v)
		}
	}
}

func TestNearestIndexRounding(t *testing.T) {
	params := param.NewSet(120, 1, true)
	s := newTestSampler(t, []float64{0, 1, 2, 3, 4}, 44100, params, nil)

	// inc = 0.5: playheads 0, 0.5, 1.0, 1.5, 2.0 round half away from zero
	expected := []float64{0, 1, 1, 2, 2}
	for i, want := range expected {
		if got := s.Next(88200); got != want {
			t.Errorf("frame %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestTickSendNeverBlocks(t *testing.T) {
	params := param.NewSet(200, 1, true)
	ticks := make(chan Event) // never read
	s := newTestSampler(t, make([]float64, 10), 44100, params, ticks)

	cycle := int(s.CycleLength())
	for i := 0; i < cycle*3; i++ {
		s.Next(44100)
	}

	if s.DroppedTicks() != 3 {
		t.Errorf("expected 3 dropped ticks, got %d", s.DroppedTicks())
	}
}

func TestTickBufferOverflow(t *testing.T) {
	params := param.NewSet(200, 1, true)
	ticks := make(chan Event, 1)
	s := newTestSampler(t, make([]float64, 10), 44100, params, ticks)

	cycle := int(s.CycleLength())
	for i := 0; i < cycle*3; i++ {
		s.Next(44100)
	}

	if len(ticks) != 1 {
		t.Errorf("expected 1 buffered tick, got %d", len(ticks))
	}
	if s.DroppedTicks() != 2 {
		t.Errorf("expected 2 dropped ticks, got %d", s.DroppedTicks())
	}
}

func TestNilTickChannel(t *testing.T) {
	params := param.NewSet(200, 1, true)
	s := newTestSampler(t, make([]float64, 10), 44100, params, nil)

	for i := 0; i < 44100; i++ {
		s.Next(44100)
	}
	s.SendTick()

	if s.DroppedTicks() != 0 {
		t.Errorf("expected no dropped ticks without a channel, got %d", s.DroppedTicks())
	}
}

func TestEventString(t *testing.T) {
	if Tick.String() != "tick" {
		t.Errorf("expected %q, got %q", "tick", Tick.String())
	}
}
