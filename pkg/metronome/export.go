// ABOUTME: Offline rendering of a click track to a WAV file
// ABOUTME: Runs the same engine as live playback without an audio device
package metronome

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/metronome-go/pkg/audio"
	"github.com/Resonate-Protocol/metronome-go/pkg/param"
	"github.com/Resonate-Protocol/metronome-go/pkg/sampler"
)

const exportChunkFrames = 4096

// ExportConfig describes an offline render
type ExportConfig struct {
	Tempo      float64
	Volume     float64
	Muted      bool   // renders at volume 0
	SamplePath string // empty uses the built-in click

	SampleRate int // default 48000
	Channels   int // default 2
	BitDepth   int // 16 or 24, default 16

	Seconds float64
}

// ExportResult summarizes a finished render
type ExportResult struct {
	Frames int
	Ticks  int
}

// Export renders cfg.Seconds of click track, starting on the click onset,
// as integer PCM WAV into w.
func Export(w io.WriteSeeker, cfg ExportConfig) (ExportResult, error) {
	if cfg.Tempo == 0 {
		cfg.Tempo = DefaultTempo
	}
	if cfg.Muted {
		cfg.Volume = 0
	} else if cfg.Volume == 0 {
		cfg.Volume = DefaultVolume
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 48000
	}
	if cfg.Channels == 0 {
		cfg.Channels = 2
	}
	if cfg.BitDepth == 0 {
		cfg.BitDepth = 16
	}
	if cfg.BitDepth != 16 && cfg.BitDepth != 24 {
		return ExportResult{}, fmt.Errorf("unsupported export bit depth %d", cfg.BitDepth)
	}
	if cfg.Seconds <= 0 {
		return ExportResult{}, fmt.Errorf("export length must be positive, got %v", cfg.Seconds)
	}

	params := param.NewSet(clampTempo(cfg.Tempo), clampVolume(cfg.Volume), true)
	ticks := make(chan sampler.Event, 1)

	var s *sampler.Sampler
	var err error
	if cfg.SamplePath != "" {
		s, err = sampler.FromPath(cfg.SamplePath, params, ticks)
	} else {
		s, err = sampler.New(params, ticks)
	}
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to create sampler: %w", err)
	}
	s.TickOnStart(true)

	enc := wav.NewEncoder(w, cfg.SampleRate, cfg.BitDepth, cfg.Channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: cfg.Channels, SampleRate: cfg.SampleRate},
		SourceBitDepth: cfg.BitDepth,
	}

	total := int(cfg.Seconds * float64(cfg.SampleRate))
	result := ExportResult{Frames: total}

	for done := 0; done < total; {
		n := min(exportChunkFrames, total-done)
		buf.Data = buf.Data[:0]
		for i := 0; i < n; i++ {
			v := s.Next(cfg.SampleRate)
			var sample int
			if cfg.BitDepth == 24 {
				sample = int(audio.To24Bit(v))
			} else {
				sample = int(audio.FromFloat[int16](v))
			}
			for c := 0; c < cfg.Channels; c++ {
				buf.Data = append(buf.Data, sample)
			}

			select {
			case <-ticks:
				result.Ticks++
			default:
			}
		}
		if err := enc.Write(buf); err != nil {
			return result, fmt.Errorf("failed to write samples: %w", err)
		}
		done += n
	}

	if err := enc.Close(); err != nil {
		return result, fmt.Errorf("failed to finish wav: %w", err)
	}
	return result, nil
}
