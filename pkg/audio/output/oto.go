// ABOUTME: Oto-based audio output implementation
// ABOUTME: Exposes the renderer as the io.Reader an oto player pulls from
package output

import (
	"fmt"
	"sync"
	"time"

	log "github.com/golang/glog"

	"github.com/Resonate-Protocol/metronome-go/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

var otoFormats = map[audio.SampleFormat]oto.Format{
	audio.FormatU8:  oto.FormatUnsignedInt8,
	audio.FormatS16: oto.FormatSignedInt16LE,
	audio.FormatF32: oto.FormatFloat32LE,
}

// Oto output implementation using oto library
type Oto struct {
	otoCtx *oto.Context
	player *oto.Player
	cfg    Config
	done   chan struct{}
	mu     sync.Mutex
}

// NewOto creates a new Oto output
func NewOto() Output {
	return &Oto{}
}

// Formats lists the formats oto can play
func (o *Oto) Formats() []audio.SampleFormat {
	return []audio.SampleFormat{audio.FormatF32, audio.FormatS16, audio.FormatU8}
}

// Open creates the oto context and a paused player reading from the renderer.
// oto allows one context per process, so a second Open must keep the
// stream parameters it was first opened with.
func (o *Oto) Open(cfg Config, src Source) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := checkFormat(o, cfg); err != nil {
		return err
	}

	if o.otoCtx != nil && (o.cfg.SampleRate != cfg.SampleRate || o.cfg.Channels != cfg.Channels || o.cfg.Format != cfg.Format) {
		return fmt.Errorf("oto context already open with %s, cannot reopen with %s", o.cfg, cfg)
	}

	render, err := NewRenderer(cfg, src)
	if err != nil {
		return err
	}

	if o.otoCtx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: cfg.Channels,
			Format:       otoFormats[cfg.Format],
			BufferSize:   time.Duration(cfg.bufferFrames()) * time.Second / time.Duration(cfg.SampleRate),
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			return fmt.Errorf("failed to create oto context: %w", err)
		}
		<-readyChan
		o.otoCtx = ctx
	}

	o.closePlayer()

	o.player = o.otoCtx.NewPlayer(&renderReader{render: render, frameSize: cfg.FrameSize()})
	o.cfg = cfg
	o.done = make(chan struct{})
	go o.watch(o.player, o.done)

	log.Infof("Audio output initialized: %s (oto)", cfg)

	return nil
}

// Start resumes the player
func (o *Oto) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return ErrNotOpen
	}
	o.player.Play()
	return nil
}

// Pause pauses the player
func (o *Oto) Pause() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return ErrNotOpen
	}
	o.player.Pause()
	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.closePlayer()
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			log.Warningf("oto suspend error: %v", err)
		}
	}
	return nil
}

// closePlayer stops the watcher and player (must hold o.mu)
func (o *Oto) closePlayer() {
	if o.done != nil {
		close(o.done)
		o.done = nil
	}
	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.Warningf("oto player close error: %v", err)
		}
		o.player = nil
	}
}

// watch logs the first player error
func (o *Oto) watch(player *oto.Player, done <-chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := player.Err(); err != nil {
				log.Errorf("Audio stream error: %v", err)
				return
			}
		}
	}
}

// renderReader adapts a Renderer to io.Reader in whole frames
type renderReader struct {
	render    Renderer
	frameSize int
}

func (r *renderReader) Read(p []byte) (int, error) {
	n := len(p) - len(p)%r.frameSize
	r.render(p[:n])
	return n, nil
}
