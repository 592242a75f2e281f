// ABOUTME: Raw PCM output to an io.Writer
// ABOUTME: Renders buffers on a ticker at the stream's real-time rate
package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	log "github.com/golang/glog"

	"github.com/Resonate-Protocol/metronome-go/pkg/audio"
)

// Writer renders interleaved little-endian PCM into an io.Writer, one
// buffer per period. It accepts every sample format.
type Writer struct {
	w      io.Writer
	cfg    Config
	render Renderer
	buf    []byte
	stop   chan struct{}
	done   chan struct{}
	mu     sync.Mutex
}

// NewWriter creates an output that writes raw PCM to w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// NewNull creates an output that renders and discards audio
func NewNull() *Writer {
	return NewWriter(io.Discard)
}

// Formats lists every known format
func (o *Writer) Formats() []audio.SampleFormat {
	return audio.Formats()
}

// Open binds src and allocates the period buffer
func (o *Writer) Open(cfg Config, src Source) error {
	if err := checkFormat(o, cfg); err != nil {
		return err
	}

	render, err := NewRenderer(cfg, src)
	if err != nil {
		return err
	}

	o.Pause()

	o.mu.Lock()
	defer o.mu.Unlock()

	o.cfg = cfg
	o.render = render
	o.buf = make([]byte, cfg.bufferFrames()*cfg.FrameSize())

	log.Infof("Audio output initialized: %s (writer)", cfg)
	return nil
}

// Start begins rendering one period per period duration
func (o *Writer) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.render == nil {
		return ErrNotOpen
	}
	if o.stop != nil {
		return nil
	}

	period := time.Duration(o.cfg.bufferFrames()) * time.Second / time.Duration(o.cfg.SampleRate)
	o.stop = make(chan struct{})
	o.done = make(chan struct{})
	go o.loop(period, o.stop, o.done)
	return nil
}

// Pause stops the render loop and waits for it to exit
func (o *Writer) Pause() error {
	o.mu.Lock()
	if o.render == nil {
		o.mu.Unlock()
		return ErrNotOpen
	}
	stop, done := o.stop, o.done
	o.stop, o.done = nil, nil
	o.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	return nil
}

// Close stops rendering. The underlying writer is not closed.
func (o *Writer) Close() error {
	o.Pause()
	return nil
}

// Render synchronously renders frames and writes them, without pacing.
// It fails while the render loop is running.
func (o *Writer) Render(frames int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.render == nil {
		return ErrNotOpen
	}
	if o.stop != nil {
		return fmt.Errorf("writer is running")
	}

	frameSize := o.cfg.FrameSize()
	for frames > 0 {
		n := min(frames, len(o.buf)/frameSize)
		chunk := o.buf[:n*frameSize]
		o.render(chunk)
		if _, err := o.w.Write(chunk); err != nil {
			return fmt.Errorf("failed to write audio: %w", err)
		}
		frames -= n
	}
	return nil
}

func (o *Writer) loop(period time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	failing := false
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			o.render(o.buf)
			if _, err := o.w.Write(o.buf); err != nil {
				if !failing {
					log.Errorf("Audio write error: %v", err)
				}
				failing = true
				continue
			}
			failing = false
		}
	}
}
