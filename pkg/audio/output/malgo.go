// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Drives a miniaudio playback device whose data callback runs the renderer
package output

import (
	"fmt"
	"strings"
	"sync"

	log "github.com/golang/glog"

	"github.com/Resonate-Protocol/metronome-go/pkg/audio"
	"github.com/gen2brain/malgo"
)

var malgoFormats = map[audio.SampleFormat]malgo.FormatType{
	audio.FormatU8:  malgo.FormatU8,
	audio.FormatS16: malgo.FormatS16,
	audio.FormatS24: malgo.FormatS24,
	audio.FormatS32: malgo.FormatS32,
	audio.FormatF32: malgo.FormatF32,
}

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	cfg      Config
	render   Renderer
	mu       sync.Mutex
}

// NewMalgo creates a new Malgo output
func NewMalgo() Output {
	return &Malgo{}
}

// Formats lists the formats miniaudio can play
func (m *Malgo) Formats() []audio.SampleFormat {
	return []audio.SampleFormat{
		audio.FormatF32, audio.FormatS16, audio.FormatS24, audio.FormatS32, audio.FormatU8,
	}
}

// Open initializes the playback device. The device is left stopped.
func (m *Malgo) Open(cfg Config, src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkFormat(m, cfg); err != nil {
		return err
	}

	render, err := NewRenderer(cfg, src)
	if err != nil {
		return err
	}

	if m.device != nil {
		log.Infof("Reopening audio output (%s -> %s)", m.cfg, cfg)
		m.closeDevice()
	}

	// Create malgo context if needed
	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
			log.Infof("miniaudio: %s", strings.TrimSpace(message))
		})
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgoFormats[cfg.Format]
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(cfg.bufferFrames())
	deviceConfig.Alsa.NoMMap = 1

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			render(pOutputSample)
		},
		Stop: func() {
			log.V(1).Infof("Audio device stopped")
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	m.device = device
	m.cfg = cfg
	m.render = render

	log.Infof("Audio output initialized: %s (malgo)", cfg)

	return nil
}

// Start starts the device
func (m *Malgo) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return ErrNotOpen
	}
	if m.device.IsStarted() {
		return nil
	}
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

// Pause stops the device without uninitializing it
func (m *Malgo) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return ErrNotOpen
	}
	if !m.device.IsStarted() {
		return nil
	}
	if err := m.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop device: %w", err)
	}
	return nil
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDevice()

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Warningf("malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}

	return nil
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() {
	if m.device == nil {
		return
	}
	if m.device.IsStarted() {
		if err := m.device.Stop(); err != nil {
			log.Warningf("device stop error: %v", err)
		}
	}
	m.device.Uninit()
	m.device = nil
	m.render = nil
}
