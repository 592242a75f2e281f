// ABOUTME: Entry point for the metronome
// ABOUTME: Parses CLI flags, wires the engine to the TUI and remote control, persists settings
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/golang/glog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/metronome-go/internal/config"
	"github.com/Resonate-Protocol/metronome-go/internal/remote"
	"github.com/Resonate-Protocol/metronome-go/internal/ui"
	"github.com/Resonate-Protocol/metronome-go/internal/version"
	"github.com/Resonate-Protocol/metronome-go/pkg/audio"
	"github.com/Resonate-Protocol/metronome-go/pkg/audio/output"
	"github.com/Resonate-Protocol/metronome-go/pkg/metronome"
	"github.com/Resonate-Protocol/metronome-go/pkg/protocol"
)

var (
	tempo        = flag.Float64("tempo", metronome.DefaultTempo, "Tempo in BPM (20-200)")
	volume       = flag.Float64("volume", metronome.DefaultVolume, "Volume (0.0-1.0)")
	beats        = flag.Int("beats", metronome.DefaultBeats, "Beats per bar (2-12)")
	sample       = flag.String("sample", "", "Click sample (WAV, FLAC or MP3); empty uses the built-in click")
	backend      = flag.String("output", "malgo", "Audio backend: "+strings.Join(output.Backends(), ", "))
	format       = flag.String("format", "f32", "Preferred sample format (f32, s16, s24, s32, s8, u8)")
	sampleRate   = flag.Int("rate", 48000, "Output sample rate")
	channels     = flag.Int("channels", 2, "Output channels")
	bufferFrames = flag.Int("buffer", output.DefaultBufferFrames, "Device buffer size in frames")
	play         = flag.Bool("play", false, "Start clicking immediately")
	noTUI        = flag.Bool("no-tui", false, "Disable TUI, log to stderr instead")
	remotePort   = flag.Int("remote-port", protocol.DefaultPort, "Remote control port (0 disables)")
	name         = flag.String("name", "", "Name announced to remotes (default: hostname-metronome)")
	mdns         = flag.Bool("mdns", true, "Advertise remote control via mDNS")
	noSave       = flag.Bool("no-save", false, "Do not write settings on exit")
	exportPath   = flag.String("export", "", "Render to this WAV file and exit")
	exportSecs   = flag.Float64("seconds", 10, "Length of -export in seconds")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	useTUI := !*noTUI && *exportPath == ""
	if useTUI {
		// Keep the terminal for the TUI, logs go to the glog directory
		flag.Set("stderrthreshold", "FATAL")
	} else {
		flag.Set("logtostderr", "true")
	}
	defer log.Flush()

	settings := loadSettings()

	if *exportPath != "" {
		if err := export(settings); err != nil {
			log.Exitf("Export failed: %v", err)
		}
		return
	}

	out, err := output.New(settings.Output)
	if err != nil {
		log.Exitf("Failed to create output: %v", err)
	}

	preferred, err := audio.ParseSampleFormat(*format)
	if err != nil {
		log.Exitf("Invalid format: %v", err)
	}

	var tuiProg *tea.Program
	var srv *remote.Server

	m, err := metronome.New(metronome.Config{
		Tempo:        settings.Tempo,
		Volume:       settings.Volume,
		Muted:        settings.Volume == 0,
		Beats:        settings.Beats,
		Playing:      *play,
		SamplePath:   settings.Sample,
		Output:       out,
		SampleRate:   *sampleRate,
		Channels:     *channels,
		Format:       preferred,
		BufferFrames: *bufferFrames,
		OnStateChange: func(status metronome.Status) {
			// Key presses change state from inside the TUI update loop
			if tuiProg != nil {
				go tuiProg.Send(ui.StatusMsg(status))
			}
			if srv != nil {
				srv.BroadcastState(status)
			}
		},
	})
	if err != nil {
		log.Exitf("Failed to create metronome: %v", err)
	}
	defer m.Close()

	if useTUI {
		tuiProg = ui.Run(m)
	}

	if *remotePort > 0 {
		srv = remote.New(remote.Config{
			Port:       *remotePort,
			Name:       serverName(),
			EnableMDNS: *mdns,
			OnClientsChange: func(clients int) {
				if tuiProg != nil {
					tuiProg.Send(ui.RemoteMsg{Addr: srv.Addr(), Clients: clients})
				}
			},
		}, m)
		if err := srv.Start(); err != nil {
			log.Warningf("Remote control disabled: %v", err)
			srv = nil
		} else {
			defer srv.Stop()
			if tuiProg != nil {
				go tuiProg.Send(ui.RemoteMsg{Addr: srv.Addr()})
			}
		}
	}

	go forwardTicks(m, func(beat, beats int) {
		if tuiProg != nil {
			tuiProg.Send(ui.TickMsg{Beat: beat, Beats: beats})
		}
		if srv != nil {
			srv.BroadcastTick(beat, beats)
		}
	})

	if err := m.Start(); err != nil {
		log.Exitf("Failed to start audio: %v", err)
	}
	log.Infof("Metronome running: %s", m.OutputConfig())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if tuiProg != nil {
		go func() {
			<-sigChan
			tuiProg.Quit()
		}()
		if _, err := tuiProg.Run(); err != nil {
			log.Errorf("TUI error: %v", err)
		}
	} else {
		<-sigChan
		log.Infof("Shutdown signal received")
	}

	if err := m.Pause(); err != nil {
		log.Warningf("Error stopping audio: %v", err)
	}

	if !*noSave {
		saveSettings(m.Status(), settings)
	}
	log.Infof("Metronome stopped")
}

// forwardTicks advances the bar on every tick from the audio callback
func forwardTicks(m *metronome.Metronome, onBeat func(beat, beats int)) {
	for range m.Ticks() {
		beat, beats := m.Bar().Advance()
		log.V(1).Infof("Beat %d/%d", beat, beats)
		onBeat(beat, beats)
	}
}

// loadSettings reads the config file and applies explicitly set flags on top
func loadSettings() config.Config {
	settings, err := config.Load()
	if err != nil {
		log.Warningf("Using default settings: %v", err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tempo":
			settings.Tempo = *tempo
		case "volume":
			settings.Volume = *volume
		case "beats":
			settings.Beats = *beats
		case "sample":
			settings.Sample = *sample
		case "output":
			settings.Output = *backend
		}
	})
	if settings.Output == "" {
		settings.Output = *backend
	}

	return settings.Clamped()
}

// saveSettings persists the final tempo, volume and bar length
func saveSettings(status metronome.Status, settings config.Config) {
	settings.Tempo = status.Tempo
	settings.Volume = status.Volume
	settings.Beats = status.Beats

	if err := config.Save(settings); err != nil {
		log.Warningf("Failed to save settings: %v", err)
		return
	}
	log.Infof("Settings saved")
}

func export(settings config.Config) error {
	f, err := os.Create(*exportPath)
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := metronome.Export(f, metronome.ExportConfig{
		Tempo:      settings.Tempo,
		Volume:     settings.Volume,
		Muted:      settings.Volume == 0,
		SamplePath: settings.Sample,
		SampleRate: *sampleRate,
		Channels:   *channels,
		Seconds:    *exportSecs,
	})
	if err != nil {
		return err
	}

	log.Infof("Wrote %s: %d frames, %d clicks", *exportPath, result.Frames, result.Ticks)
	return nil
}

func serverName() string {
	if *name != "" {
		return *name
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-metronome", hostname)
}
