// ABOUTME: Bubbletea model for the metronome TUI
// ABOUTME: Holds displayed state, maps keys to control actions and renders gauges
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Resonate-Protocol/metronome-go/pkg/metronome"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Controller is the control surface the TUI drives
type Controller interface {
	AdjustTempo(delta float64) float64
	AdjustVolume(delta float64) float64
	AdjustBeats(delta int) int
	Toggle() bool
	Status() metronome.Status
}

// refreshInterval redraws gauges changed by other control surfaces
const refreshInterval = 250 * time.Millisecond

// Model represents the TUI state
type Model struct {
	ctrl Controller

	// Parameters
	tempo   float64
	volume  float64
	playing bool

	// Bar
	beat  int
	beats int

	// Stream
	output  string
	dropped uint64

	// Remote control
	remoteAddr string
	clients    int

	quitting bool

	// Dimensions
	width  int
	height int
}

// StatusMsg replaces the displayed parameters
type StatusMsg metronome.Status

// TickMsg reports a beat from the audio thread
type TickMsg struct {
	Beat  int
	Beats int
}

// RemoteMsg reports the remote control server state
type RemoteMsg struct {
	Addr    string
	Clients int
}

type refreshMsg time.Time

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return refreshEvery()
}

func refreshEvery() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(metronome.Status(msg))
	case TickMsg:
		m.beat = msg.Beat
		m.beats = msg.Beats
	case RemoteMsg:
		m.remoteAddr = msg.Addr
		m.clients = msg.Clients
	case refreshMsg:
		if m.ctrl != nil {
			m.applyStatus(m.ctrl.Status())
		}
		return m, refreshEvery()
	}

	return m, nil
}

// handleKey maps key presses to control actions
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	if m.ctrl == nil {
		return m, nil
	}

	switch msg.String() {
	case "right":
		m.ctrl.AdjustTempo(metronome.TempoStep)
	case "left":
		m.ctrl.AdjustTempo(-metronome.TempoStep)
	case "up":
		m.ctrl.AdjustVolume(metronome.VolumeStep)
	case "down":
		m.ctrl.AdjustVolume(-metronome.VolumeStep)
	case "k":
		m.ctrl.AdjustBeats(1)
	case "j":
		m.ctrl.AdjustBeats(-1)
	case " ", "p":
		m.ctrl.Toggle()
	default:
		return m, nil
	}

	m.applyStatus(m.ctrl.Status())
	return m, nil
}

// applyStatus updates model from a status snapshot
func (m *Model) applyStatus(s metronome.Status) {
	m.tempo = s.Tempo
	m.volume = s.Volume
	m.playing = s.Playing
	m.beat = s.Beat
	m.beats = s.Beats
	m.dropped = s.DroppedTicks
	if s.Output != "" {
		m.output = s.Output
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	gaugeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	playingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	stoppedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
)

const gaugeWidth = 40

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping metronome...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Metronome"))
	b.WriteString("\n")

	state := stoppedStyle.Render("■ stopped")
	if m.playing {
		state = playingStyle.Render("▶ playing")
	}
	b.WriteString(state)
	b.WriteString("\n")

	b.WriteString(m.renderGauge("BPM (←/→)",
		ratio(m.tempo-metronome.MinTempo, metronome.MaxTempo-metronome.MinTempo),
		fmt.Sprintf("%g/%g", m.tempo, metronome.MaxTempo)))
	b.WriteString(m.renderGauge("Beat (j/k)",
		ratio(float64(m.beat), float64(m.beats)),
		fmt.Sprintf("%d/%d", m.beat, m.beats)))
	b.WriteString(m.renderGauge("Volume (↑/↓)",
		ratio(m.volume, metronome.MaxVolume),
		fmt.Sprintf("%.0f%%", m.volume*100)))

	if m.output != "" {
		b.WriteString(headerStyle.Render("Output: "))
		b.WriteString(valueStyle.Render(m.output))
		b.WriteString("\n")
	}
	if m.remoteAddr != "" {
		b.WriteString(headerStyle.Render("Remote: "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%s (%d connected)", m.remoteAddr, m.clients)))
		b.WriteString("\n")
	}
	if m.dropped > 0 {
		b.WriteString(headerStyle.Render("Dropped ticks: "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%d", m.dropped)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space: play/stop  q/Ctrl+C: quit"))

	return b.String()
}

func (m Model) renderGauge(title string, r float64, label string) string {
	body := fmt.Sprintf("%s\n%s %s", headerStyle.Render(title), renderBar(r, gaugeWidth), valueStyle.Render(label))
	return gaugeStyle.Render(body) + "\n"
}

// Utility functions
func ratio(value, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return min(max(value/total, 0), 1)
}

func renderBar(r float64, width int) string {
	filled := int(r * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
