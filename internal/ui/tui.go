// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the metronome UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// NewModel creates a new TUI model
func NewModel(ctrl Controller) Model {
	m := Model{ctrl: ctrl}
	if ctrl != nil {
		m.applyStatus(ctrl.Status())
	}
	return m
}

// Run creates the TUI program. The caller runs it and feeds it TickMsg,
// StatusMsg and RemoteMsg through Send.
func Run(ctrl Controller) *tea.Program {
	return tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
}
