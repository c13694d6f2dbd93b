package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Message types for the TUI

// ControlAttachedMsg is sent when the scanner injects a control
type ControlAttachedMsg struct {
	Permalink string
}

// ActivationStartMsg is sent when a control is activated
type ActivationStartMsg struct {
	Permalink string
}

// ActivationDoneMsg is sent when an activation has finished
type ActivationDoneMsg struct {
	Permalink    string
	PostID       string
	ActivationID string
	Files        int
	Failed       int
	Bytes        int64
	Err          error
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mu.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.mu.Unlock()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case ControlAttachedMsg:
		m.AttachControl(msg.Permalink)
		return m, nil

	case ActivationStartMsg:
		m.StartActivation(msg.Permalink)
		m.AddLogMessage("INFO", "Activated: "+msg.Permalink)
		return m, nil

	case ActivationDoneMsg:
		m.FinishActivation(msg)
		switch {
		case msg.Err != nil:
			m.AddLogMessage("ERROR", "Failed: "+msg.Permalink+" - "+msg.Err.Error())
		case msg.Failed > 0:
			m.AddLogMessage("WARN", "Incomplete: "+msg.PostID)
		default:
			m.AddLogMessage("SUCCESS", "Completed: "+msg.PostID)
		}
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "p", "P":
		m.mu.Lock()
		m.isPaused = !m.isPaused
		paused := m.isPaused
		m.mu.Unlock()
		if paused {
			m.AddLogMessage("WARN", "Auto activation paused")
		} else {
			m.AddLogMessage("INFO", "Auto activation resumed")
		}
		return m, nil

	case "?":
		m.mu.Lock()
		m.showHelp = !m.showHelp
		m.mu.Unlock()
		return m, nil

	case "ctrl+l":
		m.mu.Lock()
		m.logMessages = nil
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

// tickCmd refreshes elapsed times once per second
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
