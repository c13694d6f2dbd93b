package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"weibodl/pkg/trigger"
)

// TUI is the full screen watch dashboard
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a dashboard for a watch session over source
func NewTUI(source string, interval time.Duration, opts ...tea.ProgramOption) *TUI {
	model := NewModel(source, interval)
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)

	return &TUI{
		program: tea.NewProgram(model, opts...),
		model:   model,
	}
}

// Start runs the TUI until the user quits or Stop is called
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

func (t *TUI) ControlAttached(permalink string) {
	t.Send(ControlAttachedMsg{Permalink: permalink})
}

func (t *TUI) ActivationStarted(permalink string) {
	t.Send(ActivationStartMsg{Permalink: permalink})
}

func (t *TUI) ActivationFinished(permalink string, outcome *trigger.Outcome, err error) {
	t.Send(DoneMsg(permalink, outcome, err))
}

// DoneMsg converts an activation result to a message
func DoneMsg(permalink string, outcome *trigger.Outcome, err error) ActivationDoneMsg {
	msg := ActivationDoneMsg{Permalink: permalink, Err: err}
	if outcome == nil {
		return msg
	}

	msg.PostID = outcome.PostID
	msg.ActivationID = outcome.ActivationID
	msg.Files = outcome.Succeeded()
	msg.Failed = outcome.Failed()
	for _, r := range outcome.Results {
		if r.Success() {
			msg.Bytes += r.Size
		}
	}
	return msg
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log("INFO", format, args...)
}

func (t *TUI) LogWarning(format string, args ...interface{}) {
	t.Log("WARN", format, args...)
}

func (t *TUI) LogError(format string, args ...interface{}) {
	t.Log("ERROR", format, args...)
}

// IsPaused reports whether the user suspended automatic activation
func (t *TUI) IsPaused() bool {
	return t.model.IsPaused()
}
