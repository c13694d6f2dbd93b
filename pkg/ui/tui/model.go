package tui

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ActivationState represents the state of one post activation
type ActivationState int

const (
	ActivationPending ActivationState = iota
	ActivationActive
	ActivationCompleted
	ActivationPartial
	ActivationFailed
)

// ActivationItem is one attached control and what became of it
type ActivationItem struct {
	Permalink    string
	PostID       string
	ActivationID string
	State        ActivationState
	Files        int
	Failed       int
	Bytes        int64
	StartTime    time.Time
	EndTime      time.Time
	Error        error
}

// Model represents the TUI model
type Model struct {
	spinner  spinner.Model
	progress progress.Model

	source   string
	interval time.Duration

	activations map[string]*ActivationItem
	order       []string

	// Stats
	totalFiles       int
	totalFailed      int
	totalBytes       int64
	sessionStartTime time.Time

	// UI state
	width          int
	height         int
	showHelp       bool
	isPaused       bool
	logMessages    []LogMessage
	maxLogMessages int

	mu sync.RWMutex
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a new TUI model for a watch session over source
func NewModel(source string, interval time.Duration) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accent)

	return &Model{
		spinner:          s,
		progress:         progress.New(progress.WithDefaultGradient()),
		source:           source,
		interval:         interval,
		activations:      make(map[string]*ActivationItem),
		sessionStartTime: time.Now(),
		maxLogMessages:   50,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// AttachControl records a control injected next to permalink
func (m *Model) AttachControl(permalink string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.activations[permalink]; ok {
		return
	}
	m.activations[permalink] = &ActivationItem{
		Permalink: permalink,
		State:     ActivationPending,
	}
	m.order = append(m.order, permalink)
}

// StartActivation marks the activation for permalink as running
func (m *Model) StartActivation(permalink string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := m.itemLocked(permalink)
	item.State = ActivationActive
	item.StartTime = time.Now()
}

// FinishActivation records the result of an activation
func (m *Model) FinishActivation(msg ActivationDoneMsg) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := m.itemLocked(msg.Permalink)
	item.PostID = msg.PostID
	item.ActivationID = msg.ActivationID
	item.Files = msg.Files
	item.Failed = msg.Failed
	item.Bytes = msg.Bytes
	item.Error = msg.Err
	item.EndTime = time.Now()

	switch {
	case msg.Err != nil:
		item.State = ActivationFailed
	case msg.Failed > 0:
		item.State = ActivationPartial
	default:
		item.State = ActivationCompleted
	}

	m.totalFiles += msg.Files
	m.totalFailed += msg.Failed
	m.totalBytes += msg.Bytes
}

func (m *Model) itemLocked(permalink string) *ActivationItem {
	item, ok := m.activations[permalink]
	if !ok {
		item = &ActivationItem{Permalink: permalink}
		m.activations[permalink] = item
		m.order = append(m.order, permalink)
	}
	return item
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	color := dimWhite
	switch level {
	case "ERROR":
		color = red
	case "WARN":
		color = orange
	case "SUCCESS":
		color = green
	case "INFO":
		color = accent
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// IsPaused reports whether automatic activation is suspended
func (m *Model) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isPaused
}

// Items returns the activations in the order their controls were attached
func (m *Model) Items() []ActivationItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.itemsLocked()
}

func (m *Model) itemsLocked() []ActivationItem {
	items := make([]ActivationItem, 0, len(m.order))
	for _, key := range m.order {
		items = append(items, *m.activations[key])
	}
	return items
}

// Counts returns the number of activations per state
func (m *Model) Counts() map[ActivationState]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countsLocked()
}

func (m *Model) countsLocked() map[ActivationState]int {
	counts := make(map[ActivationState]int)
	for _, item := range m.activations {
		counts[item.State]++
	}
	return counts
}
