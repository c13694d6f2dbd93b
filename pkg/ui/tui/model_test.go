package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"weibodl/internal/downloader"
	"weibodl/pkg/trigger"
)

const permalink = "https://weibo.com/1234567/Nabc123"

func TestActivationLifecycle(t *testing.T) {
	m := NewModel("home.html", 5*time.Second)

	m.Update(ControlAttachedMsg{Permalink: permalink})
	m.Update(ControlAttachedMsg{Permalink: permalink})
	require.Len(t, m.Items(), 1)
	assert.Equal(t, ActivationPending, m.Items()[0].State)

	m.Update(ActivationStartMsg{Permalink: permalink})
	assert.Equal(t, ActivationActive, m.Items()[0].State)

	m.Update(ActivationDoneMsg{Permalink: permalink, PostID: "Nabc123", Files: 3, Bytes: 4096})
	item := m.Items()[0]
	assert.Equal(t, ActivationCompleted, item.State)
	assert.Equal(t, "Nabc123", item.PostID)
	assert.Equal(t, 3, m.totalFiles)
	assert.Equal(t, int64(4096), m.totalBytes)
}

func TestFailedAndPartialActivations(t *testing.T) {
	m := NewModel("home.html", time.Second)

	m.Update(ActivationDoneMsg{Permalink: "/u/profile", Err: errors.New("no post id")})
	m.Update(ActivationDoneMsg{Permalink: permalink, PostID: "Nabc123", Files: 1, Failed: 2})

	counts := m.Counts()
	assert.Equal(t, 1, counts[ActivationFailed])
	assert.Equal(t, 1, counts[ActivationPartial])
	assert.Equal(t, 2, m.totalFailed)
	assert.Len(t, m.logMessages, 2)
	assert.Equal(t, "ERROR", m.logMessages[0].Level)
}

func TestPauseToggle(t *testing.T) {
	m := NewModel("home.html", time.Second)
	key := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}}

	m.Update(key)
	assert.True(t, m.IsPaused())
	m.Update(key)
	assert.False(t, m.IsPaused())
}

func TestLogMessagesAreBounded(t *testing.T) {
	m := NewModel("home.html", time.Second)
	for i := 0; i < 80; i++ {
		m.AddLogMessage("INFO", "line")
	}
	assert.Len(t, m.logMessages, 50)
}

func TestView(t *testing.T) {
	m := NewModel("home.html", 5*time.Second)
	assert.Equal(t, "Initializing...", m.View())

	m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	m.Update(ControlAttachedMsg{Permalink: permalink})
	m.Update(ActivationDoneMsg{Permalink: permalink, PostID: "Nabc123", Files: 2, Bytes: 2048})

	view := m.View()
	assert.Contains(t, view, "home.html")
	assert.Contains(t, view, "Nabc123")
}

func TestDoneMsg(t *testing.T) {
	outcome := &trigger.Outcome{
		ActivationID: "act-1",
		PostID:       "Nabc123",
		Results: []downloader.Result{
			{Size: 1024},
			{Size: 512},
			{Err: errors.New("forbidden")},
		},
	}

	msg := DoneMsg(permalink, outcome, nil)
	assert.Equal(t, 2, msg.Files)
	assert.Equal(t, 1, msg.Failed)
	assert.Equal(t, int64(1536), msg.Bytes)
	assert.Equal(t, "act-1", msg.ActivationID)

	failed := DoneMsg("/u/profile", nil, errors.New("no post id"))
	assert.Empty(t, failed.PostID)
	assert.Error(t, failed.Err)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:42", formatDuration(42*time.Second))
	assert.Equal(t, "01:02:03", formatDuration(time.Hour+2*time.Minute+3*time.Second))
}
