package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire TUI
func (m *Model) View() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	width := (m.width - 4) / 2

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderActivationsPanel(width),
	)
	right := m.renderLogsPanel(width)

	sections := []string{
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right),
	}

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) renderHeader() string {
	status := m.spinner.View() + " watching"
	if m.isPaused {
		status = warningStyle.Render("⏸  paused")
	}
	return headerStyle.Render(fmt.Sprintf("weibodl • %s • every %s • %s",
		m.source, m.interval, status))
}

func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" SESSION ")
	counts := m.countsLocked()
	finished := counts[ActivationCompleted] + counts[ActivationPartial] + counts[ActivationFailed]

	stats := []string{
		stat("Session Time:", formatDuration(time.Since(m.sessionStartTime))),
		stat("Controls:", fmt.Sprintf("%d attached", len(m.order))),
		stat("Activations:", fmt.Sprintf("%d running, %d finished", counts[ActivationActive], finished)),
		stat("Files:", fmt.Sprintf("%d saved, %d failed", m.totalFiles, m.totalFailed)),
		stat("Total Size:", formatBytes(m.totalBytes)),
	}

	if len(m.order) > 0 {
		bar := m.progress
		bar.Width = width - 8
		stats = append(stats, bar.ViewAs(float64(finished)/float64(len(m.order))))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, stats...)),
	)
}

func stat(label, value string) string {
	return fmt.Sprintf("%s %s", statsLabelStyle.Render(label), statsValueStyle.Render(value))
}

func (m *Model) renderActivationsPanel(width int) string {
	title := titleStyle.Render(" POSTS ")

	items := m.itemsLocked()
	if len(items) == 0 {
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, pendingStyle.Render("No controls attached yet")),
		)
	}

	const shown = 10
	start := len(items) - shown
	if start < 0 {
		start = 0
	}

	var lines []string
	if start > 0 {
		lines = append(lines, pendingStyle.Render(fmt.Sprintf("... %d earlier", start)))
	}
	for _, item := range items[start:] {
		lines = append(lines, renderItem(item, width-6))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, lines...)),
	)
}

func renderItem(item ActivationItem, width int) string {
	style, icon := stateStyle(item.State)

	name := item.PostID
	if name == "" {
		name = item.Permalink
	}

	var detail string
	switch item.State {
	case ActivationCompleted, ActivationPartial:
		detail = fmt.Sprintf("%d files • %s", item.Files, formatBytes(item.Bytes))
		if item.Failed > 0 {
			detail += fmt.Sprintf(" • %d failed", item.Failed)
		}
	case ActivationFailed:
		if item.Error != nil {
			detail = item.Error.Error()
		}
	case ActivationActive:
		detail = formatDuration(time.Since(item.StartTime))
	}

	return style.Render(icon) + " " + logMessageStyle.Render(truncate(name+" "+detail, width-2))
}

func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOG ")

	start := len(m.logMessages) - 15
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		message := truncate(log.Message, width-25)
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, logMessageStyle.Render(message)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = pendingStyle.Render("No logs yet...")
	}

	logsHeight := m.height - 10
	if logsHeight < 5 {
		logsHeight = 5
	}

	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/Q      - Quit
    p/P      - Pause/Resume automatic activation
    ctrl+l   - Clear the log
    ?        - Toggle this help

  Posts:
    ` + successStyle.Render("✓") + `        - All files saved
    ` + warningStyle.Render("!") + `        - Some files failed
    ` + errorStyle.Render("✗") + `        - Activation abandoned
    ` + pendingStyle.Render("•") + `        - Control attached, not activated
`

	return panelStyle.Width(m.width).Render(help)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if limit <= 3 || len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// formatDuration formats a duration as mm:ss or hh:mm:ss
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
