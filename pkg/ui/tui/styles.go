package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	accent    = lipgloss.Color("#FF8200")
	highlight = lipgloss.Color("#E6162D")
	green     = lipgloss.Color("#39FF14")
	yellow    = lipgloss.Color("#FFD700")
	orange    = lipgloss.Color("#FF6700")
	red       = lipgloss.Color("#FF0000")
	darkBg    = lipgloss.Color("#14161F")
	darkBg2   = lipgloss.Color("#1F2230")
	dimWhite  = lipgloss.Color("#B0B0B0")

	baseStyle = lipgloss.NewStyle().
			Background(darkBg).
			Foreground(dimWhite)

	headerStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Padding(1, 0)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight).
			Background(darkBg2).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Background(highlight).
			Foreground(darkBg).
			Bold(true).
			Padding(0, 1)

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(yellow)

	successStyle = lipgloss.NewStyle().
			Foreground(green).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(red).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(orange).
			Bold(true)

	pendingStyle = lipgloss.NewStyle().
			Foreground(dimWhite).
			Faint(true)

	logTimestampStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666"))

	logMessageStyle = lipgloss.NewStyle().
			Foreground(dimWhite)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(1, 0, 0, 2)
)

// stateStyle returns the style and icon for an activation state
func stateStyle(state ActivationState) (lipgloss.Style, string) {
	switch state {
	case ActivationActive:
		return warningStyle, "↓"
	case ActivationCompleted:
		return successStyle, "✓"
	case ActivationPartial:
		return warningStyle, "!"
	case ActivationFailed:
		return errorStyle, "✗"
	default:
		return pendingStyle, "•"
	}
}
