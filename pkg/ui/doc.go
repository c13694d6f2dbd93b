// Package ui holds the terminal output of weibodl: colors, desktop
// notifications and the watch dashboards. The full screen dashboard lives
// in the tui subpackage.
package ui
