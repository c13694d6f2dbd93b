// Package tui is the full screen dashboard of `weibodl watch --tui`, built
// on bubbletea. It lists every post that received a control and follows its
// activation.
package tui
